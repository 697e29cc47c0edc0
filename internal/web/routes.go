package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/facetrace/facetrace/internal/database"
	"github.com/facetrace/facetrace/internal/pipeline"
	"github.com/facetrace/facetrace/internal/web/handlers"
)

func (s *Server) setupRoutes(pipe *pipeline.FacePipeline, catalog database.Catalog) {
	faceHandler := handlers.NewFaceHandler(pipe, catalog)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/face/register", faceHandler.Register)
		r.Post("/face/search", faceHandler.Search)
	})
}
