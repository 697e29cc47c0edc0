package cmd

import (
	"errors"
	"fmt"

	"github.com/facetrace/facetrace/internal/config"
	"github.com/facetrace/facetrace/internal/database/postgres"
	"github.com/facetrace/facetrace/internal/embedding"
	"github.com/facetrace/facetrace/internal/pipeline"
)

// connectDatabase initializes the PostgreSQL pool and runs migrations.
func connectDatabase(cfg *config.Config) (*postgres.Pool, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	if err := postgres.Initialize(&cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	return postgres.GetGlobalPool(), nil
}

// newFacePipeline wires the embedding service client into a face pipeline.
func newFacePipeline(cfg *config.Config) *pipeline.FacePipeline {
	client := embedding.NewClient(cfg.Embedding.URL, cfg.Embedding.Dim)
	return pipeline.New(client, cfg.Embedding.Dim)
}
