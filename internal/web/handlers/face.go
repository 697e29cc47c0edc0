package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/facetrace/facetrace/internal/database"
	"github.com/facetrace/facetrace/internal/facematch"
	"github.com/facetrace/facetrace/internal/imaging"
	"github.com/facetrace/facetrace/internal/pipeline"
)

// FaceHandler handles face registration and search requests.
type FaceHandler struct {
	pipe    *pipeline.FacePipeline
	catalog database.Catalog
}

// NewFaceHandler creates a new face handler.
func NewFaceHandler(pipe *pipeline.FacePipeline, catalog database.Catalog) *FaceHandler {
	return &FaceHandler{
		pipe:    pipe,
		catalog: catalog,
	}
}

// Register handles POST /face/register. The multipart body carries the
// image under "file"; "user_id" is optional and generated when absent.
// Undecodable images get 400, images without a face 422.
func (h *FaceHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID, imageData, ok := h.parseFaceRequest(w, r)
	if !ok {
		return
	}

	emb, err := h.pipe.EmbedFace(r.Context(), imageData)
	if err != nil {
		h.respondPipelineError(w, err)
		return
	}

	rec := database.IdentityRecord{
		UserID:      userID,
		DisplayName: r.FormValue("display_name"),
		Embedding:   emb,
		Dim:         h.pipe.Dim(),
	}
	if err := h.catalog.UpsertIdentity(r.Context(), rec); err != nil {
		log.Printf("failed to store identity %s: %v", sanitizeForLog(userID), err)
		respondError(w, http.StatusInternalServerError, "failed to store identity")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"user_id": userID,
	})
}

// Search handles POST /face/search. Returns the top_k closest registered
// identities for the face in the uploaded image, best first.
func (h *FaceHandler) Search(w http.ResponseWriter, r *http.Request) {
	topK := database.DefaultTopK
	if v := r.FormValue("top_k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "top_k must be a positive integer")
			return
		}
		topK = n
	}

	imageData, ok := h.readImageFile(w, r)
	if !ok {
		return
	}

	emb, err := h.pipe.EmbedFace(r.Context(), imageData)
	if err != nil {
		h.respondPipelineError(w, err)
		return
	}

	matches, err := h.catalog.Rank(r.Context(), emb, topK)
	if err != nil {
		log.Printf("failed to rank identities: %v", err)
		respondError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if matches == nil {
		matches = []database.Match{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"matches": matches,
	})
}

// parseFaceRequest extracts the user id and image bytes from a register
// request. Responds with an error and returns ok=false on failure.
func (h *FaceHandler) parseFaceRequest(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	imageData, ok := h.readImageFile(w, r)
	if !ok {
		return "", nil, false
	}

	userID := r.FormValue("user_id")
	if userID == "" {
		userID = uuid.NewString()
	} else if _, err := uuid.Parse(userID); err != nil {
		respondError(w, http.StatusBadRequest, "user_id must be a valid UUID")
		return "", nil, false
	}

	return userID, imageData, true
}

// readImageFile reads the uploaded image from the "file" form field.
func (h *FaceHandler) readImageFile(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return nil, false
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return nil, false
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read file")
		return nil, false
	}
	return imageData, true
}

// respondPipelineError maps pipeline failures to HTTP statuses: broken
// images are the client's fault, a missing face is unprocessable and
// everything else is on us.
func (h *FaceHandler) respondPipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, imaging.ErrDecode):
		respondError(w, http.StatusBadRequest, "cannot decode image")
	case errors.Is(err, facematch.ErrNoFace):
		respondError(w, http.StatusUnprocessableEntity, "no face detected in image")
	default:
		log.Printf("face pipeline error: %v", err)
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("processing failed: %v", err))
	}
}
