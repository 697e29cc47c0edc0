// Package pipeline composes image decoding, face detection and embedding
// normalization into the single path both the register/search API and the
// batch ingestor run every picture through.
package pipeline

import (
	"context"
	"fmt"

	"github.com/facetrace/facetrace/internal/embedding"
	"github.com/facetrace/facetrace/internal/facematch"
	"github.com/facetrace/facetrace/internal/imaging"
)

// FacePipeline turns raw image bytes into a single unit-length embedding.
type FacePipeline struct {
	detector embedding.Detector
	dim      int
}

// New creates a face pipeline over the given detector. dim is the
// embedding dimensionality the catalog stores.
func New(detector embedding.Detector, dim int) *FacePipeline {
	return &FacePipeline{
		detector: detector,
		dim:      dim,
	}
}

// Dim returns the embedding dimensionality this pipeline produces.
func (p *FacePipeline) Dim() int {
	return p.dim
}

// EmbedFace produces the canonical embedding for the image: the bytes are
// decoded, faces detected, the largest face picked and its embedding
// normalized to unit length. The same image always yields the same vector.
//
// Callers distinguish failure modes with errors.Is against
// imaging.ErrDecode and facematch.ErrNoFace.
func (p *FacePipeline) EmbedFace(ctx context.Context, imageData []byte) ([]float32, error) {
	if _, err := imaging.Decode(imageData); err != nil {
		return nil, err
	}

	faces, err := p.detector.DetectFaces(ctx, imageData)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	face, err := facematch.SelectCanonical(faces)
	if err != nil {
		return nil, err
	}

	emb, err := facematch.Normalize(face.Embedding, p.dim)
	if err != nil {
		return nil, fmt.Errorf("normalize embedding: %w", err)
	}
	return emb, nil
}
