// Package embedding wraps the face detection and embedding capability.
// The model is opaque to the rest of the system: an image goes in, a list
// of detected faces with raw embedding vectors comes out.
package embedding

import (
	"context"

	"github.com/facetrace/facetrace/internal/facematch"
)

// Detector detects faces in an encoded image and computes an embedding
// for each. Implementations must be safe for concurrent use: the serve
// command constructs one Detector at startup and shares it across
// requests.
type Detector interface {
	DetectFaces(ctx context.Context, imageData []byte) ([]facematch.DetectedFace, error)
}
