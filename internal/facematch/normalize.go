package facematch

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerateVector means an embedding could not be normalized because
// its norm is zero or non-finite. This is an internal fault of the
// embedding capability, never the caller's.
var ErrDegenerateVector = errors.New("degenerate embedding vector")

// Normalize re-normalizes a raw embedding to unit L2 norm so that dot
// product equals cosine similarity. The upstream detector already emits
// unit vectors by convention, but that convention is not trusted here.
func Normalize(raw []float32, dim int) ([]float32, error) {
	if len(raw) != dim {
		return nil, fmt.Errorf("%w: got %d components, want %d", ErrDegenerateVector, len(raw), dim)
	}

	var sum float64
	for _, v := range raw {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: non-finite component", ErrDegenerateVector)
		}
		sum += f * f
	}

	norm := math.Sqrt(sum)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, fmt.Errorf("%w: zero norm", ErrDegenerateVector)
	}

	unit := make([]float32, len(raw))
	for i, v := range raw {
		unit[i] = float32(float64(v) / norm)
	}
	return unit, nil
}
