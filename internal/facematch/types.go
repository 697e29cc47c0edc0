// Package facematch provides the face selection and embedding
// normalization logic shared between the web handlers and the batch
// ingestion pipeline.
package facematch

// DetectedFace is a single face reported by the detector for one image.
// It is transient: it exists only while an image is being processed and
// is never persisted.
type DetectedFace struct {
	BBox      []float64 // [x1, y1, x2, y2] in pixel coordinates
	Embedding []float32 // raw embedding from the detector
	DetScore  float64
}

// Area returns the bounding-box area of the face. Malformed or inverted
// boxes yield a non-positive area and lose against any real box.
func (f *DetectedFace) Area() float64 {
	if len(f.BBox) != 4 {
		return 0
	}
	return (f.BBox[2] - f.BBox[0]) * (f.BBox[3] - f.BBox[1])
}
