package facematch

import "errors"

// ErrNoFace means the detector found no usable face in a valid image.
// Callers must keep this distinct from a decode failure: the image was
// fine, there is just nobody in it.
var ErrNoFace = errors.New("no face detected in the image")

// SelectCanonical picks the single face that represents an image when the
// detector reports more than one: the face with the largest bounding-box
// area wins, ties go to the first-encountered face (stable).
func SelectCanonical(faces []DetectedFace) (DetectedFace, error) {
	if len(faces) == 0 {
		return DetectedFace{}, ErrNoFace
	}

	best := 0
	bestArea := faces[0].Area()
	for i := 1; i < len(faces); i++ {
		if area := faces[i].Area(); area > bestArea {
			best = i
			bestArea = area
		}
	}

	return faces[best], nil
}
