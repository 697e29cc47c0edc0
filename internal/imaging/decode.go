// Package imaging turns raw byte payloads into in-memory pixel grids.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrDecode marks input that does not parse as a supported image encoding.
// Callers use this to distinguish a bad upload from a downstream failure.
var ErrDecode = errors.New("cannot decode image")

// Decode parses raw bytes into an image. Supported encodings: JPEG, PNG,
// GIF, BMP and WebP. Empty or truncated input fails with ErrDecode.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return img, nil
}
