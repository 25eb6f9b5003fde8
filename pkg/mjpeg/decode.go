package mjpeg

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/nfnt/resize"
)

// Default output resolution of decoded frames.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// JPEGDecoder decodes extracted frames and scales them to a fixed size.
type JPEGDecoder struct {
	Width  uint
	Height uint
	Interp resize.InterpolationFunction
}

// NewJPEGDecoder returns a decoder producing width x height images. Zero
// dimensions fall back to the defaults.
func NewJPEGDecoder(width, height int) *JPEGDecoder {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &JPEGDecoder{
		Width:  uint(width),
		Height: uint(height),
		Interp: resize.Bilinear,
	}
}

// Decode decodes one JPEG frame and resizes it to the decoder's resolution.
func (d *JPEGDecoder) Decode(frame []byte) (image.Image, error) {
	img, err := jpeg.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("decode jpeg: %w", err)
	}
	b := img.Bounds()
	if uint(b.Dx()) == d.Width && uint(b.Dy()) == d.Height {
		return img, nil
	}
	return resize.Resize(d.Width, d.Height, img, d.Interp), nil
}
