package mjpeg

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestJPEGDecoder_Resizes(t *testing.T) {
	t.Parallel()

	d := NewJPEGDecoder(64, 48)
	img, err := d.Decode(testJPEG(t, 32, 32))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())
}

func TestJPEGDecoder_Defaults(t *testing.T) {
	t.Parallel()

	d := NewJPEGDecoder(0, 0)
	assert.Equal(t, uint(DefaultWidth), d.Width)
	assert.Equal(t, uint(DefaultHeight), d.Height)
}

func TestJPEGDecoder_BadFrame(t *testing.T) {
	t.Parallel()

	_, err := NewJPEGDecoder(0, 0).Decode(frame("not a jpeg"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode jpeg")
}

func TestJPEGDecoder_ExtractedFrame(t *testing.T) {
	t.Parallel()

	e := NewExtractor(0)
	e.Feed([]byte("--frame\r\nContent-Type: image/jpeg\r\n\r\n"))
	e.Feed(testJPEG(t, 16, 16))

	f := e.Next()
	require.NotNil(t, f)

	img, err := NewJPEGDecoder(16, 16).Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
}
