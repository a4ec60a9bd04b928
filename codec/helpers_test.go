package codec

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/garyhouston/jpegsegs"
	"github.com/stretchr/testify/require"
)

// Dimensions of the fixture image used throughout the codec tests.
const (
	fixtureWidth  = 258
	fixtureHeight = 195
)

// fixtureImage builds a smooth RGB gradient.
func fixtureImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 255 / width),
				G: uint8(y * 255 / height),
				B: uint8((x + y) * 255 / (width + height)),
				A: 255,
			})
		}
	}
	return img
}

// fixtureJPEG encodes src with image/jpeg.
func fixtureJPEG(t testing.TB, src image.Image, quality int) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, src, &jpeg.Options{Quality: quality}))
	return buf.Bytes()
}

// frameEnd returns the offset just past the SOF0 segment of data.
func frameEnd(t testing.TB, data []byte) int {
	t.Helper()

	idx := bytes.Index(data, []byte{0xFF, jpegsegs.SOF0})
	require.Positive(t, idx, "fixture must carry a baseline frame header")
	return idx + 2 + int(binary.BigEndian.Uint16(data[idx+2:]))
}

// rgbBuffer allocates a tightly packed RGB buffer.
func rgbBuffer(width, height int) Buffer {
	return Buffer{
		Pixels: make([]byte, width*height*3),
		Width:  width,
		Pitch:  width * 3,
		Height: height,
		Format: PixelFormatRGB,
	}
}

// bufferFrom copies an RGBA image into a packed RGB Buffer.
func bufferFrom(src *image.RGBA) Buffer {
	b := src.Bounds()
	buf := rgbBuffer(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := src.RGBAAt(x, y)
			i := y*buf.Pitch + x*3
			buf.Pixels[i], buf.Pixels[i+1], buf.Pixels[i+2] = c.R, c.G, c.B
		}
	}
	return buf
}
