package images

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gradient builds a deterministic test image whose pixels encode their position.
func gradient(t *testing.T, width, height int) *Image {
	t.Helper()

	img, err := NewImageZeros(ImageSize{Width: width, Height: height})
	require.NoError(t, err)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x + y), A: 255})
		}
	}
	return img
}

func TestNewImage(t *testing.T) {
	tests := []struct {
		name    string
		size    ImageSize
		length  int
		wantErr error
	}{
		{name: "valid", size: ImageSize{Width: 4, Height: 2}, length: 24},
		{name: "empty", size: ImageSize{}, length: 0},
		{name: "short_buffer", size: ImageSize{Width: 4, Height: 2}, length: 23, wantErr: ErrBufferSizeMismatch},
		{name: "long_buffer", size: ImageSize{Width: 4, Height: 2}, length: 25, wantErr: ErrBufferSizeMismatch},
		{name: "negative_width", size: ImageSize{Width: -1, Height: 2}, length: 0, wantErr: ErrInvalidSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := NewImage(tt.size, make([]byte, tt.length))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, img)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.size, img.Size())
			assert.Equal(t, 3, img.NumChannels())
			assert.Equal(t, tt.size.Width*3, img.Stride())
			assert.True(t, img.IsContiguous())
		})
	}
}

func TestBufferSizeErrorDetails(t *testing.T) {
	_, err := NewImage(ImageSize{Width: 2, Height: 2}, make([]byte, 5))

	var sizeErr *BufferSizeError
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, 12, sizeErr.Expected)
	assert.Equal(t, 5, sizeErr.Actual)
	assert.Contains(t, err.Error(), "2x2")
}

func TestCrop(t *testing.T) {
	img := gradient(t, 8, 6)

	t.Run("inner_region_is_not_contiguous", func(t *testing.T) {
		view, err := img.Crop(image.Rect(2, 1, 5, 4))
		require.NoError(t, err)

		assert.Equal(t, ImageSize{Width: 3, Height: 3}, view.Size())
		assert.Equal(t, img.Stride(), view.Stride())
		assert.False(t, view.IsContiguous())
		assert.Equal(t, img.RGBAt(2, 1), view.RGBAt(0, 0))
		assert.Equal(t, img.RGBAt(4, 3), view.RGBAt(2, 2))
	})

	t.Run("full_rows_are_contiguous", func(t *testing.T) {
		view, err := img.Crop(image.Rect(0, 2, 8, 4))
		require.NoError(t, err)
		assert.True(t, view.IsContiguous())
		assert.Len(t, view.Data(), 2*8*3)
	})

	t.Run("writes_are_shared", func(t *testing.T) {
		view, err := img.Crop(image.Rect(1, 1, 3, 3))
		require.NoError(t, err)

		view.Set(0, 0, color.RGBA{R: 9, G: 8, B: 7, A: 255})
		assert.Equal(t, color.RGBA{R: 9, G: 8, B: 7, A: 255}, img.RGBAt(1, 1))
	})

	t.Run("out_of_bounds", func(t *testing.T) {
		_, err := img.Crop(image.Rect(4, 4, 9, 6))
		assert.ErrorIs(t, err, ErrOutOfBounds)
	})

	t.Run("empty_region", func(t *testing.T) {
		view, err := img.Crop(image.Rect(3, 3, 3, 5))
		require.NoError(t, err)
		assert.Equal(t, 0, view.Size().Area())
		assert.True(t, view.IsContiguous())
	})
}

func TestCloneAndCompact(t *testing.T) {
	img := gradient(t, 8, 6)
	view, err := img.Crop(image.Rect(2, 1, 6, 5))
	require.NoError(t, err)

	clone := view.Clone()
	assert.True(t, clone.IsContiguous())
	assert.Equal(t, view.Size(), clone.Size())
	assert.Equal(t, view.Checksum(), clone.Checksum())

	compact := view.Compact()
	assert.True(t, compact.IsContiguous())

	// Contiguous images are returned as-is.
	assert.Same(t, img, img.Compact())

	// Clones own their memory.
	clone.Set(0, 0, color.Black)
	assert.NotEqual(t, clone.RGBAt(0, 0), view.RGBAt(0, 0))
}

func TestStdlibConversion(t *testing.T) {
	img := gradient(t, 5, 4)

	rgba := img.ToRGBA()
	assert.Equal(t, image.Rect(0, 0, 5, 4), rgba.Bounds())
	assert.Equal(t, color.RGBA{R: 3, G: 2, B: 5, A: 255}, rgba.RGBAAt(3, 2))

	back := FromImage(rgba)
	assert.Equal(t, img.Checksum(), back.Checksum())

	// Non-RGBA sources go through draw.
	gray := image.NewGray(image.Rect(10, 10, 12, 11))
	gray.SetGray(11, 10, color.Gray{Y: 200})
	converted := FromImage(gray)
	assert.Equal(t, ImageSize{Width: 2, Height: 1}, converted.Size())
	assert.Equal(t, color.RGBA{R: 200, G: 200, B: 200, A: 255}, converted.RGBAt(1, 0))
}

func TestChecksum(t *testing.T) {
	a := gradient(t, 4, 4)
	b := gradient(t, 4, 4)
	assert.Equal(t, a.Checksum(), b.Checksum())

	b.Set(3, 3, color.White)
	assert.NotEqual(t, a.Checksum(), b.Checksum())

	empty, err := NewImageZeros(ImageSize{})
	require.NoError(t, err)
	assert.Equal(t, "empty", empty.Checksum())
}

func TestPSNR(t *testing.T) {
	a := gradient(t, 16, 16)

	same, err := PSNR(a, a.Clone())
	require.NoError(t, err)
	assert.True(t, same > 1000, "identical images should have infinite PSNR")

	noisy := a.Clone()
	for x := 0; x < 16; x++ {
		c := noisy.RGBAt(x, 0)
		noisy.Set(x, 0, color.RGBA{R: c.R ^ 0x10, G: c.G, B: c.B, A: 255})
	}
	score, err := PSNR(a, noisy)
	require.NoError(t, err)
	assert.Greater(t, score, float32(20))
	assert.Less(t, score, float32(100))

	_, err = PSNR(a, gradient(t, 8, 8))
	assert.ErrorIs(t, err, ErrSizeMismatch)
}
