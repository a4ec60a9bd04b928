// Package images - Pixel buffer model shared by the JPEG decoder and encoder.
package images

import (
	"fmt"
	"image"
)

// Channels is the number of interleaved samples per pixel (R, G, B).
const Channels = 3

// ImageSize holds the pixel dimensions of an image.
type ImageSize struct {
	// The width of the image in pixels.
	Width int `json:"width" yaml:"width"`
	// The height of the image in pixels.
	Height int `json:"height" yaml:"height"`
}

// Area returns the number of pixels covered by the size.
func (s ImageSize) Area() int {
	return s.Width * s.Height
}

// String renders the size as WxH.
func (s ImageSize) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Validate reports whether both dimensions are non-negative.
func (s ImageSize) Validate() error {
	if s.Width < 0 || s.Height < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSize, s)
	}
	return nil
}

// Image is an interleaved RGB pixel buffer.
//
// Images built with NewImage own a contiguous buffer of exactly
// Width*Height*Channels bytes. Views returned by Crop share the parent's
// buffer and keep the parent's stride, so they are not contiguous unless
// they span whole rows.
type Image struct {
	size   ImageSize
	stride int
	data   []byte
}

// NewImage wraps data as an image of the given size.
//
// Arguments:
//   - size: The pixel dimensions of the image.
//   - data: Interleaved RGB samples, row-major, no row padding.
//
// Returns:
//   - The image, owning data.
//   - ErrInvalidSize if a dimension is negative.
//   - ErrBufferSizeMismatch if len(data) != Width*Height*Channels.
func NewImage(size ImageSize, data []byte) (*Image, error) {
	if err := size.Validate(); err != nil {
		return nil, err
	}

	expected := size.Area() * Channels
	if len(data) != expected {
		return nil, &BufferSizeError{Size: size, Expected: expected, Actual: len(data)}
	}

	return &Image{size: size, stride: size.Width * Channels, data: data}, nil
}

// NewImageZeros allocates a zero-initialized image of the given size.
func NewImageZeros(size ImageSize) (*Image, error) {
	if err := size.Validate(); err != nil {
		return nil, err
	}
	return NewImage(size, make([]byte, size.Area()*Channels))
}

// Size returns the image dimensions.
func (img *Image) Size() ImageSize { return img.size }

// Width returns the image width in pixels.
func (img *Image) Width() int { return img.size.Width }

// Height returns the image height in pixels.
func (img *Image) Height() int { return img.size.Height }

// NumChannels returns the number of interleaved channels.
func (img *Image) NumChannels() int { return Channels }

// Stride returns the distance in bytes between the starts of two rows.
func (img *Image) Stride() int { return img.stride }

// Data returns the backing buffer. For a non-contiguous view this spans
// the first byte of the first row to the last byte of the last row,
// including the bytes of the parent that fall between rows.
func (img *Image) Data() []byte { return img.data }

// Row returns the samples of row y, without padding.
func (img *Image) Row(y int) []byte {
	start := y * img.stride
	return img.data[start : start+img.size.Width*Channels]
}

// IsContiguous reports whether the pixels occupy one unbroken region of
// exactly Height*Width*Channels bytes with pitch Width*Channels.
func (img *Image) IsContiguous() bool {
	pitch := img.size.Width * Channels
	if img.size.Height == 0 || pitch == 0 {
		return len(img.data) == 0
	}
	return img.stride == pitch && len(img.data) == img.size.Height*pitch
}

// Crop returns a view of the pixels inside r. The view shares memory with
// img; writes through either are visible in both.
//
// Arguments:
//   - r: The region to view, in pixel coordinates of img.
//
// Returns:
//   - The view, or ErrOutOfBounds if r is not inside the image.
func (img *Image) Crop(r image.Rectangle) (*Image, error) {
	bounds := image.Rect(0, 0, img.size.Width, img.size.Height)
	if !r.In(bounds) {
		return nil, fmt.Errorf("%w: %v not in %v", ErrOutOfBounds, r, bounds)
	}

	size := ImageSize{Width: r.Dx(), Height: r.Dy()}
	if size.Area() == 0 {
		return &Image{size: size, stride: img.stride}, nil
	}

	start := r.Min.Y*img.stride + r.Min.X*Channels
	end := (r.Max.Y-1)*img.stride + r.Max.X*Channels

	return &Image{size: size, stride: img.stride, data: img.data[start:end:end]}, nil
}

// Clone returns a contiguous deep copy of img.
func (img *Image) Clone() *Image {
	pitch := img.size.Width * Channels
	data := make([]byte, img.size.Height*pitch)
	for y := 0; y < img.size.Height; y++ {
		copy(data[y*pitch:(y+1)*pitch], img.Row(y))
	}
	return &Image{size: img.size, stride: pitch, data: data}
}

// Compact returns img unchanged when it is already contiguous, and a
// contiguous copy otherwise.
func (img *Image) Compact() *Image {
	if img.IsContiguous() {
		return img
	}
	return img.Clone()
}
