package images

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSize is returned when a dimension is negative.
	ErrInvalidSize = errors.New("invalid image size")
	// ErrBufferSizeMismatch is returned when a pixel buffer does not match the declared size.
	ErrBufferSizeMismatch = errors.New("pixel buffer size does not match image size")
	// ErrOutOfBounds is returned when a region falls outside the image.
	ErrOutOfBounds = errors.New("region out of bounds")
	// ErrSizeMismatch is returned when two images that must match differ in size.
	ErrSizeMismatch = errors.New("image sizes differ")
)

// BufferSizeError reports a pixel buffer whose length disagrees with the
// image dimensions.
type BufferSizeError struct {
	Size     ImageSize
	Expected int
	Actual   int
}

func (e *BufferSizeError) Error() string {
	return fmt.Sprintf("%v: %s needs %d bytes, got %d", ErrBufferSizeMismatch, e.Size, e.Expected, e.Actual)
}

// Unwrap lets errors.Is match ErrBufferSizeMismatch.
func (e *BufferSizeError) Unwrap() error {
	return ErrBufferSizeMismatch
}
