// Package codec defines the native JPEG codec capability used by the jpeg
// package, and the backends that provide it.
//
// A backend hands out Decompressor and Compressor handles. Handles are not
// safe for concurrent use; callers serialize access to each handle.
package codec

import (
	"fmt"
)

// DefaultQuality is the quality a new Compressor starts with.
const DefaultQuality = 95

// Quality bounds accepted by every Compressor.
const (
	MinQuality = 1
	MaxQuality = 100
)

// MaxDimension is the largest width or height a baseline JPEG frame header can carry.
const MaxDimension = 65535

// PixelFormat identifies the memory layout of a raw pixel buffer.
type PixelFormat int

const (
	// PixelFormatRGB is interleaved 8-bit R, G, B.
	PixelFormatRGB PixelFormat = iota
)

// Size returns the number of bytes per pixel.
func (f PixelFormat) Size() int {
	switch f {
	case PixelFormatRGB:
		return 3
	default:
		return 0
	}
}

// String returns the format name.
func (f PixelFormat) String() string {
	switch f {
	case PixelFormatRGB:
		return "rgb"
	default:
		return fmt.Sprintf("PixelFormat(%d)", int(f))
	}
}

// Header describes a JPEG frame as read from its SOF segment.
type Header struct {
	Width       int
	Height      int
	Components  int
	Precision   int
	Progressive bool
}

// Buffer is a transient descriptor of a caller-owned pixel buffer. It never
// copies Pixels.
type Buffer struct {
	Pixels []byte
	Width  int
	Pitch  int
	Height int
	Format PixelFormat
}

// Validate checks the descriptor against the memory it references.
func (b Buffer) Validate() error {
	bpp := b.Format.Size()
	if bpp == 0 {
		return fmt.Errorf("%w: %v", ErrUnsupportedPixelFormat, b.Format)
	}
	if b.Width <= 0 || b.Height <= 0 || b.Width > MaxDimension || b.Height > MaxDimension {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, b.Width, b.Height)
	}
	if b.Pitch < b.Width*bpp {
		return fmt.Errorf("%w: pitch %d below row size %d", ErrInvalidPitch, b.Pitch, b.Width*bpp)
	}
	if need := (b.Height-1)*b.Pitch + b.Width*bpp; len(b.Pixels) < need {
		return fmt.Errorf("%w: need %d bytes, got %d", ErrBufferTooSmall, need, len(b.Pixels))
	}
	return nil
}

// row returns the samples of row y without padding.
func (b Buffer) row(y int) []byte {
	start := y * b.Pitch
	return b.Pixels[start : start+b.Width*b.Format.Size()]
}

// Decompressor reads JPEG streams into raw buffers.
type Decompressor interface {
	// ReadHeader parses the stream header without touching entropy-coded data.
	ReadHeader(data []byte) (Header, error)

	// Decompress decodes data into dst. dst must match the header dimensions.
	Decompress(data []byte, dst Buffer) error
}

// Compressor writes raw buffers as JPEG streams.
type Compressor interface {
	// SetQuality sets the quality used by subsequent Compress calls.
	// Values outside MinQuality..MaxQuality are rejected with ErrInvalidQuality.
	SetQuality(quality int) error

	// Quality returns the current quality.
	Quality() int

	// Compress encodes src and returns a freshly allocated JPEG stream.
	Compress(src Buffer) ([]byte, error)
}

// Backend creates codec handles.
type Backend interface {
	// Name returns the registry key of the backend.
	Name() string

	// NewDecompressor allocates a fresh decompression handle.
	NewDecompressor() (Decompressor, error)

	// NewCompressor allocates a fresh compression handle at DefaultQuality.
	NewCompressor() (Compressor, error)
}

// checkQuality is shared by the built-in compressors.
func checkQuality(quality int) error {
	if quality < MinQuality || quality > MaxQuality {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidQuality, quality, MinQuality, MaxQuality)
	}
	return nil
}
