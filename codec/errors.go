package codec

import "errors"

// Codec errors
var (
	ErrInvalidHeader          = errors.New("invalid JPEG header")
	ErrTruncated              = errors.New("truncated JPEG stream")
	ErrUnsupportedFormat      = errors.New("unsupported JPEG format")
	ErrCorruptData            = errors.New("corrupt JPEG data")
	ErrDimensionMismatch      = errors.New("buffer dimensions do not match JPEG header")
	ErrInvalidDimensions      = errors.New("invalid image dimensions")
	ErrInvalidPitch           = errors.New("invalid row pitch")
	ErrBufferTooSmall         = errors.New("buffer too small")
	ErrUnsupportedPixelFormat = errors.New("unsupported pixel format")
	ErrInvalidQuality         = errors.New("invalid quality factor")
	ErrCompressFailed         = errors.New("JPEG compression failed")
	ErrBackendNotFound        = errors.New("codec backend not found")
)
