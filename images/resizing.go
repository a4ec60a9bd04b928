package images

import (
	"fmt"

	"github.com/nfnt/resize"
)

// ResampleFilter defines the resampling algorithm used for image scaling.
type ResampleFilter int

const (
	// NearestNeighborFilter uses nearest-neighbor interpolation (fastest, lowest quality).
	NearestNeighborFilter ResampleFilter = iota
	// BilinearFilter uses bilinear interpolation (fast, good quality).
	BilinearFilter
	// BicubicFilter uses bicubic interpolation (slower, better quality).
	BicubicFilter
	// LanczosFilter uses Lanczos resampling with a=3 (slowest, best quality).
	LanczosFilter
	// MitchellNetravaliFilter uses Mitchell-Netravali cubic filter (balanced).
	MitchellNetravaliFilter
)

// interpolation maps each filter to its nfnt/resize implementation.
var interpolation = map[ResampleFilter]resize.InterpolationFunction{
	NearestNeighborFilter:   resize.NearestNeighbor,
	BilinearFilter:          resize.Bilinear,
	BicubicFilter:           resize.Bicubic,
	LanczosFilter:           resize.Lanczos3,
	MitchellNetravaliFilter: resize.MitchellNetravali,
}

// String returns the filter name.
func (f ResampleFilter) String() string {
	switch f {
	case NearestNeighborFilter:
		return "nearest"
	case BilinearFilter:
		return "bilinear"
	case BicubicFilter:
		return "bicubic"
	case LanczosFilter:
		return "lanczos"
	case MitchellNetravaliFilter:
		return "mitchell"
	default:
		return "unknown"
	}
}

// Resize scales the image to size using the given filter. The source is
// left untouched; the result is a new contiguous image.
//
// Arguments:
//   - size: The target dimensions. Both must be positive.
//   - filter: The resampling filter to use for interpolation.
//
// Returns:
//   - The resized image.
//   - An error if the target size is empty or the filter is unknown.
//
// @example
// thumb, err := img.Resize(images.ImageSize{Width: 160, Height: 120}, images.BilinearFilter)
func (img *Image) Resize(size ImageSize, filter ResampleFilter) (*Image, error) {
	if size.Width <= 0 || size.Height <= 0 {
		return nil, fmt.Errorf("%w: resize target %s", ErrInvalidSize, size)
	}

	interp, ok := interpolation[filter]
	if !ok {
		return nil, fmt.Errorf("unsupported resample filter: %d", filter)
	}

	// Identity resize still returns a copy so callers never alias the source.
	if size == img.size {
		return img.Clone(), nil
	}

	scaled := resize.Resize(uint(size.Width), uint(size.Height), img.ToRGBA(), interp)
	return FromImage(scaled), nil
}
