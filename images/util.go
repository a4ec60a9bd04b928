package images

import (
	"crypto/md5"
	"fmt"

	"github.com/chewxy/math32"
)

// Checksum generates a deterministic checksum of the pixel rows. Row
// padding of non-contiguous views is excluded, so a view and its Clone
// hash the same.
//
// Returns:
//   - A hex-encoded MD5 checksum string, or "empty" for a zero-area image.
//
// Example:
//
// ```go
//
//	checksum := img.Checksum()
//	fmt.Printf("Frame checksum: %s\n", checksum)
//
// ```
func (img *Image) Checksum() string {
	if img.size.Area() == 0 {
		return "empty"
	}

	hash := md5.New()
	for y := 0; y < img.size.Height; y++ {
		hash.Write(img.Row(y))
	}
	return fmt.Sprintf("%x", hash.Sum(nil))
}

// PSNR computes the peak signal-to-noise ratio between two images of the
// same size, in decibels. Identical images yield +Inf.
//
// Arguments:
//   - a, b: The images to compare.
//
// Returns:
//   - The PSNR in dB.
//   - ErrSizeMismatch if the sizes differ, ErrInvalidSize if they are empty.
func PSNR(a, b *Image) (float32, error) {
	if a.size != b.size {
		return 0, fmt.Errorf("%w: %s vs %s", ErrSizeMismatch, a.size, b.size)
	}
	if a.size.Area() == 0 {
		return 0, fmt.Errorf("%w: empty image", ErrInvalidSize)
	}

	var sum float64
	for y := 0; y < a.size.Height; y++ {
		ra, rb := a.Row(y), b.Row(y)
		for i := range ra {
			d := float64(ra[i]) - float64(rb[i])
			sum += d * d
		}
	}

	mse := float32(sum / float64(a.size.Area()*Channels))
	if mse == 0 {
		return math32.Inf(1), nil
	}
	return 10 * math32.Log10(255*255/mse), nil
}
