//go:build cgo && !no_opencv

package codec

import (
	"fmt"

	"gocv.io/x/gocv"
)

// OpenCVName is the registry key of the OpenCV backend.
const OpenCVName = "opencv"

// opencvBackend implements Backend with OpenCV's imgcodecs (libjpeg-turbo
// in most builds) through gocv.
type opencvBackend struct{}

// OpenCV returns the gocv-based backend.
func OpenCV() Backend { return opencvBackend{} }

func init() {
	Register(OpenCV())
}

func (opencvBackend) Name() string { return OpenCVName }

func (opencvBackend) NewDecompressor() (Decompressor, error) {
	return &opencvDecompressor{flags: gocv.IMReadColor | gocv.IMReadIgnoreOrientation}, nil
}

func (opencvBackend) NewCompressor() (Compressor, error) {
	return &opencvCompressor{quality: DefaultQuality}, nil
}

type opencvDecompressor struct {
	flags gocv.IMReadFlag
}

func (d *opencvDecompressor) ReadHeader(data []byte) (Header, error) {
	return ScanHeader(data)
}

// Decompress decodes data with gocv.IMDecode and copies the RGB-converted
// rows into dst.
func (d *opencvDecompressor) Decompress(data []byte, dst Buffer) error {
	if err := dst.Validate(); err != nil {
		return err
	}

	// libjpeg pads truncated scans with gray instead of failing.
	if err := CheckComplete(data); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptData, err)
	}

	bgr, err := gocv.IMDecode(data, d.flags)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptData, err)
	}
	defer bgr.Close()

	if bgr.Empty() {
		return fmt.Errorf("%w: decoder returned no pixels", ErrCorruptData)
	}
	if bgr.Cols() != dst.Width || bgr.Rows() != dst.Height {
		return fmt.Errorf("%w: decoded %dx%d into %dx%d", ErrDimensionMismatch, bgr.Cols(), bgr.Rows(), dst.Width, dst.Height)
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(bgr, &rgb, gocv.ColorBGRToRGB)

	pixels, err := rgb.DataPtrUint8()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptData, err)
	}

	rowBytes := dst.Width * 3
	for y := 0; y < dst.Height; y++ {
		copy(dst.row(y), pixels[y*rowBytes:(y+1)*rowBytes])
	}
	return nil
}

type opencvCompressor struct {
	quality int
}

func (c *opencvCompressor) SetQuality(quality int) error {
	if err := checkQuality(quality); err != nil {
		return err
	}
	c.quality = quality
	return nil
}

func (c *opencvCompressor) Quality() int { return c.quality }

// Compress wraps src in a Mat, converts it to OpenCV's BGR order and
// encodes it with gocv.IMEncodeWithParams.
func (c *opencvCompressor) Compress(src Buffer) ([]byte, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}

	rowBytes := src.Width * 3
	pixels := src.Pixels[:src.Height*rowBytes]
	if src.Pitch != rowBytes {
		// Mats built from bytes must be tightly packed.
		pixels = make([]byte, src.Height*rowBytes)
		for y := 0; y < src.Height; y++ {
			copy(pixels[y*rowBytes:], src.row(y))
		}
	}

	rgb, err := gocv.NewMatFromBytes(src.Height, src.Width, gocv.MatTypeCV8UC3, pixels)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompressFailed, err)
	}
	defer rgb.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(rgb, &bgr, gocv.ColorRGBToBGR)

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, bgr, []int{int(gocv.IMWriteJpegQuality), c.quality})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompressFailed, err)
	}
	defer buf.Close()

	// The native buffer is freed on Close.
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
