package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
)

// StdlibName is the registry key of the pure Go backend.
const StdlibName = "stdlib"

// stdlibBackend implements Backend on top of image/jpeg. It needs no cgo
// and is always registered.
type stdlibBackend struct{}

// Stdlib returns the pure Go backend.
func Stdlib() Backend { return stdlibBackend{} }

func init() {
	Register(Stdlib())
}

func (stdlibBackend) Name() string { return StdlibName }

func (stdlibBackend) NewDecompressor() (Decompressor, error) {
	return &stdlibDecompressor{}, nil
}

func (stdlibBackend) NewCompressor() (Compressor, error) {
	return &stdlibCompressor{quality: DefaultQuality}, nil
}

type stdlibDecompressor struct{}

func (d *stdlibDecompressor) ReadHeader(data []byte) (Header, error) {
	return ScanHeader(data)
}

// Decompress decodes data with image/jpeg and converts the result into dst.
func (d *stdlibDecompressor) Decompress(data []byte, dst Buffer) error {
	if err := dst.Validate(); err != nil {
		return err
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptData, err)
	}

	b := img.Bounds()
	if b.Dx() != dst.Width || b.Dy() != dst.Height {
		return fmt.Errorf("%w: decoded %dx%d into %dx%d", ErrDimensionMismatch, b.Dx(), b.Dy(), dst.Width, dst.Height)
	}

	switch src := img.(type) {
	case *image.YCbCr:
		for y := 0; y < dst.Height; y++ {
			row := dst.row(y)
			for x := 0; x < dst.Width; x++ {
				yi := src.YOffset(b.Min.X+x, b.Min.Y+y)
				ci := src.COffset(b.Min.X+x, b.Min.Y+y)
				row[x*3], row[x*3+1], row[x*3+2] = color.YCbCrToRGB(src.Y[yi], src.Cb[ci], src.Cr[ci])
			}
		}
	case *image.Gray:
		for y := 0; y < dst.Height; y++ {
			row := dst.row(y)
			for x := 0; x < dst.Width; x++ {
				v := src.Pix[src.PixOffset(b.Min.X+x, b.Min.Y+y)]
				row[x*3], row[x*3+1], row[x*3+2] = v, v, v
			}
		}
	default:
		// CMYK and anything else go through the color model.
		for y := 0; y < dst.Height; y++ {
			row := dst.row(y)
			for x := 0; x < dst.Width; x++ {
				c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
				row[x*3], row[x*3+1], row[x*3+2] = c.R, c.G, c.B
			}
		}
	}

	return nil
}

type stdlibCompressor struct {
	quality int
}

func (c *stdlibCompressor) SetQuality(quality int) error {
	if err := checkQuality(quality); err != nil {
		return err
	}
	c.quality = quality
	return nil
}

func (c *stdlibCompressor) Quality() int { return c.quality }

// Compress encodes src through a zero-copy image.Image view.
func (c *stdlibCompressor) Compress(src Buffer) ([]byte, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	// Typical ratio for photographic content; avoids repeated grow.
	buf.Grow(src.Width * src.Height / 4)

	if err := jpeg.Encode(&buf, rgbView{src}, &jpeg.Options{Quality: c.quality}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompressFailed, err)
	}
	return buf.Bytes(), nil
}

// rgbView exposes a Buffer as an image.Image without copying its pixels.
type rgbView struct {
	buf Buffer
}

func (v rgbView) ColorModel() color.Model { return color.RGBAModel }

func (v rgbView) Bounds() image.Rectangle {
	return image.Rect(0, 0, v.buf.Width, v.buf.Height)
}

func (v rgbView) At(x, y int) color.Color {
	i := y*v.buf.Pitch + x*3
	p := v.buf.Pixels
	return color.RGBA{R: p[i], G: p[i+1], B: p[i+2], A: 0xff}
}
