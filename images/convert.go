package images

import (
	"image"
	"image/color"
	"image/draw"
)

// RGBAt returns the color of the pixel at (x, y).
func (img *Image) RGBAt(x, y int) color.RGBA {
	i := y*img.stride + x*Channels
	return color.RGBA{R: img.data[i], G: img.data[i+1], B: img.data[i+2], A: 0xff}
}

// Set stores c at (x, y). Alpha is discarded.
func (img *Image) Set(x, y int, c color.Color) {
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	i := y*img.stride + x*Channels
	img.data[i] = rgba.R
	img.data[i+1] = rgba.G
	img.data[i+2] = rgba.B
}

// FromImage converts any image.Image into a contiguous RGB image.
//
// Arguments:
//   - src: The source image. Its bounds are translated to start at (0, 0).
//
// Returns:
//   - A new Image owning its pixels.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	size := ImageSize{Width: b.Dx(), Height: b.Dy()}
	pitch := size.Width * Channels
	data := make([]byte, size.Area()*Channels)

	// Fast path for the common decoded layout.
	rgba, ok := src.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
		draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
		b = rgba.Bounds()
	}

	for y := 0; y < size.Height; y++ {
		srcRow := rgba.Pix[rgba.PixOffset(b.Min.X, b.Min.Y+y):]
		dstRow := data[y*pitch : (y+1)*pitch]
		for x := 0; x < size.Width; x++ {
			dstRow[x*3] = srcRow[x*4]
			dstRow[x*3+1] = srcRow[x*4+1]
			dstRow[x*3+2] = srcRow[x*4+2]
		}
	}

	return &Image{size: size, stride: pitch, data: data}
}

// ToRGBA copies the image into an opaque *image.RGBA.
func (img *Image) ToRGBA() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, img.size.Width, img.size.Height))
	for y := 0; y < img.size.Height; y++ {
		row := img.Row(y)
		out := dst.Pix[y*dst.Stride:]
		for x := 0; x < img.size.Width; x++ {
			out[x*4] = row[x*3]
			out[x*4+1] = row[x*3+1]
			out[x*4+2] = row[x*3+2]
			out[x*4+3] = 0xff
		}
	}
	return dst
}
