package jpeg

import (
	"bytes"
	"image"
	"image/color"
	stdjpeg "image/jpeg"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-jpeg/codec"
	"github.com/nvr-ai/go-jpeg/images"
)

// gradient builds a w x h image with a distinct smooth pattern per seed.
func gradient(w, h, seed int) *images.Image {
	img, err := images.NewImageZeros(images.ImageSize{Width: w, Height: h})
	if err != nil {
		panic(err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x*255/w + seed*40) % 256),
				G: uint8((y*255/h + seed*70) % 256),
				B: uint8(((x+y)*255/(w+h) + seed*90) % 256),
				A: 255,
			})
		}
	}
	return img
}

// noise builds a deterministic high-frequency image.
func noise(w, h int) *images.Image {
	img, err := images.NewImageZeros(images.ImageSize{Width: w, Height: h})
	if err != nil {
		panic(err)
	}
	seed := uint32(7)
	data := img.Data()
	for i := range data {
		seed = seed*1664525 + 1013904223
		data[i] = uint8(seed >> 24)
	}
	return img
}

// fixture encodes a 258x195 gradient with image/jpeg.
func fixture(t testing.TB) []byte {
	t.Helper()
	return encodeStd(t, gradient(258, 195, 0).ToRGBA(), 90)
}

func encodeStd(t testing.TB, src image.Image, quality int) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, stdjpeg.Encode(&buf, src, &stdjpeg.Options{Quality: quality}))
	return buf.Bytes()
}

// fakeBackend wraps the stdlib backend with failure injection and call counters.
type fakeBackend struct {
	initErr   error
	nilHandle bool

	// header overrides the scanned header when set.
	header *codec.Header

	panicDecompress bool
	panicCompress   bool

	headerCalls     atomic.Int64
	decompressCalls atomic.Int64
	compressCalls   atomic.Int64
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) NewDecompressor() (codec.Decompressor, error) {
	if b.initErr != nil {
		return nil, b.initErr
	}
	if b.nilHandle {
		return nil, nil
	}
	inner, err := codec.Stdlib().NewDecompressor()
	if err != nil {
		return nil, err
	}
	return &fakeDecompressor{backend: b, inner: inner}, nil
}

func (b *fakeBackend) NewCompressor() (codec.Compressor, error) {
	if b.initErr != nil {
		return nil, b.initErr
	}
	if b.nilHandle {
		return nil, nil
	}
	inner, err := codec.Stdlib().NewCompressor()
	if err != nil {
		return nil, err
	}
	return &fakeCompressor{backend: b, inner: inner}, nil
}

type fakeDecompressor struct {
	backend *fakeBackend
	inner   codec.Decompressor
}

func (d *fakeDecompressor) ReadHeader(data []byte) (codec.Header, error) {
	d.backend.headerCalls.Add(1)
	if d.backend.header != nil {
		return *d.backend.header, nil
	}
	return d.inner.ReadHeader(data)
}

func (d *fakeDecompressor) Decompress(data []byte, dst codec.Buffer) error {
	d.backend.decompressCalls.Add(1)
	if d.backend.panicDecompress {
		panic("decompressor state corrupted")
	}
	return d.inner.Decompress(data, dst)
}

type fakeCompressor struct {
	backend *fakeBackend
	inner   codec.Compressor
}

func (c *fakeCompressor) SetQuality(quality int) error { return c.inner.SetQuality(quality) }

func (c *fakeCompressor) Quality() int { return c.inner.Quality() }

func (c *fakeCompressor) Compress(src codec.Buffer) ([]byte, error) {
	c.backend.compressCalls.Add(1)
	if c.backend.panicCompress {
		panic("compressor state corrupted")
	}
	return c.inner.Compress(src)
}

// backends returns every registered backend.
func backends(t testing.TB) []codec.Backend {
	t.Helper()

	var out []codec.Backend
	for _, name := range codec.Names() {
		b, err := codec.Lookup(name)
		require.NoError(t, err)
		out = append(out, b)
	}
	return out
}
