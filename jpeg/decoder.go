// Package jpeg provides a JPEG decoder and encoder that can be shared
// between goroutines.
//
// Each Decoder and Encoder owns one codec handle from a codec.Backend and
// serializes calls on it with a mutex. Independent values share nothing and
// run in parallel.
package jpeg

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nvr-ai/go-jpeg/codec"
	"github.com/nvr-ai/go-jpeg/images"
)

const (
	opNewDecoder = "new decoder"
	opReadHeader = "read header"
	opDecode     = "decode"
	opDecodeInto = "decode into"
)

// Decoder converts JPEG streams into RGB images.
type Decoder struct {
	h       handle
	dec     codec.Decompressor
	backend string
	logger  *zap.Logger
}

// NewDecoder acquires a decompression handle from the configured backend.
//
// Arguments:
// - opts: WithBackend and WithLogger are honored.
//
// Returns:
// - *Decoder: A decoder safe for concurrent use.
// - error: An *Error of KindCodecInit if the backend cannot create a handle.
//
// @example
// dec, err := jpeg.NewDecoder(jpeg.WithLogger(logger))
//
//	if err != nil {
//		return err
//	}
//
// img, err := dec.Decode(data)
func NewDecoder(opts ...Option) (*Decoder, error) {
	o := newOptions(opts)

	dec, err := o.backend.NewDecompressor()
	if err != nil {
		return nil, newError(KindCodecInit, opNewDecoder, errors.Wrapf(err, "backend %s", o.backend.Name()))
	}
	if dec == nil {
		return nil, newError(KindCodecInit, opNewDecoder, fmt.Errorf("backend %s returned no handle", o.backend.Name()))
	}

	return &Decoder{
		dec:     dec,
		backend: o.backend.Name(),
		logger:  o.logger.With(zap.String("backend", o.backend.Name())),
	}, nil
}

// MustNewDecoder is like NewDecoder but panics on error.
func MustNewDecoder(opts ...Option) *Decoder {
	d, err := NewDecoder(opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// Backend returns the name of the backend that owns the handle.
func (d *Decoder) Backend() string { return d.backend }

// Poisoned reports whether the handle was disabled by a panic in an earlier call.
func (d *Decoder) Poisoned() bool { return d.h.isPoisoned() }

// ReadHeader returns the dimensions declared by the frame header of data.
// Only marker segments up to the frame header are read.
func (d *Decoder) ReadHeader(data []byte) (images.ImageSize, error) {
	var size images.ImageSize
	err := d.h.do(opReadHeader, func() error {
		var err error
		size, err = d.readHeader(opReadHeader, data)
		return err
	})
	return size, err
}

// Decode decodes data into a new image.
//
// The header is probed first so the output is allocated once at its exact
// size, then the backend decodes straight into it. Header probe and
// decompression run under one lock acquisition.
//
// Arguments:
// - data: A complete JPEG stream.
//
// Returns:
// - *images.Image: A contiguous RGB image with the header's dimensions.
// - error: An *Error of KindHeaderParse, KindDecode, KindImageCreation or
// KindPoisoned. No image is returned on failure.
func (d *Decoder) Decode(data []byte) (*images.Image, error) {
	var img *images.Image
	err := d.h.do(opDecode, func() error {
		size, err := d.readHeader(opDecode, data)
		if err != nil {
			return err
		}
		if err := size.Validate(); err != nil {
			return newError(KindImageCreation, opDecode, err)
		}

		pixels := make([]byte, size.Area()*images.Channels)
		if err := d.dec.Decompress(data, rgbBuffer(pixels, size)); err != nil {
			return newError(KindDecode, opDecode, err)
		}

		img, err = images.NewImage(size, pixels)
		if err != nil {
			return newError(KindImageCreation, opDecode, err)
		}
		return nil
	})
	if err != nil {
		d.logger.Debug("decode failed", zap.Int("bytes", len(data)), zap.Error(err))
		return nil, err
	}

	d.logger.Debug("decoded",
		zap.Int("bytes", len(data)),
		zap.Int("width", img.Width()),
		zap.Int("height", img.Height()),
	)
	return img, nil
}

// DecodeInto decodes data into dst, reusing its buffer. dst must be
// contiguous and match the header dimensions. dst may hold partial output
// when the backend fails mid-decode.
func (d *Decoder) DecodeInto(data []byte, dst *images.Image) error {
	if dst == nil {
		return newError(KindImageCreation, opDecodeInto, errors.New("nil destination"))
	}
	if !dst.IsContiguous() {
		return newError(KindNonContiguousImage, opDecodeInto, fmt.Errorf("stride %d for width %d", dst.Stride(), dst.Width()))
	}

	return d.h.do(opDecodeInto, func() error {
		size, err := d.readHeader(opDecodeInto, data)
		if err != nil {
			return err
		}
		if size != dst.Size() {
			return newError(KindImageCreation, opDecodeInto, fmt.Errorf("%w: stream is %v, destination is %v", images.ErrSizeMismatch, size, dst.Size()))
		}

		if err := d.dec.Decompress(data, rgbBuffer(dst.Data(), size)); err != nil {
			return newError(KindDecode, opDecodeInto, err)
		}
		return nil
	})
}

// readHeader must be called with the lock held.
func (d *Decoder) readHeader(op string, data []byte) (images.ImageSize, error) {
	hdr, err := d.dec.ReadHeader(data)
	if err != nil {
		return images.ImageSize{}, newError(KindHeaderParse, op, err)
	}
	return images.ImageSize{Width: hdr.Width, Height: hdr.Height}, nil
}

// rgbBuffer describes pixels as tightly packed RGB rows of size.
func rgbBuffer(pixels []byte, size images.ImageSize) codec.Buffer {
	return codec.Buffer{
		Pixels: pixels,
		Width:  size.Width,
		Pitch:  size.Width * images.Channels,
		Height: size.Height,
		Format: codec.PixelFormatRGB,
	}
}
