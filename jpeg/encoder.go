package jpeg

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nvr-ai/go-jpeg/codec"
	"github.com/nvr-ai/go-jpeg/images"
)

const (
	opNewEncoder = "new encoder"
	opSetQuality = "set quality"
	opQuality    = "quality"
	opEncode     = "encode"
)

// Encoder converts RGB images into JPEG streams.
type Encoder struct {
	h       handle
	enc     codec.Compressor
	backend string
	logger  *zap.Logger
}

// NewEncoder acquires a compression handle from the configured backend.
//
// Arguments:
// - opts: WithBackend, WithLogger and WithQuality are honored.
//
// Returns:
// - *Encoder: An encoder safe for concurrent use, at codec.DefaultQuality
// unless WithQuality was given.
// - error: An *Error of KindCodecInit, or KindInvalidQuality if the
// backend rejects the WithQuality value.
//
// @example
// enc, err := jpeg.NewEncoder(jpeg.WithQuality(85))
//
//	if err != nil {
//		return err
//	}
//
// data, err := enc.Encode(img)
func NewEncoder(opts ...Option) (*Encoder, error) {
	o := newOptions(opts)

	enc, err := o.backend.NewCompressor()
	if err != nil {
		return nil, newError(KindCodecInit, opNewEncoder, errors.Wrapf(err, "backend %s", o.backend.Name()))
	}
	if enc == nil {
		return nil, newError(KindCodecInit, opNewEncoder, fmt.Errorf("backend %s returned no handle", o.backend.Name()))
	}

	e := &Encoder{
		enc:     enc,
		backend: o.backend.Name(),
		logger:  o.logger.With(zap.String("backend", o.backend.Name())),
	}
	if o.hasQuality {
		if err := e.SetQuality(o.quality); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// MustNewEncoder is like NewEncoder but panics on error.
func MustNewEncoder(opts ...Option) *Encoder {
	e, err := NewEncoder(opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// Backend returns the name of the backend that owns the handle.
func (e *Encoder) Backend() string { return e.backend }

// Poisoned reports whether the handle was disabled by a panic in an earlier call.
func (e *Encoder) Poisoned() bool { return e.h.isPoisoned() }

// SetQuality sets the quality of subsequent Encode calls. The value is not
// checked here; whatever the backend rejects fails with KindInvalidQuality
// and leaves the previous quality in place.
func (e *Encoder) SetQuality(quality int) error {
	return e.h.do(opSetQuality, func() error {
		if err := e.enc.SetQuality(quality); err != nil {
			return newError(KindInvalidQuality, opSetQuality, err)
		}
		e.logger.Debug("quality set", zap.Int("quality", quality))
		return nil
	})
}

// Quality returns the current quality, or 0 if the handle is poisoned.
func (e *Encoder) Quality() int {
	var q int
	_ = e.h.do(opQuality, func() error {
		q = e.enc.Quality()
		return nil
	})
	return q
}

// Encode compresses img at the current quality.
//
// The backend reads img's pixels in place. img must be contiguous: a Crop
// view narrower than its parent is rejected with KindNonContiguousImage
// before the backend is called. Use Compact to get an encodable copy.
func (e *Encoder) Encode(img *images.Image) ([]byte, error) {
	if img == nil {
		return nil, newError(KindEncode, opEncode, errors.New("nil image"))
	}
	if !img.IsContiguous() {
		return nil, newError(KindNonContiguousImage, opEncode, fmt.Errorf("stride %d for width %d", img.Stride(), img.Width()))
	}

	src := codec.Buffer{
		Pixels: img.Data(),
		Width:  img.Width(),
		Pitch:  img.Width() * img.NumChannels(),
		Height: img.Height(),
		Format: codec.PixelFormatRGB,
	}

	var out []byte
	var quality int
	err := e.h.do(opEncode, func() error {
		var err error
		out, err = e.enc.Compress(src)
		if err != nil {
			return newError(KindEncode, opEncode, err)
		}
		quality = e.enc.Quality()
		return nil
	})
	if err != nil {
		e.logger.Debug("encode failed", zap.Stringer("size", img.Size()), zap.Error(err))
		return nil, err
	}

	e.logger.Debug("encoded",
		zap.Int("width", img.Width()),
		zap.Int("height", img.Height()),
		zap.Int("quality", quality),
		zap.Int("bytes", len(out)),
	)
	return out, nil
}
