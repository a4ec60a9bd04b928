package jpeg

import (
	"go.uber.org/zap"

	"github.com/nvr-ai/go-jpeg/codec"
)

// Option configures a Decoder or Encoder at construction.
type Option func(*options)

type options struct {
	backend    codec.Backend
	logger     *zap.Logger
	quality    int
	hasQuality bool
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.backend == nil {
		o.backend = codec.Default()
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// WithBackend selects the codec backend. The default is codec.Default().
func WithBackend(backend codec.Backend) Option {
	return func(o *options) {
		o.backend = backend
	}
}

// WithLogger sets the logger for debug output. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithQuality sets the initial quality of an Encoder. Decoders ignore it.
func WithQuality(quality int) Option {
	return func(o *options) {
		o.quality = quality
		o.hasQuality = true
	}
}
