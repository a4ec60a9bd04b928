package jpeg

import (
	"errors"
	"image"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-jpeg/codec"
	"github.com/nvr-ai/go-jpeg/images"
)

func TestEncoderRoundTrip(t *testing.T) {
	sizes := []images.ImageSize{
		{Width: 1, Height: 1},
		{Width: 8, Height: 8},
		{Width: 17, Height: 3},
		{Width: 258, Height: 195},
	}

	for _, backend := range backends(t) {
		enc, err := NewEncoder(WithBackend(backend))
		require.NoError(t, err)
		dec, err := NewDecoder(WithBackend(backend))
		require.NoError(t, err)

		for _, size := range sizes {
			t.Run(backend.Name()+"/"+size.String(), func(t *testing.T) {
				src := gradient(size.Width, size.Height, 3)

				data, err := enc.Encode(src)
				require.NoError(t, err)

				out, err := dec.Decode(data)
				require.NoError(t, err)
				assert.Equal(t, src.Size(), out.Size())
				assert.Equal(t, src.NumChannels(), out.NumChannels())
			})
		}
	}
}

func TestEncoderRoundTripFidelity(t *testing.T) {
	src := gradient(258, 195, 0)

	enc, err := NewEncoder(WithBackend(codec.Stdlib()), WithQuality(95))
	require.NoError(t, err)
	dec, err := NewDecoder(WithBackend(codec.Stdlib()))
	require.NoError(t, err)

	data, err := enc.Encode(src)
	require.NoError(t, err)
	out, err := dec.Decode(data)
	require.NoError(t, err)

	psnr, err := images.PSNR(src, out)
	require.NoError(t, err)
	assert.Greater(t, psnr, float32(30))
}

func TestEncoderQuality(t *testing.T) {
	enc, err := NewEncoder(WithBackend(codec.Stdlib()))
	require.NoError(t, err)
	assert.Equal(t, codec.DefaultQuality, enc.Quality())

	require.NoError(t, enc.SetQuality(40))
	assert.Equal(t, 40, enc.Quality())

	for _, q := range []int{0, -5, 101} {
		err := enc.SetQuality(q)
		require.ErrorIs(t, err, ErrInvalidQuality, "quality %d", q)
		assert.ErrorIs(t, err, codec.ErrInvalidQuality)
		assert.True(t, IsConfigError(err))
	}
	assert.Equal(t, 40, enc.Quality(), "rejected quality must not replace the current one")
}

func TestNewEncoderWithQuality(t *testing.T) {
	enc, err := NewEncoder(WithBackend(codec.Stdlib()), WithQuality(12))
	require.NoError(t, err)
	assert.Equal(t, 12, enc.Quality())

	_, err = NewEncoder(WithBackend(codec.Stdlib()), WithQuality(101))
	assert.ErrorIs(t, err, ErrInvalidQuality)

	assert.Panics(t, func() { MustNewEncoder(WithBackend(codec.Stdlib()), WithQuality(0)) })
}

func TestEncoderSizeTracksQuality(t *testing.T) {
	src := noise(64, 64)

	for _, backend := range backends(t) {
		t.Run(backend.Name(), func(t *testing.T) {
			enc, err := NewEncoder(WithBackend(backend))
			require.NoError(t, err)

			require.NoError(t, enc.SetQuality(20))
			low, err := enc.Encode(src)
			require.NoError(t, err)

			require.NoError(t, enc.SetQuality(90))
			high, err := enc.Encode(src)
			require.NoError(t, err)

			assert.LessOrEqual(t, len(low), len(high))
		})
	}
}

func TestEncoderNonContiguous(t *testing.T) {
	fake := &fakeBackend{}
	enc, err := NewEncoder(WithBackend(fake))
	require.NoError(t, err)

	parent := gradient(32, 16, 1)

	view, err := parent.Crop(image.Rect(4, 2, 20, 10))
	require.NoError(t, err)
	require.False(t, view.IsContiguous())

	data, err := enc.Encode(view)
	assert.Nil(t, data)
	require.ErrorIs(t, err, ErrNonContiguousImage)
	assert.True(t, IsInputError(err))
	assert.Zero(t, fake.compressCalls.Load(), "backend must not be called")

	// A compact copy encodes.
	data, err = enc.Encode(view.Compact())
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, int64(1), fake.compressCalls.Load())

	// Full-width row bands share the parent stride and stay contiguous.
	band, err := parent.Crop(image.Rect(0, 4, 32, 12))
	require.NoError(t, err)
	require.True(t, band.IsContiguous())
	_, err = enc.Encode(band)
	require.NoError(t, err)
}

func TestEncoderErrors(t *testing.T) {
	enc, err := NewEncoder(WithBackend(codec.Stdlib()))
	require.NoError(t, err)

	t.Run("nil_image", func(t *testing.T) {
		_, err := enc.Encode(nil)
		assert.ErrorIs(t, err, ErrEncode)
	})

	t.Run("empty_image", func(t *testing.T) {
		img, err := images.NewImageZeros(images.ImageSize{})
		require.NoError(t, err)

		_, err = enc.Encode(img)
		require.ErrorIs(t, err, ErrEncode)
		assert.ErrorIs(t, err, codec.ErrInvalidDimensions)
		assert.True(t, IsInputError(err))
	})
}

func TestEncoderPoisoned(t *testing.T) {
	fake := &fakeBackend{panicCompress: true}
	enc, err := NewEncoder(WithBackend(fake))
	require.NoError(t, err)

	_, err = enc.Encode(gradient(8, 8, 0))
	require.ErrorIs(t, err, ErrHandlePoisoned)
	assert.True(t, enc.Poisoned())

	assert.ErrorIs(t, enc.SetQuality(50), ErrHandlePoisoned)
	assert.Zero(t, enc.Quality())

	fake.panicCompress = false
	_, err = enc.Encode(gradient(8, 8, 0))
	assert.ErrorIs(t, err, ErrHandlePoisoned)
	assert.Equal(t, int64(1), fake.compressCalls.Load())
}

func TestNewEncoderCodecInit(t *testing.T) {
	cause := errors.New("no compressor")

	_, err := NewEncoder(WithBackend(&fakeBackend{initErr: cause}))
	require.ErrorIs(t, err, ErrCodecInit)
	assert.ErrorIs(t, err, cause)

	_, err = NewEncoder(WithBackend(&fakeBackend{nilHandle: true}))
	assert.ErrorIs(t, err, ErrCodecInit)

	assert.Panics(t, func() { MustNewEncoder(WithBackend(&fakeBackend{initErr: cause})) })
}

func TestEncoderConcurrentShared(t *testing.T) {
	enc, err := NewEncoder(WithBackend(codec.Stdlib()), WithQuality(80))
	require.NoError(t, err)
	dec, err := NewDecoder(WithBackend(codec.Stdlib()))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			src := gradient(40+i, 30+i, i)
			data, err := enc.Encode(src)
			if !assert.NoError(t, err) {
				return
			}
			out, err := dec.Decode(data)
			if assert.NoError(t, err) {
				assert.Equal(t, src.Size(), out.Size())
			}
		}(i)
	}
	wg.Wait()
}
