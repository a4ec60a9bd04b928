package jpeg

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindClass(t *testing.T) {
	tests := []struct {
		kind     Kind
		name     string
		class    Class
		sentinel error
	}{
		{KindCodecInit, "codec_init", ClassResource, ErrCodecInit},
		{KindHeaderParse, "header_parse", ClassInput, ErrHeaderParse},
		{KindDecode, "decode", ClassInput, ErrDecode},
		{KindEncode, "encode", ClassInput, ErrEncode},
		{KindInvalidQuality, "invalid_quality", ClassConfig, ErrInvalidQuality},
		{KindNonContiguousImage, "non_contiguous_image", ClassInput, ErrNonContiguousImage},
		{KindImageCreation, "image_creation", ClassInput, ErrImageCreation},
		{KindPoisoned, "poisoned", ClassResource, ErrHandlePoisoned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.kind.String())
			assert.Equal(t, tt.class, tt.kind.Class())

			err := fmt.Errorf("outer: %w", newError(tt.kind, "op", errors.New("cause")))
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.Equal(t, tt.class == ClassInput, IsInputError(err))
			assert.Equal(t, tt.class == ClassResource, IsResourceError(err))
			assert.Equal(t, tt.class == ClassConfig, IsConfigError(err))
		})
	}
}

func TestErrorDoesNotMatchOtherKinds(t *testing.T) {
	err := newError(KindDecode, "decode", nil)
	assert.ErrorIs(t, err, ErrDecode)
	assert.NotErrorIs(t, err, ErrHeaderParse)
	assert.NotErrorIs(t, err, ErrHandlePoisoned)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "jpeg decode [decode]: boom", newError(KindDecode, "decode", errors.New("boom")).Error())
	assert.Equal(t, "jpeg encode [encode]", newError(KindEncode, "encode", nil).Error())
}

func TestKindOfForeignErrors(t *testing.T) {
	assert.Zero(t, KindOf(nil))
	assert.Zero(t, KindOf(errors.New("plain")))
	assert.False(t, IsInputError(nil))
	assert.False(t, IsResourceError(errors.New("plain")))
	assert.Equal(t, "unknown", Kind(0).String())
	assert.Equal(t, "unknown", Class(0).String())
	assert.Equal(t, "input", ClassInput.String())
}
