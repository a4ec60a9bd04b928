//go:build cgo && !no_opencv

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestMatToImage(t *testing.T) {
	// 2x1 BGR: pure blue, then pure red.
	mat, err := gocv.NewMatFromBytes(1, 2, gocv.MatTypeCV8UC3, []byte{255, 0, 0, 0, 0, 255})
	require.NoError(t, err)
	defer mat.Close()

	img, err := matToImage(mat)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Width())
	assert.Equal(t, 1, img.Height())
	assert.Equal(t, []byte{0, 0, 255, 255, 0, 0}, img.Data())
}

func TestMatToImageRejectsGray(t *testing.T) {
	mat := gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8UC1)
	defer mat.Close()

	_, err := matToImage(mat)
	assert.Error(t, err)
}
