package imgx

import (
	"path/filepath"
	"testing"

	"github.com/bmharper/cimg/v2"
	"github.com/stretchr/testify/require"
)

func TestRotate180(t *testing.T) {
	img := cimg.NewImage(3, 2, cimg.PixelFormatRGB)
	for i := range img.Pixels {
		img.Pixels[i] = byte(i)
	}
	rot := Rotate180(img)
	require.Equal(t, 3, rot.Width)
	require.Equal(t, 2, rot.Height)
	// Top-left pixel of the rotated image is the bottom-right pixel of the original
	last := (2-1)*img.Stride + (3-1)*3
	require.Equal(t, img.Pixels[last:last+3], rot.Pixels[0:3])
	require.Equal(t, img.Pixels[0:3], rot.Pixels[last:last+3])
}

func TestToRGB(t *testing.T) {
	img := cimg.NewImage(2, 2, cimg.PixelFormatRGB)
	same, err := ToRGB(img)
	require.NoError(t, err)
	require.True(t, same == img)
}

func TestWriteJPEG(t *testing.T) {
	img := cimg.NewImage(32, 16, cimg.PixelFormatRGB)
	for i := range img.Pixels {
		img.Pixels[i] = 128
	}
	filename := filepath.Join(t.TempDir(), "frame.jpg")
	require.NoError(t, WriteJPEG(img, filename, 90))
	back, err := ReadRGB(filename)
	require.NoError(t, err)
	require.Equal(t, 32, back.Width)
	require.Equal(t, 16, back.Height)
	require.InDelta(t, 128, int(back.Pixels[back.Stride*8+16*3]), 4)
}
