// Package imgx moves pixels between cimg images and the standard image types
// that imaging and gg operate on.
package imgx

import (
	"fmt"
	"image"

	"github.com/bmharper/cimg/v2"
	"github.com/disintegration/imaging"
)

// ToNRGBA copies a 1, 3, or 4 channel image into a new NRGBA image
func ToNRGBA(img *cimg.Image) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	nchan := img.NChan()
	for y := 0; y < img.Height; y++ {
		src := img.Pixels[y*img.Stride:]
		out := dst.Pix[y*dst.Stride:]
		for x := 0; x < img.Width; x++ {
			switch nchan {
			case 1:
				v := src[x]
				out[x*4], out[x*4+1], out[x*4+2] = v, v, v
			default:
				out[x*4] = src[x*nchan]
				out[x*4+1] = src[x*nchan+1]
				out[x*4+2] = src[x*nchan+2]
			}
			out[x*4+3] = 255
		}
	}
	return dst
}

// FromNRGBA copies an NRGBA image into a new packed RGB image, discarding alpha
func FromNRGBA(src *image.NRGBA) *cimg.Image {
	b := src.Bounds()
	dst := cimg.NewImage(b.Dx(), b.Dy(), cimg.PixelFormatRGB)
	for y := 0; y < dst.Height; y++ {
		in := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		out := dst.Pixels[y*dst.Stride:]
		for x := 0; x < dst.Width; x++ {
			out[x*3] = in[x*4]
			out[x*3+1] = in[x*4+1]
			out[x*3+2] = in[x*4+2]
		}
	}
	return dst
}

// ToRGB returns img if it is already 3 channel, otherwise a packed RGB copy of it
func ToRGB(img *cimg.Image) (*cimg.Image, error) {
	switch img.NChan() {
	case 3:
		return img, nil
	case 1, 4:
		return FromNRGBA(ToNRGBA(img)), nil
	}
	return nil, fmt.Errorf("Unsupported image with %v channels", img.NChan())
}

// Rotate180 returns a rotated RGB copy of img
func Rotate180(img *cimg.Image) *cimg.Image {
	return FromNRGBA(imaging.Rotate180(ToNRGBA(img)))
}

// ReadRGB decodes a compressed image file (eg JPEG) into packed RGB
func ReadRGB(filename string) (*cimg.Image, error) {
	img, err := cimg.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ToRGB(img)
}

// DecodeRGB decodes compressed image bytes into packed RGB
func DecodeRGB(b []byte) (*cimg.Image, error) {
	img, err := cimg.Decompress(b)
	if err != nil {
		return nil, err
	}
	return ToRGB(img)
}

// WriteJPEG compresses an RGB image and writes it to filename
func WriteJPEG(img *cimg.Image, filename string, quality int) error {
	return img.WriteJPEG(filename, cimg.MakeCompressParams(cimg.Sampling420, quality, 0), 0644)
}
