// Package depth holds depth frames, and the strategies that turn a depth frame
// plus an object detection into a single distance.
package depth

import (
	"fmt"
	"image"
	"image/png"
	"os"
)

// Image is a single channel depth frame, in the device's native units (usually millimeters).
// Zero means "no reading".
type Image struct {
	Width  int
	Height int
	Pixels []uint16
}

func NewImage(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pixels: make([]uint16, width*height),
	}
}

// Create a depth image where every pixel has the value v
func NewUniformImage(width, height int, v uint16) *Image {
	img := NewImage(width, height)
	for i := range img.Pixels {
		img.Pixels[i] = v
	}
	return img
}

func (img *Image) Clone() *Image {
	c := NewImage(img.Width, img.Height)
	copy(c.Pixels, img.Pixels)
	return c
}

func (img *Image) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < img.Width && y < img.Height
}

// At panics if (x, y) is outside of the image
func (img *Image) At(x, y int) uint16 {
	if !img.InBounds(x, y) {
		panic(fmt.Sprintf("Depth sample (%v, %v) outside of %vx%v image", x, y, img.Width, img.Height))
	}
	return img.Pixels[y*img.Width+x]
}

func (img *Image) Set(x, y int, v uint16) {
	img.Pixels[y*img.Width+x] = v
}

// Rotate180 rotates the image in place
func (img *Image) Rotate180() {
	p := img.Pixels
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
}

// FromImage converts a decoded 16-bit (or 8-bit) greyscale image
func FromImage(src image.Image) (*Image, error) {
	b := src.Bounds()
	img := NewImage(b.Dx(), b.Dy())
	switch s := src.(type) {
	case *image.Gray16:
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				img.Pixels[y*img.Width+x] = s.Gray16At(b.Min.X+x, b.Min.Y+y).Y
			}
		}
	case *image.Gray:
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				img.Pixels[y*img.Width+x] = uint16(s.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	default:
		return nil, fmt.Errorf("Depth image must be greyscale, but is %T", src)
	}
	return img, nil
}

// LoadPNG reads a 16-bit greyscale PNG depth frame
func LoadPNG(filename string) (*Image, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	src, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("Error decoding depth PNG %v: %w", filename, err)
	}
	return FromImage(src)
}

// SavePNG writes the depth frame as a 16-bit greyscale PNG
func (img *Image) SavePNG(filename string) error {
	dst := image.NewGray16(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			v := img.Pixels[y*img.Width+x]
			i := dst.PixOffset(x, y)
			dst.Pix[i] = uint8(v >> 8)
			dst.Pix[i+1] = uint8(v)
		}
	}
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(f, dst); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
