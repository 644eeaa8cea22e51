package overlay

import (
	"image"

	"github.com/bmharper/cimg/v2"
)

// The drawing library works on image.RGBA, but our frames are packed RGB cimg images,
// so we copy regions across and back again.

// Copy the region r of img into a new RGBA image, whose origin is r.Min
func cropToRGBA(img *cimg.Image, r image.Rectangle) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	nchan := img.NChan()
	for y := 0; y < r.Dy(); y++ {
		src := img.Pixels[(r.Min.Y+y)*img.Stride+r.Min.X*nchan:]
		out := dst.Pix[y*dst.Stride:]
		for x := 0; x < r.Dx(); x++ {
			out[x*4] = src[x*nchan]
			out[x*4+1] = src[x*nchan+1]
			out[x*4+2] = src[x*nchan+2]
			out[x*4+3] = 255
		}
	}
	return dst
}

// Copy src into img, with the top-left corner of src at 'at'
func writeBack(img *cimg.Image, src *image.RGBA, at image.Point) {
	nchan := img.NChan()
	w := src.Rect.Dx()
	for y := 0; y < src.Rect.Dy(); y++ {
		dst := img.Pixels[(at.Y+y)*img.Stride+at.X*nchan:]
		in := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			dst[x*nchan] = in[x*4]
			dst[x*nchan+1] = in[x*4+1]
			dst[x*nchan+2] = in[x*4+2]
		}
	}
}

// Region of the box that lies inside the image. May be empty.
func boxRegion(img *cimg.Image, x1, y1, x2, y2 int) image.Rectangle {
	return image.Rect(x1, y1, x2, y2).Intersect(image.Rect(0, 0, img.Width, img.Height))
}

// dst = saturate(dst + weight * layer), per colour channel
func addWeighted(dst, layer *image.RGBA, weight float64) {
	for y := 0; y < dst.Rect.Dy(); y++ {
		d := dst.Pix[y*dst.Stride : y*dst.Stride+dst.Rect.Dx()*4]
		l := layer.Pix[y*layer.Stride:]
		for i := 0; i < len(d); i += 4 {
			for c := 0; c < 3; c++ {
				v := float64(d[i+c]) + weight*float64(l[i+c]) + 0.5
				if v > 255 {
					v = 255
				}
				d[i+c] = uint8(v)
			}
		}
	}
}
