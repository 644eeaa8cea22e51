package maskrcnn

import (
	"github.com/chewxy/math32"
	"github.com/cyclopcam/depthlabel/pkg/contour"
)

// ResizeBilinear resamples a soft mask of srcW x srcH to dstW x dstH.
// Sample positions use pixel centers, and are clamped at the edges, so a uniform mask
// stays uniform at any size.
func ResizeBilinear(src []float32, srcW, srcH, dstW, dstH int) []float32 {
	dst := make([]float32, dstW*dstH)
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return dst
	}
	scaleX := float32(srcW) / float32(dstW)
	scaleY := float32(srcH) / float32(dstH)
	for y := 0; y < dstH; y++ {
		fy := (float32(y)+0.5)*scaleY - 0.5
		y0, y1, wy := samplePair(fy, srcH)
		for x := 0; x < dstW; x++ {
			fx := (float32(x)+0.5)*scaleX - 0.5
			x0, x1, wx := samplePair(fx, srcW)
			top := src[y0*srcW+x0]*(1-wx) + src[y0*srcW+x1]*wx
			bottom := src[y1*srcW+x0]*(1-wx) + src[y1*srcW+x1]*wx
			dst[y*dstW+x] = top*(1-wy) + bottom*wy
		}
	}
	return dst
}

// Returns the two source indices around f, and the weight of the second one
func samplePair(f float32, size int) (int, int, float32) {
	if f <= 0 {
		return 0, 0, 0
	}
	i0 := int(math32.Floor(f))
	if i0 >= size-1 {
		return size - 1, size - 1, 0
	}
	return i0, i0 + 1, f - float32(i0)
}

// Binarize turns a soft mask into a binary mask. Values at or above threshold become 255.
func Binarize(soft []float32, width, height int, threshold float32) *contour.Mask {
	m := contour.NewMask(width, height)
	for i, v := range soft {
		if v >= threshold {
			m.Pixels[i] = 255
		}
	}
	return m
}
