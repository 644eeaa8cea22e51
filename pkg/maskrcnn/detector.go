// Package maskrcnn turns the raw output of a Mask R-CNN network into object detections
// with binary mask outlines, and fuses those detections with a depth frame.
package maskrcnn

import (
	"errors"
	"fmt"

	"github.com/cyclopcam/depthlabel/pkg/contour"
	"github.com/cyclopcam/depthlabel/pkg/depth"
	"github.com/cyclopcam/depthlabel/pkg/nn"
)

var ErrTensorShape = errors.New("Unexpected tensor shape")

// Number of values per detection in the boxes tensor:
// [batch, class, score, x1, y1, x2, y2]
const boxRowSize = 7

// Detector holds no per-frame state, so a single Detector can be shared by any number of frames.
type Detector struct {
	params nn.DetectionParams
}

func NewDetector(params *nn.DetectionParams) *Detector {
	if params == nil {
		params = nn.NewDetectionParams()
	}
	return &Detector{
		params: *params,
	}
}

func (d *Detector) Params() nn.DetectionParams {
	return d.params
}

// Detect decodes the network output for an image of width x height pixels.
//
// boxes is [1, 1, N, 7] and masks is [N, numClasses, maskHeight, maskWidth].
// Instances are returned in tensor order, without any re-sorting or suppression.
// Box corners are truncated to integer pixels, and clamped to the image.
func (d *Detector) Detect(width, height int, boxes, masks *nn.Tensor) ([]nn.ObjectDetection, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("Invalid image size %vx%v", width, height)
	}
	if boxes.Rank() != 4 || boxes.Dim(3) < boxRowSize {
		return nil, fmt.Errorf("%w: boxes %v", ErrTensorShape, boxes.Shape)
	}
	if masks.Rank() != 4 {
		return nil, fmt.Errorf("%w: masks %v", ErrTensorShape, masks.Shape)
	}
	maskH := masks.Dim(2)
	maskW := masks.Dim(3)
	maskThreshold := d.params.MaskThreshold * d.params.ScaleOfMask()

	result := []nn.ObjectDetection{}
	for i := 0; i < boxes.Dim(2); i++ {
		row := boxes.Slice(0, 0, i)
		// Class IDs come out of the network as floats
		classID := int(row[1])
		score := row[2]
		// Negated, so that a NaN score is rejected
		if !(score >= d.params.DetectionThreshold) {
			continue
		}
		if i >= masks.Dim(0) || classID < 0 || classID >= masks.Dim(1) {
			return nil, fmt.Errorf("%w: detection %v has class %v, but masks are %v", ErrTensorShape, i, classID, masks.Shape)
		}

		x1 := int(float64(row[3]) * float64(width))
		y1 := int(float64(row[4]) * float64(height))
		x2 := int(float64(row[5]) * float64(width))
		y2 := int(float64(row[6]) * float64(height))
		box := nn.RectFromCorners(x1, y1, x2, y2).Clamp(width, height)

		det := nn.ObjectDetection{
			Class:      classID,
			Confidence: score,
			Box:        box,
			Center:     box.Center(),
		}
		if !box.Empty() {
			soft := ResizeBilinear(masks.Slice(i, classID), maskW, maskH, box.Width, box.Height)
			binary := Binarize(soft, box.Width, box.Height, maskThreshold)
			det.Contours = contour.FindExternal(binary)
		}
		result = append(result, det)
	}
	return result, nil
}

// Fuse returns a copy of dets, with Depth filled in by the estimator.
// Objects for which the estimator has no reading keep HasDepth = false.
func Fuse(dets []nn.ObjectDetection, depthImg *depth.Image, estimator depth.Estimator) []nn.ObjectDetection {
	out := make([]nn.ObjectDetection, len(dets))
	copy(out, dets)
	if depthImg == nil {
		return out
	}
	for i := range out {
		out[i].Depth, out[i].HasDepth = estimator.Estimate(depthImg, &out[i])
	}
	return out
}
