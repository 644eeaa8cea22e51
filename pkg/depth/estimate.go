package depth

import (
	"fmt"
	"sort"

	"github.com/cyclopcam/depthlabel/pkg/nn"
	"gonum.org/v1/gonum/stat"
)

// Estimator reduces the depth readings of one object to a single distance, in raw depth units.
// It returns false if there is no usable reading.
type Estimator interface {
	Name() string
	Estimate(img *Image, det *nn.ObjectDetection) (float64, bool)
}

const (
	StrategyPoint         = "point"
	StrategyContourMean   = "contour-mean"
	StrategyContourMedian = "contour-median"
)

// Strategies lists the names accepted by NewEstimator
var Strategies = []string{StrategyPoint, StrategyContourMean, StrategyContourMedian}

func NewEstimator(strategy string) (Estimator, error) {
	switch strategy {
	case StrategyPoint, "":
		return PointSample{}, nil
	case StrategyContourMean:
		return ContourMean{}, nil
	case StrategyContourMedian:
		return ContourMedian{}, nil
	}
	return nil, fmt.Errorf("Unknown distance strategy '%v' (expected one of %v)", strategy, Strategies)
}

// PointSample reads the single depth pixel at the center of the box.
// It is noisy, but it is what the run log always records.
type PointSample struct{}

func (PointSample) Name() string { return StrategyPoint }

func (PointSample) Estimate(img *Image, det *nn.ObjectDetection) (float64, bool) {
	if !img.InBounds(det.Center.X, det.Center.Y) {
		return 0, false
	}
	return float64(img.At(det.Center.X, det.Center.Y)), true
}

// ContourMean averages the non-zero depth readings on the object's contour vertices
type ContourMean struct{}

func (ContourMean) Name() string { return StrategyContourMean }

func (ContourMean) Estimate(img *Image, det *nn.ObjectDetection) (float64, bool) {
	samples := ContourSamples(img, det)
	if len(samples) == 0 {
		return 0, false
	}
	return stat.Mean(samples, nil), true
}

// ContourMedian is like ContourMean, but less sensitive to contour points that fall
// onto the background behind the object. With an even number of samples, the two middle
// samples are averaged.
type ContourMedian struct{}

func (ContourMedian) Name() string { return StrategyContourMedian }

func (ContourMedian) Estimate(img *Image, det *nn.ObjectDetection) (float64, bool) {
	samples := ContourSamples(img, det)
	if len(samples) == 0 {
		return 0, false
	}
	sort.Float64s(samples)
	n := len(samples)
	if n%2 == 1 {
		return samples[n/2], true
	}
	return stat.Mean(samples[n/2-1:n/2+1], nil), true
}

// ContourSamples returns the non-zero depth readings underneath the vertices of
// all of the object's contours. Vertices outside of the depth image are skipped.
func ContourSamples(img *Image, det *nn.ObjectDetection) []float64 {
	samples := make([]float64, 0, det.NumContourPoints())
	for _, c := range det.Contours {
		for _, p := range c {
			fp := det.FramePoint(p)
			if !img.InBounds(fp.X, fp.Y) {
				continue
			}
			if v := img.At(fp.X, fp.Y); v != 0 {
				samples = append(samples, float64(v))
			}
		}
	}
	return samples
}
