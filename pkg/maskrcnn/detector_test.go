package maskrcnn

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/cyclopcam/depthlabel/pkg/depth"
	"github.com/cyclopcam/depthlabel/pkg/nn"
	"github.com/stretchr/testify/require"
)

type instance struct {
	class          int
	score          float32
	x1, y1, x2, y2 float32
	maskValue      float32
}

const testClasses = 4
const testMaskSize = 15

func makeTensors(instances []instance) (*nn.Tensor, *nn.Tensor) {
	boxes := nn.NewTensor(1, 1, len(instances), 7)
	masks := nn.NewTensor(len(instances), testClasses, testMaskSize, testMaskSize)
	for i, in := range instances {
		row := boxes.Slice(0, 0, i)
		copy(row, []float32{0, float32(in.class), in.score, in.x1, in.y1, in.x2, in.y2})
		plane := masks.Slice(i, in.class)
		for j := range plane {
			plane[j] = in.maskValue
		}
	}
	return boxes, masks
}

func TestDetectSingleInstance(t *testing.T) {
	boxes, masks := makeTensors([]instance{{class: 0, score: 0.9, x1: 0.1, y1: 0.1, x2: 0.5, y2: 0.5, maskValue: 1}})
	dets, err := NewDetector(nil).Detect(100, 100, boxes, masks)
	require.NoError(t, err)
	require.Equal(t, 1, len(dets))
	d := dets[0]
	require.Equal(t, 0, d.Class)
	require.Equal(t, [4]int{10, 10, 50, 50}, d.Box.Corners())
	require.Equal(t, nn.Point{30, 30}, d.Center)
	require.Equal(t, []nn.Contour{{{0, 0}, {0, 39}, {39, 39}, {39, 0}}}, d.Contours)
}

func TestThresholdBoundary(t *testing.T) {
	params := nn.NewDetectionParams()
	below := math32.Nextafter(params.DetectionThreshold, 0)
	boxes, masks := makeTensors([]instance{
		{class: 1, score: params.DetectionThreshold, x1: 0.1, y1: 0.1, x2: 0.2, y2: 0.2, maskValue: 1},
		{class: 2, score: below, x1: 0.3, y1: 0.3, x2: 0.4, y2: 0.4, maskValue: 1},
		{class: 3, score: 0.1, x1: 0.3, y1: 0.3, x2: 0.4, y2: 0.4, maskValue: 1},
		{class: 0, score: math32.NaN(), x1: 0.1, y1: 0.1, x2: 0.5, y2: 0.5, maskValue: 1},
	})
	dets, err := NewDetector(params).Detect(200, 100, boxes, masks)
	require.NoError(t, err)
	require.Equal(t, 1, len(dets))
	require.Equal(t, 1, dets[0].Class)
	for _, d := range dets {
		require.True(t, d.Confidence >= params.DetectionThreshold)
	}
}

func TestByteScaledMask(t *testing.T) {
	params := nn.NewDetectionParams()
	params.MaskScale = 255
	detector := NewDetector(params)

	// 10/255 is below the 0.3 mask threshold
	boxes, masks := makeTensors([]instance{{class: 1, score: 0.9, x1: 0.1, y1: 0.1, x2: 0.5, y2: 0.5, maskValue: 10}})
	dets, err := detector.Detect(100, 100, boxes, masks)
	require.NoError(t, err)
	require.Equal(t, 1, len(dets))
	require.Empty(t, dets[0].Contours)

	// 200/255 is above it
	boxes, masks = makeTensors([]instance{{class: 1, score: 0.9, x1: 0.1, y1: 0.1, x2: 0.5, y2: 0.5, maskValue: 200}})
	dets, err = detector.Detect(100, 100, boxes, masks)
	require.NoError(t, err)
	require.Equal(t, []nn.Contour{{{0, 0}, {0, 39}, {39, 39}, {39, 0}}}, dets[0].Contours)
}

func TestMaskBelowThresholdHasNoContours(t *testing.T) {
	boxes, masks := makeTensors([]instance{{class: 2, score: 0.95, x1: 0.2, y1: 0.2, x2: 0.6, y2: 0.7, maskValue: 0.29}})
	dets, err := NewDetector(nil).Detect(100, 100, boxes, masks)
	require.NoError(t, err)
	require.Equal(t, 1, len(dets))
	require.Empty(t, dets[0].Contours)
}

func TestFloatClassIDIsTruncated(t *testing.T) {
	boxes, masks := makeTensors([]instance{{class: 3, score: 0.8, x1: 0, y1: 0, x2: 0.5, y2: 0.5, maskValue: 1}})
	boxes.Set(3.0001, 0, 0, 0, 1)
	dets, err := NewDetector(nil).Detect(64, 64, boxes, masks)
	require.NoError(t, err)
	require.Equal(t, 3, dets[0].Class)
}

func TestDegenerateBox(t *testing.T) {
	boxes, masks := makeTensors([]instance{
		{class: 1, score: 0.9, x1: 0.5, y1: 0.5, x2: 0.5, y2: 0.9, maskValue: 1},
		{class: 1, score: 0.9, x1: 1.2, y1: 1.3, x2: 1.5, y2: 1.9, maskValue: 1},
	})
	dets, err := NewDetector(nil).Detect(100, 100, boxes, masks)
	require.NoError(t, err)
	require.Equal(t, 2, len(dets))
	require.Equal(t, 0, dets[0].Box.Width)
	require.Empty(t, dets[0].Contours)
	// Entirely outside the frame, so it is clamped onto the last pixel
	require.Equal(t, [4]int{99, 99, 99, 99}, dets[1].Box.Corners())
	require.Equal(t, nn.Point{99, 99}, dets[1].Center)
}

func TestBadTensors(t *testing.T) {
	boxes, masks := makeTensors([]instance{{class: 1, score: 0.9, x1: 0.1, y1: 0.1, x2: 0.5, y2: 0.5, maskValue: 1}})
	boxes.Set(float32(testClasses), 0, 0, 0, 1)
	_, err := NewDetector(nil).Detect(100, 100, boxes, masks)
	require.True(t, errors.Is(err, ErrTensorShape))

	_, err = NewDetector(nil).Detect(100, 100, nn.NewTensor(1, 1, 2, 5), masks)
	require.True(t, errors.Is(err, ErrTensorShape))

	_, err = NewDetector(nil).Detect(0, 100, boxes, masks)
	require.Error(t, err)
}

// Random detector output must always produce well formed records, in tensor order
func TestDetectInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	detector := NewDetector(nil)
	for iter := 0; iter < 50; iter++ {
		n := rng.Intn(10)
		instances := make([]instance, n)
		for i := range instances {
			instances[i] = instance{
				class:     rng.Intn(testClasses),
				score:     rng.Float32(),
				x1:        rng.Float32()*1.2 - 0.1,
				y1:        rng.Float32()*1.2 - 0.1,
				x2:        rng.Float32()*1.2 - 0.1,
				y2:        rng.Float32()*1.2 - 0.1,
				maskValue: rng.Float32(),
			}
		}
		width := 20 + rng.Intn(300)
		height := 20 + rng.Intn(300)
		boxes, masks := makeTensors(instances)
		dets, err := detector.Detect(width, height, boxes, masks)
		require.NoError(t, err)

		expected := []instance{}
		for _, in := range instances {
			if in.score >= nn.DefaultDetectionThreshold {
				expected = append(expected, in)
			}
		}
		require.Equal(t, len(expected), len(dets))
		for i, d := range dets {
			c := d.Box.Corners()
			require.Equal(t, expected[i].class, d.Class)
			require.GreaterOrEqual(t, d.Confidence, float32(nn.DefaultDetectionThreshold))
			require.LessOrEqual(t, c[0], c[2])
			require.LessOrEqual(t, c[1], c[3])
			require.True(t, c[0] >= 0 && c[2] < width && c[1] >= 0 && c[3] < height)
			require.Equal(t, nn.Point{(c[0] + c[2]) / 2, (c[1] + c[3]) / 2}, d.Center)
			for _, contour := range d.Contours {
				for _, p := range contour {
					require.True(t, p.X >= 0 && p.Y >= 0 && p.X < d.Box.Width && p.Y < d.Box.Height)
				}
			}
		}

		// Deterministic
		again, err := detector.Detect(width, height, boxes, masks)
		require.NoError(t, err)
		require.Equal(t, dets, again)
	}
}

func TestBinarizeIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	soft := make([]float32, 30*20)
	for i := range soft {
		soft[i] = rng.Float32()
	}
	first := Binarize(soft, 30, 20, 0.3)
	asFloat := make([]float32, len(first.Pixels))
	for i, v := range first.Pixels {
		asFloat[i] = float32(v)
	}
	second := Binarize(asFloat, 30, 20, 0.3)
	require.Equal(t, first, second)
}

func TestResizeBilinear(t *testing.T) {
	src := []float32{
		0, 1,
		0, 1,
	}
	dst := ResizeBilinear(src, 2, 2, 4, 1)
	require.InDeltaSlice(t, []float32{0, 0.25, 0.75, 1}, dst, 1e-6)

	uniform := make([]float32, 15*15)
	for i := range uniform {
		uniform[i] = 1
	}
	for _, v := range ResizeBilinear(uniform, 15, 15, 40, 7) {
		require.Equal(t, float32(1), v)
	}
	require.Empty(t, ResizeBilinear(uniform, 15, 15, 0, 7))
}

func TestFuse(t *testing.T) {
	boxes, masks := makeTensors([]instance{{class: 0, score: 0.9, x1: 0.1, y1: 0.1, x2: 0.5, y2: 0.5, maskValue: 1}})
	dets, err := NewDetector(nil).Detect(100, 100, boxes, masks)
	require.NoError(t, err)
	fused := Fuse(dets, depth.NewUniformImage(100, 100, 2500), depth.PointSample{})
	require.True(t, fused[0].HasDepth)
	require.Equal(t, 2500.0, fused[0].Depth)
	// The input is not modified
	require.False(t, dets[0].HasDepth)

	unfused := Fuse(dets, nil, depth.PointSample{})
	require.False(t, unfused[0].HasDepth)
}
