package overlay

import (
	"image/color"
	"testing"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/depthlabel/pkg/depth"
	"github.com/cyclopcam/depthlabel/pkg/nn"
	"github.com/stretchr/testify/require"
)

func pixel(img *cimg.Image, x, y int) color.RGBA {
	p := img.Pixels[y*img.Stride+x*img.NChan():]
	return color.RGBA{p[0], p[1], p[2], 255}
}

func testRenderer() *Renderer {
	classes := &nn.ClassTable{Names: []string{"person", "CAR"}}
	return NewRenderer(classes, nn.NewColorTable(nn.DefaultColorSeed, nn.DefaultNumColors), nil)
}

func squareObject(class int) nn.ObjectDetection {
	box := nn.RectFromCorners(10, 10, 50, 50)
	return nn.ObjectDetection{
		Class:      class,
		Confidence: 0.9,
		Box:        box,
		Center:     box.Center(),
		Contours:   []nn.Contour{{{0, 0}, {0, 39}, {39, 39}, {39, 0}}},
	}
}

func TestDrawMasksBlendsFill(t *testing.T) {
	r := testRenderer()
	img := cimg.NewImage(100, 100, cimg.PixelFormatRGB)
	r.DrawMasks(img, []nn.ObjectDetection{squareObject(1)})

	c := r.colors.Color(1)
	inside := pixel(img, 30, 30)
	require.InDelta(t, float64(c.R)/2, float64(inside.R), 1)
	require.InDelta(t, float64(c.G)/2, float64(inside.G), 1)
	require.InDelta(t, float64(c.B)/2, float64(inside.B), 1)

	require.Equal(t, color.RGBA{0, 0, 0, 255}, pixel(img, 5, 5))
	require.Equal(t, color.RGBA{0, 0, 0, 255}, pixel(img, 80, 80))
	require.Equal(t, color.RGBA{0, 0, 0, 255}, pixel(img, 30, 60))
}

func TestDrawMasksCompoundsContours(t *testing.T) {
	r := testRenderer()
	img := cimg.NewImage(100, 100, cimg.PixelFormatRGB)
	obj := squareObject(0)
	obj.Contours = append(obj.Contours, obj.Contours[0])
	r.DrawMasks(img, []nn.ObjectDetection{obj})

	// The second contour is blended with a fill buffer that still holds the first
	c := r.colors.Color(0)
	inside := pixel(img, 30, 30)
	require.InDelta(t, float64(c.R), float64(inside.R), 1.5)
	require.InDelta(t, float64(c.G), float64(inside.G), 1.5)
}

func TestDrawMasksDegenerate(t *testing.T) {
	r := testRenderer()
	img := cimg.NewImage(64, 48, cimg.PixelFormatRGB)
	empty := squareObject(0)
	empty.Box = nn.RectFromCorners(20, 20, 20, 30)
	noContours := squareObject(0)
	noContours.Contours = nil
	overhang := squareObject(1)
	overhang.Box = nn.Rect{X: 40, Y: 30, Width: 40, Height: 40}
	require.NotPanics(t, func() {
		r.DrawMasks(img, []nn.ObjectDetection{empty, noContours, overhang})
	})
	require.Equal(t, color.RGBA{0, 0, 0, 255}, pixel(img, 30, 25))
}

func TestDrawInfo(t *testing.T) {
	r := testRenderer()
	img := cimg.NewImage(320, 240, cimg.PixelFormatRGB)
	dimg := depth.NewUniformImage(320, 240, 2500)
	labels, err := r.DrawInfo(img, dimg, []nn.ObjectDetection{squareObject(0), squareObject(1)})
	require.NoError(t, err)
	require.Equal(t, []Label{{"Person", "250.00 cm"}, {"Car", "250.00 cm"}}, labels)

	// Corner of the label plate, clear of the text and the box outline.
	// Both objects share a box, so the second plate is on top.
	require.Equal(t, r.colors.Color(1), pixel(img, 12, 12))
	require.Equal(t, color.RGBA{0, 0, 0, 255}, pixel(img, 300, 200))
}

func TestDrawInfoWithoutDepth(t *testing.T) {
	r := testRenderer()
	img := cimg.NewImage(100, 100, cimg.PixelFormatRGB)
	labels, err := r.DrawInfo(img, nil, []nn.ObjectDetection{squareObject(0)})
	require.NoError(t, err)
	require.Equal(t, "no depth", labels[0].Distance)

	labels, err = r.DrawInfo(img, nil, nil)
	require.NoError(t, err)
	require.Empty(t, labels)
}

func TestDrawInfoUnknownClass(t *testing.T) {
	r := testRenderer()
	img := cimg.NewImage(100, 100, cimg.PixelFormatRGB)
	_, err := r.DrawInfo(img, nil, []nn.ObjectDetection{squareObject(7)})
	require.ErrorIs(t, err, nn.ErrClassOutOfRange)
	// Nothing is drawn when a class lookup fails
	require.Equal(t, color.RGBA{0, 0, 0, 255}, pixel(img, 12, 12))
}

func TestFormatting(t *testing.T) {
	require.Equal(t, "123.40 cm", FormatDistance(1234))
	require.Equal(t, "0.00 cm", FormatDistance(0))
	require.Equal(t, "Traffic light", Capitalize("traffic light"))
	require.Equal(t, "", Capitalize(""))
}
