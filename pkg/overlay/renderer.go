// Package overlay draws object detections onto colour frames
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/depthlabel/pkg/depth"
	"github.com/cyclopcam/depthlabel/pkg/nn"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/inconsolata"
)

const (
	OutlineWidth  = 3
	InfoLineWidth = 1
	FillWeight    = 0.5
	PlateWidth    = 250
	PlateHeight   = 70
)

var textColor = color.RGBA{255, 255, 255, 255}

// Label is the text that DrawInfo wrote for one object
type Label struct {
	ClassName string
	Distance  string
}

// Renderer draws masks and object info. It holds no per-frame state.
type Renderer struct {
	classes   *nn.ClassTable
	colors    *nn.ColorTable
	estimator depth.Estimator
	face      font.Face
}

func NewRenderer(classes *nn.ClassTable, colors *nn.ColorTable, estimator depth.Estimator) *Renderer {
	if estimator == nil {
		estimator = depth.PointSample{}
	}
	return &Renderer{
		classes:   classes,
		colors:    colors,
		estimator: estimator,
		face:      inconsolata.Bold8x16,
	}
}

// DrawMasks outlines each contour in its class colour, and blends a half-strength fill
// of the contour over the box. The image is modified in place.
// Later contours of the same box compound on top of the earlier ones.
func (r *Renderer) DrawMasks(img *cimg.Image, dets []nn.ObjectDetection) {
	for i := range dets {
		det := &dets[i]
		if len(det.Contours) == 0 {
			continue
		}
		region := boxRegion(img, det.Box.X, det.Box.Y, det.Box.X2(), det.Box.Y2())
		if region.Empty() {
			continue
		}
		col := r.colors.Color(det.Class)

		// Contours are relative to the box, but the region may have been trimmed by the image edge
		shiftX := float64(det.Box.X - region.Min.X)
		shiftY := float64(det.Box.Y - region.Min.Y)

		roi := cropToRGBA(img, region)
		fill := image.NewRGBA(roi.Rect)
		for _, c := range det.Contours {
			outline := gg.NewContextForRGBA(roi)
			outline.SetColor(col)
			outline.SetLineWidth(OutlineWidth)
			tracePolygon(outline, c, shiftX, shiftY)
			outline.Stroke()

			filler := gg.NewContextForRGBA(fill)
			filler.SetColor(col)
			tracePolygon(filler, c, shiftX, shiftY)
			filler.Fill()

			addWeighted(roi, fill, FillWeight)
		}
		writeBack(img, roi, region.Min)
	}
}

// Points are pixel indices, so we draw through pixel centers
func tracePolygon(dc *gg.Context, c nn.Contour, shiftX, shiftY float64) {
	dc.NewSubPath()
	for i, p := range c {
		x := float64(p.X) + shiftX + 0.5
		y := float64(p.Y) + shiftY + 0.5
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.ClosePath()
}

// DrawInfo draws a crosshair through each object's center, a label plate with the class name
// and distance, and the bounding box. The image is modified in place.
// Returns ErrClassOutOfRange if an object's class is not in the class table.
func (r *Renderer) DrawInfo(img *cimg.Image, depthImg *depth.Image, dets []nn.ObjectDetection) ([]Label, error) {
	labels := make([]Label, 0, len(dets))
	if len(dets) == 0 {
		return labels, nil
	}
	for i := range dets {
		name, err := r.classes.Name(dets[i].Class)
		if err != nil {
			return nil, err
		}
		label := Label{ClassName: Capitalize(name), Distance: "no depth"}
		if depthImg != nil {
			if v, ok := r.estimator.Estimate(depthImg, &dets[i]); ok {
				label.Distance = FormatDistance(v)
			}
		}
		labels = append(labels, label)
	}

	full := image.Rect(0, 0, img.Width, img.Height)
	canvas := cropToRGBA(img, full)
	dc := gg.NewContextForRGBA(canvas)
	dc.SetFontFace(r.face)
	for i := range dets {
		det := &dets[i]
		col := r.colors.Color(det.Class)
		x1 := float64(det.Box.X)
		y1 := float64(det.Box.Y)
		x2 := float64(det.Box.X2())
		y2 := float64(det.Box.Y2())
		cx := float64(det.Center.X) + 0.5
		cy := float64(det.Center.Y) + 0.5

		dc.SetColor(col)
		dc.SetLineWidth(InfoLineWidth)
		dc.DrawLine(cx, y1, cx, y2)
		dc.DrawLine(x1, cy, x2, cy)
		dc.Stroke()

		dc.DrawRectangle(x1, y1, PlateWidth, PlateHeight)
		dc.Fill()

		dc.SetColor(textColor)
		dc.DrawString(labels[i].ClassName, x1+5, y1+25)
		dc.DrawString(labels[i].Distance, x1+5, y1+60)

		dc.SetColor(col)
		dc.DrawRectangle(x1+0.5, y1+0.5, x2-x1, y2-y1)
		dc.Stroke()
	}
	writeBack(img, canvas, full.Min)
	return labels, nil
}

// FormatDistance converts raw depth (millimeters) into the centimeter text shown on the plate
func FormatDistance(raw float64) string {
	return fmt.Sprintf("%.2f cm", raw/10)
}

// Capitalize upper-cases the first letter, and lower-cases the rest
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}
