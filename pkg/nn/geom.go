package nn

import (
	"github.com/chewxy/math32"
)

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) Distance(b Point) float32 {
	return math32.Sqrt(float32((p.X-b.X)*(p.X-b.X) + (p.Y-b.Y)*(p.Y-b.Y)))
}

func (p Point) Add(b Point) Point {
	return Point{X: p.X + b.X, Y: p.Y + b.Y}
}

// Rect is an axis-aligned box. The corners (X,Y) and (X2(),Y2()) are both
// pixel coordinates, so a box from 10 to 50 has Width 40.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Create a Rect from two corners, swapping them if they are inverted
func RectFromCorners(x1, y1, x2, y2 int) Rect {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return Rect{
		X:      x1,
		Y:      y1,
		Width:  x2 - x1,
		Height: y2 - y1,
	}
}

func (r Rect) X2() int {
	return r.X + r.Width
}

func (r Rect) Y2() int {
	return r.Y + r.Height
}

func (r Rect) Area() int {
	return r.Width * r.Height
}

func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Corners returns (x1, y1, x2, y2)
func (r Rect) Corners() [4]int {
	return [4]int{r.X, r.Y, r.X2(), r.Y2()}
}

func (r Rect) Intersection(b Rect) Rect {
	x1 := max(r.X, b.X)
	y1 := max(r.Y, b.Y)
	x2 := min(r.X+r.Width, b.X+b.Width)
	y2 := min(r.Y+r.Height, b.Y+b.Height)
	return Rect{
		X:      x1,
		Y:      y1,
		Width:  max(0, x2-x1),
		Height: max(0, y2-y1),
	}
}

// Center is the integer midpoint of the two corners, rounded down
func (r Rect) Center() Point {
	return Point{
		X: (r.X + r.X2()) / 2,
		Y: (r.Y + r.Y2()) / 2,
	}
}

// Clamp both corners so that they lie inside an image of the given size.
// The result always refers to valid pixels, as long as width and height are positive.
func (r Rect) Clamp(width, height int) Rect {
	x1 := clampInt(r.X, 0, width-1)
	y1 := clampInt(r.Y, 0, height-1)
	x2 := clampInt(r.X2(), 0, width-1)
	y2 := clampInt(r.Y2(), 0, height-1)
	return RectFromCorners(x1, y1, x2, y2)
}

func (r *Rect) Offset(dx, dy int) {
	r.X += dx
	r.Y += dy
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
