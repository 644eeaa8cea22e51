// Package contour extracts polygon outlines from binary masks.
package contour

import "github.com/cyclopcam/depthlabel/pkg/nn"

// Neighbour offsets, in counter-clockwise order (as seen on screen, where y points down),
// starting from the pixel to the right.
var dirX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
var dirY = [8]int{0, -1, -1, -1, 0, 1, 1, 1}

// Mask is a binary image. Any non-zero pixel is foreground.
type Mask struct {
	Width  int
	Height int
	Pixels []byte
}

func NewMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Pixels: make([]byte, width*height),
	}
}

func (m *Mask) At(x, y int) byte {
	return m.Pixels[y*m.Width+x]
}

func (m *Mask) Set(x, y int, v byte) {
	m.Pixels[y*m.Width+x] = v
}

// padded is the mask with a one pixel border of background around it, so that
// neighbour lookups never need bounds checks.
type padded struct {
	width  int
	height int
	fg     []bool
	label  []int32 // 0 = unvisited, -1 = exterior background, >0 = component
}

func newPadded(m *Mask) *padded {
	p := &padded{
		width:  m.Width + 2,
		height: m.Height + 2,
	}
	p.fg = make([]bool, p.width*p.height)
	p.label = make([]int32, p.width*p.height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			p.fg[(y+1)*p.width+x+1] = m.Pixels[y*m.Width+x] != 0
		}
	}
	return p
}

// Mark all background that is 4-connected to the image border.
// Background inside a hole is not reached, because the foreground is 8-connected.
func (p *padded) markExterior() {
	stack := []int{0}
	p.label[0] = -1
	for len(stack) != 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%p.width, i/p.width
		for _, n := range [4][2]int{{x + 1, y}, {x - 1, y}, {x, y + 1}, {x, y - 1}} {
			if n[0] < 0 || n[1] < 0 || n[0] >= p.width || n[1] >= p.height {
				continue
			}
			j := n[1]*p.width + n[0]
			if !p.fg[j] && p.label[j] == 0 {
				p.label[j] = -1
				stack = append(stack, j)
			}
		}
	}
}

// Label the 8-connected component that contains 'start', and return true if any
// pixel of the component touches the exterior background.
func (p *padded) fillComponent(start int, id int32) bool {
	external := false
	stack := []int{start}
	p.label[start] = id
	for len(stack) != 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%p.width, i/p.width
		for d := 0; d < 8; d++ {
			j := (y+dirY[d])*p.width + x + dirX[d]
			if p.fg[j] {
				if p.label[j] == 0 {
					p.label[j] = id
					stack = append(stack, j)
				}
			} else if d%2 == 0 && p.label[j] == -1 {
				external = true
			}
		}
	}
	return external
}

// Follow the outer border of the component whose top-left pixel is (sx, sy).
// This is the border following step of Suzuki & Abe, which walks down the left side first.
// Returned points are in padded coordinates.
func (p *padded) trace(sx, sy int) []nn.Point {
	at := func(x, y int) bool {
		return p.fg[y*p.width+x]
	}

	// Search clockwise from the left neighbour for the first foreground pixel
	first := -1
	for k := 0; k < 8; k++ {
		d := (4 - k + 8) % 8
		if at(sx+dirX[d], sy+dirY[d]) {
			first = d
			break
		}
	}
	if first == -1 {
		return []nn.Point{{X: sx, Y: sy}}
	}

	x1, y1 := sx+dirX[first], sy+dirY[first]
	prevX, prevY := x1, y1
	curX, curY := sx, sy
	points := []nn.Point{}
	for {
		// Direction from current to previous
		from := direction(curX, curY, prevX, prevY)
		nextX, nextY := curX, curY
		for k := 1; k <= 8; k++ {
			d := (from + k) % 8
			if at(curX+dirX[d], curY+dirY[d]) {
				nextX, nextY = curX+dirX[d], curY+dirY[d]
				break
			}
		}
		points = append(points, nn.Point{X: curX, Y: curY})
		if nextX == sx && nextY == sy && curX == x1 && curY == y1 {
			break
		}
		prevX, prevY = curX, curY
		curX, curY = nextX, nextY
	}
	return points
}

func direction(fromX, fromY, toX, toY int) int {
	dx := toX - fromX
	dy := toY - fromY
	for d := 0; d < 8; d++ {
		if dirX[d] == dx && dirY[d] == dy {
			return d
		}
	}
	panic("contour: points are not neighbours")
}

// FindExternal returns the outer contours of the foreground regions of the mask.
// Regions are 8-connected. Holes are not reported, and neither are regions that lie
// inside the hole of another region.
// Contours are ordered by the raster position of their top-left pixel, and each
// contour has been reduced with SimplifyChain.
func FindExternal(m *Mask) []nn.Contour {
	if m.Width <= 0 || m.Height <= 0 {
		return nil
	}
	p := newPadded(m)
	p.markExterior()
	var contours []nn.Contour
	nextID := int32(1)
	for y := 1; y < p.height-1; y++ {
		for x := 1; x < p.width-1; x++ {
			i := y*p.width + x
			if !p.fg[i] || p.label[i] != 0 {
				continue
			}
			external := p.fillComponent(i, nextID)
			nextID++
			if !external {
				continue
			}
			chain := p.trace(x, y)
			c := SimplifyChain(chain)
			for j := range c {
				c[j].X--
				c[j].Y--
			}
			contours = append(contours, c)
		}
	}
	return contours
}

// SimplifyChain compresses horizontal, vertical and diagonal runs of a closed chain
// of neighbouring points, leaving only the points where the direction changes.
func SimplifyChain(chain []nn.Point) nn.Contour {
	n := len(chain)
	if n <= 2 {
		return append(nn.Contour(nil), chain...)
	}
	out := nn.Contour{}
	for i := 0; i < n; i++ {
		prev := chain[(i-1+n)%n]
		cur := chain[i]
		next := chain[(i+1)%n]
		if cur.X-prev.X != next.X-cur.X || cur.Y-prev.Y != next.Y-cur.Y {
			out = append(out, cur)
		}
	}
	if len(out) == 0 {
		// Only possible for a degenerate chain, so keep the start point
		out = append(out, chain[0])
	}
	return out
}
