package nn

import (
	"image/color"
	"math/rand"
)

const DefaultColorSeed = 2
const DefaultNumColors = 90

// ColorTable gives every class a fixed colour, so that the same class always
// renders the same way. The colours are pseudo-random but derived from a fixed seed,
// so they are stable across runs.
type ColorTable struct {
	colors []color.RGBA
}

func NewColorTable(seed int64, n int) *ColorTable {
	rng := rand.New(rand.NewSource(seed))
	t := &ColorTable{
		colors: make([]color.RGBA, n),
	}
	for i := range t.colors {
		t.colors[i] = color.RGBA{
			R: uint8(rng.Intn(255)),
			G: uint8(rng.Intn(255)),
			B: uint8(rng.Intn(255)),
			A: 255,
		}
	}
	return t
}

func (t *ColorTable) Len() int {
	return len(t.colors)
}

// Color returns the colour of a class.
// Class IDs beyond the table wrap around, because a missing colour is never worth failing a frame for.
func (t *ColorTable) Color(classID int) color.RGBA {
	if len(t.colors) == 0 {
		return color.RGBA{255, 255, 255, 255}
	}
	if classID < 0 {
		classID = -classID
	}
	return t.colors[classID%len(t.colors)]
}
