package contour

import (
	"testing"

	"github.com/cyclopcam/depthlabel/pkg/nn"
	"github.com/stretchr/testify/require"
)

// Build a mask from rows of '#' (foreground) and '.' (background)
func parseMask(rows ...string) *Mask {
	m := NewMask(len(rows[0]), len(rows))
	for y, row := range rows {
		for x, c := range row {
			if c == '#' {
				m.Set(x, y, 255)
			}
		}
	}
	return m
}

func TestFullRectangle(t *testing.T) {
	m := NewMask(40, 40)
	for i := range m.Pixels {
		m.Pixels[i] = 255
	}
	contours := FindExternal(m)
	require.Equal(t, 1, len(contours))
	require.Equal(t, nn.Contour{{0, 0}, {0, 39}, {39, 39}, {39, 0}}, contours[0])
}

func TestSinglePixel(t *testing.T) {
	m := parseMask(
		"...",
		".#.",
		"...",
	)
	contours := FindExternal(m)
	require.Equal(t, []nn.Contour{{{1, 1}}}, contours)
}

func TestHorizontalLine(t *testing.T) {
	m := parseMask(
		".....",
		".###.",
		".....",
	)
	contours := FindExternal(m)
	require.Equal(t, 1, len(contours))
	require.Equal(t, nn.Contour{{1, 1}, {3, 1}}, contours[0])
}

func TestEmptyMask(t *testing.T) {
	require.Empty(t, FindExternal(NewMask(5, 5)))
	require.Empty(t, FindExternal(NewMask(0, 0)))
}

func TestTwoRegions(t *testing.T) {
	m := parseMask(
		"##....",
		"##....",
		"......",
		"...###",
		"...###",
	)
	contours := FindExternal(m)
	require.Equal(t, 2, len(contours))
	require.Equal(t, nn.Contour{{0, 0}, {0, 1}, {1, 1}, {1, 0}}, contours[0])
	require.Equal(t, nn.Contour{{3, 3}, {3, 4}, {5, 4}, {5, 3}}, contours[1])
}

func TestDiagonalIsConnected(t *testing.T) {
	m := parseMask(
		"#...",
		".#..",
		"..#.",
	)
	contours := FindExternal(m)
	require.Equal(t, 1, len(contours))
	require.Equal(t, nn.Contour{{0, 0}, {2, 2}}, contours[0])
}

func TestHoleAndIslandIgnored(t *testing.T) {
	m := parseMask(
		"#######",
		"#.....#",
		"#.###.#",
		"#.###.#",
		"#.....#",
		"#######",
	)
	contours := FindExternal(m)
	// The island sits inside the ring's hole, so only the ring's outer border is reported
	require.Equal(t, 1, len(contours))
	require.Equal(t, nn.Contour{{0, 0}, {0, 5}, {6, 5}, {6, 0}}, contours[0])
}

func TestContourPointsLieOnMask(t *testing.T) {
	m := parseMask(
		"..####..",
		".######.",
		"########",
		"###..###",
		"##....##",
	)
	contours := FindExternal(m)
	require.Equal(t, 1, len(contours))
	for _, p := range contours[0] {
		require.NotZero(t, m.At(p.X, p.Y), "point %v", p)
	}
	require.Equal(t, nn.Point{2, 0}, contours[0][0])
}

func TestSimplifyChain(t *testing.T) {
	chain := []nn.Point{{0, 0}, {0, 1}, {0, 2}, {1, 2}, {2, 2}, {2, 1}, {2, 0}, {1, 0}}
	require.Equal(t, nn.Contour{{0, 0}, {0, 2}, {2, 2}, {2, 0}}, SimplifyChain(chain))
}
