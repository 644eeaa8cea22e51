// Package report summarizes the distances measured over a run, per class,
// and draws them as a chart.
package report

import (
	"fmt"
	"image/color"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cyclopcam/depthlabel/pkg/nn"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Series is the distance of every object of one class, over time
type Series struct {
	Class     string
	ClassID   int
	Times     []float64 // Seconds since the first frame
	Distances []float64 // Centimeters
}

// ClassSummary is the distance statistics of one class
type ClassSummary struct {
	Class  string
	Count  int
	Mean   float64 // Centimeters
	StdDev float64
	Min    float64
	Max    float64
}

func (s ClassSummary) String() string {
	return fmt.Sprintf("%v: %v samples, mean %.2f cm, stddev %.2f cm, range %.2f .. %.2f cm", s.Class, s.Count, s.Mean, s.StdDev, s.Min, s.Max)
}

// Collector accumulates the fused detections of every frame
type Collector struct {
	Title string // Added to the chart title, eg the run ID

	classes  *nn.ClassTable
	series   map[int]*Series
	start    float64
	hasStart bool
	frames   int
}

func NewCollector(classes *nn.ClassTable) *Collector {
	return &Collector{
		classes: classes,
		series:  map[int]*Series{},
	}
}

// Add records the distance of every object in the frame that has a depth reading
func (c *Collector) Add(fd *nn.FrameDetections) error {
	if !c.hasStart {
		c.start = fd.Timestamp
		c.hasStart = true
	}
	c.frames++
	t := (fd.Timestamp - c.start) / 1000
	for i := range fd.Objects {
		obj := &fd.Objects[i]
		if !obj.HasDepth {
			continue
		}
		s := c.series[obj.Class]
		if s == nil {
			name, err := c.classes.Name(obj.Class)
			if err != nil {
				return err
			}
			s = &Series{Class: name, ClassID: obj.Class}
			c.series[obj.Class] = s
		}
		s.Times = append(s.Times, t)
		s.Distances = append(s.Distances, obj.Depth/10)
	}
	return nil
}

// Number of frames added
func (c *Collector) Frames() int {
	return c.frames
}

// Series returns all series, ordered by class ID
func (c *Collector) Series() []*Series {
	all := make([]*Series, 0, len(c.series))
	for _, s := range c.series {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].ClassID < all[j].ClassID
	})
	return all
}

// Summary returns the statistics of each class, ordered by class ID
func (c *Collector) Summary() []ClassSummary {
	out := []ClassSummary{}
	for _, s := range c.Series() {
		mean, std := stat.MeanStdDev(s.Distances, nil)
		if len(s.Distances) < 2 {
			std = 0
		}
		out = append(out, ClassSummary{
			Class:  s.Class,
			Count:  len(s.Distances),
			Mean:   mean,
			StdDev: std,
			Min:    floats.Min(s.Distances),
			Max:    floats.Max(s.Distances),
		})
	}
	return out
}

// WriteChart saves a chart of distance over time, with one series per class.
// The format is chosen from the file extension. ".html" produces an interactive chart,
// and anything else (eg .png, .svg) is a static image.
func (c *Collector) WriteChart(filename string, colors *nn.ColorTable) error {
	if strings.ToLower(filepath.Ext(filename)) == ".html" {
		return c.writeHTMLChart(filename)
	}
	p := plot.New()
	p.Title.Text = "Object distance"
	if c.Title != "" {
		p.Title.Text += " (" + c.Title + ")"
	}
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Distance (cm)"

	for _, s := range c.Series() {
		pts := make(plotter.XYs, len(s.Times))
		for i := range s.Times {
			pts[i] = plotter.XY{X: s.Times[i], Y: s.Distances[i]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		var col color.Color = color.Black
		if colors != nil {
			col = colors.Color(s.ClassID)
		}
		line.Color = col
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.Class, line)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(10*vg.Inch, 5*vg.Inch, filename); err != nil {
		return fmt.Errorf("Failed to save chart %v: %w", filename, err)
	}
	return nil
}
