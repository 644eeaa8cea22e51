package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cyclopcam/depthlabel/pkg/nn"
	"github.com/stretchr/testify/require"
)

func frame(ts float64, objects ...nn.ObjectDetection) *nn.FrameDetections {
	return &nn.FrameDetections{Timestamp: ts, Objects: objects}
}

func obj(class int, depth float64) nn.ObjectDetection {
	return nn.ObjectDetection{Class: class, Depth: depth, HasDepth: true}
}

func TestSummary(t *testing.T) {
	classes := &nn.ClassTable{Names: []string{"person", "bicycle", "car"}}
	c := NewCollector(classes)
	require.NoError(t, c.Add(frame(1000, obj(2, 3000), obj(0, 1000))))
	require.NoError(t, c.Add(frame(1500, obj(0, 2000), nn.ObjectDetection{Class: 1})))
	require.NoError(t, c.Add(frame(2000, obj(0, 3000))))
	require.Equal(t, 3, c.Frames())

	series := c.Series()
	require.Equal(t, 2, len(series))
	require.Equal(t, "person", series[0].Class)
	require.Equal(t, []float64{0, 0.5, 1}, series[0].Times)
	require.Equal(t, []float64{100, 200, 300}, series[0].Distances)

	sum := c.Summary()
	require.Equal(t, 2, len(sum))
	require.Equal(t, 3, sum[0].Count)
	require.InDelta(t, 200, sum[0].Mean, 1e-9)
	require.InDelta(t, 100, sum[0].StdDev, 1e-9)
	require.Equal(t, 100.0, sum[0].Min)
	require.Equal(t, 300.0, sum[0].Max)
	require.Equal(t, "car", sum[1].Class)
	require.Equal(t, 0.0, sum[1].StdDev)
	require.Contains(t, sum[0].String(), "mean 200.00 cm")
}

func TestUnknownClass(t *testing.T) {
	c := NewCollector(&nn.ClassTable{Names: []string{"person"}})
	require.ErrorIs(t, c.Add(frame(0, obj(3, 100))), nn.ErrClassOutOfRange)
}

func TestWriteChart(t *testing.T) {
	c := NewCollector(nn.NewCOCO90ClassTable())
	for i := 0; i < 10; i++ {
		require.NoError(t, c.Add(frame(float64(i)*100, obj(nn.COCO90Person, 2000+float64(i)*10), obj(nn.COCO90Car, 5000))))
	}
	filename := filepath.Join(t.TempDir(), "chart.png")
	require.NoError(t, c.WriteChart(filename, nn.NewColorTable(nn.DefaultColorSeed, nn.DefaultNumColors)))
	st, err := os.Stat(filename)
	require.NoError(t, err)
	require.Greater(t, st.Size(), int64(0))
}

func TestWriteHTMLChart(t *testing.T) {
	c := NewCollector(nn.NewCOCO90ClassTable())
	c.Title = "run 1"
	require.NoError(t, c.Add(frame(0, obj(nn.COCO90Person, 2000))))
	require.NoError(t, c.Add(frame(100, obj(nn.COCO90Person, 2100))))
	filename := filepath.Join(t.TempDir(), "chart.html")
	require.NoError(t, c.WriteChart(filename, nil))
	b, err := os.ReadFile(filename)
	require.NoError(t, err)
	require.Contains(t, string(b), "Object distance")
	require.Contains(t, string(b), "person")
}
