package report

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

func (c *Collector) writeHTMLChart(filename string) error {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Object distance", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Object distance", Subtitle: c.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "Distance (cm)", NameLocation: "middle", NameGap: 40}),
	)
	for _, s := range c.Series() {
		data := make([]opts.ScatterData, len(s.Times))
		for i := range s.Times {
			data[i] = opts.ScatterData{Value: []interface{}{s.Times[i], s.Distances[i]}}
		}
		scatter.AddSeries(s.Class, data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	}

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return fmt.Errorf("Failed to render chart: %w", err)
	}
	return os.WriteFile(filename, buf.Bytes(), 0644)
}
