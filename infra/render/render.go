// Package render draws dashboard charts as standalone HTML pages.
package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/chargeboard/core/chart"
	"github.com/kilianp07/chargeboard/core/model"
)

// Chart is any go-echarts chart.
type Chart interface {
	Render(w io.Writer) error
}

// DepotLines draws one line per depot over the hour axis.
func DepotLines(c chart.DepotChart) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Depot load"}),
		charts.WithTitleOpts(opts.Title{Title: "Depot load", Subtitle: "kW per hour"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Hour"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "kW"}),
	)

	labels := make([]string, len(c.Points))
	for i, p := range c.Points {
		labels[i] = p.Label
	}
	line.SetXAxis(labels)
	for _, depot := range c.Depots {
		data := make([]opts.LineData, len(c.Points))
		for i, p := range c.Points {
			data[i] = opts.LineData{Value: c.KW(p, depot)}
		}
		line.AddSeries(depot, data)
	}
	return line
}

// VehicleHeatmap draws the vehicle by hour matrix. Colors saturate at the
// heatmap scale.
func VehicleHeatmap(hm *chart.Heatmap) *charts.HeatMap {
	h := charts.NewHeatMap()
	h.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Vehicle load"}),
		charts.WithTitleOpts(opts.Title{Title: "Vehicle load", Subtitle: fmt.Sprintf("full intensity at %gkW", hm.Scale)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Hour", Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Vehicle", Type: "category", Data: hm.Rows}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: true,
			Min:        0,
			Max:        float32(hm.Scale),
			InRange:    &opts.VisualMapInRange{Color: []string{"#f7fbff", "#08306b"}},
		}),
	)

	labels := make([]string, hm.Hours)
	for i := range labels {
		labels[i] = chart.HourLabel(i)
	}
	data := make([]opts.HeatMapData, 0, len(hm.Rows)*hm.Hours)
	for row, cells := range hm.Cells {
		for hour, kw := range cells {
			data = append(data, opts.HeatMapData{Value: [3]interface{}{hour, row, kw}})
		}
	}
	h.SetXAxis(labels).AddSeries("kW", data)
	return h
}

// ComparisonBars draws the cost and peak strategies side by side for each
// KPI.
func ComparisonBars(t model.ComparisonTable) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Strategy comparison"}),
		charts.WithTitleOpts(opts.Title{Title: "Strategy comparison"}),
	)
	bar.SetXAxis([]string{"Cost ($)", "Peak (kW)", "On-time (%)"})
	for _, r := range t.Rows() {
		bar.AddSeries(r.Strategy, []opts.BarData{
			{Value: r.Cost},
			{Value: r.Peak},
			{Value: r.OnTime},
		})
	}
	return bar
}

// HTML renders c to a complete HTML document.
func HTML(c Chart) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}
