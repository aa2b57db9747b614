// Package report renders speed and comparison series as HTML charts
// (go-echarts) and static PNG plots (gonum/plot).
package report

import (
	"fmt"
	"io"

	"github.com/banshee-data/limbspeed/internal/series"
	"github.com/banshee-data/limbspeed/internal/session"
	"github.com/banshee-data/limbspeed/internal/units"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// SpeedChartHTML writes a line chart of one run's smoothed speed with the
// peak marked, converted to the display units.
func SpeedChartHTML(w io.Writer, title string, res session.FileResult, unit string) error {
	if !units.IsValid(unit) {
		unit = units.MPS
	}
	x := make([]string, len(res.Speed.T))
	y := make([]opts.LineData, len(res.Speed.V))
	t0 := 0.0
	if len(res.Speed.T) > 0 {
		t0 = res.Speed.T[0]
	}
	for i, t := range res.Speed.T {
		x[i] = fmt.Sprintf("%.2f", (t-t0)/1000)
		y[i] = opts.LineData{Value: units.ConvertSpeed(res.Speed.V[i], unit)}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("max %s at %.2fs, %d samples", units.Format(res.Max.MaxValue, unit, 2), (res.MaxAtMs-t0)/1000, res.Samples),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: fmt.Sprintf("speed (%s)", units.Label(unit))}),
	)
	line.SetXAxis(x).AddSeries("speed", y,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), ShowSymbol: opts.Bool(false)}),
		charts.WithMarkPointNameTypeItemOpts(opts.MarkPointNameTypeItem{Name: "max", Type: "max"}),
	)
	return line.Render(w)
}

// ComparisonChartHTML writes a page with the resampled speed and knee
// angle series of both recordings plotted against playback progress.
func ComparisonChartHTML(w io.Writer, res session.ComparisonResult) error {
	page := components.NewPage()
	page.PageTitle = "Comparison " + res.ID
	page.AddCharts(
		pairChart("Speed", fmt.Sprintf("r = %.3f", res.SpeedCorrelation), "speed (m/s)", res.ReferenceSpeed, res.UserSpeed),
		pairChart("Knee angle", fmt.Sprintf("r = %.3f", res.KneeCorrelation), "angle (deg)", res.ReferenceKnee, res.UserKnee),
	)
	return page.Render(w)
}

func pairChart(title, subtitle, yName string, ref, user series.Resampled) *charts.Line {
	n := max(ref.Len(), user.Len())
	x := make([]string, n)
	for i := range x {
		x[i] = fmt.Sprintf("%.0f%%", progress(i, n))
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "progress", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
	)
	line.SetXAxis(x).
		AddSeries("reference", lineData(ref.V), charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)})).
		AddSeries("user", lineData(user.V), charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	return line
}

func lineData(v []float64) []opts.LineData {
	out := make([]opts.LineData, len(v))
	for i, x := range v {
		out[i] = opts.LineData{Value: x}
	}
	return out
}

// progress maps index i of n onto 0..100.
func progress(i, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(i) / float64(n-1) * 100
}
