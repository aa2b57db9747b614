package report

import (
	"fmt"
	"image/color"
	"io"

	"github.com/banshee-data/limbspeed/internal/series"
	"github.com/banshee-data/limbspeed/internal/session"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	referenceColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	userColor      = color.RGBA{R: 255, G: 127, B: 14, A: 255}
)

// ComparisonPNG writes a PNG of the resampled reference and user speed
// series against playback progress.
func ComparisonPNG(w io.Writer, res session.ComparisonResult) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Speed comparison (r = %.3f, knee r = %.3f)", res.SpeedCorrelation, res.KneeCorrelation)
	p.X.Label.Text = "Progress (%)"
	p.Y.Label.Text = "Speed (m/s)"
	p.Add(plotter.NewGrid())

	for _, s := range []struct {
		name string
		data series.Resampled
		c    color.Color
	}{
		{"reference", res.ReferenceSpeed, referenceColor},
		{"user", res.UserSpeed, userColor},
	} {
		if s.data.Empty() {
			continue
		}
		line, err := plotter.NewLine(progressXYs(s.data))
		if err != nil {
			return fmt.Errorf("plot %s: %w", s.name, err)
		}
		line.Color = s.c
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	p.Legend.Top = true

	wt, err := p.WriterTo(10*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

func progressXYs(r series.Resampled) plotter.XYs {
	pts := make(plotter.XYs, r.Len())
	for i, v := range r.V {
		pts[i] = plotter.XY{X: progress(i, r.Len()), Y: v}
	}
	return pts
}
