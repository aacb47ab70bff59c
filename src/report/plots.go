// Package report writes the offline outputs of a simulation run: plots,
// heat maps, CSV logs, PNG frames and the MP4 assembled from them.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Series is one named curve of a line plot.
type Series struct {
	Name string
	X, Y []float64
}

// Style sizes a plot and its PNG.
type Style struct {
	Width, Height vg.Length
	DPI           int

	TitleSize, LabelSize, TickSize vg.Length
	AxisWidth, LineWidth           vg.Length

	// MaxTicks caps the labels per axis; XFormat and YFormat print them.
	MaxTicks         int
	XFormat, YFormat string
}

// DefaultStyle is an 8x6 inch, 200 DPI figure with one-decimal tick labels.
func DefaultStyle() Style {
	return Style{
		Width:     8 * vg.Inch,
		Height:    6 * vg.Inch,
		DPI:       200,
		TitleSize: vg.Points(20),
		LabelSize: vg.Points(16),
		TickSize:  vg.Points(12),
		AxisWidth: vg.Points(1.5),
		LineWidth: vg.Points(2.5),
		MaxTicks:  8,
		XFormat:   "%.1f",
		YFormat:   "%.1f",
	}
}

// WithFormats returns s with other tick label formats.
func (s Style) WithFormats(x, y string) Style {
	s.XFormat, s.YFormat = x, y
	return s
}

// NiceTicker places at most maxTicks ticks on multiples of 1, 2, 2.5 or 5
// times a power of ten, each labelled with labelFmt.
func NiceTicker(maxTicks int, labelFmt string) plot.Ticker {
	maxTicks = max(maxTicks, 2)
	return plot.TickerFunc(func(lo, hi float64) []plot.Tick {
		if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
			return nil
		}
		if lo == hi {
			return []plot.Tick{{Value: lo, Label: fmt.Sprintf(labelFmt, lo)}}
		}
		step := niceStep((hi - lo) / float64(maxTicks-1))
		first := math.Ceil(lo/step) * step

		var ticks []plot.Tick
		for i := 0; ; i++ {
			v := first + float64(i)*step
			if v > hi+step*1e-9 {
				break
			}
			ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf(labelFmt, v)})
		}
		return ticks
	})
}

// niceStep rounds raw up to 1, 2, 2.5, 5 or 10 times a power of ten.
func niceStep(raw float64) float64 {
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	const eps = 1e-9
	for _, m := range []float64{1, 2, 2.5, 5} {
		if raw/mag <= m+eps {
			return m * mag
		}
	}
	return 10 * mag
}

// NewPlot returns a titled plot styled by s.
func (s Style) NewPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = s.TitleSize
	p.Title.Padding = s.TitleSize / 2

	for _, ax := range []*plot.Axis{&p.X, &p.Y} {
		ax.Label.TextStyle.Font.Size = s.LabelSize
		ax.Label.Padding = s.LabelSize / 2
		ax.LineStyle.Width = s.AxisWidth
		ax.Padding = s.TickSize
		ax.Tick.LineStyle.Width = s.AxisWidth
		ax.Tick.Length = s.TickSize / 2
		ax.Tick.Label.Font.Size = s.TickSize
	}
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.X.Tick.Marker = NiceTicker(s.MaxTicks, s.XFormat)
	p.Y.Tick.Marker = NiceTicker(s.MaxTicks, s.YFormat)
	return p
}

// Save renders p to a PNG at s's size and resolution.
func (s Style) Save(p *plot.Plot, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	c := vgimg.NewWith(vgimg.UseWH(s.Width, s.Height), vgimg.UseDPI(s.DPI))
	p.Draw(draw.New(c))

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(&buf); err != nil {
		return fmt.Errorf("cannot encode png: %w", err)
	}
	if err := os.WriteFile(filename, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return nil
}

// SaveLinePlot draws each series as a line and saves the PNG. A legend is
// added when there is more than one series.
func (s Style) SaveLinePlot(filename, title, xlabel, ylabel string, series ...Series) error {
	if len(series) == 0 {
		return errors.New("plot data invalid: no series")
	}
	p := s.NewPlot(title, xlabel, ylabel)

	for i, sr := range series {
		if len(sr.X) != len(sr.Y) || len(sr.X) == 0 {
			return fmt.Errorf("plot data invalid: series %q", sr.Name)
		}
		pts := make(plotter.XYs, len(sr.X))
		for k := range sr.X {
			pts[k].X, pts[k].Y = sr.X[k], sr.Y[k]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.LineStyle.Width = s.LineWidth
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		if len(series) > 1 {
			p.Legend.Add(sr.Name, line)
		}
	}
	if len(series) > 1 {
		p.Legend.Top = true
		p.Legend.TextStyle.Font.Size = s.TickSize
	}
	return s.Save(p, filename)
}

// SaveLinePlot is DefaultStyle().SaveLinePlot.
func SaveLinePlot(filename, title, xlabel, ylabel string, series ...Series) error {
	return DefaultStyle().SaveLinePlot(filename, title, xlabel, ylabel, series...)
}
