package report

import (
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"

	"github.com/llilyshkall/it-camp/src/linkage"
)

// StrokeMap is the beam amplitude, in degrees, over a grid of crank radii
// (columns) and pitman lengths (rows). Geometries that cannot be assembled
// hold NaN. It implements plotter.GridXYZ.
type StrokeMap struct {
	Radii   []float64
	Pitmans []float64
	Amp     []float64 // row-major: Amp[row*len(Radii)+col]
}

// ComputeStrokeMap evaluates base with every combination of nr crank radii
// in [rMin, rMax] and np pitman lengths in [lMin, lMax]. nr and np must be
// at least 2.
func ComputeStrokeMap(base linkage.Geometry, rMin, rMax float64, nr int, lMin, lMax float64, np int) *StrokeMap {
	m := &StrokeMap{
		Radii:   floats.Span(make([]float64, nr), rMin, rMax),
		Pitmans: floats.Span(make([]float64, np), lMin, lMax),
		Amp:     make([]float64, nr*np),
	}
	for r, l := range m.Pitmans {
		for c, rad := range m.Radii {
			g := base.WithCrankRadius(rad)
			g.PitmanLength = l

			amp := math.NaN()
			if g.Validate() == nil {
				amp = linkage.Amplitude(g) * 180 / math.Pi
			}
			m.Amp[r*nr+c] = amp
		}
	}
	return m
}

func (m *StrokeMap) Dims() (c, r int)   { return len(m.Radii), len(m.Pitmans) }
func (m *StrokeMap) Z(c, r int) float64 { return m.Amp[r*len(m.Radii)+c] }
func (m *StrokeMap) X(c int) float64    { return m.Radii[c] }
func (m *StrokeMap) Y(r int) float64    { return m.Pitmans[r] }

// Min is the smallest feasible amplitude, or NaN if none is.
func (m *StrokeMap) Min() float64 {
	lo, _ := m.extent()
	return lo
}

// Max is the largest feasible amplitude, or NaN if none is.
func (m *StrokeMap) Max() float64 {
	_, hi := m.extent()
	return hi
}

func (m *StrokeMap) extent() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range m.Amp {
		if math.IsNaN(v) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return math.NaN(), math.NaN()
	}
	return lo, hi
}

// Feasible returns the share of grid cells holding a feasible geometry.
func (m *StrokeMap) Feasible() float64 {
	if len(m.Amp) == 0 {
		return 0
	}
	n := 0
	for _, v := range m.Amp {
		if !math.IsNaN(v) {
			n++
		}
	}
	return float64(n) / float64(len(m.Amp))
}

// Plot draws the map as a heat map styled by st; infeasible cells stay
// transparent.
func (m *StrokeMap) Plot(title string, st Style) *plot.Plot {
	p := st.NewPlot(title, "crank radius", "pitman length")

	hm := plotter.NewHeatMap(m, moreland.Kindlmann().Palette(255))
	hm.NaN = color.Transparent
	p.Add(hm)
	return p
}
