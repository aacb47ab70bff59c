package main

import (
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/llilyshkall/it-camp/src/linkage"
	"github.com/llilyshkall/it-camp/src/report"
)

type strokeMapOptions struct {
	radii   int
	pitmans int
	lMin    float64
	lMax    float64
}

func (o strokeMapOptions) validate() error {
	switch {
	case o.radii < 2 || o.pitmans < 2:
		return errors.New("strokemap: grid needs at least 2 radii and 2 pitman lengths")
	case !(o.lMin > 0) || !(o.lMax > o.lMin):
		return errors.New("strokemap: pitman range must be positive and increasing")
	}
	return nil
}

func newStrokeMapCmd(a *app) *cobra.Command {
	o := strokeMapOptions{radii: 44, pitmans: 41, lMin: 240, lMax: 440}
	cmd := &cobra.Command{
		Use:   "strokemap",
		Short: "Map beam amplitude over crank radius and pitman length",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.validate(); err != nil {
				return err
			}
			dir := a.settings.Render.OutputDir
			m := report.ComputeStrokeMap(a.settings.LinkageGeometry(),
				linkage.MinCrankRadius, linkage.MaxCrankRadius, o.radii,
				o.lMin, o.lMax, o.pitmans)

			a.log.Info().
				Float64("feasible", m.Feasible()).
				Float64("minAmplitude", m.Min()).
				Float64("maxAmplitude", m.Max()).
				Msg("stroke map computed")

			st := report.DefaultStyle().WithFormats("%.0f", "%.0f")
			if err := st.Save(m.Plot("Beam Amplitude (deg)", st),
				filepath.Join(dir, "stroke_map.png")); err != nil {
				return err
			}
			return writeStrokeMapCSV(filepath.Join(dir, "stroke_map.csv"), m)
		},
	}
	cmd.Flags().IntVar(&o.radii, "radii", o.radii, "number of crank radii")
	cmd.Flags().IntVar(&o.pitmans, "pitmans", o.pitmans, "number of pitman lengths")
	cmd.Flags().Float64Var(&o.lMin, "pitman-min", o.lMin, "shortest pitman length")
	cmd.Flags().Float64Var(&o.lMax, "pitman-max", o.lMax, "longest pitman length")
	return cmd
}

// writeStrokeMapCSV flattens the grid to one row per cell; infeasible cells
// are written as NaN.
func writeStrokeMapCSV(fn string, m *report.StrokeMap) error {
	nc, nr := m.Dims()
	radius := make([]float64, 0, nc*nr)
	pitman := make([]float64, 0, nc*nr)
	amp := make([]float64, 0, nc*nr)
	for r := 0; r < nr; r++ {
		for c := 0; c < nc; c++ {
			radius = append(radius, m.X(c))
			pitman = append(pitman, m.Y(r))
			amp = append(amp, m.Z(c, r))
		}
	}
	return report.WriteCSV(fn, []string{"crank_radius", "pitman_length", "amplitude_deg"},
		[][]float64{radius, pitman, amp})
}
