package main

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/llilyshkall/it-camp/src/linkage"
	"github.com/llilyshkall/it-camp/src/report"
)

const deg = 180 / math.Pi

func newCalibrateCmd(a *app) *cobra.Command {
	var plot bool
	cmd := &cobra.Command{
		Use:   "calibrate [stroke-degrees...]",
		Short: "Find the crank radius for target beam strokes",
		Long: `Bisects the crank radius between the calibration limits so the beam
swings by each target stroke. Without arguments the configured stroke
is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			strokes, err := parseStrokes(args, a.settings.Animation.Stroke)
			if err != nil {
				return err
			}
			g := a.settings.LinkageGeometry()
			writeCalibrations(cmd.OutOrStdout(), g, strokes)

			if plot {
				dir := a.settings.Render.OutputDir
				if err := saveCalibrationPlots(dir, g, strokes[0]); err != nil {
					return err
				}
				a.log.Info().Str("dir", dir).Msg("calibration plots written")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&plot, "plot", false, "also plot amplitude vs crank radius and one beam cycle")
	return cmd
}

func parseStrokes(args []string, fallback float64) ([]float64, error) {
	if len(args) == 0 {
		return []float64{fallback}, nil
	}
	out := make([]float64, 0, len(args))
	for _, s := range args {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || !(v > 0) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid stroke %q", s)
		}
		out = append(out, v)
	}
	return out, nil
}

func writeCalibrations(w io.Writer, g linkage.Geometry, strokes []float64) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "stroke\tradius\tamplitude\terror\trod travel\t")
	for _, s := range strokes {
		c := linkage.Calibrate(g, s)
		fmt.Fprintf(tw, "%.2f°\t%.3f\t%.3f°\t%.3f°\t%.1f\t\n",
			s, c.CrankRadius, c.Amplitude*deg, c.Error*deg,
			linkage.RodTravel(g.WithCrankRadius(c.CrankRadius)))
	}
	tw.Flush()
}

// saveCalibrationPlots writes the achievable amplitude over the calibration
// range and one revolution of the beam at the radius calibrated for stroke.
func saveCalibrationPlots(dir string, g linkage.Geometry, stroke float64) error {
	radii := floats.Span(make([]float64, 87), linkage.MinCrankRadius, linkage.MaxCrankRadius)
	amps := make([]float64, len(radii))
	for i, r := range radii {
		amps[i] = linkage.Amplitude(g.WithCrankRadius(r)) * deg
	}
	st := report.DefaultStyle().WithFormats("%.0f", "%.1f")
	if err := st.SaveLinePlot(filepath.Join(dir, "calibration.png"),
		"Beam Amplitude vs Crank Radius", "crank radius (px)", "amplitude (deg)",
		report.Series{Name: "amplitude", X: radii, Y: amps}); err != nil {
		return err
	}

	cal := linkage.CalibrateCrankRadius(g, stroke)
	samples := linkage.Sweep(cal, 200)
	phi := make([]float64, len(samples))
	theta := make([]float64, len(samples))
	headY := make([]float64, len(samples))
	for i, s := range samples {
		phi[i] = s.Phi * deg
		theta[i] = s.Theta * deg
		headY[i] = s.HorseheadY
	}
	if err := st.SaveLinePlot(filepath.Join(dir, "beam_cycle.png"),
		fmt.Sprintf("Beam Angle over One Revolution (R=%.1f)", cal.CrankRadius),
		"crank angle (deg)", "theta (deg)",
		report.Series{Name: "theta", X: phi, Y: theta}); err != nil {
		return err
	}
	return report.WriteCSV(filepath.Join(dir, "beam_cycle.csv"),
		[]string{"phi_deg", "theta_deg", "horsehead_y"},
		[][]float64{phi, theta, headY})
}
