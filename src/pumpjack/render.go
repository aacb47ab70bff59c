package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/llilyshkall/it-camp/src/animation"
	"github.com/llilyshkall/it-camp/src/config"
	"github.com/llilyshkall/it-camp/src/render"
	"github.com/llilyshkall/it-camp/src/report"
)

// frameLog keeps one entry per rendered frame.
type frameLog struct {
	t, phase, theta, headY, rodY, residual []float64
}

func (l *frameLog) add(t float64, f animation.Frame) {
	l.t = append(l.t, t)
	l.phase = append(l.phase, f.CrankPhase)
	l.theta = append(l.theta, f.BeamAngle*180/math.Pi)
	l.headY = append(l.headY, f.Horsehead.Y)
	l.rodY = append(l.rodY, f.RodTopY)
	l.residual = append(l.residual, f.Residual)
}

type renderOptions struct {
	frames bool
	plots  bool
	csv    bool
}

func newRenderCmd(a *app) *cobra.Command {
	var o renderOptions
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the animation offscreen to PNG frames, MP4, plots and CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), a.settings, o, a.log)
		},
	}
	cmd.Flags().BoolVar(&o.frames, "frames", true, "write PNG frames (and the MP4 when encoding is enabled)")
	cmd.Flags().BoolVar(&o.plots, "plots", true, "write plots")
	cmd.Flags().BoolVar(&o.csv, "csv", true, "write the per-frame CSV log")
	return cmd
}

// runRender drives the animation from a fixed frame clock for
// render.seconds and writes the requested outputs under render.outputDir.
func runRender(ctx context.Context, s config.Settings, o renderOptions, log zerolog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	rs := s.Render
	outDir := rs.OutputDir
	framesDir := filepath.Join(outDir, "frames")

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("cannot create output dir: %w", err)
	}
	if o.frames {
		if err := report.CleanFrames(framesDir); err != nil {
			return fmt.Errorf("cannot clean frames: %w", err)
		}
	}

	totalFrames := int(math.Round(rs.Seconds * float64(rs.FPS)))
	frameDur := time.Second / time.Duration(rs.FPS)

	raster := render.NewRaster(rs.Width, rs.Height)
	var (
		flog    frameLog
		frameNo int
		werr    error
	)
	out := animation.RendererFunc(func(f animation.Frame) {
		raster.Render(f)
		flog.add(float64(frameNo)/float64(rs.FPS), f)
		if o.frames && werr == nil {
			werr = report.SavePNG(raster.Image(), report.FramePath(framesDir, frameNo))
		}
	})

	cfg := s.AnimationConfig()
	cfg.AutoStart = true
	sched := &animation.ManualScheduler{}
	d, err := animation.New(cfg, sched, out, log)
	if err != nil {
		return err
	}
	defer d.Close()

	log.Info().
		Str("animation", d.ID()).
		Int("frames", totalFrames).
		Int("fps", rs.FPS).
		Float64("crankRadius", d.Geometry().CrankRadius).
		Msg("rendering")

	for frameNo = 0; frameNo < totalFrames; frameNo++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		sched.Fire(time.Duration(frameNo) * frameDur)
		if werr != nil {
			return fmt.Errorf("frame %d: %w", frameNo, werr)
		}
		if (frameNo+1)%rs.FPS == 0 {
			log.Debug().Int("frame", frameNo+1).Int("total", totalFrames).Msg("progress")
		}
	}

	if lo, hi, ok := report.Extent(flog.rodY); ok {
		log.Info().
			Float64("rodTravel", hi-lo).
			Float64("rodTop", lo).
			Float64("rodBottom", hi).
			Msg("polished rod travel")
	}

	if o.frames && rs.Encode {
		mp4 := filepath.Join(outDir, "pumpjack.mp4")
		switch err := report.EncodeMP4(ctx, framesDir, rs.FPS, mp4); {
		case errors.Is(err, report.ErrNoFFmpeg):
			log.Warn().Str("frames", framesDir).Msg("ffmpeg not found on PATH; MP4 not created")
		case err != nil:
			return err
		default:
			log.Info().Str("file", mp4).Msg("video written")
		}
	}

	if o.plots {
		if err := saveRenderPlots(outDir, &flog); err != nil {
			return err
		}
	}

	if o.csv {
		fn := filepath.Join(outDir, "pumpjack_log.csv")
		err := report.WriteCSV(fn,
			[]string{"t", "phase", "theta_deg", "horsehead_y", "rod_top_y", "residual"},
			[][]float64{flog.t, flog.phase, flog.theta, flog.headY, flog.rodY, flog.residual},
		)
		if err != nil {
			return err
		}
	}

	log.Info().Str("dir", outDir).Msg("done")
	return nil
}

func saveRenderPlots(outDir string, l *frameLog) error {
	if len(l.t) == 0 {
		return nil
	}
	if err := report.SaveLinePlot(filepath.Join(outDir, "beam_angle.png"),
		"Walking Beam Angle", "time (s)", "theta (deg)",
		report.Series{Name: "theta", X: l.t, Y: l.theta}); err != nil {
		return err
	}
	if err := report.SaveLinePlot(filepath.Join(outDir, "rod_position.png"),
		"Polished Rod", "time (s)", "y (px)",
		report.Series{Name: "horsehead", X: l.t, Y: l.headY},
		report.Series{Name: "rod top (eased)", X: l.t, Y: l.rodY}); err != nil {
		return err
	}
	return report.SaveLinePlot(filepath.Join(outDir, "crank_phase.png"),
		"Crank Phase", "time (s)", "phase (rad)",
		report.Series{Name: "phase", X: l.t, Y: l.phase})
}
