// ------------------------------------------------------------
// Pumpjack (beam pumping unit) linkage simulator
// ------------------------------------------------------------
// A crank drives the walking beam through the pitman; the beam angle for
// each crank angle comes from a warm-started Newton solve of the pitman
// length constraint, and the crank radius is calibrated so the beam swings
// by the requested stroke.
//
// Commands:
//   render     offscreen frames, MP4 (ffmpeg), plots and a CSV log
//   calibrate  crank radius for one or more target strokes
//   strokemap  beam amplitude over crank radius x pitman length
//   live       terminal preview with keyboard controls
//
// Output folder (relative to where you run the program, configurable):
//   output/pumpjack/
// ------------------------------------------------------------

package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/llilyshkall/it-camp/src/config"
)

// app carries what every subcommand needs after flag parsing.
type app struct {
	cfgFile  string
	logLevel string

	settings config.Settings
	log      zerolog.Logger
}

func (a *app) init() error {
	s, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		s.LogLevel = a.logLevel
		if err := s.Validate(); err != nil {
			return err
		}
	}
	lvl, err := s.Level()
	if err != nil {
		return err
	}

	a.settings = s
	a.log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(lvl).
		With().Timestamp().Logger()
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "pumpjack",
		Short: "Pumpjack linkage simulator",
		Long: `Simulates the crank, pitman, walking beam and horsehead of a beam
pumping unit and renders its motion.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (JSON or YAML)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newRenderCmd(a),
		newCalibrateCmd(a),
		newStrokeMapCmd(a),
		newLiveCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
