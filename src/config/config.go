// Package config loads pumpjack settings from defaults, an optional JSON or
// YAML file and PUMPJACK_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/llilyshkall/it-camp/src/animation"
	"github.com/llilyshkall/it-camp/src/linkage"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// EnvPrefix prefixes environment overrides, e.g. PUMPJACK_ANIMATION_SPEED.
const EnvPrefix = "PUMPJACK"

// Point is a position in canvas pixels.
type Point struct {
	X float64 `mapstructure:"x"`
	Y float64 `mapstructure:"y"`
}

// Animation holds the live animation settings.
type Animation struct {
	Speed      float64       `mapstructure:"speed"`  // Hz
	Stroke     float64       `mapstructure:"stroke"` // degrees
	Easing     time.Duration `mapstructure:"easing"`
	ShowPivots bool          `mapstructure:"showPivots"`
	AutoStart  bool          `mapstructure:"autoStart"`
}

// Geometry mirrors linkage.Geometry.
type Geometry struct {
	Pivot        Point   `mapstructure:"pivot"`
	CrankCenter  Point   `mapstructure:"crankCenter"`
	BeamRight    float64 `mapstructure:"beamRight"`
	BeamLeft     float64 `mapstructure:"beamLeft"`
	CrankRadius  float64 `mapstructure:"crankRadius"`
	PitmanLength float64 `mapstructure:"pitmanLength"`
	RodBottomY   float64 `mapstructure:"rodBottomY"`
}

// Render holds the offline rendering settings.
type Render struct {
	Width     int     `mapstructure:"width"`
	Height    int     `mapstructure:"height"`
	FPS       int     `mapstructure:"fps"`
	Seconds   float64 `mapstructure:"seconds"`
	OutputDir string  `mapstructure:"outputDir"`
	Encode    bool    `mapstructure:"encode"`
}

// Settings is the full configuration.
type Settings struct {
	LogLevel  string    `mapstructure:"logLevel"`
	Animation Animation `mapstructure:"animation"`
	Geometry  Geometry  `mapstructure:"geometry"`
	Render    Render    `mapstructure:"render"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")

	v.SetDefault("animation.speed", 0.4)
	v.SetDefault("animation.stroke", 18.0)
	v.SetDefault("animation.easing", "90ms")
	v.SetDefault("animation.showPivots", false)
	v.SetDefault("animation.autoStart", true)

	g := linkage.DefaultGeometry()
	v.SetDefault("geometry.pivot.x", g.Pivot.X)
	v.SetDefault("geometry.pivot.y", g.Pivot.Y)
	v.SetDefault("geometry.crankCenter.x", g.CrankCenter.X)
	v.SetDefault("geometry.crankCenter.y", g.CrankCenter.Y)
	v.SetDefault("geometry.beamRight", g.BeamRight)
	v.SetDefault("geometry.beamLeft", g.BeamLeft)
	v.SetDefault("geometry.crankRadius", g.CrankRadius)
	v.SetDefault("geometry.pitmanLength", g.PitmanLength)
	v.SetDefault("geometry.rodBottomY", g.RodBottomY)

	v.SetDefault("render.width", 900)
	v.SetDefault("render.height", 600)
	v.SetDefault("render.fps", 60)
	v.SetDefault("render.seconds", 5.0)
	v.SetDefault("render.outputDir", "output/pumpjack")
	v.SetDefault("render.encode", true)
}

// Load reads the settings. An empty path means defaults and environment
// only; otherwise the file must exist and its extension selects the format.
func Load(path string) (Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("error decoding config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Default returns the built-in settings.
func Default() Settings {
	s, err := Load("")
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks ranges and that the geometry assembles at the configured
// crank radius and at every radius the calibration may choose.
func (s Settings) Validate() error {
	if _, err := s.Level(); err != nil {
		return fmt.Errorf("%w: logLevel: %w", ErrInvalid, err)
	}

	a := s.Animation
	switch {
	case math.IsNaN(a.Speed) || math.IsInf(a.Speed, 0) || a.Speed < 0:
		return fmt.Errorf("%w: animation.speed must be a non-negative number, got %g", ErrInvalid, a.Speed)
	case !(a.Stroke > 0) || math.IsInf(a.Stroke, 0):
		return fmt.Errorf("%w: animation.stroke must be positive, got %g", ErrInvalid, a.Stroke)
	case a.Easing < 0:
		return fmt.Errorf("%w: animation.easing must not be negative, got %s", ErrInvalid, a.Easing)
	}

	r := s.Render
	switch {
	case r.Width <= 0 || r.Height <= 0:
		return fmt.Errorf("%w: render size %dx%d", ErrInvalid, r.Width, r.Height)
	case r.FPS <= 0:
		return fmt.Errorf("%w: render.fps must be positive, got %d", ErrInvalid, r.FPS)
	case !(r.Seconds > 0):
		return fmt.Errorf("%w: render.seconds must be positive, got %g", ErrInvalid, r.Seconds)
	}

	g := s.LinkageGeometry()
	if err := g.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	// the calibrator may pick any radius up to the largest one
	if err := g.WithCrankRadius(linkage.MaxCrankRadius).Feasible(); err != nil {
		return fmt.Errorf("%w: calibration range: %w", ErrInvalid, err)
	}
	return nil
}

// Level parses LogLevel.
func (s Settings) Level() (zerolog.Level, error) {
	return zerolog.ParseLevel(strings.ToLower(s.LogLevel))
}

// LinkageGeometry converts the geometry section.
func (s Settings) LinkageGeometry() linkage.Geometry {
	g := s.Geometry
	return linkage.Geometry{
		Pivot:        linkage.Point{X: g.Pivot.X, Y: g.Pivot.Y},
		CrankCenter:  linkage.Point{X: g.CrankCenter.X, Y: g.CrankCenter.Y},
		BeamRight:    g.BeamRight,
		BeamLeft:     g.BeamLeft,
		CrankRadius:  g.CrankRadius,
		PitmanLength: g.PitmanLength,
		RodBottomY:   g.RodBottomY,
	}
}

// AnimationConfig builds the driver configuration.
func (s Settings) AnimationConfig() animation.Config {
	return animation.Config{
		Params: animation.Params{
			FrequencyHz:   s.Animation.Speed,
			StrokeDegrees: s.Animation.Stroke,
			Easing:        s.Animation.Easing,
		},
		Geometry:         s.LinkageGeometry(),
		AutoStart:        s.Animation.AutoStart,
		ShowPivotMarkers: s.Animation.ShowPivots,
	}
}
