// Package animation advances a pumpjack linkage in wall-clock time and hands
// each solved pose to a renderer.
//
// A Driver is single-threaded: its methods and the frame callbacks it
// schedules must all run on one goroutine. Separate drivers share nothing.
package animation

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/llilyshkall/it-camp/src/linkage"
)

// ErrClosed is returned by operations on a closed Driver.
var ErrClosed = errors.New("animation: driver closed")

// ErrInvalidParam is returned for a speed, stroke or easing that would make
// the linkage state non-finite.
var ErrInvalidParam = errors.New("animation: invalid parameter")

// minEasing keeps the easing factor finite for a zero time constant.
const minEasing = time.Microsecond

// residualWarn is the pitman length error above which a frame is logged as
// degraded.
const residualWarn = 1e-3

// RunState is the lifecycle state of a Driver.
type RunState int

const (
	Stopped RunState = iota
	Running
)

func (s RunState) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	}
	return fmt.Sprintf("RunState(%d)", int(s))
}

// Params are the live animation settings.
type Params struct {
	FrequencyHz   float64       // crank revolutions per second
	StrokeDegrees float64       // target half swing of the beam
	Easing        time.Duration // polished rod lag time constant
}

// DefaultParams returns the settings of the stock animation.
func DefaultParams() Params {
	return Params{FrequencyHz: 0.4, StrokeDegrees: 18, Easing: 90 * time.Millisecond}
}

// Validate rejects negative or non-finite speeds, non-positive or
// non-finite strokes and negative easing.
func (p Params) Validate() error {
	if err := checkSpeed(p.FrequencyHz); err != nil {
		return err
	}
	if err := checkStroke(p.StrokeDegrees); err != nil {
		return err
	}
	if p.Easing < 0 {
		return fmt.Errorf("%w: easing %s", ErrInvalidParam, p.Easing)
	}
	return nil
}

func checkSpeed(hz float64) error {
	if math.IsNaN(hz) || math.IsInf(hz, 0) || hz < 0 {
		return fmt.Errorf("%w: speed %g Hz", ErrInvalidParam, hz)
	}
	return nil
}

func checkStroke(deg float64) error {
	if !(deg > 0) || math.IsInf(deg, 0) {
		return fmt.Errorf("%w: stroke %g°", ErrInvalidParam, deg)
	}
	return nil
}

// Kinematics is the mutable per-frame state.
type Kinematics struct {
	CrankPhase float64 // radians, grows while running
	BeamAngle  float64 // last solved angle, the next solve's guess
	RodTopY    float64 // eased polished rod top

	LastFrame    time.Duration
	HasLastFrame bool
}

// Frame is the render data of one pose.
type Frame struct {
	Geometry linkage.Geometry

	CrankPhase float64
	BeamAngle  float64
	CrankPin   linkage.Point
	BeamAttach linkage.Point
	Horsehead  linkage.Point
	RodTopY    float64

	ShowPivotMarkers bool

	// Residual is the pitman length error left by the solver.
	Residual float64
}

// Renderer draws frames. The driver calls it synchronously.
type Renderer interface {
	Render(f Frame)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(f Frame)

// Render implements Renderer.
func (fn RendererFunc) Render(f Frame) { fn(f) }

// Config bundles what a Driver is built from.
type Config struct {
	Params   Params
	Geometry linkage.Geometry

	AutoStart        bool
	ShowPivotMarkers bool
}

// DefaultConfig returns the stock animation, started on construction.
func DefaultConfig() Config {
	return Config{
		Params:    DefaultParams(),
		Geometry:  linkage.DefaultGeometry(),
		AutoStart: true,
	}
}

// Driver runs one pumpjack animation.
type Driver struct {
	id    string
	log   zerolog.Logger
	sched Scheduler
	out   Renderer

	params Params
	geom   linkage.Geometry
	kin    Kinematics
	pivots bool

	state  RunState
	closed bool
}

// New builds a driver, calibrates the crank radius for the configured stroke
// and places the linkage at phase zero. The geometry must be feasible for
// every crank radius the calibration may pick.
func New(cfg Config, sched Scheduler, out Renderer, log zerolog.Logger) (*Driver, error) {
	if sched == nil || out == nil {
		return nil, errors.New("animation: scheduler and renderer are required")
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Geometry.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Geometry.WithCrankRadius(linkage.MaxCrankRadius).Feasible(); err != nil {
		return nil, fmt.Errorf("calibration range: %w", err)
	}

	id := uuid.NewString()
	d := &Driver{
		id:     id,
		log:    log.With().Str("animation", id).Logger(),
		sched:  sched,
		out:    out,
		params: cfg.Params,
		geom:   cfg.Geometry,
		pivots: cfg.ShowPivotMarkers,
	}
	d.calibrate()
	d.kin.RodTopY = d.geom.Horsehead(d.kin.BeamAngle).Y

	if cfg.AutoStart {
		_ = d.Start()
	}
	return d, nil
}

// ID identifies the driver in log records.
func (d *Driver) ID() string { return d.id }

// State returns the lifecycle state.
func (d *Driver) State() RunState { return d.state }

// Kinematics returns a copy of the current kinematic state.
func (d *Driver) Kinematics() Kinematics { return d.kin }

// Geometry returns the geometry in use, including the calibrated radius.
func (d *Driver) Geometry() linkage.Geometry { return d.geom }

// Params returns the live settings.
func (d *Driver) Params() Params { return d.params }

// Start begins scheduling frames. It does nothing when already running.
func (d *Driver) Start() error {
	if d.closed {
		return ErrClosed
	}
	if d.state == Running {
		return nil
	}
	d.state = Running
	d.kin.HasLastFrame = false
	d.sched.Schedule(d.frame)
	d.log.Debug().Msg("animation started")
	return nil
}

// Pause stops scheduling frames. A frame already running completes.
func (d *Driver) Pause() {
	if d.state == Stopped {
		return
	}
	d.state = Stopped
	d.sched.Cancel()
	d.log.Debug().Float64("phase", d.kin.CrankPhase).Msg("animation paused")
}

// Reset returns the crank to phase zero, snaps the polished rod to the
// horsehead and renders one frame. The run state is unchanged.
func (d *Driver) Reset() {
	if d.closed {
		return
	}
	d.kin.CrankPhase = 0
	d.kin.HasLastFrame = false
	sol := d.geom.Solve(0, d.guess())
	d.kin.BeamAngle = sol.Theta
	d.kin.RodTopY = d.geom.Horsehead(sol.Theta).Y
	d.emit(sol.Residual)
}

// SetSpeed changes the crank frequency from the next frame on. The speed
// must be finite and not negative.
func (d *Driver) SetSpeed(hz float64) error {
	if err := checkSpeed(hz); err != nil {
		return err
	}
	d.params.FrequencyHz = hz
	return nil
}

// SetStroke recalibrates the crank radius for a new target stroke before
// returning.
func (d *Driver) SetStroke(degrees float64) error {
	if d.closed {
		return ErrClosed
	}
	if err := checkStroke(degrees); err != nil {
		return err
	}
	d.params.StrokeDegrees = degrees
	d.calibrate()
	return nil
}

// SetPivotMarkers shows or hides pivot markers in rendered frames.
func (d *Driver) SetPivotMarkers(show bool) {
	d.pivots = show
}

// PivotMarkers reports whether frames carry pivot markers.
func (d *Driver) PivotMarkers() bool { return d.pivots }

// TogglePivotMarkers flips the pivot markers and returns the new setting.
func (d *Driver) TogglePivotMarkers() bool {
	d.pivots = !d.pivots
	return d.pivots
}

// Close cancels any pending frame. The driver cannot be restarted.
func (d *Driver) Close() {
	if d.closed {
		return
	}
	d.state = Stopped
	d.closed = true
	d.sched.Cancel()
	d.log.Debug().Msg("animation closed")
}

// Step advances the linkage by dt seconds without rendering or touching
// the frame timestamp, and returns the eased frame. Negative or
// non-finite dt counts as zero.
func (d *Driver) Step(dt float64) Frame {
	if !(dt > 0) || math.IsInf(dt, 1) {
		dt = 0
	}
	d.kin.CrankPhase += d.omega() * dt
	sol := d.geom.Solve(d.kin.CrankPhase, d.guess())
	d.kin.BeamAngle = sol.Theta

	trueY := d.geom.Horsehead(sol.Theta).Y
	d.kin.RodTopY += (trueY - d.kin.RodTopY) * easingFactor(dt, d.params.Easing)

	if sol.Residual > residualWarn {
		d.log.Warn().
			Float64("phase", d.kin.CrankPhase).
			Float64("residual", sol.Residual).
			Msg("beam angle did not converge")
	}
	return d.frameData(sol.Residual)
}

func (d *Driver) frame(ts time.Duration) {
	if d.state != Running {
		return
	}

	var dt float64
	if d.kin.HasLastFrame {
		dt = (ts - d.kin.LastFrame).Seconds()
	}
	d.kin.LastFrame = ts
	d.kin.HasLastFrame = true

	d.out.Render(d.Step(dt))

	// the renderer may have paused or closed the driver
	if d.state == Running {
		d.sched.Schedule(d.frame)
	}
}

func (d *Driver) calibrate() {
	c := linkage.Calibrate(d.geom, d.params.StrokeDegrees)
	d.geom = d.geom.WithCrankRadius(c.CrankRadius)
	d.kin.BeamAngle = d.geom.SolveBeamAngle(d.kin.CrankPhase, d.guess())

	d.log.Debug().
		Float64("stroke", d.params.StrokeDegrees).
		Float64("crankRadius", c.CrankRadius).
		Float64("errorDeg", c.Error*180/math.Pi).
		Msg("crank radius calibrated")
}

// guess is the warm start for the next solve; a non-finite angle falls
// back to the level beam.
func (d *Driver) guess() float64 {
	if th := d.kin.BeamAngle; !math.IsNaN(th) && !math.IsInf(th, 0) {
		return th
	}
	return 0
}

func (d *Driver) emit(residual float64) {
	d.out.Render(d.frameData(residual))
}

func (d *Driver) frameData(residual float64) Frame {
	th, phi := d.kin.BeamAngle, d.kin.CrankPhase
	return Frame{
		Geometry:         d.geom,
		CrankPhase:       phi,
		BeamAngle:        th,
		CrankPin:         d.geom.CrankPin(phi),
		BeamAttach:       d.geom.BeamAttach(th),
		Horsehead:        d.geom.Horsehead(th),
		RodTopY:          d.kin.RodTopY,
		ShowPivotMarkers: d.pivots,
		Residual:         residual,
	}
}

func (d *Driver) omega() float64 {
	return 2 * math.Pi * d.params.FrequencyHz
}

// easingFactor is the share of the remaining distance the rendered rod
// covers in dt seconds: a half cosine ramp reaching 1 at one time constant.
func easingFactor(dt float64, tau time.Duration) float64 {
	if tau < minEasing {
		tau = minEasing
	}
	s := math.Min(1, dt/tau.Seconds())
	return 0.5 * (1 - math.Cos(math.Pi*s))
}
