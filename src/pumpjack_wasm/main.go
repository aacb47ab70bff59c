//go:build js && wasm

// Browser bindings for the pumpjack animation. Each pumpjackCreate call
// builds an independent driver fed by requestAnimationFrame and returns a
// handle used by the other functions:
//
//	const h = pumpjackCreate({stroke: 18, speed: 0.4}, frame => draw(frame))
//	pumpjackPause(h); pumpjackSetStroke(h, 25); pumpjackStart(h)
//	pumpjackTogglePivots(h, true)
//	pumpjackDestroy(h)
package main

import (
	"encoding/json"
	"math"
	"os"
	"syscall/js"
	"time"

	"github.com/rs/zerolog"

	"github.com/llilyshkall/it-camp/src/animation"
	"github.com/llilyshkall/it-camp/src/config"
)

// options overrides the default settings; absent fields keep their default.
type options struct {
	Speed      *float64 `json:"speed"`
	Stroke     *float64 `json:"stroke"`
	EasingMs   *float64 `json:"easingMs"`
	ShowPivots *bool    `json:"showPivots"`
	AutoStart  *bool    `json:"autoStart"`

	PitmanLength *float64 `json:"pitmanLength"`
	BeamLeft     *float64 `json:"beamLeft"`
	BeamRight    *float64 `json:"beamRight"`
	RodBottomY   *float64 `json:"rodBottomY"`
}

func (o options) apply(s *config.Settings) {
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&s.Animation.Speed, o.Speed)
	set(&s.Animation.Stroke, o.Stroke)
	if o.EasingMs != nil {
		s.Animation.Easing = time.Duration(*o.EasingMs * float64(time.Millisecond))
	}
	if o.ShowPivots != nil {
		s.Animation.ShowPivots = *o.ShowPivots
	}
	if o.AutoStart != nil {
		s.Animation.AutoStart = *o.AutoStart
	}
	set(&s.Geometry.PitmanLength, o.PitmanLength)
	set(&s.Geometry.BeamLeft, o.BeamLeft)
	set(&s.Geometry.BeamRight, o.BeamRight)
	set(&s.Geometry.RodBottomY, o.RodBottomY)
}

// rafScheduler implements animation.Scheduler with requestAnimationFrame.
type rafScheduler struct {
	cb      js.Func
	pending animation.FrameFunc
	reqID   js.Value
}

func newRAFScheduler() *rafScheduler {
	s := &rafScheduler{reqID: js.Null()}
	s.cb = js.FuncOf(func(this js.Value, args []js.Value) any {
		s.reqID = js.Null()
		fn := s.pending
		s.pending = nil
		if fn == nil {
			return nil
		}
		ms := 0.0
		if len(args) > 0 {
			ms = args[0].Float()
		}
		fn(time.Duration(ms * float64(time.Millisecond)))
		return nil
	})
	return s
}

func (s *rafScheduler) Schedule(fn animation.FrameFunc) {
	s.pending = fn
	if s.reqID.IsNull() {
		s.reqID = js.Global().Call("requestAnimationFrame", s.cb)
	}
}

func (s *rafScheduler) Cancel() {
	s.pending = nil
	if !s.reqID.IsNull() {
		js.Global().Call("cancelAnimationFrame", s.reqID)
		s.reqID = js.Null()
	}
}

func (s *rafScheduler) release() {
	s.Cancel()
	s.cb.Release()
}

type instance struct {
	d     *animation.Driver
	sched *rafScheduler
}

var (
	instances = animation.NewRegistry[*instance]()
	logger    = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, NoColor: true}).
			With().Timestamp().Logger()
)

func point(x, y float64) map[string]any {
	return map[string]any{"x": x, "y": y}
}

func frameObject(f animation.Frame) js.Value {
	g := f.Geometry
	return js.ValueOf(map[string]any{
		"crankPhase":  f.CrankPhase,
		"beamAngle":   f.BeamAngle,
		"rodTopY":     f.RodTopY,
		"residual":    f.Residual,
		"showPivots":  f.ShowPivotMarkers,
		"pivot":       point(g.Pivot.X, g.Pivot.Y),
		"crankCenter": point(g.CrankCenter.X, g.CrankCenter.Y),
		"crankRadius": g.CrankRadius,
		"rodBottomY":  g.RodBottomY,
		"crankPin":    point(f.CrankPin.X, f.CrankPin.Y),
		"beamAttach":  point(f.BeamAttach.X, f.BeamAttach.Y),
		"horsehead":   point(f.Horsehead.X, f.Horsehead.Y),
	})
}

func errorObject(err error) js.Value {
	return js.ValueOf(map[string]any{"error": err.Error()})
}

// create(options, draw) returns a handle, or {error} when the settings are
// rejected.
func create(this js.Value, args []js.Value) any {
	if len(args) < 2 || args[1].Type() != js.TypeFunction {
		return js.ValueOf(map[string]any{"error": "pumpjackCreate: need (options, drawFunction)"})
	}

	s := config.Default()
	if t := args[0].Type(); t != js.TypeUndefined && t != js.TypeNull {
		raw := args[0]
		if t != js.TypeString {
			raw = js.Global().Get("JSON").Call("stringify", raw)
		}
		var o options
		if err := json.Unmarshal([]byte(raw.String()), &o); err != nil {
			return errorObject(err)
		}
		o.apply(&s)
	}
	if err := s.Validate(); err != nil {
		return errorObject(err)
	}

	draw := args[1]
	sched := newRAFScheduler()
	out := animation.RendererFunc(func(f animation.Frame) {
		draw.Invoke(frameObject(f))
	})
	d, err := animation.New(s.AnimationConfig(), sched, out, logger)
	if err != nil {
		sched.release()
		return errorObject(err)
	}

	id := instances.Add(&instance{d: d, sched: sched})
	d.Reset()
	return id
}

// handleArg returns the handle passed as the first argument; anything but
// a number yields NaN, which the registry rejects.
func handleArg(args []js.Value) float64 {
	if len(args) < 1 || args[0].Type() != js.TypeNumber {
		return math.NaN()
	}
	return args[0].Float()
}

// numberArg returns args[i] when it is a number.
func numberArg(args []js.Value, i int) (float64, bool) {
	if len(args) <= i || args[i].Type() != js.TypeNumber {
		return 0, false
	}
	return args[i].Float(), true
}

// method wraps an operation on the instance named by the first argument.
func method(fn func(in *instance, args []js.Value) any) js.Func {
	return js.FuncOf(func(this js.Value, args []js.Value) any {
		in, ok := instances.Lookup(handleArg(args))
		if !ok {
			return nil
		}
		return fn(in, args[1:])
	})
}

func registerCallbacks() {
	g := js.Global()
	g.Set("pumpjackCreate", js.FuncOf(create))

	g.Set("pumpjackStart", method(func(in *instance, _ []js.Value) any {
		if err := in.d.Start(); err != nil {
			return errorObject(err)
		}
		return nil
	}))
	g.Set("pumpjackPause", method(func(in *instance, _ []js.Value) any {
		in.d.Pause()
		return nil
	}))
	g.Set("pumpjackReset", method(func(in *instance, _ []js.Value) any {
		in.d.Reset()
		return nil
	}))
	g.Set("pumpjackSetSpeed", method(func(in *instance, args []js.Value) any {
		hz, ok := numberArg(args, 0)
		if !ok {
			return nil
		}
		if err := in.d.SetSpeed(hz); err != nil {
			return errorObject(err)
		}
		return nil
	}))
	g.Set("pumpjackSetStroke", method(func(in *instance, args []js.Value) any {
		deg, ok := numberArg(args, 0)
		if !ok {
			return nil
		}
		if err := in.d.SetStroke(deg); err != nil {
			return errorObject(err)
		}
		return in.d.Geometry().CrankRadius
	}))
	g.Set("pumpjackTogglePivots", method(func(in *instance, args []js.Value) any {
		if len(args) > 0 && args[0].Type() == js.TypeBoolean {
			in.d.SetPivotMarkers(args[0].Bool())
			return in.d.PivotMarkers()
		}
		return in.d.TogglePivotMarkers()
	}))
	g.Set("pumpjackState", method(func(in *instance, _ []js.Value) any {
		k := in.d.Kinematics()
		p := in.d.Params()
		return js.ValueOf(map[string]any{
			"running":     in.d.State() == animation.Running,
			"speed":       p.FrequencyHz,
			"stroke":      p.StrokeDegrees,
			"crankRadius": in.d.Geometry().CrankRadius,
			"crankPhase":  k.CrankPhase,
			"beamAngle":   k.BeamAngle,
			"rodTopY":     k.RodTopY,
		})
	}))
	g.Set("pumpjackDestroy", js.FuncOf(func(this js.Value, args []js.Value) any {
		if in, ok := instances.Remove(handleArg(args)); ok {
			in.d.Close()
			in.sched.release()
		}
		return nil
	}))
}

func main() {
	c := make(chan struct{})
	registerCallbacks()
	<-c
}

// GOOS=js GOARCH=wasm go build -ldflags="-s -w" -o web/pumpjack.wasm ./src/pumpjack_wasm
