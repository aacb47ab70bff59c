package linkage

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeometryPoints(t *testing.T) {
	g := DefaultGeometry()

	b := g.BeamAttach(0)
	assert.InDelta(t, 640.0, b.X, 1e-12)
	assert.InDelta(t, 235.0, b.Y, 1e-12)

	h := g.Horsehead(0)
	assert.InDelta(t, 240.0, h.X, 1e-12)
	assert.InDelta(t, 235.0, h.Y, 1e-12)

	// the horsehead sits opposite the attachment point for any angle
	for _, th := range []float64{-0.8, -0.3, 0.4, 2.0} {
		b := g.BeamAttach(th).Sub(g.Pivot).Scale(1 / g.BeamRight)
		h := g.Horsehead(th).Sub(g.Pivot).Scale(1 / g.BeamLeft)
		assert.InDelta(t, -b.X, h.X, 1e-12)
		assert.InDelta(t, -b.Y, h.Y, 1e-12)
	}

	p := g.CrankPin(math.Pi / 2)
	assert.InDelta(t, 740.0, p.X, 1e-9)
	assert.InDelta(t, 476.0, p.Y, 1e-9)
}

func TestWithCrankRadiusLeavesReceiver(t *testing.T) {
	g := DefaultGeometry()
	h := g.WithCrankRadius(80)

	assert.Equal(t, 56.0, g.CrankRadius)
	assert.Equal(t, 80.0, h.CrankRadius)
}

func TestSolveSatisfiesPitmanConstraint(t *testing.T) {
	for _, r := range []float64{MinCrankRadius, 40, 56, 90, MaxCrankRadius} {
		g := DefaultGeometry().WithCrankRadius(r)
		th := g.SolveBeamAngle(0, 0)
		for phi := 0.0; phi < 4*math.Pi; phi += 0.05 {
			sol := g.Solve(phi, th)
			th = sol.Theta

			d := g.BeamAttach(th).Dist(g.CrankPin(phi))
			require.InDelta(t, g.PitmanLength, d, 1e-6, "r=%g phi=%g", r, phi)
			assert.Less(t, sol.Residual, 1e-6)
		}
	}
}

func TestSolveColdStartAtZeroPhase(t *testing.T) {
	g := DefaultGeometry()

	sol := g.Solve(0, 0)
	assert.InDelta(t, -0.42484, sol.Theta, 1e-4)
	assert.Less(t, sol.Residual, 1e-9)
	assert.LessOrEqual(t, sol.Iterations, solveIterations)
}

func TestSolveWarmStartIsContinuous(t *testing.T) {
	g := DefaultGeometry()
	const eps = 0.01

	prev := g.SolveBeamAngle(0, 0)
	for phi := eps; phi <= 2*math.Pi+eps; phi += eps {
		th := g.SolveBeamAngle(phi, prev)
		require.Less(t, math.Abs(th-prev), 0.05, "jump at phi=%g", phi)
		prev = th
	}
}

func TestSolveStopsEarlyWhenConverged(t *testing.T) {
	g := DefaultGeometry()
	th := g.SolveBeamAngle(1.0, 0)

	sol := g.Solve(1.0, th)
	assert.Equal(t, 0, sol.Iterations)
	assert.Equal(t, th, sol.Theta)
}

func TestSolveSingularDerivativeStaysFinite(t *testing.T) {
	// at theta = 0 the pitman lies along the beam, so f'(0) = 0
	g := Geometry{
		Pivot:        Point{0, 0},
		CrankCenter:  Point{90, 0},
		BeamRight:    190,
		BeamLeft:     100,
		CrankRadius:  10,
		PitmanLength: 150,
	}

	sol := g.Solve(0, 0)
	assert.False(t, math.IsNaN(sol.Theta))
	assert.False(t, math.IsInf(sol.Theta, 0))
	assert.False(t, math.IsNaN(sol.Residual))
}

func TestValidate(t *testing.T) {
	require.NoError(t, DefaultGeometry().Validate())
	require.NoError(t, DefaultGeometry().WithCrankRadius(MaxCrankRadius).Validate())

	tests := []struct {
		name   string
		modify func(*Geometry)
		want   error
	}{
		{"zero beam arm", func(g *Geometry) { g.BeamRight = 0 }, ErrInvalidGeometry},
		{"negative crank", func(g *Geometry) { g.CrankRadius = -1 }, ErrInvalidGeometry},
		{"nan pitman", func(g *Geometry) { g.PitmanLength = math.NaN() }, ErrInvalidGeometry},
		{"pitman too short", func(g *Geometry) { g.PitmanLength = 120 }, ErrInfeasible},
		{"pitman too long", func(g *Geometry) { g.PitmanLength = 480 }, ErrInfeasible},
		{"crank too large", func(g *Geometry) { g.CrankRadius = 200 }, ErrInfeasible},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := DefaultGeometry()
			tt.modify(&g)
			assert.ErrorIs(t, g.Validate(), tt.want)
		})
	}
}
