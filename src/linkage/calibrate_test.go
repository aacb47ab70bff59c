package linkage

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deg(rad float64) float64 { return rad * 180 / math.Pi }

func TestSweepChainsWarmStarts(t *testing.T) {
	g := DefaultGeometry()
	samples := Sweep(g, 200)
	require.Len(t, samples, 200)

	assert.Equal(t, 0.0, samples[0].Phi)
	assert.InDelta(t, 2*math.Pi*199/200, samples[199].Phi, 1e-12)
	for i, s := range samples {
		assert.Less(t, s.Residual, 1e-6)
		assert.InDelta(t, g.Horsehead(s.Theta).Y, s.HorseheadY, 1e-12)
		if i > 0 {
			assert.Less(t, math.Abs(s.Theta-samples[i-1].Theta), 0.05)
		}
	}

	assert.Nil(t, Sweep(g, 0))
}

func TestAngleRange(t *testing.T) {
	lo, hi := AngleRange(DefaultGeometry())

	assert.InDelta(t, -0.8742, lo, 1e-3)
	assert.InDelta(t, -0.2712, hi, 1e-3)
	assert.InDelta(t, 17.275, deg(Amplitude(DefaultGeometry())), 0.01)
}

func TestAmplitudeGrowsWithCrankRadius(t *testing.T) {
	g := DefaultGeometry()
	prev := 0.0
	for r := MinCrankRadius; r <= MaxCrankRadius; r += 8 {
		a := Amplitude(g.WithCrankRadius(r))
		assert.Greater(t, a, prev, "r=%g", r)
		prev = a
	}
}

func TestRodTravelMatchesBeamSwing(t *testing.T) {
	g := DefaultGeometry()
	lo, hi := AngleRange(g)

	// the swing stays inside (-pi/2, pi/2), where sin is monotonic
	want := g.BeamLeft * (math.Sin(hi) - math.Sin(lo))
	assert.InDelta(t, want, RodTravel(g), 1e-9)
}

func TestCalibrateHitsTargetStroke(t *testing.T) {
	for _, target := range []float64{10, 18, 30} {
		g := CalibrateCrankRadius(DefaultGeometry(), target)

		assert.GreaterOrEqual(t, g.CrankRadius, MinCrankRadius)
		assert.LessOrEqual(t, g.CrankRadius, MaxCrankRadius)

		lo, hi := AngleRange(g)
		assert.InDelta(t, target, deg(0.5*(hi-lo)), 0.5, "target %g", target)
	}
}

func TestCalibrateReportsAchievedAmplitude(t *testing.T) {
	c := Calibrate(DefaultGeometry(), 18)

	assert.InDelta(t, 58.29, c.CrankRadius, 0.05)
	assert.InDelta(t, 18, deg(c.Amplitude), 1e-3)
	assert.InDelta(t, math.Abs(c.Amplitude-18*math.Pi/180), c.Error, 1e-15)
}

func TestCalibrateUnreachableStrokeEndsAtBound(t *testing.T) {
	low := Calibrate(DefaultGeometry(), 5)
	assert.InDelta(t, MinCrankRadius, low.CrankRadius, 1e-3)
	assert.Greater(t, deg(low.Error), 2.0)

	high := Calibrate(DefaultGeometry(), 40)
	assert.InDelta(t, MaxCrankRadius, high.CrankRadius, 1e-3)
	assert.InDelta(t, 35.43, deg(high.Amplitude), 0.01)
}

func TestCalibrateDoesNotModifyInput(t *testing.T) {
	g := DefaultGeometry()
	before := g

	_ = Calibrate(g, 30)
	_ = CalibrateCrankRadius(g, 30)

	assert.Equal(t, before, g)
}
