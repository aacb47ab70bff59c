package linkage

import "math"

// Crank radius search bounds used by Calibrate, in geometry units.
const (
	MinCrankRadius = 24.0
	MaxCrankRadius = 110.0
)

const (
	rangeSamples     = 200
	bisectIterations = 22
)

// Sample is one point of a crank revolution.
type Sample struct {
	Phi        float64
	Theta      float64
	HorseheadY float64
	Residual   float64
}

// Sweep solves n uniformly spaced crank phases over one revolution,
// starting at phi = 0 with a zero guess. Every solve is warm-started from
// the previous one so consecutive samples stay on the same branch.
func Sweep(g Geometry, n int) []Sample {
	if n <= 0 {
		return nil
	}
	out := make([]Sample, n)
	th := 0.0
	for i := range out {
		phi := 2 * math.Pi * float64(i) / float64(n)
		sol := g.Solve(phi, th)
		th = sol.Theta
		out[i] = Sample{
			Phi:        phi,
			Theta:      th,
			HorseheadY: g.Horsehead(th).Y,
			Residual:   sol.Residual,
		}
	}
	return out
}

// AngleRange returns the smallest and largest beam angle reached over one
// crank revolution.
func AngleRange(g Geometry) (thetaMin, thetaMax float64) {
	thetaMin, thetaMax = math.Inf(1), math.Inf(-1)
	for _, s := range Sweep(g, rangeSamples) {
		thetaMin = math.Min(thetaMin, s.Theta)
		thetaMax = math.Max(thetaMax, s.Theta)
	}
	return thetaMin, thetaMax
}

// Amplitude is half the beam swing, in radians.
func Amplitude(g Geometry) float64 {
	lo, hi := AngleRange(g)
	return 0.5 * (hi - lo)
}

// RodTravel returns the vertical travel of the horsehead tip over one
// revolution, i.e. the linear stroke of the polished rod.
func RodTravel(g Geometry) float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range Sweep(g, rangeSamples) {
		lo = math.Min(lo, s.HorseheadY)
		hi = math.Max(hi, s.HorseheadY)
	}
	return hi - lo
}

// Calibration is the result of a crank radius search.
type Calibration struct {
	CrankRadius float64
	Amplitude   float64 // achieved half swing, radians
	Error       float64 // |Amplitude - target|, radians
}

// Calibrate searches [MinCrankRadius, MaxCrankRadius] for the crank radius
// whose beam amplitude matches strokeDeg degrees. g is not modified.
//
// Amplitude grows with the radius, so the search bisects; the best midpoint
// seen is kept in case that does not hold for some geometry. A stroke out
// of reach ends at whichever bound comes closer.
func Calibrate(g Geometry, strokeDeg float64) Calibration {
	target := strokeDeg * math.Pi / 180.0
	lo, hi := MinCrankRadius, MaxCrankRadius

	best := Calibration{CrankRadius: g.CrankRadius, Error: math.Inf(1)}
	for i := 0; i < bisectIterations; i++ {
		mid := 0.5 * (lo + hi)
		amp := Amplitude(g.WithCrankRadius(mid))
		if e := math.Abs(amp - target); e < best.Error {
			best = Calibration{CrankRadius: mid, Amplitude: amp, Error: e}
		}

		if amp < target {
			lo = mid
		} else {
			hi = mid
		}
	}
	return best
}

// CalibrateCrankRadius returns g with its crank radius calibrated to
// strokeDeg.
func CalibrateCrankRadius(g Geometry, strokeDeg float64) Geometry {
	return g.WithCrankRadius(Calibrate(g, strokeDeg).CrankRadius)
}
