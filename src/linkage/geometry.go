// Package linkage models the four-bar linkage of a beam pumping unit:
// a rotating crank, the pitman (connecting rod), the walking beam and the
// horsehead that carries the polished rod.
//
// Coordinates follow screen conventions: x grows to the right, y grows
// downwards, and angles are measured from the +x axis towards +y.
package linkage

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidGeometry reports a non-positive length in a Geometry.
	ErrInvalidGeometry = errors.New("linkage: invalid geometry")
	// ErrInfeasible reports a geometry in which the pitman cannot connect the
	// crank pin to the beam for every crank angle.
	ErrInfeasible = errors.New("linkage: infeasible geometry")
)

// Newton solver settings.
const (
	solveIterations = 8
	solveTolerance  = 1e-7
	minDerivative   = 1e-9
)

// Point is a position in the drawing plane.
type Point struct {
	X, Y float64
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale returns p*s.
func (p Point) Scale(s float64) Point { return Point{p.X * s, p.Y * s} }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Geometry holds the fixed dimensions of the unit. It is a plain value:
// methods never modify the receiver, and a different crank radius is
// obtained with WithCrankRadius.
type Geometry struct {
	Pivot       Point // walking beam rotation center (top of the tower)
	CrankCenter Point

	BeamRight    float64 // pivot to pitman attachment
	BeamLeft     float64 // pivot to horsehead
	CrankRadius  float64
	PitmanLength float64
	RodBottomY   float64 // polished rod shoe
}

// DefaultGeometry returns the unit drawn on a 900x600 canvas.
func DefaultGeometry() Geometry {
	return Geometry{
		Pivot:        Point{450, 235},
		CrankCenter:  Point{740, 420},
		BeamRight:    190,
		BeamLeft:     210,
		CrankRadius:  56,
		PitmanLength: 315,
		RodBottomY:   540,
	}
}

// WithCrankRadius returns a copy of g using crank radius r.
func (g Geometry) WithCrankRadius(r float64) Geometry {
	g.CrankRadius = r
	return g
}

// BeamAttach returns the pitman attachment point for beam angle theta.
func (g Geometry) BeamAttach(theta float64) Point {
	return Point{
		X: g.Pivot.X + g.BeamRight*math.Cos(theta),
		Y: g.Pivot.Y + g.BeamRight*math.Sin(theta),
	}
}

// Horsehead returns the horsehead tip, on the opposite side of the pivot.
func (g Geometry) Horsehead(theta float64) Point {
	return Point{
		X: g.Pivot.X - g.BeamLeft*math.Cos(theta),
		Y: g.Pivot.Y - g.BeamLeft*math.Sin(theta),
	}
}

// CrankPin returns the crank pin position for crank phase phi.
func (g Geometry) CrankPin(phi float64) Point {
	return Point{
		X: g.CrankCenter.X + g.CrankRadius*math.Cos(phi),
		Y: g.CrankCenter.Y + g.CrankRadius*math.Sin(phi),
	}
}

// Solution is the outcome of one inverse-kinematics solve.
type Solution struct {
	Theta      float64
	Residual   float64 // | |B-P| - PitmanLength | at Theta
	Iterations int
}

// Solve finds the beam angle at which the pitman length constraint
// |BeamAttach(theta) - CrankPin(phi)| = PitmanLength holds.
//
// It runs Newton-Raphson on f(theta) = |B-P|^2 - L^2 starting at guess.
// Passing the previous frame's angle as guess keeps the solution on the
// same branch. The iteration budget is fixed; a poor answer is returned as
// is and can be spotted through Residual.
func (g Geometry) Solve(phi, guess float64) Solution {
	p := g.CrankPin(phi)
	l2 := g.PitmanLength * g.PitmanLength
	th := guess

	n := 0
	for ; n < solveIterations; n++ {
		sin, cos := math.Sincos(th)
		dx := g.Pivot.X + g.BeamRight*cos - p.X
		dy := g.Pivot.Y + g.BeamRight*sin - p.Y
		f := dx*dx + dy*dy - l2
		if math.Abs(f) < solveTolerance {
			break
		}

		// f' = 2 (B-P) . dB/dtheta, dB/dtheta = (-r sin, r cos)
		fp := 2.0 * (dx*(-g.BeamRight*sin) + dy*(g.BeamRight*cos))
		if math.Abs(fp) < minDerivative {
			fp = math.Copysign(minDerivative, fp)
		}
		th -= f / fp
	}

	return Solution{
		Theta:      th,
		Residual:   math.Abs(g.BeamAttach(th).Dist(p) - g.PitmanLength),
		Iterations: n,
	}
}

// SolveBeamAngle is Solve without the diagnostics.
func (g Geometry) SolveBeamAngle(phi, guess float64) float64 {
	return g.Solve(phi, guess).Theta
}

// Validate checks that every length is positive and that the linkage can be
// assembled at every crank angle.
func (g Geometry) Validate() error {
	lengths := []struct {
		name string
		v    float64
	}{
		{"beamRight", g.BeamRight},
		{"beamLeft", g.BeamLeft},
		{"crankRadius", g.CrankRadius},
		{"pitmanLength", g.PitmanLength},
	}
	for _, l := range lengths {
		if !(l.v > 0) || math.IsInf(l.v, 0) {
			return fmt.Errorf("%w: %s must be positive, got %g", ErrInvalidGeometry, l.name, l.v)
		}
	}
	return g.Feasible()
}

// Feasible reports whether the pitman circle around every crank pin position
// intersects the circle traced by the beam attachment point. With d the
// pivot to crank center distance, that holds when
//
//	d - R >= |L - rB|   and   d + R <= L + rB.
func (g Geometry) Feasible() error {
	d := g.Pivot.Dist(g.CrankCenter)
	r := g.CrankRadius
	if d-r < math.Abs(g.PitmanLength-g.BeamRight) {
		return fmt.Errorf("%w: crank pin comes within %.3g of the pivot, needs at least %.3g",
			ErrInfeasible, d-r, math.Abs(g.PitmanLength-g.BeamRight))
	}
	if d+r > g.PitmanLength+g.BeamRight {
		return fmt.Errorf("%w: crank pin reaches %.3g from the pivot, at most %.3g allowed",
			ErrInfeasible, d+r, g.PitmanLength+g.BeamRight)
	}
	return nil
}
