// Package geom holds the small amount of vector math the simulation needs.
// Z is the vertical axis.
package geom

import "math"

// Vec3 is a float64 3D vector.
type Vec3 struct {
	X, Y, Z float64
}

func V(x, y, z float64) Vec3 { return Vec3{x, y, z} }

func (a Vec3) Add(b Vec3) Vec3       { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3       { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vec3) Scale(s float64) Vec3  { return Vec3{a.X * s, a.Y * s, a.Z * s} }
func (a Vec3) Dot(b Vec3) float64    { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }
func (a Vec3) LenSq() float64        { return a.Dot(a) }
func (a Vec3) Len() float64          { return math.Sqrt(a.LenSq()) }
func (a Vec3) Horizontal() Vec3      { return Vec3{a.X, a.Y, 0} }
func (a Vec3) DistSq(b Vec3) float64 { return a.Sub(b).LenSq() }
func (a Vec3) Dist(b Vec3) float64   { return a.Sub(b).Len() }
func (a Vec3) Lerp(b Vec3, t float64) Vec3 {
	return a.Add(b.Sub(a).Scale(t))
}

// Normalize returns the unit vector of a, or zero for a zero-length input.
func (a Vec3) Normalize() Vec3 {
	l := a.Len()
	if l == 0 {
		return Vec3{}
	}
	return a.Scale(1 / l)
}

// IsNearlyZero reports whether every component is within 1e-4 of zero.
func (a Vec3) IsNearlyZero() bool {
	const tol = 1e-4
	return math.Abs(a.X) <= tol && math.Abs(a.Y) <= tol && math.Abs(a.Z) <= tol
}

// NearestIndex returns the index of the point closest to from, or -1 for an
// empty list.
func NearestIndex(points []Vec3, from Vec3) int {
	best := -1
	bestD := math.MaxFloat64
	for i, p := range points {
		if d := p.DistSq(from); d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

// WrapFraction maps any track fraction into [0,1).
func WrapFraction(f float64) float64 {
	f -= math.Floor(f)
	if f >= 1 {
		f = 0
	}
	return f
}

// ArcForward returns the forward distance in [0,1) from a to b on a loop.
func ArcForward(a, b float64) float64 {
	return WrapFraction(b - a)
}

// InterpTo moves current toward target by a first-order step with the given
// rate, clamping the step so it never overshoots.
func InterpTo(current, target, dt, rate float64) float64 {
	if rate <= 0 {
		return target
	}
	dist := target - current
	if dist*dist < 1e-8 {
		return target
	}
	step := dt * rate
	if step > 1 {
		step = 1
	}
	if step < 0 {
		step = 0
	}
	return current + dist*step
}
