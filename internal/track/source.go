// Package track owns the loop geometry and the station snapshot derived
// from it.
package track

import (
	"errors"
	"math"

	"github.com/transitloop/sim/internal/geom"
)

// ErrDegenerateTrack is returned for loops without usable length.
var ErrDegenerateTrack = errors.New("track: degenerate loop")

// Source samples a closed track by normalized fraction.
type Source interface {
	Sample(fraction float64) (pos, forward geom.Vec3)
	Length() float64
}

// Loop is a closed polyline. The last point connects back to the first.
type Loop struct {
	points []geom.Vec3
	cum    []float64 // cum[i] is the arc length at points[i]; cum[n] is the perimeter
	length float64
}

// NewLoop builds a loop through points. At least three distinct points are
// required.
func NewLoop(points []geom.Vec3) (*Loop, error) {
	if len(points) < 3 {
		return nil, ErrDegenerateTrack
	}
	l := &Loop{
		points: append([]geom.Vec3(nil), points...),
		cum:    make([]float64, len(points)+1),
	}
	for i := range l.points {
		next := l.points[(i+1)%len(l.points)]
		l.cum[i+1] = l.cum[i] + l.points[i].Dist(next)
	}
	l.length = l.cum[len(l.points)]
	if l.length <= 0 || math.IsNaN(l.length) || math.IsInf(l.length, 0) {
		return nil, ErrDegenerateTrack
	}
	return l, nil
}

func (l *Loop) Length() float64 { return l.length }

// Sample returns the position at fraction and the unit tangent of the
// segment it falls on.
func (l *Loop) Sample(fraction float64) (geom.Vec3, geom.Vec3) {
	d := geom.WrapFraction(fraction) * l.length
	n := len(l.points)
	// first i with cum[i+1] > d
	lo, hi := 0, n-1
	for lo < hi {
		mid := (lo + hi) / 2
		if l.cum[mid+1] > d {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	a, b := l.points[lo], l.points[(lo+1)%n]
	seg := l.cum[lo+1] - l.cum[lo]
	t := 0.0
	if seg > 0 {
		t = (d - l.cum[lo]) / seg
	}
	return a.Lerp(b, t), b.Sub(a).Normalize()
}
