package geom

import (
	"math"
	"testing"
)

func TestWrapFraction(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0},
		{0.25, 0.25},
		{1, 0},
		{1.5, 0.5},
		{-0.25, 0.75},
		{-1, 0},
	}
	for _, c := range cases {
		if got := WrapFraction(c.in); math.Abs(got-c.want) > 1e-12 {
			t.Errorf("WrapFraction(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestArcForward(t *testing.T) {
	if got := ArcForward(0.9, 0.1); math.Abs(got-0.2) > 1e-12 {
		t.Fatalf("ArcForward(0.9, 0.1) = %v, want 0.2", got)
	}
	if got := ArcForward(0.1, 0.9); math.Abs(got-0.8) > 1e-12 {
		t.Fatalf("ArcForward(0.1, 0.9) = %v, want 0.8", got)
	}
}

func TestInterpToNeverOvershoots(t *testing.T) {
	v := 0.0
	for i := 0; i < 100; i++ {
		v = InterpTo(v, 100, 0.1, 2)
		if v > 100 {
			t.Fatalf("overshoot at step %d: %v", i, v)
		}
	}
	if v < 99 {
		t.Fatalf("did not converge: %v", v)
	}
	if got := InterpTo(5, 10, 10, 2); got != 10 {
		t.Fatalf("large dt should snap to target, got %v", got)
	}
}

func TestNearestIndex(t *testing.T) {
	pts := []Vec3{V(0, 0, 0), V(10, 0, 0), V(5, 5, 0)}
	if got := NearestIndex(pts, V(9, 1, 0)); got != 1 {
		t.Fatalf("NearestIndex = %d, want 1", got)
	}
	if got := NearestIndex(nil, V(0, 0, 0)); got != -1 {
		t.Fatalf("NearestIndex(empty) = %d, want -1", got)
	}
}
