package track

import (
	"testing"

	"github.com/transitloop/sim/internal/core/ecs"
	"github.com/transitloop/sim/internal/geom"
)

func square(side float64) *Loop {
	l, err := NewLoop([]geom.Vec3{
		geom.V(0, 0, 0), geom.V(side, 0, 0), geom.V(side, side, 0), geom.V(0, side, 0),
	})
	if err != nil {
		panic(err)
	}
	return l
}

func TestNewLoopRejectsDegenerate(t *testing.T) {
	if _, err := NewLoop([]geom.Vec3{geom.V(0, 0, 0), geom.V(1, 0, 0)}); err != ErrDegenerateTrack {
		t.Fatalf("two points: err = %v", err)
	}
	p := geom.V(3, 3, 3)
	if _, err := NewLoop([]geom.Vec3{p, p, p}); err != ErrDegenerateTrack {
		t.Fatalf("coincident points: err = %v", err)
	}
}

func TestLoopSample(t *testing.T) {
	l := square(100)
	if l.Length() != 400 {
		t.Fatalf("length = %v, want 400", l.Length())
	}
	tests := []struct {
		f       float64
		pos     geom.Vec3
		forward geom.Vec3
	}{
		{0, geom.V(0, 0, 0), geom.V(1, 0, 0)},
		{0.125, geom.V(50, 0, 0), geom.V(1, 0, 0)},
		{0.25, geom.V(100, 0, 0), geom.V(0, 1, 0)},
		{0.875, geom.V(0, 50, 0), geom.V(0, -1, 0)},
		{1.125, geom.V(50, 0, 0), geom.V(1, 0, 0)},
	}
	for _, tt := range tests {
		pos, fwd := l.Sample(tt.f)
		if pos.Dist(tt.pos) > 1e-9 || fwd.Dist(tt.forward) > 1e-9 {
			t.Errorf("Sample(%v) = %v %v, want %v %v", tt.f, pos, fwd, tt.pos, tt.forward)
		}
	}
}

func TestSnapshotRevisionAndValidity(t *testing.T) {
	c := NewCache(square(100))
	a, b := ecs.NewEntityID(0, 1), ecs.NewEntityID(1, 1)

	s0 := c.Snapshot()
	if s0.Valid() {
		t.Fatal("snapshot without stations must be invalid")
	}
	if again := c.Snapshot(); again.Revision != s0.Revision {
		t.Fatalf("clean cache rebuilt: revision %d -> %d", s0.Revision, again.Revision)
	}

	c.Register(b, 0.5)
	s1 := c.Snapshot()
	if s1.Valid() {
		t.Fatal("one station must be invalid")
	}
	if s1.Revision <= s0.Revision {
		t.Fatalf("revision did not increase: %d -> %d", s0.Revision, s1.Revision)
	}

	c.Register(a, 0)
	c.Invalidate()
	c.Invalidate()
	s2 := c.Snapshot()
	if !s2.Valid() {
		t.Fatal("two stations on a real track must be valid")
	}
	if s2.Revision != s1.Revision+1 {
		t.Fatalf("revision = %d, want %d", s2.Revision, s1.Revision+1)
	}
	if s2.Stations[0] != a || s2.Stations[1] != b {
		t.Fatalf("stations not sorted by fraction: %v", s2.Stations)
	}
	if len(s1.Stations) != 1 {
		t.Fatal("earlier snapshot changed after rebuild")
	}
}

func TestSnapshotWithoutSourceIsInvalid(t *testing.T) {
	c := NewCache(nil)
	c.Register(ecs.NewEntityID(0, 1), 0)
	c.Register(ecs.NewEntityID(1, 1), 0.5)
	if c.Snapshot().Valid() {
		t.Fatal("snapshot without a source must be invalid")
	}
}
