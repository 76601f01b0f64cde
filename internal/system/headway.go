package system

import (
	"sort"
	"time"

	"github.com/transitloop/sim/internal/component"
	"github.com/transitloop/sim/internal/core/ecs"
	coresys "github.com/transitloop/sim/internal/core/system"
	"github.com/transitloop/sim/internal/geom"
	"github.com/transitloop/sim/internal/world"
)

type engineSlot struct {
	id       ecs.EntityID
	fraction float64
}

// HeadwaySystem spreads trains evenly by scaling each engine's cruise speed
// from its gap to the engine ahead. Phase 1 (Trains), before movement.
type HeadwaySystem struct {
	world   *world.State
	query   *ecs.Query
	engines []engineSlot
}

func NewHeadwaySystem(ws *world.State) *HeadwaySystem {
	return &HeadwaySystem{
		world: ws,
		query: ws.ECS.Query(ws.Train, ws.Follow).With(component.MarkerEngine).Without(component.MarkerPooled),
	}
}

func (s *HeadwaySystem) Phase() coresys.Phase { return coresys.PhaseTrains }

func (s *HeadwaySystem) Update(_ time.Duration) {
	if !s.world.Snapshot().Valid() {
		return
	}
	s.engines = s.engines[:0]
	ecs.Each2(s.query, s.world.Train, s.world.Follow, func(id ecs.EntityID, _ *component.TrainState, f *component.TrackFollow) {
		s.engines = append(s.engines, engineSlot{id: id, fraction: f.Fraction})
	})
	n := len(s.engines)
	if n == 0 {
		return
	}
	sort.Slice(s.engines, func(i, j int) bool { return s.engines[i].fraction < s.engines[j].fraction })

	tc := s.world.Cfg.Train
	ideal := 1 / float64(n)
	for i, e := range s.engines {
		ts, ok := s.world.Train.Get(e.id)
		if !ok {
			continue
		}
		if n == 1 {
			ts.HeadwayScale = 1
			continue
		}
		gap := geom.ArcForward(e.fraction, s.engines[(i+1)%n].fraction)
		scale := s.world.Policy.HeadwaySpeedScale(gap, ideal)
		ts.HeadwayScale = clamp(scale, tc.HeadwayMin, tc.HeadwayMax)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v != v { // NaN from a misbehaving policy
		return 1
	}
	return max(lo, min(hi, v))
}
