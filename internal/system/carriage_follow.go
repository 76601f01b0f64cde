package system

import (
	"time"

	"github.com/transitloop/sim/internal/component"
	"github.com/transitloop/sim/internal/core/ecs"
	coresys "github.com/transitloop/sim/internal/core/system"
	"github.com/transitloop/sim/internal/geom"
	"github.com/transitloop/sim/internal/world"
)

// CarriageFollowSystem keeps each carriage Index*Spacing behind its engine.
// Phase 1 (Trains), after engine movement. Serial: carriages write the same
// record type they read from their engine.
type CarriageFollowSystem struct {
	world *world.State
	query *ecs.Query
}

func NewCarriageFollowSystem(ws *world.State) *CarriageFollowSystem {
	return &CarriageFollowSystem{
		world: ws,
		query: ws.ECS.Query(ws.Link, ws.Follow, ws.Transform).With(component.MarkerCarriage).Without(component.MarkerPooled),
	}
}

func (s *CarriageFollowSystem) Phase() coresys.Phase { return coresys.PhaseTrains }

func (s *CarriageFollowSystem) Update(_ time.Duration) {
	snap := s.world.Snapshot()
	if !snap.Valid() {
		return
	}
	ecs.Each3(s.query, s.world.Link, s.world.Follow, s.world.Transform,
		func(_ ecs.EntityID, l *component.Link, f *component.TrackFollow, tr *component.Transform) {
			lead, ok := s.world.Follow.Get(l.Lead)
			if !ok {
				return
			}
			f.Fraction = geom.WrapFraction(lead.Fraction - float64(l.Index)*l.Spacing/snap.Length)
			f.Speed = lead.Speed
			pos, fwd := snap.Sample(f.Fraction)
			tr.Position = pos
			if !fwd.IsNearlyZero() {
				tr.Forward = fwd
			}
		})
}
