package system

import (
	"time"

	"github.com/transitloop/sim/internal/component"
	"github.com/transitloop/sim/internal/core/ecs"
	coresys "github.com/transitloop/sim/internal/core/system"
	"github.com/transitloop/sim/internal/geom"
	"github.com/transitloop/sim/internal/world"
)

// SpeedSmoothingRate is the first-order rate at which engine speed
// approaches its target, per second.
const SpeedSmoothingRate = 2.0

// TrainMovementSystem integrates engine speed and advances engines along the
// track. Phase 1 (Trains).
type TrainMovementSystem struct {
	world *world.State
	query *ecs.Query
}

func NewTrainMovementSystem(ws *world.State) *TrainMovementSystem {
	return &TrainMovementSystem{
		world: ws,
		query: ws.ECS.Query(ws.Train, ws.Follow, ws.Transform).With(component.MarkerEngine).Without(component.MarkerPooled),
	}
}

func (s *TrainMovementSystem) Phase() coresys.Phase { return coresys.PhaseTrains }

func (s *TrainMovementSystem) Update(dt time.Duration) {
	snap := s.world.Snapshot()
	if !snap.Valid() {
		return
	}
	sec := dt.Seconds()
	tc := s.world.Cfg.Train
	ecs.Each3(s.query, s.world.Train, s.world.Follow, s.world.Transform,
		func(_ ecs.EntityID, ts *component.TrainState, f *component.TrackFollow, tr *component.Transform) {
			if ts.TargetStation < 0 || ts.TargetStation >= len(snap.Stations) {
				return
			}
			target := tc.CruiseSpeed * ts.HeadwayScale
			switch {
			case ts.AtStation:
				target = 0
			case ts.Stopping:
				target = min(target, tc.ApproachSpeed)
			}
			f.Speed = geom.InterpTo(f.Speed, target, sec, SpeedSmoothingRate)
			f.Fraction = geom.WrapFraction(f.Fraction + f.Speed*sec/snap.Length)

			pos, fwd := snap.Sample(f.Fraction)
			tr.Position = pos
			if !fwd.IsNearlyZero() {
				tr.Forward = fwd
			}
		})
}
