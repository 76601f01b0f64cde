package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/transitloop/sim/internal/component"
	"github.com/transitloop/sim/internal/core/ecs"
	"github.com/transitloop/sim/internal/core/event"
	coresys "github.com/transitloop/sim/internal/core/system"
	"github.com/transitloop/sim/internal/geom"
	"github.com/transitloop/sim/internal/world"
)

// arriveEpsilon is the track fraction treated as "on the station".
const arriveEpsilon = 1e-9

// StationDetectSystem decides when an engine starts stopping, when it has
// arrived, and when its dwell is over. Phase 2 (Stations), before
// StationOpsSystem.
type StationDetectSystem struct {
	world *world.State
	query *ecs.Query
	log   *zap.Logger
}

func NewStationDetectSystem(ws *world.State) *StationDetectSystem {
	return &StationDetectSystem{
		world: ws,
		query: ws.ECS.Query(ws.Train, ws.Follow, ws.Transform).With(component.MarkerEngine).Without(component.MarkerPooled),
		log:   ws.Log,
	}
}

func (s *StationDetectSystem) Phase() coresys.Phase { return coresys.PhaseStations }

func (s *StationDetectSystem) Update(dt time.Duration) {
	snap := s.world.Snapshot()
	if !snap.Valid() {
		return
	}
	sec := dt.Seconds()
	n := len(snap.Stations)
	tc := s.world.Cfg.Train
	ecs.Each3(s.query, s.world.Train, s.world.Follow, s.world.Transform,
		func(id ecs.EntityID, ts *component.TrainState, f *component.TrackFollow, tr *component.Transform) {
			if ts.TargetStation < 0 || ts.TargetStation >= n {
				ts.TargetStation = 0
			}
			defer func() { ts.PrevFraction = f.Fraction }()

			if ts.AtStation {
				f.Speed = 0
				ts.TimeRemaining -= sec
				if ts.TimeRemaining <= 0 {
					s.depart(id, ts, n)
				}
				return
			}

			target := snap.Fractions[ts.TargetStation]
			ahead := geom.ArcForward(f.Fraction, target)
			moved := geom.ArcForward(ts.PrevFraction, f.Fraction)
			crossed := moved > 0 && geom.ArcForward(ts.PrevFraction, target) <= moved
			if crossed || ahead <= arriveEpsilon {
				f.Fraction = target
				f.Speed = 0
				pos, fwd := snap.Sample(target)
				tr.Position = pos
				if !fwd.IsNearlyZero() {
					tr.Forward = fwd
				}
				ts.AtStation = true
				ts.Stopping = false
				ts.Phase = component.DwellNotStopped
				ts.TimeRemaining = tc.MaxDwellTime
				event.Emit(s.world.Bus, event.TrainArrived{Train: id, Station: ts.TargetStation, At: s.world.Now})
				return
			}
			ts.Stopping = ahead*snap.Length <= tc.StopRadius
		})
}

// depart releases an engine from its station and targets the next one.
func (s *StationDetectSystem) depart(id ecs.EntityID, ts *component.TrainState, n int) {
	station := ts.TargetStation
	ts.AtStation = false
	ts.Stopping = false
	ts.Phase = component.DwellNotStopped
	ts.TimeRemaining = 0
	ts.PreviousStation = station
	ts.TargetStation = (station + 1) % n
	event.Emit(s.world.Bus, event.TrainDeparted{Train: id, Station: station, At: s.world.Now})
	if ce := s.log.Check(zap.DebugLevel, "train departed"); ce != nil {
		ce.Write(zap.Uint64("train", uint64(id)), zap.Int("station", station), zap.Int("next", ts.TargetStation))
	}
}
