package system

import (
	"sort"
	"time"

	"github.com/transitloop/sim/internal/component"
	"github.com/transitloop/sim/internal/core/ecs"
	coresys "github.com/transitloop/sim/internal/core/system"
	"github.com/transitloop/sim/internal/world"
)

// StationOpsSystem advances the dwell phase of stopped engines and moves
// passengers between carriages and station queues. Phase 2 (Stations).
//
// Dwell runs NotStopped -> Arriving -> Unloading -> Loading -> Departing,
// one step per tick at most. Unloading covers the first half of the dwell,
// loading the rest until the departure threshold. Transfers are capped per
// carriage per tick.
type StationOpsSystem struct {
	world *world.State
	query *ecs.Query
	order []int // waiting point scratch
}

func NewStationOpsSystem(ws *world.State) *StationOpsSystem {
	return &StationOpsSystem{
		world: ws,
		query: ws.ECS.Query(ws.Train).With(component.MarkerEngine).Without(component.MarkerPooled),
	}
}

func (s *StationOpsSystem) Phase() coresys.Phase { return coresys.PhaseStations }

func (s *StationOpsSystem) Update(_ time.Duration) {
	snap := s.world.Snapshot()
	if !snap.Valid() {
		return
	}
	s.query.Each(func(engine ecs.EntityID) {
		ts, ok := s.world.Train.Get(engine)
		if !ok || !ts.AtStation {
			return
		}
		station, ok := s.world.StationAt(snap, ts.TargetStation)
		if !ok {
			return
		}
		AdvanceDwell(ts, s.world.Cfg.Train.MaxDwellTime, s.world.Cfg.Train.DepartureTime)

		switch ts.Phase {
		case component.DwellUnloading:
			s.unload(engine, station, ts.TargetStation)
		case component.DwellLoading:
			s.load(engine, station, ts.TargetStation)
		}
	})
}

// AdvanceDwell applies at most one dwell-phase transition from the remaining
// dwell time.
func AdvanceDwell(ts *component.TrainState, maxDwell, departure float64) {
	switchAt := (maxDwell + departure) / 2
	switch ts.Phase {
	case component.DwellNotStopped:
		ts.Phase = component.DwellArriving
	case component.DwellArriving:
		if ts.TimeRemaining >= switchAt {
			ts.Phase = component.DwellUnloading
		}
	case component.DwellUnloading:
		if ts.TimeRemaining < switchAt {
			ts.Phase = component.DwellLoading
		}
	case component.DwellLoading:
		if ts.TimeRemaining < departure {
			ts.Phase = component.DwellDeparting
		}
	}
}

func (s *StationOpsSystem) unload(engine, station ecs.EntityID, stationIdx int) {
	budgetPerCar := s.world.Cfg.Train.MaxUnloadPerTickPerCarriage
	for _, car := range s.world.Carriages(engine) {
		c, ok := s.world.Carriage.Get(car)
		if !ok || len(c.Occupants) == 0 {
			continue
		}
		tr, ok := s.world.Transform.Get(car)
		if !ok {
			continue
		}
		at := tr.Position
		budget := budgetPerCar
		for i := len(c.Occupants) - 1; i >= 0 && budget > 0; i-- {
			p, ok := s.world.Passenger.Get(c.Occupants[i])
			if !ok || !s.world.ECS.Alive(c.Occupants[i]) {
				last := len(c.Occupants) - 1
				c.Occupants[i] = c.Occupants[last]
				c.Occupants[last] = ecs.NilEntity
				c.Occupants = c.Occupants[:last]
				continue
			}
			if p.Destination == station {
				s.world.Disembark(car, c, i, at, stationIdx)
				budget--
			}
		}
	}
}

func (s *StationOpsSystem) load(engine, station ecs.EntityID, stationIdx int) {
	q, ok := s.world.Queue.Get(station)
	if !ok {
		return
	}
	limit := s.world.Cfg.Train.MaxLoadPerTickPerCarriage
	for _, car := range s.world.Carriages(engine) {
		c, ok := s.world.Carriage.Get(car)
		if !ok {
			continue
		}
		tr, ok := s.world.Transform.Get(car)
		if !ok {
			continue
		}
		budget := min(c.Capacity-len(c.Occupants), limit)
		if budget <= 0 {
			continue
		}

		s.order = s.order[:0]
		for wp := range q.Queues {
			if world.QueueLen(q, wp) > 0 && wp < len(q.WaitingPoints) {
				s.order = append(s.order, wp)
			}
		}
		at := tr.Position
		sort.SliceStable(s.order, func(i, j int) bool {
			return q.WaitingPoints[s.order[i]].DistSq(at) < q.WaitingPoints[s.order[j]].DistSq(at)
		})

		for _, wp := range s.order {
			if budget <= 0 {
				break
			}
			world.DrainQueue(q, wp, func(e component.QueueEntry) world.QueueAction {
				if budget <= 0 {
					return world.QueueStop
				}
				p, ok := s.world.Passenger.Get(e.Passenger)
				if !ok || !s.world.ECS.Alive(e.Passenger) {
					return world.QueueRemove
				}
				if e.Destination == station {
					return world.QueueKeep
				}
				if s.world.TryBoard(e.Passenger, car, stationIdx) {
					budget--
					return world.QueueRemove
				}
				if !p.Vehicle.IsZero() {
					// already riding elsewhere; stale entry
					return world.QueueRemove
				}
				return world.QueueStop
			})
		}
	}
}
