package system

import (
	"time"

	"github.com/transitloop/sim/internal/component"
	"github.com/transitloop/sim/internal/config"
	"github.com/transitloop/sim/internal/core/ecs"
	"github.com/transitloop/sim/internal/core/event"
	coresys "github.com/transitloop/sim/internal/core/system"
	"github.com/transitloop/sim/internal/geom"
	"github.com/transitloop/sim/internal/world"
)

// PassengerSystem walks every active passenger through its journey:
// waiting point, queue, carriage, ride, platform, exit, pool.
// Phase 3 (Passengers).
//
// The phase pass is serial because it touches queues and carriages of other
// entities. Steering only writes the passenger's own MoveTarget and runs in
// parallel.
type PassengerSystem struct {
	world   *world.State
	phases  *ecs.Query
	steer   *ecs.Query
	workers int
}

func NewPassengerSystem(ws *world.State) *PassengerSystem {
	batch := ws.Cfg.Sim.BatchSize
	return &PassengerSystem{
		world: ws,
		phases: ws.ECS.Query(ws.Passenger, ws.Transform).
			With(component.MarkerPassenger).
			Without(component.MarkerPooled).
			BatchSize(batch),
		steer: ws.ECS.Query(ws.Passenger, ws.Transform, ws.Move).
			With(component.MarkerPassenger).
			Without(component.MarkerPooled | component.MarkerHidden).
			BatchSize(batch),
		workers: ws.Cfg.Sim.Workers,
	}
}

func (s *PassengerSystem) Phase() coresys.Phase { return coresys.PhasePassengers }

func (s *PassengerSystem) Update(_ time.Duration) {
	ecs.Each2(s.phases, s.world.Passenger, s.world.Transform, s.step)

	s.steer.EachParallel(s.workers, func(id ecs.EntityID) {
		p, ok := s.world.Passenger.Get(id)
		if !ok {
			return
		}
		tr, _ := s.world.Transform.Get(id)
		m, _ := s.world.Move.Get(id)
		if tr == nil || m == nil {
			return
		}
		UpdateMoveTarget(tr.Position, p.Target, p.MaxSpeed, m)
	})
}

// UpdateMoveTarget fills m with the horizontal heading and distance to
// target. Desired speed is zero inside config.ArrivalRadius or when there is
// no target.
func UpdateMoveTarget(pos, target geom.Vec3, speed float64, m *component.MoveTarget) {
	if target.IsNearlyZero() {
		*m = component.MoveTarget{}
		return
	}
	d := target.Sub(pos).Horizontal()
	dist := d.Len()
	m.Center = target
	m.Forward = d.Normalize()
	m.DistanceToGoal = dist
	if dist <= config.ArrivalRadius {
		m.DesiredSpeed = 0
	} else {
		m.DesiredSpeed = speed
	}
}

// arrived compares horizontal distance against the acceptance radius.
func arrived(pos, target geom.Vec3, radius float64) bool {
	return target.Sub(pos).Horizontal().LenSq() <= radius*radius
}

func (s *PassengerSystem) step(id ecs.EntityID, p *component.Passenger, tr *component.Transform) {
	switch p.Phase {
	case component.PhaseEnteredWorld, component.PhaseToStationWaitingPoint:
		s.toWaitingPoint(id, p, tr)
	case component.PhaseToAssignedCarriage:
		s.toCarriage(id, p, tr)
	case component.PhaseRideOnTrain:
		// driven by the unload step
	case component.PhaseUnloadAtStation:
		s.leaveCarriage(p, tr)
	case component.PhaseToPostUnloadWaitingPoint:
		if arrived(tr.Position, p.Target, p.AcceptanceRadius) {
			s.toExit(p, tr)
		}
	case component.PhaseToExitSpawn:
		if arrived(tr.Position, p.Target, p.AcceptanceRadius) {
			s.finish(id, p)
		}
	case component.PhasePool:
		s.world.Spawner.ReturnToPool(id, world.KindPassenger)
	}
}

func (s *PassengerSystem) toWaitingPoint(id ecs.EntityID, p *component.Passenger, tr *component.Transform) {
	q, ok := s.world.Queue.Get(p.Origin)
	if !ok {
		return
	}
	if p.WaitingPoint == component.NoWaitingPoint {
		if len(q.WaitingPoints) == 0 {
			return // stall until the station has somewhere to wait
		}
		wp := s.world.Rand.Intn(len(q.WaitingPoints))
		p.WaitingPoint = wp
		p.Target = q.WaitingPoints[wp]
		p.Phase = component.PhaseToStationWaitingPoint
		return
	}
	if p.Waiting || !arrived(tr.Position, p.Target, p.AcceptanceRadius) {
		return
	}
	if !world.Enqueue(q, p.WaitingPoint, component.QueueEntry{
		Passenger:   id,
		Destination: p.Destination,
		EnqueuedAt:  s.world.Now,
	}) {
		p.WaitingPoint = component.NoWaitingPoint
		return
	}
	p.Waiting = true
	p.Target = tr.Position
	s.world.ECS.Defer().AddMarker(id, component.MarkerWaiting)
}

func (s *PassengerSystem) toCarriage(id ecs.EntityID, p *component.Passenger, tr *component.Transform) {
	if p.Waiting {
		p.Waiting = false
		s.world.ECS.Defer().RemoveMarker(id, component.MarkerWaiting)
	}
	ct, ok := s.world.Transform.Get(p.Vehicle)
	if p.Vehicle.IsZero() || !ok || !s.world.Spawner.IsLive(p.Vehicle) {
		// carriage vanished; queue again at the origin
		p.Vehicle = ecs.NilEntity
		p.WaitingPoint = component.NoWaitingPoint
		p.Phase = component.PhaseToStationWaitingPoint
		return
	}
	p.Target = ct.Position
	if arrived(tr.Position, p.Target, p.AcceptanceRadius) {
		s.world.HidePassenger(id)
		p.Phase = component.PhaseRideOnTrain
	}
}

func (s *PassengerSystem) leaveCarriage(p *component.Passenger, tr *component.Transform) {
	p.Phase = component.PhaseToPostUnloadWaitingPoint
	p.Target = tr.Position
	q, ok := s.world.Queue.Get(p.Destination)
	if !ok {
		return
	}
	if i := geom.NearestIndex(q.WaitingPoints, tr.Position); i >= 0 {
		p.Target = q.WaitingPoints[i]
	}
}

func (s *PassengerSystem) toExit(p *component.Passenger, tr *component.Transform) {
	p.Phase = component.PhaseToExitSpawn
	p.Target = tr.Position
	q, ok := s.world.Queue.Get(p.Destination)
	if !ok {
		return
	}
	if i := geom.NearestIndex(q.ExitPoints, tr.Position); i >= 0 {
		p.Target = q.ExitPoints[i]
	}
}

func (s *PassengerSystem) finish(id ecs.EntityID, p *component.Passenger) {
	event.Emit(s.world.Bus, event.JourneyCompleted{
		Passenger:   id,
		Origin:      s.world.StationIndex(p.Origin),
		Destination: s.world.StationIndex(p.Destination),
		SpawnedAt:   p.SpawnedAt,
		BoardedAt:   p.BoardedAt,
		CompletedAt: s.world.Now,
	})
	p.Phase = component.PhasePool
	s.world.Spawner.ReturnToPool(id, world.KindPassenger)
}
