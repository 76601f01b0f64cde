package world

import (
	"github.com/transitloop/sim/internal/component"
	"github.com/transitloop/sim/internal/core/ecs"
	"github.com/transitloop/sim/internal/geom"
)

// PoolPosition is where pooled passengers are parked.
var PoolPosition = geom.V(0, 0, -10000)

type StationPayload struct {
	Name          string
	Fraction      float64
	WaitingPoints []geom.Vec3
	ExitPoints    []geom.Vec3
}

type EnginePayload struct {
	Fraction float64
	Station  int // snapshot index the engine starts at
}

type CarriagePayload struct {
	Lead     ecs.EntityID
	Index    int
	Spacing  float64
	Capacity int
	Fraction float64
}

type PassengerPayload struct {
	Origin      ecs.EntityID
	Destination ecs.EntityID
}

func (s *State) registerTemplates() {
	s.Spawner.SetTemplate(KindStation, &Template{
		Markers:   component.MarkerStation,
		Configure: s.configureStation,
	})
	s.Spawner.SetTemplate(KindEngine, &Template{
		Markers:   component.MarkerEngine,
		Configure: s.configureEngine,
	})
	if s.Cfg.Train.CarriageCapacity > 0 {
		s.Spawner.SetTemplate(KindCarriage, &Template{
			Markers:   component.MarkerCarriage,
			Configure: s.configureCarriage,
			Teardown:  s.teardownCarriage,
		})
	}
	s.Spawner.SetTemplate(KindPassenger, &Template{
		Markers:   component.MarkerPassenger,
		Configure: s.configurePassenger,
		Teardown:  s.teardownPassenger,
	})
}

// sample places an entity on the track, falling back to the request
// transform when no geometry is available.
func (s *State) sample(fraction float64, req *SpawnRequest) component.Transform {
	if src := s.Track.Source(); src != nil && src.Length() > 0 {
		pos, fwd := src.Sample(fraction)
		return component.Transform{Position: pos, Forward: fwd}
	}
	return component.Transform{Position: req.Position, Forward: req.Forward}
}

func (s *State) configureStation(id ecs.EntityID, req *SpawnRequest) {
	p, ok := req.Payload.(*StationPayload)
	if !ok {
		return
	}
	frac := geom.WrapFraction(p.Fraction)
	tr := s.sample(frac, req)
	s.Transform.Set(id, tr)
	s.Station.Set(id, component.Station{
		Index:    component.NoStation,
		Name:     p.Name,
		Fraction: frac,
		Position: tr.Position,
	})
	s.Queue.Set(id, component.StationQueue{
		WaitingPoints: append([]geom.Vec3(nil), p.WaitingPoints...),
		ExitPoints:    append([]geom.Vec3(nil), p.ExitPoints...),
		Queues:        make([]component.WaitQueue, len(p.WaitingPoints)),
	})
	s.Track.Register(id, frac)
	if s.boot != nil {
		s.boot.stationConfigured(s)
	}
}

func (s *State) configureEngine(id ecs.EntityID, req *SpawnRequest) {
	p, ok := req.Payload.(*EnginePayload)
	if !ok {
		return
	}
	frac := geom.WrapFraction(p.Fraction)
	s.Transform.Set(id, s.sample(frac, req))
	s.Follow.Set(id, component.TrackFollow{Fraction: frac})
	s.Train.Set(id, component.TrainState{
		Phase:           component.DwellNotStopped,
		AtStation:       true,
		TargetStation:   p.Station,
		PreviousStation: p.Station,
		TimeRemaining:   s.Cfg.Train.InitialDwellTime,
		HeadwayScale:    1,
		PrevFraction:    frac,
	})
	if _, ok := s.carriages[id]; !ok {
		s.carriages[id] = nil
	}
}

func (s *State) configureCarriage(id ecs.EntityID, req *SpawnRequest) {
	p, ok := req.Payload.(*CarriagePayload)
	if !ok {
		return
	}
	frac := geom.WrapFraction(p.Fraction)
	s.Transform.Set(id, s.sample(frac, req))
	s.Follow.Set(id, component.TrackFollow{Fraction: frac})
	s.Link.Set(id, component.Link{Lead: p.Lead, Index: p.Index, Spacing: p.Spacing})
	occupants := make([]ecs.EntityID, 0, p.Capacity)
	if c, ok := s.Carriage.Get(id); ok && cap(c.Occupants) >= p.Capacity {
		occupants = c.Occupants[:0]
	}
	s.Carriage.Set(id, component.Carriage{Capacity: p.Capacity, Occupants: occupants})
	s.linkCarriage(p.Lead, id, p.Index)
}

func (s *State) teardownCarriage(id ecs.EntityID) {
	if l, ok := s.Link.Get(id); ok {
		list := s.carriages[l.Lead]
		for i, c := range list {
			if c == id {
				s.carriages[l.Lead] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
	if c, ok := s.Carriage.Get(id); ok {
		clear(c.Occupants)
		c.Occupants = c.Occupants[:0]
	}
}

// configurePassenger resets every journey field so a recycled passenger
// carries nothing over from its previous trip.
func (s *State) configurePassenger(id ecs.EntityID, req *SpawnRequest) {
	var p PassengerPayload
	if pp, ok := req.Payload.(*PassengerPayload); ok {
		p = *pp
	}
	s.Transform.Set(id, component.Transform{Position: req.Position, Forward: req.Forward})
	s.Move.Set(id, component.MoveTarget{})
	s.Passenger.Set(id, component.Passenger{
		Origin:           p.Origin,
		Destination:      p.Destination,
		Phase:            component.PhaseEnteredWorld,
		WaitingPoint:     component.NoWaitingPoint,
		AcceptanceRadius: s.Cfg.Passenger.AcceptanceRadius,
		MaxSpeed:         s.Cfg.Passenger.MaxSpeed,
		SpawnedAt:        s.Now,
	})
	s.setMarkers(id, 0, component.MarkerWaiting|component.MarkerOnTrain)
}

func (s *State) teardownPassenger(id ecs.EntityID) {
	if p, ok := s.Passenger.Get(id); ok {
		*p = component.Passenger{
			Phase:        component.PhasePool,
			WaitingPoint: component.NoWaitingPoint,
		}
	}
	if m, ok := s.Move.Get(id); ok {
		*m = component.MoveTarget{}
	}
	if t, ok := s.Transform.Get(id); ok {
		t.Position = PoolPosition
	}
	s.setMarkers(id, component.MarkerHidden, component.MarkerWaiting|component.MarkerOnTrain)
}
