package world

import (
	"github.com/transitloop/sim/internal/component"
	"github.com/transitloop/sim/internal/core/ecs"
	"github.com/transitloop/sim/internal/core/event"
	"github.com/transitloop/sim/internal/geom"
)

// TryBoard assigns passenger to carriage. It is rejected when the carriage
// is full, either handle is stale, or the passenger already holds a
// vehicle. The capacity check and the append happen together.
func (s *State) TryBoard(passenger, carriage ecs.EntityID, station int) bool {
	c, ok := s.Carriage.Get(carriage)
	if !ok || !s.ECS.Alive(carriage) {
		return false
	}
	p, ok := s.Passenger.Get(passenger)
	if !ok || !s.ECS.Alive(passenger) {
		return false
	}
	if len(c.Occupants) >= c.Capacity || !p.Vehicle.IsZero() {
		return false
	}
	c.Occupants = append(c.Occupants, passenger)
	p.Vehicle = carriage
	p.Phase = component.PhaseToAssignedCarriage
	p.BoardedAt = s.Now
	event.Emit(s.Bus, event.PassengerBoarded{Passenger: passenger, Carriage: carriage, Station: station})
	return true
}

// Disembark removes the occupant at index (swap and pop), clears its
// vehicle and shows it at location in phase UnloadAtStation.
func (s *State) Disembark(carriage ecs.EntityID, c *component.Carriage, index int, location geom.Vec3, station int) {
	if index < 0 || index >= len(c.Occupants) {
		return
	}
	passenger := c.Occupants[index]
	last := len(c.Occupants) - 1
	c.Occupants[index] = c.Occupants[last]
	c.Occupants[last] = ecs.NilEntity
	c.Occupants = c.Occupants[:last]

	if p, ok := s.Passenger.Get(passenger); ok {
		p.Vehicle = ecs.NilEntity
		p.Phase = component.PhaseUnloadAtStation
		p.Waiting = false
	}
	s.ShowPassenger(passenger, location)
	event.Emit(s.Bus, event.PassengerAlighted{Passenger: passenger, Carriage: carriage, Station: station})
}

// HidePassenger takes a passenger out of the visible world while it rides.
func (s *State) HidePassenger(id ecs.EntityID) {
	s.setMarkers(id, component.MarkerHidden|component.MarkerOnTrain, component.MarkerWaiting)
}

// ShowPassenger puts a passenger back into the world at location.
func (s *State) ShowPassenger(id ecs.EntityID, location geom.Vec3) {
	if t, ok := s.Transform.Get(id); ok {
		t.Position = location
	}
	if m, ok := s.Move.Get(id); ok {
		*m = component.MoveTarget{}
	}
	s.setMarkers(id, 0, component.MarkerHidden|component.MarkerOnTrain)
}

// Occupies reports whether carriage lists passenger as an occupant.
func (s *State) Occupies(carriage, passenger ecs.EntityID) bool {
	c, ok := s.Carriage.Get(carriage)
	if !ok {
		return false
	}
	for _, o := range c.Occupants {
		if o == passenger {
			return true
		}
	}
	return false
}
