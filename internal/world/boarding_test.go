package world

import (
	"testing"

	"github.com/transitloop/sim/internal/component"
	"github.com/transitloop/sim/internal/core/ecs"
	"github.com/transitloop/sim/internal/geom"
)

func spawnPassengers(s *State, n int) []ecs.EntityID {
	var out []ecs.EntityID
	s.Spawner.Enqueue(SpawnRequest{
		Kind:      KindPassenger,
		Count:     n,
		OnSpawned: func(ids []ecs.EntityID) { out = append(out, ids...) },
	})
	s.Spawner.ProcessPending(n)
	return out
}

func spawnCarriage(s *State, capacity int) ecs.EntityID {
	var id ecs.EntityID
	s.Spawner.Enqueue(SpawnRequest{
		Kind:      KindCarriage,
		Count:     1,
		Payload:   &CarriagePayload{Capacity: capacity, Index: 1},
		OnSpawned: func(ids []ecs.EntityID) { id = ids[0] },
	})
	s.Spawner.ProcessPending(1)
	return id
}

func TestTryBoardRespectsCapacity(t *testing.T) {
	s := newTestState(t, nil)
	ps := spawnPassengers(s, 3)
	car := spawnCarriage(s, 2)

	for i, want := range []bool{true, true, false} {
		if got := s.TryBoard(ps[i], car, 0); got != want {
			t.Fatalf("TryBoard(%d) = %v, want %v", i, got, want)
		}
	}
	c, _ := s.Carriage.Get(car)
	if len(c.Occupants) != 2 {
		t.Fatalf("occupants = %v", c.Occupants)
	}
	p, _ := s.Passenger.Get(ps[0])
	if p.Vehicle != car || p.Phase != component.PhaseToAssignedCarriage {
		t.Fatalf("boarded passenger = %+v", p)
	}
	if p, _ := s.Passenger.Get(ps[2]); !p.Vehicle.IsZero() {
		t.Fatal("rejected passenger got a vehicle")
	}
}

func TestTryBoardRejectsDoubleBooking(t *testing.T) {
	s := newTestState(t, nil)
	ps := spawnPassengers(s, 1)
	a := spawnCarriage(s, 4)
	b := spawnCarriage(s, 4)
	if !s.TryBoard(ps[0], a, 0) {
		t.Fatal("first boarding rejected")
	}
	if s.TryBoard(ps[0], b, 0) {
		t.Fatal("passenger boarded two carriages")
	}
	if s.Occupies(b, ps[0]) {
		t.Fatal("second carriage lists the passenger")
	}
}

func TestTryBoardStaleHandles(t *testing.T) {
	s := newTestState(t, nil)
	car := spawnCarriage(s, 4)
	if s.TryBoard(ecs.NewEntityID(999, 3), car, 0) {
		t.Fatal("boarded a stale passenger handle")
	}
	ps := spawnPassengers(s, 1)
	if s.TryBoard(ps[0], ecs.NewEntityID(999, 3), 0) {
		t.Fatal("boarded a stale carriage handle")
	}
}

func TestDisembark(t *testing.T) {
	s := newTestState(t, nil)
	ps := spawnPassengers(s, 2)
	car := spawnCarriage(s, 4)
	for _, p := range ps {
		s.TryBoard(p, car, 0)
		s.HidePassenger(p)
	}
	c, _ := s.Carriage.Get(car)
	at := geom.V(10, 20, 0)
	s.Disembark(car, c, 0, at, 1)

	if len(c.Occupants) != 1 || c.Occupants[0] != ps[1] {
		t.Fatalf("occupants = %v", c.Occupants)
	}
	p, _ := s.Passenger.Get(ps[0])
	if !p.Vehicle.IsZero() || p.Phase != component.PhaseUnloadAtStation {
		t.Fatalf("disembarked passenger = %+v", p)
	}
	if tr, _ := s.Transform.Get(ps[0]); tr.Position != at {
		t.Fatalf("position = %v, want %v", tr.Position, at)
	}
	if s.ECS.Markers(ps[0]).Any(component.MarkerHidden | component.MarkerOnTrain) {
		t.Fatal("disembarked passenger still hidden")
	}
	if !s.ECS.HasMarker(ps[1], component.MarkerOnTrain) {
		t.Fatal("remaining rider lost its marker")
	}
}
