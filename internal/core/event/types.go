package event

import "github.com/transitloop/sim/internal/core/ecs"

// PassengerBoarded is emitted when a passenger is assigned to a carriage.
type PassengerBoarded struct {
	Passenger ecs.EntityID
	Carriage  ecs.EntityID
	Station   int
}

// PassengerAlighted is emitted when a passenger leaves a carriage at its
// destination.
type PassengerAlighted struct {
	Passenger ecs.EntityID
	Carriage  ecs.EntityID
	Station   int
}

// TrainArrived is emitted when an engine stops at a station.
type TrainArrived struct {
	Train   ecs.EntityID
	Station int
	At      float64
}

// TrainDeparted is emitted when an engine leaves a station.
type TrainDeparted struct {
	Train   ecs.EntityID
	Station int
	At      float64
}

// JourneyCompleted is emitted when a passenger reaches its exit and is
// returned to the pool.
type JourneyCompleted struct {
	Passenger   ecs.EntityID
	Origin      int
	Destination int
	SpawnedAt   float64
	BoardedAt   float64
	CompletedAt float64
}

// Duration returns the full journey time in simulated seconds.
func (j JourneyCompleted) Duration() float64 { return j.CompletedAt - j.SpawnedAt }
