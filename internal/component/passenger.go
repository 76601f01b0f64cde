package component

import (
	"github.com/transitloop/sim/internal/core/ecs"
	"github.com/transitloop/sim/internal/geom"
)

// PassengerPhase is a passenger's step in its journey.
type PassengerPhase uint8

const (
	PhaseEnteredWorld PassengerPhase = iota
	PhaseToStationWaitingPoint
	PhaseToAssignedCarriage
	PhaseRideOnTrain
	PhaseUnloadAtStation
	PhaseToPostUnloadWaitingPoint
	PhaseToExitSpawn
	PhasePool
)

func (p PassengerPhase) String() string {
	switch p {
	case PhaseEnteredWorld:
		return "entered_world"
	case PhaseToStationWaitingPoint:
		return "to_station_waiting_point"
	case PhaseToAssignedCarriage:
		return "to_assigned_carriage"
	case PhaseRideOnTrain:
		return "ride_on_train"
	case PhaseUnloadAtStation:
		return "unload_at_station"
	case PhaseToPostUnloadWaitingPoint:
		return "to_post_unload_waiting_point"
	case PhaseToExitSpawn:
		return "to_exit_spawn"
	case PhasePool:
		return "pool"
	}
	return "unknown"
}

// NoWaitingPoint marks an unassigned waiting point.
const NoWaitingPoint = -1

// Passenger is the journey record of one traveller.
// Pure data, zero methods beyond the phase name; systems mutate it.
type Passenger struct {
	Origin           ecs.EntityID
	Destination      ecs.EntityID
	Target           geom.Vec3 // zero means no target
	Phase            PassengerPhase
	WaitingPoint     int
	Vehicle          ecs.EntityID
	AcceptanceRadius float64
	MaxSpeed         float64
	Waiting          bool
	SpawnedAt        float64
	BoardedAt        float64
}
