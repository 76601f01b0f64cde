package component

import "github.com/transitloop/sim/internal/core/ecs"

// DwellPhase is a train's state while stopped at a station.
type DwellPhase uint8

const (
	DwellNotStopped DwellPhase = iota
	DwellArriving
	DwellUnloading
	DwellLoading
	DwellDeparting
)

func (p DwellPhase) String() string {
	switch p {
	case DwellNotStopped:
		return "not_stopped"
	case DwellArriving:
		return "arriving"
	case DwellUnloading:
		return "unloading"
	case DwellLoading:
		return "loading"
	case DwellDeparting:
		return "departing"
	}
	return "unknown"
}

// NoStation marks an unset station index.
const NoStation = -1

// TrainState drives an engine's approach, stop and dwell.
type TrainState struct {
	Phase           DwellPhase
	Stopping        bool
	AtStation       bool
	TargetStation   int // index into the track snapshot's station list
	PreviousStation int
	TimeRemaining   float64 // seconds of dwell left
	HeadwayScale    float64
	PrevFraction    float64
}

// TrackFollow is the position of an engine or carriage along the loop.
type TrackFollow struct {
	Fraction float64 // [0,1)
	Speed    float64 // units per second
}

// Link ties a carriage to its engine.
type Link struct {
	Lead    ecs.EntityID
	Index   int // 1-based; 0 is the engine
	Spacing float64
}

// Carriage holds the occupants of one car. len(Occupants) <= Capacity.
type Carriage struct {
	Capacity  int
	Occupants []ecs.EntityID
}
