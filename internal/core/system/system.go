package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseClock      Phase = iota // 0: advance sim clock, dispatch last tick's events
	PhaseTrains                  // 1: headway, movement, carriage follow, station detect
	PhaseStations                // 2: dwell phases + load/unload
	PhasePassengers              // 3: passenger spawning, phase engine, locomotion
	PhaseSpawn                   // 4: budgeted spawn/pool processing
	PhaseStats                   // 5: metrics gauges
	PhasePersist                 // 6: journey ledger flush
	PhaseCleanup                 // 7: flush deferred commands
)

func (p Phase) String() string {
	switch p {
	case PhaseClock:
		return "clock"
	case PhaseTrains:
		return "trains"
	case PhaseStations:
		return "stations"
	case PhasePassengers:
		return "passengers"
	case PhaseSpawn:
		return "spawn"
	case PhaseStats:
		return "stats"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every ECS system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
