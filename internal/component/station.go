package component

import (
	"github.com/transitloop/sim/internal/core/ecs"
	"github.com/transitloop/sim/internal/geom"
)

// Station identifies a platform on the loop.
type Station struct {
	Index    int // position in the fraction-sorted station list
	Name     string
	Fraction float64
	Position geom.Vec3
}

// QueueEntry is one passenger waiting at a waiting point.
type QueueEntry struct {
	Passenger   ecs.EntityID
	Destination ecs.EntityID
	EnqueuedAt  float64
	Priority    int
}

// WaitQueue is a FIFO of entries; Head indexes the front so dequeues do not
// shift the backing array.
type WaitQueue struct {
	Entries []QueueEntry
	Head    int
}

// StationQueue holds the waiting geometry and per-waiting-point queues of a
// station. Queues[i] belongs to WaitingPoints[i].
type StationQueue struct {
	WaitingPoints []geom.Vec3
	ExitPoints    []geom.Vec3
	Queues        []WaitQueue
}
