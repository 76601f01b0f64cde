package component

import "github.com/transitloop/sim/internal/core/ecs"

// Marker bits. Kind markers are set once by the spawn template; the rest are
// toggled through the world's deferred command buffer.
const (
	MarkerStation ecs.Mask = 1 << iota
	MarkerEngine
	MarkerCarriage
	MarkerPassenger

	MarkerPooled  // in a free pool, excluded from gameplay queries
	MarkerHidden  // not presented (riding or pooled)
	MarkerWaiting // queued at a waiting point
	MarkerOnTrain // inside a carriage
)
