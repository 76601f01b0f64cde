package component

import "github.com/transitloop/sim/internal/geom"

// Transform is the world-space placement of any entity.
type Transform struct {
	Position geom.Vec3
	Forward  geom.Vec3
}

// MoveTarget is the steering request consumed by locomotion.
type MoveTarget struct {
	Center         geom.Vec3
	Forward        geom.Vec3 // horizontal unit direction to Center
	DistanceToGoal float64
	DesiredSpeed   float64
}
