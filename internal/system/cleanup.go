package system

import (
	"time"

	coresys "github.com/transitloop/sim/internal/core/system"
	"github.com/transitloop/sim/internal/world"
)

// CleanupSystem applies any structural changes still deferred at tick end.
// Phase 7 (Cleanup).
type CleanupSystem struct {
	world *world.State
}

func NewCleanupSystem(ws *world.State) *CleanupSystem {
	return &CleanupSystem{world: ws}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.world.ECS.Flush()
}
