package system

import (
	"time"

	coresys "github.com/transitloop/sim/internal/core/system"
	"github.com/transitloop/sim/internal/world"
)

// SpawnSystem drains queued spawn requests under the per-tick budget.
// Phase 4 (Spawn).
type SpawnSystem struct {
	world  *world.State
	budget int
}

func NewSpawnSystem(ws *world.State) *SpawnSystem {
	return &SpawnSystem{world: ws, budget: ws.Cfg.Spawn.BudgetPerTick}
}

func (s *SpawnSystem) Phase() coresys.Phase { return coresys.PhaseSpawn }

func (s *SpawnSystem) Update(_ time.Duration) {
	s.world.ECS.Flush()
	s.world.Spawner.ProcessPending(s.budget)
}
