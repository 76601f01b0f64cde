package system

import (
	"time"

	coresys "github.com/transitloop/sim/internal/core/system"
	"github.com/transitloop/sim/internal/world"
)

// ClockSystem advances simulated time and delivers last tick's events.
// Phase 0 (Clock).
type ClockSystem struct {
	world *world.State
}

func NewClockSystem(ws *world.State) *ClockSystem {
	return &ClockSystem{world: ws}
}

func (s *ClockSystem) Phase() coresys.Phase { return coresys.PhaseClock }

func (s *ClockSystem) Update(dt time.Duration) {
	s.world.Now += dt.Seconds()
	s.world.Bus.SwapBuffers()
	s.world.Bus.DispatchAll()
}

// Drain delivers the events emitted during the last tick, which would
// otherwise wait for a tick that never runs. Call it once after the final
// tick and before flushing anything that subscribes to the bus.
func (s *ClockSystem) Drain() {
	if s.world.Bus.Pending() == 0 {
		return
	}
	s.world.Bus.SwapBuffers()
	s.world.Bus.DispatchAll()
}
