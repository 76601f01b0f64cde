package system

import (
	"time"

	"github.com/transitloop/sim/internal/component"
	"github.com/transitloop/sim/internal/core/ecs"
	coresys "github.com/transitloop/sim/internal/core/system"
	"github.com/transitloop/sim/internal/world"
)

// PassengerLocomotionSystem moves visible passengers along their move
// target without overshooting it. Phase 3 (Passengers), after
// PassengerSystem.
type PassengerLocomotionSystem struct {
	world   *world.State
	query   *ecs.Query
	workers int
}

func NewPassengerLocomotionSystem(ws *world.State) *PassengerLocomotionSystem {
	return &PassengerLocomotionSystem{
		world: ws,
		query: ws.ECS.Query(ws.Transform, ws.Move).
			With(component.MarkerPassenger).
			Without(component.MarkerPooled | component.MarkerHidden).
			BatchSize(ws.Cfg.Sim.BatchSize),
		workers: ws.Cfg.Sim.Workers,
	}
}

func (s *PassengerLocomotionSystem) Phase() coresys.Phase { return coresys.PhasePassengers }

func (s *PassengerLocomotionSystem) Update(dt time.Duration) {
	sec := dt.Seconds()
	s.query.EachParallel(s.workers, func(id ecs.EntityID) {
		tr, ok := s.world.Transform.Get(id)
		if !ok {
			return
		}
		m, ok := s.world.Move.Get(id)
		if !ok || m.DesiredSpeed <= 0 {
			return
		}
		Advance(tr, m, sec)
	})
}

// Advance steps tr toward its move target by at most DesiredSpeed*dt and
// never past DistanceToGoal.
func Advance(tr *component.Transform, m *component.MoveTarget, dt float64) {
	step := min(m.DesiredSpeed*dt, m.DistanceToGoal)
	if step <= 0 {
		return
	}
	tr.Position = tr.Position.Add(m.Forward.Scale(step))
	tr.Forward = m.Forward
	m.DistanceToGoal -= step
}
