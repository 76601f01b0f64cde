package system

import (
	"time"

	"github.com/transitloop/sim/internal/component"
	"github.com/transitloop/sim/internal/core/ecs"
	"github.com/transitloop/sim/internal/core/event"
	coresys "github.com/transitloop/sim/internal/core/system"
	"github.com/transitloop/sim/internal/observability"
	"github.com/transitloop/sim/internal/world"
)

// MetricsSystem publishes population gauges every interval ticks and
// counts journey events as they are dispatched. Phase 5 (Stats).
type MetricsSystem struct {
	world     *world.State
	metrics   *observability.SimCollector
	stations  *ecs.Query
	carriages *ecs.Query
	interval  int
	tickCount int
}

func NewMetricsSystem(ws *world.State, metrics *observability.SimCollector, intervalTicks int) *MetricsSystem {
	if intervalTicks <= 0 {
		intervalTicks = 1
	}
	s := &MetricsSystem{
		world:     ws,
		metrics:   metrics,
		stations:  ws.ECS.Query(ws.Queue).With(component.MarkerStation),
		carriages: ws.ECS.Query(ws.Carriage).With(component.MarkerCarriage).Without(component.MarkerPooled),
		interval:  intervalTicks,
	}
	event.Subscribe(ws.Bus, func(event.PassengerBoarded) { metrics.RecordBoarding() })
	event.Subscribe(ws.Bus, func(event.PassengerAlighted) { metrics.RecordAlighting() })
	event.Subscribe(ws.Bus, func(event.TrainArrived) { metrics.RecordArrival() })
	event.Subscribe(ws.Bus, func(e event.JourneyCompleted) { metrics.RecordJourney(e.Duration()) })
	return s
}

func (s *MetricsSystem) Phase() coresys.Phase { return coresys.PhaseStats }

func (s *MetricsSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0

	sp := s.world.Spawner
	for _, k := range world.Kinds {
		s.metrics.SetEntityCounts(k.String(), sp.LiveCount(k), sp.PoolCount(k), sp.PendingCount(k))
	}
	queued, riding := 0, 0
	s.stations.Each(func(id ecs.EntityID) {
		if q, ok := s.world.Queue.Get(id); ok {
			queued += world.TotalQueued(q)
		}
	})
	s.carriages.Each(func(id ecs.EntityID) {
		if c, ok := s.world.Carriage.Get(id); ok {
			riding += len(c.Occupants)
		}
	})
	s.metrics.SetPassengerCounts(queued, riding)
	s.metrics.SetTrackRevision(s.world.Snapshot().Revision)
}
