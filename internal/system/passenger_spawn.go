package system

import (
	"math"
	"time"

	"github.com/transitloop/sim/internal/core/ecs"
	coresys "github.com/transitloop/sim/internal/core/system"
	"github.com/transitloop/sim/internal/world"
)

// PassengerSpawnSystem requests new passengers at a steady rate, up to the
// overall population cap. Phase 4 (Spawn), before SpawnSystem.
type PassengerSpawnSystem struct {
	world *world.State
	acc   float64
}

func NewPassengerSpawnSystem(ws *world.State) *PassengerSpawnSystem {
	return &PassengerSpawnSystem{world: ws}
}

func (s *PassengerSpawnSystem) Phase() coresys.Phase { return coresys.PhaseSpawn }

func (s *PassengerSpawnSystem) Update(dt time.Duration) {
	ws := s.world
	pc := ws.Cfg.Passenger
	if !ws.Booted() || pc.SpawnRatePerSecond <= 0 {
		return
	}
	snap := ws.Snapshot()
	if !snap.Valid() {
		return
	}
	s.acc += pc.SpawnRatePerSecond * dt.Seconds()
	n := int(math.Floor(s.acc))
	if n <= 0 {
		return
	}
	s.acc -= float64(n)

	sp := ws.Spawner
	room := pc.MaxOverall - sp.LiveCount(world.KindPassenger) - sp.PendingCount(world.KindPassenger)
	n = min(n, room)
	count := len(snap.Stations)
	for i := 0; i < n; i++ {
		origin := ws.Rand.Intn(count)
		dest := ws.Policy.ChooseDestination(origin, count, ws.Rand.Float64())
		if dest < 0 || dest >= count || dest == origin {
			dest = world.DefaultPolicy().ChooseDestination(origin, count, ws.Rand.Float64())
		}
		s.request(snap.Stations[origin], snap.Stations[dest])
	}
}

func (s *PassengerSpawnSystem) request(origin, dest ecs.EntityID) {
	ws := s.world
	req := world.SpawnRequest{
		Kind:    world.KindPassenger,
		Count:   1,
		Payload: &world.PassengerPayload{Origin: origin, Destination: dest},
	}
	if st, ok := ws.Station.Get(origin); ok {
		req.Position = st.Position
	}
	if q, ok := ws.Queue.Get(origin); ok && len(q.ExitPoints) > 0 {
		req.Position = q.ExitPoints[ws.Rand.Intn(len(q.ExitPoints))]
	}
	if r := ws.Cfg.Passenger.Radius; r > 0 {
		// uniform over the disc so arrivals don't stack on one point
		a := ws.Rand.Float64() * 2 * math.Pi
		d := r * math.Sqrt(ws.Rand.Float64())
		req.Position.X += d * math.Cos(a)
		req.Position.Y += d * math.Sin(a)
	}
	ws.Spawner.Enqueue(req)
}
