package system

import (
	"testing"
	"time"

	"github.com/transitloop/sim/internal/config"
	"github.com/transitloop/sim/internal/core/ecs"
	coresys "github.com/transitloop/sim/internal/core/system"
	"github.com/transitloop/sim/internal/data"
	"github.com/transitloop/sim/internal/geom"
	"github.com/transitloop/sim/internal/track"
	"github.com/transitloop/sim/internal/world"
)

const tick = 50 * time.Millisecond

// newTestState builds a booted state on a square loop of length 10,000 with
// stations at 0 and 0.5. Passenger spawning is off unless mutate enables it.
func newTestState(t *testing.T, mutate func(*config.Config)) *world.State {
	t.Helper()
	cfg := config.Defaults()
	cfg.Passenger.SpawnRatePerSecond = 0
	if mutate != nil {
		mutate(cfg)
	}
	loop, err := track.NewLoop([]geom.Vec3{
		geom.V(0, 0, 0), geom.V(2500, 0, 0), geom.V(2500, 2500, 0), geom.V(0, 2500, 0),
	})
	if err != nil {
		t.Fatal(err)
	}
	ws := world.NewState(world.Options{Config: cfg, Source: loop})
	if err := ws.Bootstrap(testStations()); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 16; i++ {
		ws.Spawner.ProcessPending(cfg.Spawn.BudgetPerTick)
	}
	if !ws.Booted() {
		t.Fatal("state did not boot")
	}
	return ws
}

func testStations() []data.StationEntry {
	return []data.StationEntry{
		{
			Name:          "A",
			Fraction:      0,
			WaitingPoints: []data.Point{{X: 0, Y: -50}, {X: 100, Y: -50}},
			ExitPoints:    []data.Point{{X: 0, Y: -200}},
		},
		{
			Name:          "B",
			Fraction:      0.5,
			WaitingPoints: []data.Point{{X: 2500, Y: 2550}},
			ExitPoints:    []data.Point{{X: 2500, Y: 2700}},
		},
	}
}

// newRunner registers the full tick pipeline.
func newRunner(ws *world.State) *coresys.Runner {
	r := coresys.NewRunner()
	r.Register(NewClockSystem(ws))
	r.Register(NewHeadwaySystem(ws))
	r.Register(NewTrainMovementSystem(ws))
	r.Register(NewCarriageFollowSystem(ws))
	r.Register(NewStationDetectSystem(ws))
	r.Register(NewStationOpsSystem(ws))
	r.Register(NewPassengerSystem(ws))
	r.Register(NewPassengerLocomotionSystem(ws))
	r.Register(NewPassengerSpawnSystem(ws))
	r.Register(NewSpawnSystem(ws))
	r.Register(NewCleanupSystem(ws))
	return r
}

func firstEngine(t *testing.T, ws *world.State) ecs.EntityID {
	t.Helper()
	live := ws.Spawner.Live(world.KindEngine)
	if len(live) == 0 {
		t.Fatal("no engines")
	}
	return live[0]
}

// spawnPassenger creates a passenger travelling between two snapshot
// station indices.
func spawnPassenger(t *testing.T, ws *world.State, origin, dest int) ecs.EntityID {
	t.Helper()
	snap := ws.Snapshot()
	var id ecs.EntityID
	ws.Spawner.Enqueue(world.SpawnRequest{
		Kind:  world.KindPassenger,
		Count: 1,
		Payload: &world.PassengerPayload{
			Origin:      snap.Stations[origin],
			Destination: snap.Stations[dest],
		},
		OnSpawned: func(ids []ecs.EntityID) { id = ids[0] },
	})
	ws.Spawner.ProcessPending(1)
	if id.IsZero() {
		t.Fatal("passenger not spawned")
	}
	return id
}
