package world

import (
	"testing"

	"github.com/transitloop/sim/internal/config"
	"github.com/transitloop/sim/internal/data"
	"github.com/transitloop/sim/internal/geom"
	"github.com/transitloop/sim/internal/track"
)

// newTestState builds a state on a square loop of length 10,000.
func newTestState(t *testing.T, mutate func(*config.Config)) *State {
	t.Helper()
	cfg := config.Defaults()
	if mutate != nil {
		mutate(cfg)
	}
	loop, err := track.NewLoop([]geom.Vec3{
		geom.V(0, 0, 0), geom.V(2500, 0, 0), geom.V(2500, 2500, 0), geom.V(0, 2500, 0),
	})
	if err != nil {
		t.Fatal(err)
	}
	return NewState(Options{Config: cfg, Source: loop})
}

func twoStations() []data.StationEntry {
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

func drainSpawns(s *State) {
	for i := 0; i < 16; i++ {
		s.Spawner.ProcessPending(s.Cfg.Spawn.BudgetPerTick)
	}
}
