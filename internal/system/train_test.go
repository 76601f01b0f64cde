package system

import (
	"math"
	"testing"

	"github.com/transitloop/sim/internal/component"
	"github.com/transitloop/sim/internal/config"
	"github.com/transitloop/sim/internal/core/event"
	"github.com/transitloop/sim/internal/world"
)

func TestTravelTimeRespectsCruiseSpeed(t *testing.T) {
	ws := newTestState(t, func(c *config.Config) {
		c.Train.NumTrains = 1
		c.Train.CarriagesPerTrain = 0
	})
	r := newRunner(ws)

	var departed, arrived []float64
	event.Subscribe(ws.Bus, func(e event.TrainDeparted) {
		if e.Station == 0 {
			departed = append(departed, e.At)
		}
	})
	event.Subscribe(ws.Bus, func(e event.TrainArrived) {
		if e.Station == 1 {
			arrived = append(arrived, e.At)
		}
	})

	for i := 0; i < 1200 && len(arrived) == 0; i++ {
		r.Tick(tick)
	}
	if len(departed) == 0 || len(arrived) == 0 {
		t.Fatalf("departed=%v arrived=%v", departed, arrived)
	}
	// 5000 units at no more than 1000 per second
	if d := arrived[0] - departed[0]; d < 5 {
		t.Fatalf("A to B took %.2fs, want >= 5s", d)
	}
}

func TestEngineLeavesAfterInitialDwell(t *testing.T) {
	ws := newTestState(t, func(c *config.Config) {
		c.Train.NumTrains = 1
		c.Train.CarriagesPerTrain = 0
	})
	r := newRunner(ws)
	engine := firstEngine(t, ws)

	// 2s initial dwell is 40 ticks
	for i := 0; i < 39; i++ {
		r.Tick(tick)
	}
	if ts, _ := ws.Train.Get(engine); !ts.AtStation {
		t.Fatal("engine left before its initial dwell")
	}
	for i := 0; i < 3; i++ {
		r.Tick(tick)
	}
	ts, _ := ws.Train.Get(engine)
	if ts.AtStation || ts.TargetStation != 1 || ts.PreviousStation != 0 {
		t.Fatalf("after dwell: %+v", ts)
	}
}

func TestStationDetectStopsAndArrives(t *testing.T) {
	ws := newTestState(t, func(c *config.Config) {
		c.Train.NumTrains = 1
		c.Train.CarriagesPerTrain = 0
	})
	sys := NewStationDetectSystem(ws)
	engine := firstEngine(t, ws)
	ts, _ := ws.Train.Get(engine)
	f, _ := ws.Follow.Get(engine)

	ts.AtStation = false
	ts.TargetStation = 1
	ts.PrevFraction = 0.45
	f.Fraction = 0.46
	f.Speed = 1000
	sys.Update(tick)
	if !ts.Stopping || ts.AtStation {
		t.Fatalf("400 units out: stopping=%v at=%v", ts.Stopping, ts.AtStation)
	}

	ts.PrevFraction = 0.49
	f.Fraction = 0.51
	sys.Update(tick)
	if !ts.AtStation || f.Fraction != 0.5 || f.Speed != 0 {
		t.Fatalf("crossing not detected: %+v %+v", ts, f)
	}
	if ts.TimeRemaining != ws.Cfg.Train.MaxDwellTime || ts.Phase != component.DwellNotStopped {
		t.Fatalf("dwell not reset: %+v", ts)
	}
	if ts.PrevFraction != 0.5 {
		t.Fatalf("prev fraction = %v", ts.PrevFraction)
	}
}

func TestAdvanceDwellOrder(t *testing.T) {
	ts := &component.TrainState{Phase: component.DwellNotStopped, TimeRemaining: 10}
	seen := []component.DwellPhase{ts.Phase}
	for ts.TimeRemaining > 0 {
		prev := ts.Phase
		AdvanceDwell(ts, 10, 2)
		if ts.Phase < prev || ts.Phase > prev+1 {
			t.Fatalf("%v -> %v skips or reverses", prev, ts.Phase)
		}
		if ts.Phase != prev {
			seen = append(seen, ts.Phase)
		}
		ts.TimeRemaining -= 0.05
	}
	want := []component.DwellPhase{
		component.DwellNotStopped, component.DwellArriving, component.DwellUnloading,
		component.DwellLoading, component.DwellDeparting,
	}
	if len(seen) != len(want) {
		t.Fatalf("phases = %v", seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("phases = %v", seen)
		}
	}
}

func TestAdvanceDwellShortDwellStaysArriving(t *testing.T) {
	// below the switch threshold from the start, as after the initial dwell
	ts := &component.TrainState{Phase: component.DwellNotStopped, TimeRemaining: 2}
	for i := 0; i < 10; i++ {
		AdvanceDwell(ts, 10, 2)
		ts.TimeRemaining -= 0.05
	}
	if ts.Phase != component.DwellArriving {
		t.Fatalf("phase = %v", ts.Phase)
	}
}

// TestDwellPhasesThroughRealStops drives one train round the loop with the
// whole pipeline and checks each stop walks the dwell phases once, in order.
func TestDwellPhasesThroughRealStops(t *testing.T) {
	ws := newTestState(t, func(c *config.Config) { c.Train.NumTrains = 1 })
	r := newRunner(ws)
	engine := firstEngine(t, ws)

	want := []component.DwellPhase{
		component.DwellNotStopped, component.DwellArriving, component.DwellUnloading,
		component.DwellLoading, component.DwellDeparting,
	}
	var stops [][]component.DwellPhase
	cur := []component.DwellPhase{component.DwellNotStopped}
	for i := 0; i < 2000; i++ {
		r.Tick(tick)
		ts, _ := ws.Train.Get(engine)
		if ts.Phase == cur[len(cur)-1] {
			continue
		}
		if ts.Phase == component.DwellNotStopped {
			stops = append(stops, cur)
			cur = []component.DwellPhase{component.DwellNotStopped}
			continue
		}
		cur = append(cur, ts.Phase)
		if len(cur) > len(want) || cur[len(cur)-1] != want[len(cur)-1] {
			t.Fatalf("tick %d: phases %v out of order", i, cur)
		}
	}

	// the first stop is the short initial dwell
	if len(stops) < 3 {
		t.Fatalf("only %d stops completed", len(stops))
	}
	if first := stops[0]; len(first) != 2 || first[1] != component.DwellArriving {
		t.Fatalf("initial stop = %v", first)
	}
	for n, stop := range stops[1:] {
		if len(stop) != len(want) {
			t.Fatalf("stop %d = %v, want %v", n+1, stop, want)
		}
		for i := range want {
			if stop[i] != want[i] {
				t.Fatalf("stop %d = %v, want %v", n+1, stop, want)
			}
		}
	}
}

func TestHeadwayScalesByGap(t *testing.T) {
	ws := newTestState(t, func(c *config.Config) { c.Train.CarriagesPerTrain = 0 })
	engines := ws.Spawner.Live(world.KindEngine)
	if len(engines) != 2 {
		t.Fatalf("engines = %d", len(engines))
	}
	a, _ := ws.Follow.Get(engines[0])
	b, _ := ws.Follow.Get(engines[1])
	a.Fraction, b.Fraction = 0, 0.25

	NewHeadwaySystem(ws).Update(tick)
	ta, _ := ws.Train.Get(engines[0])
	tb, _ := ws.Train.Get(engines[1])
	if math.Abs(ta.HeadwayScale-0.75) > 1e-9 || math.Abs(tb.HeadwayScale-1.25) > 1e-9 {
		t.Fatalf("scales = %v, %v", ta.HeadwayScale, tb.HeadwayScale)
	}
}

type wildPolicy struct{ scale float64 }

func (wildPolicy) ChooseDestination(origin, count int, _ float64) int { return (origin + 1) % count }
func (p wildPolicy) HeadwaySpeedScale(_, _ float64) float64           { return p.scale }

func TestHeadwayClampsPolicy(t *testing.T) {
	ws := newTestState(t, func(c *config.Config) { c.Train.CarriagesPerTrain = 0 })
	sys := NewHeadwaySystem(ws)
	engine := firstEngine(t, ws)

	for _, tc := range []struct{ in, want float64 }{
		{10, ws.Cfg.Train.HeadwayMax},
		{-3, ws.Cfg.Train.HeadwayMin},
		{math.NaN(), 1},
	} {
		ws.Policy = wildPolicy{scale: tc.in}
		sys.Update(tick)
		if ts, _ := ws.Train.Get(engine); ts.HeadwayScale != tc.want {
			t.Fatalf("policy %v: scale %v, want %v", tc.in, ts.HeadwayScale, tc.want)
		}
	}
}

func TestCarriagesTrailEngine(t *testing.T) {
	ws := newTestState(t, func(c *config.Config) { c.Train.NumTrains = 1 })
	r := newRunner(ws)
	for i := 0; i < 200; i++ {
		r.Tick(tick)
	}
	// an arrival snap during the last tick happens after the follow step
	NewCarriageFollowSystem(ws).Update(tick)
	engine := firstEngine(t, ws)
	ef, _ := ws.Follow.Get(engine)
	length := ws.Snapshot().Length
	cars := ws.Carriages(engine)
	if len(cars) != ws.Cfg.Train.CarriagesPerTrain {
		t.Fatalf("carriages = %d", len(cars))
	}
	for i, car := range cars {
		cf, _ := ws.Follow.Get(car)
		want := float64(i+1) * ws.Cfg.Train.CarriageSpacing / length
		got := ef.Fraction - cf.Fraction
		if got < 0 {
			got++
		}
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("carriage %d trails by %v, want %v", i, got, want)
		}
	}
}
