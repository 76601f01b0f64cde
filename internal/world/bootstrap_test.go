package world

import (
	"errors"
	"math"
	"testing"

	"github.com/transitloop/sim/internal/config"
)

func TestBootstrapWithoutStations(t *testing.T) {
	s := newTestState(t, nil)
	if err := s.Bootstrap(nil); !errors.Is(err, ErrNoStations) {
		t.Fatalf("Bootstrap(nil) = %v, want ErrNoStations", err)
	}
}

func TestBootstrapPlacesTrainsAfterStations(t *testing.T) {
	s := newTestState(t, func(c *config.Config) {
		c.Train.NumTrains = 3
		c.Train.CarriagesPerTrain = 2
		c.Train.CarriageSpacing = 100
	})
	if err := s.Bootstrap(twoStations()); err != nil {
		t.Fatal(err)
	}
	drainSpawns(s)

	if !s.Booted() {
		t.Fatal("bootstrap did not finish")
	}
	if got := s.Spawner.LiveCount(KindStation); got != 2 {
		t.Fatalf("stations = %d", got)
	}
	if got := s.Spawner.LiveCount(KindEngine); got != 3 {
		t.Fatalf("engines = %d", got)
	}
	if got := s.Spawner.LiveCount(KindCarriage); got != 6 {
		t.Fatalf("carriages = %d", got)
	}

	snap := s.Snapshot()
	if !snap.Valid() {
		t.Fatal("snapshot invalid after bootstrap")
	}
	for i, id := range snap.Stations {
		if st, _ := s.Station.Get(id); st.Index != i {
			t.Fatalf("station %v index = %d, want %d", id, st.Index, i)
		}
	}

	// 3 trains over 2 stations: two passes, the third train half way to B.
	fractions := map[float64]int{}
	for _, e := range s.Spawner.Live(KindEngine) {
		f, _ := s.Follow.Get(e)
		fractions[math.Round(f.Fraction*1000)/1000]++
		ts, _ := s.Train.Get(e)
		if !ts.AtStation || ts.TimeRemaining != s.Cfg.Train.InitialDwellTime {
			t.Fatalf("engine %v not dwelling at start: %+v", e, ts)
		}
		cars := s.Carriages(e)
		if len(cars) != 2 {
			t.Fatalf("engine %v has %d carriages", e, len(cars))
		}
		for i, c := range cars {
			l, _ := s.Link.Get(c)
			if l.Lead != e || l.Index != i+1 {
				t.Fatalf("carriage %d link = %+v", i, l)
			}
			cf, _ := s.Follow.Get(c)
			want := math.Mod(f.Fraction-float64(i+1)*100/snap.Length+1, 1)
			if math.Abs(cf.Fraction-want) > 1e-9 {
				t.Fatalf("carriage %d fraction = %v, want %v", i, cf.Fraction, want)
			}
		}
	}
	if fractions[0] != 1 || fractions[0.5] != 1 || fractions[0.25] != 1 {
		t.Fatalf("engine fractions = %v", fractions)
	}
}
