package world

import (
	"go.uber.org/zap"

	"github.com/transitloop/sim/internal/core/ecs"
	"github.com/transitloop/sim/internal/data"
	"github.com/transitloop/sim/internal/geom"
	"github.com/transitloop/sim/internal/track"
)

// bootstrap tracks station creation so trains are only placed once the
// full station list exists.
type bootstrap struct {
	expected   int
	configured int
	trainsDone bool
}

// Bootstrap queues one spawn per station. When the last station has been
// configured the trains and their carriages are queued behind them, so a
// run needs a few spawn ticks before trains appear.
func (s *State) Bootstrap(stations []data.StationEntry) error {
	if len(stations) == 0 {
		return ErrNoStations
	}
	s.boot = &bootstrap{expected: len(stations)}
	for i := range stations {
		e := &stations[i]
		s.Spawner.Enqueue(SpawnRequest{
			Kind:  KindStation,
			Count: 1,
			Payload: &StationPayload{
				Name:          e.Name,
				Fraction:      e.Fraction,
				WaitingPoints: e.WaitingVecs(),
				ExitPoints:    e.ExitVecs(),
			},
		})
	}
	s.Log.Info("stations queued", zap.Int("count", len(stations)))
	return nil
}

// Booted reports whether every station exists and trains have been queued.
func (s *State) Booted() bool {
	return s.boot != nil && s.boot.trainsDone
}

func (b *bootstrap) stationConfigured(s *State) {
	b.configured++
	if b.configured < b.expected || b.trainsDone {
		return
	}
	b.trainsDone = true
	snap := s.Track.Snapshot()
	for i, id := range snap.Stations {
		if st, ok := s.Station.Get(id); ok {
			st.Index = i
		}
	}
	s.Log.Info("track snapshot built",
		zap.Int("stations", len(snap.Stations)),
		zap.Float64("length", snap.Length),
		zap.Uint64("revision", snap.Revision),
	)
	s.spawnTrains(snap)
}

// spawnTrains spreads the trains over the stations. With more trains than
// stations the extra passes are placed part way along each segment.
func (s *State) spawnTrains(snap *track.Snapshot) {
	if !snap.Valid() {
		s.Log.Warn("track not ready, no trains placed",
			zap.Int("stations", len(snap.Stations)),
			zap.Float64("length", snap.Length),
		)
		return
	}
	tc := s.Cfg.Train
	n := len(snap.Stations)
	passes := (tc.NumTrains + n - 1) / n
	for i := 0; i < tc.NumTrains; i++ {
		station := i % n
		pass := i / n
		t0 := snap.Fractions[station]
		dT := geom.ArcForward(t0, snap.Fractions[(station+1)%n])
		frac := 0.0
		if passes > 1 {
			frac = float64(pass) / float64(passes)
		}
		alpha := geom.WrapFraction(t0 + dT*frac)
		s.Spawner.Enqueue(SpawnRequest{
			Kind:      KindEngine,
			Count:     1,
			Payload:   &EnginePayload{Fraction: alpha, Station: station},
			OnSpawned: s.carriagesFor(alpha, snap.Length),
		})
	}
	s.Log.Info("trains queued",
		zap.Int("trains", tc.NumTrains),
		zap.Int("carriages_per_train", tc.CarriagesPerTrain),
	)
}

func (s *State) carriagesFor(alpha, length float64) func([]ecs.EntityID) {
	tc := s.Cfg.Train
	return func(ids []ecs.EntityID) {
		if len(ids) == 0 || length <= 0 {
			return
		}
		lead := ids[0]
		for c := 1; c <= tc.CarriagesPerTrain; c++ {
			s.Spawner.Enqueue(SpawnRequest{
				Kind:  KindCarriage,
				Count: 1,
				Payload: &CarriagePayload{
					Lead:     lead,
					Index:    c,
					Spacing:  tc.CarriageSpacing,
					Capacity: tc.CarriageCapacity,
					Fraction: geom.WrapFraction(alpha - float64(c)*tc.CarriageSpacing/length),
				},
			})
		}
	}
}
