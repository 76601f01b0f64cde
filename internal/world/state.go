package world

import (
	"errors"
	"math/rand"

	"go.uber.org/zap"

	"github.com/transitloop/sim/internal/component"
	"github.com/transitloop/sim/internal/config"
	"github.com/transitloop/sim/internal/core/ecs"
	"github.com/transitloop/sim/internal/core/event"
	"github.com/transitloop/sim/internal/track"
)

// ErrNoStations is returned by Bootstrap when the station table is empty.
var ErrNoStations = errors.New("world: no stations configured")

// Policy supplies the tunable decisions of the simulation.
type Policy interface {
	// ChooseDestination returns a station index in [0,count) other than
	// origin. roll is uniform in [0,1).
	ChooseDestination(origin, count int, roll float64) int
	// HeadwaySpeedScale maps the normalized gap to the train ahead and the
	// ideal gap to a cruise speed multiplier.
	HeadwaySpeedScale(gap, ideal float64) float64
}

type defaultPolicy struct{}

// DefaultPolicy picks destinations uniformly and scales speed linearly with
// the headway error.
func DefaultPolicy() Policy { return defaultPolicy{} }

func (defaultPolicy) ChooseDestination(origin, count int, roll float64) int {
	if count < 2 {
		return origin
	}
	d := int(roll * float64(count-1))
	if d >= count-1 {
		d = count - 2
	}
	if d >= origin {
		d++
	}
	return d
}

func (defaultPolicy) HeadwaySpeedScale(gap, ideal float64) float64 {
	if ideal <= 0 {
		return 1
	}
	return 1 + 0.5*(gap-ideal)/ideal
}

// Stores groups the component stores of the simulation.
type Stores struct {
	Transform *ecs.Store[component.Transform]
	Move      *ecs.Store[component.MoveTarget]
	Station   *ecs.Store[component.Station]
	Queue     *ecs.Store[component.StationQueue]
	Train     *ecs.Store[component.TrainState]
	Follow    *ecs.Store[component.TrackFollow]
	Link      *ecs.Store[component.Link]
	Carriage  *ecs.Store[component.Carriage]
	Passenger *ecs.Store[component.Passenger]
}

func newStores(w *ecs.World) Stores {
	return Stores{
		Transform: ecs.NewStore[component.Transform](w),
		Move:      ecs.NewStore[component.MoveTarget](w),
		Station:   ecs.NewStore[component.Station](w),
		Queue:     ecs.NewStore[component.StationQueue](w),
		Train:     ecs.NewStore[component.TrainState](w),
		Follow:    ecs.NewStore[component.TrackFollow](w),
		Link:      ecs.NewStore[component.Link](w),
		Carriage:  ecs.NewStore[component.Carriage](w),
		Passenger: ecs.NewStore[component.Passenger](w),
	}
}

// State is the simulation context. One State exists per run; every system
// receives it explicitly. Accessed only from the tick goroutine, except for
// per-entity writes inside parallel query passes.
type State struct {
	ECS *ecs.World
	Stores

	Track   *track.Cache
	Spawner *Spawner
	Bus     *event.Bus
	Rand    *rand.Rand
	Log     *zap.Logger
	Policy  Policy
	Cfg     *config.Config

	Now float64 // simulated seconds since start

	carriages map[ecs.EntityID][]ecs.EntityID // engine -> carriages by index
	boot      *bootstrap
}

// Options configures NewState. Zero fields get defaults.
type Options struct {
	Config *config.Config
	Source track.Source
	Logger *zap.Logger
	Policy Policy
	Bus    *event.Bus
	Rand   *rand.Rand
}

func NewState(opts Options) *State {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Defaults()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	policy := opts.Policy
	if policy == nil {
		policy = DefaultPolicy()
	}
	bus := opts.Bus
	if bus == nil {
		bus = event.NewBus()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(cfg.Sim.Seed))
	}
	w := ecs.NewWorld()
	s := &State{
		ECS:       w,
		Stores:    newStores(w),
		Track:     track.NewCache(opts.Source),
		Bus:       bus,
		Rand:      rng,
		Log:       log,
		Policy:    policy,
		Cfg:       cfg,
		carriages: make(map[ecs.EntityID][]ecs.EntityID),
	}
	s.Spawner = NewSpawner(w)
	s.registerTemplates()
	return s
}

// Snapshot returns the current track snapshot, rebuilding it if stale.
func (s *State) Snapshot() *track.Snapshot { return s.Track.Snapshot() }

// Carriages returns the carriages of an engine ordered by link index. The
// slice is owned by the state.
func (s *State) Carriages(engine ecs.EntityID) []ecs.EntityID {
	return s.carriages[engine]
}

func (s *State) linkCarriage(engine, carriage ecs.EntityID, index int) {
	list := s.carriages[engine]
	at := len(list)
	for i, c := range list {
		if l, ok := s.Link.Get(c); ok && l.Index > index {
			at = i
			break
		}
	}
	list = append(list, 0)
	copy(list[at+1:], list[at:])
	list[at] = carriage
	s.carriages[engine] = list
}

// setMarkers adds and removes markers, deferring the change while a query
// pass is running.
func (s *State) setMarkers(id ecs.EntityID, add, remove ecs.Mask) {
	if s.ECS.InPass() {
		cb := s.ECS.Defer()
		if remove != 0 {
			cb.RemoveMarker(id, remove)
		}
		if add != 0 {
			cb.AddMarker(id, add)
		}
		return
	}
	if remove != 0 {
		s.ECS.RemoveMarker(id, remove)
	}
	if add != 0 {
		s.ECS.AddMarker(id, add)
	}
}

// StationIndex returns the snapshot index of a station entity, or
// component.NoStation.
func (s *State) StationIndex(id ecs.EntityID) int {
	if st, ok := s.Station.Get(id); ok {
		return st.Index
	}
	return component.NoStation
}

// StationAt returns the station entity at a snapshot index.
func (s *State) StationAt(snap *track.Snapshot, index int) (ecs.EntityID, bool) {
	if snap == nil || index < 0 || index >= len(snap.Stations) {
		return ecs.NilEntity, false
	}
	return snap.Stations[index], true
}
