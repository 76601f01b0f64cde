package world

import (
	"github.com/transitloop/sim/internal/component"
	"github.com/transitloop/sim/internal/core/ecs"
	"github.com/transitloop/sim/internal/geom"
)

// Kind selects the spawn template and pool of an entity.
type Kind uint8

const (
	KindStation Kind = iota
	KindEngine
	KindCarriage
	KindPassenger
	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindStation:
		return "station"
	case KindEngine:
		return "engine"
	case KindCarriage:
		return "carriage"
	case KindPassenger:
		return "passenger"
	}
	return "unknown"
}

// Kinds lists every entity kind in declaration order.
var Kinds = [...]Kind{KindStation, KindEngine, KindCarriage, KindPassenger}

// SpawnRequest asks for Count entities of Kind. Payload carries the
// kind-specific configuration (*StationPayload, *EnginePayload,
// *CarriagePayload, *PassengerPayload). OnSpawned receives the handles
// produced by each pass; the slice is reused after the call returns.
type SpawnRequest struct {
	Kind      Kind
	Count     int
	Position  geom.Vec3
	Forward   geom.Vec3
	Payload   any
	OnSpawned func(ids []ecs.EntityID)
}

// Template configures entities of one kind on spawn and tears them down on
// return to the pool.
type Template struct {
	Markers   ecs.Mask // kind markers set on newly created entities
	Configure func(id ecs.EntityID, req *SpawnRequest)
	Teardown  func(id ecs.EntityID)
}

// Spawner queues creation requests, recycles pooled entities first and
// spreads the work over ticks under a budget.
type Spawner struct {
	world     *ecs.World
	templates [kindCount]*Template
	pending   []SpawnRequest
	pools     [kindCount][]ecs.EntityID
	live      [kindCount][]ecs.EntityID
	liveIndex map[ecs.EntityID]int
	scratch   []ecs.EntityID
}

func NewSpawner(w *ecs.World) *Spawner {
	return &Spawner{
		world:     w,
		liveIndex: make(map[ecs.EntityID]int, 1024),
		scratch:   make([]ecs.EntityID, 0, 64),
	}
}

// SetTemplate installs or clears (nil) the template of a kind.
func (s *Spawner) SetTemplate(k Kind, t *Template) {
	if k < kindCount {
		s.templates[k] = t
	}
}

func (s *Spawner) template(k Kind) *Template {
	if k >= kindCount {
		return nil
	}
	t := s.templates[k]
	if t == nil || t.Configure == nil {
		return nil
	}
	return t
}

// Ready reports whether the spawner can produce entities of kind k.
func (s *Spawner) Ready(k Kind) bool {
	return s != nil && s.world != nil && s.template(k) != nil
}

// Enqueue queues req. Requests with no count or no usable template are
// dropped.
func (s *Spawner) Enqueue(req SpawnRequest) {
	if req.Count <= 0 || !s.Ready(req.Kind) {
		return
	}
	s.pending = append(s.pending, req)
}

// ProcessPending produces up to budget entities, newest request first.
// Finished requests are swap-removed, so completion order across requests
// is not FIFO. Must not run inside a query pass.
func (s *Spawner) ProcessPending(budget int) int {
	produced := 0
	for i := len(s.pending) - 1; i >= 0 && budget > 0; i-- {
		req := s.pending[i]
		tmpl := s.template(req.Kind)
		if tmpl == nil {
			s.removePending(i)
			continue
		}
		n := min(req.Count, budget)
		ids := s.acquire(req.Kind, tmpl, n)
		for _, id := range ids {
			s.registerLive(req.Kind, id)
			tmpl.Configure(id, &req)
			s.world.RemoveMarker(id, component.MarkerPooled|component.MarkerHidden)
		}
		budget -= len(ids)
		produced += len(ids)
		req.Count -= len(ids)
		if req.Count <= 0 {
			s.removePending(i)
		} else {
			s.pending[i].Count = req.Count
		}
		if req.OnSpawned != nil && len(ids) > 0 {
			req.OnSpawned(ids)
		}
	}
	return produced
}

func (s *Spawner) removePending(i int) {
	last := len(s.pending) - 1
	s.pending[i] = s.pending[last]
	s.pending[last] = SpawnRequest{}
	s.pending = s.pending[:last]
}

// acquire pops up to n handles from the pool of k, then creates the rest.
func (s *Spawner) acquire(k Kind, tmpl *Template, n int) []ecs.EntityID {
	s.scratch = s.scratch[:0]
	pool := s.pools[k]
	for len(s.scratch) < n && len(pool) > 0 {
		id := pool[len(pool)-1]
		pool = pool[:len(pool)-1]
		if s.world.Alive(id) {
			s.scratch = append(s.scratch, id)
		}
	}
	s.pools[k] = pool
	for len(s.scratch) < n {
		id := s.world.CreateEntity()
		s.world.AddMarker(id, tmpl.Markers)
		s.scratch = append(s.scratch, id)
	}
	return s.scratch
}

// ReturnToPool unregisters a live entity, tears it down, marks it pooled and
// pushes it onto its kind's pool. Unknown or already pooled handles are
// ignored. Safe to call inside a query pass; marker changes are deferred.
func (s *Spawner) ReturnToPool(id ecs.EntityID, k Kind) bool {
	if k >= kindCount || !s.unregisterLive(k, id) {
		return false
	}
	if t := s.templates[k]; t != nil && t.Teardown != nil {
		t.Teardown(id)
	}
	if s.world.InPass() {
		s.world.Defer().AddMarker(id, component.MarkerPooled)
	} else {
		s.world.AddMarker(id, component.MarkerPooled)
	}
	s.pools[k] = append(s.pools[k], id)
	return true
}

func (s *Spawner) registerLive(k Kind, id ecs.EntityID) {
	if _, ok := s.liveIndex[id]; ok {
		return
	}
	s.liveIndex[id] = len(s.live[k])
	s.live[k] = append(s.live[k], id)
}

func (s *Spawner) unregisterLive(k Kind, id ecs.EntityID) bool {
	i, ok := s.liveIndex[id]
	if !ok || i >= len(s.live[k]) || s.live[k][i] != id {
		return false
	}
	list := s.live[k]
	last := len(list) - 1
	if i != last {
		list[i] = list[last]
		s.liveIndex[list[i]] = i
	}
	s.live[k] = list[:last]
	delete(s.liveIndex, id)
	return true
}

// IsLive reports whether id is registered live.
func (s *Spawner) IsLive(id ecs.EntityID) bool {
	_, ok := s.liveIndex[id]
	return ok
}

// IsPooled reports whether id sits in the pool of k.
func (s *Spawner) IsPooled(id ecs.EntityID, k Kind) bool {
	if k >= kindCount {
		return false
	}
	for _, p := range s.pools[k] {
		if p == id {
			return true
		}
	}
	return false
}

func (s *Spawner) LiveCount(k Kind) int {
	if k >= kindCount {
		return 0
	}
	return len(s.live[k])
}

func (s *Spawner) PoolCount(k Kind) int {
	if k >= kindCount {
		return 0
	}
	return len(s.pools[k])
}

// Live returns the live handles of k. The slice is owned by the spawner.
func (s *Spawner) Live(k Kind) []ecs.EntityID {
	if k >= kindCount {
		return nil
	}
	return s.live[k]
}

// PendingCount returns the entities of k still waiting to be produced.
func (s *Spawner) PendingCount(k Kind) int {
	n := 0
	for i := range s.pending {
		if s.pending[i].Kind == k {
			n += s.pending[i].Count
		}
	}
	return n
}

func (s *Spawner) TotalLive() int {
	n := 0
	for k := range s.live {
		n += len(s.live[k])
	}
	return n
}

func (s *Spawner) TotalPooled() int {
	n := 0
	for k := range s.pools {
		n += len(s.pools[k])
	}
	return n
}
