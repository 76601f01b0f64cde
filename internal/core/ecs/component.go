package ecs

// Storage is implemented by all component stores so the World can bulk-remove
// an entity's data on destroy and apply deferred commands without reflection.
type Storage interface {
	Remove(id EntityID)
	Has(id EntityID) bool
	Len() int
	Entities() []EntityID
	assign(id EntityID, v any)
}

const absent = -1

// Store is a dense, generic component store. Values live contiguously in a
// slice indexed through a sparse table keyed by entity index, so lookups are
// O(1) and iteration touches no per-entity heap objects.
//
// Pointers returned by Get stay valid until the next structural change to
// this store, which the World only applies between query passes.
type Store[T any] struct {
	world  *World
	dense  []T
	ids    []EntityID
	sparse []int32
}

// NewStore creates a store and registers it with the world so destroyed
// entities lose their records.
func NewStore[T any](w *World) *Store[T] {
	s := &Store[T]{
		world:  w,
		dense:  make([]T, 0, 256),
		ids:    make([]EntityID, 0, 256),
		sparse: make([]int32, 0, 256),
	}
	if w != nil {
		w.registry.Register(s)
	}
	return s
}

func (s *Store[T]) slot(id EntityID) int32 {
	idx := id.Index()
	if int(idx) >= len(s.sparse) {
		return absent
	}
	d := s.sparse[idx]
	if d == absent || s.ids[d] != id {
		return absent
	}
	return d
}

// Set inserts or overwrites the record for id. Inserting a new record is a
// structural change and panics while a query pass is in flight; use
// AddComponent on the world's command buffer instead.
func (s *Store[T]) Set(id EntityID, v T) {
	if d := s.slot(id); d != absent {
		s.dense[d] = v
		return
	}
	if s.world != nil {
		s.world.mustBeIdle("Store.Set")
		if !s.world.Alive(id) {
			return
		}
	}
	idx := int(id.Index())
	for len(s.sparse) <= idx {
		s.sparse = append(s.sparse, absent)
	}
	s.sparse[idx] = int32(len(s.dense))
	s.dense = append(s.dense, v)
	s.ids = append(s.ids, id)
}

// Get returns a pointer to the record for id, or false when the handle is
// stale or the entity has no such record.
func (s *Store[T]) Get(id EntityID) (*T, bool) {
	d := s.slot(id)
	if d == absent {
		return nil, false
	}
	return &s.dense[d], true
}

func (s *Store[T]) Remove(id EntityID) {
	d := s.slot(id)
	if d == absent {
		return
	}
	if s.world != nil {
		s.world.mustBeIdle("Store.Remove")
	}
	last := int32(len(s.dense) - 1)
	if d != last {
		s.dense[d] = s.dense[last]
		s.ids[d] = s.ids[last]
		s.sparse[s.ids[d].Index()] = d
	}
	var zero T
	s.dense[last] = zero
	s.dense = s.dense[:last]
	s.ids = s.ids[:last]
	s.sparse[id.Index()] = absent
}

func (s *Store[T]) Has(id EntityID) bool {
	return s.slot(id) != absent
}

func (s *Store[T]) Len() int {
	return len(s.dense)
}

// Entities returns the dense handle list. The slice is owned by the store.
func (s *Store[T]) Entities() []EntityID {
	return s.ids
}

// Each visits every record in dense order.
func (s *Store[T]) Each(fn func(EntityID, *T)) {
	for i := range s.dense {
		fn(s.ids[i], &s.dense[i])
	}
}

func (s *Store[T]) assign(id EntityID, v any) {
	s.Set(id, v.(T))
}
