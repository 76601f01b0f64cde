package ecs

import (
	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize is the number of entities handed to a callback batch.
const DefaultBatchSize = 256

// Query selects entities that have a record in every listed store, carry all
// With markers and none of the Without markers. A Query is built once per
// system and reused every tick; its candidate buffer is recycled so a pass
// does not allocate.
type Query struct {
	world   *World
	stores  []Storage
	with    Mask
	without Mask
	batch   int
	scratch []EntityID
}

// Query creates a query over the given stores.
func (w *World) Query(stores ...Storage) *Query {
	return &Query{
		world:   w,
		stores:  stores,
		batch:   DefaultBatchSize,
		scratch: make([]EntityID, 0, DefaultBatchSize),
	}
}

// With requires every marker in m.
func (q *Query) With(m Mask) *Query {
	q.with |= m
	return q
}

// Without excludes entities carrying any marker in m.
func (q *Query) Without(m Mask) *Query {
	q.without |= m
	return q
}

// BatchSize sets the batch length used by Each and EachParallel.
func (q *Query) BatchSize(n int) *Query {
	if n > 0 {
		q.batch = n
	}
	return q
}

func (q *Query) matches(id EntityID) bool {
	if !q.world.Alive(id) {
		return false
	}
	m := q.world.markers[id.Index()]
	if !m.Has(q.with) || m.Any(q.without) {
		return false
	}
	for _, s := range q.stores {
		if !s.Has(id) {
			return false
		}
	}
	return true
}

// collect fills the scratch buffer, starting from the smallest store to
// minimise Has checks.
func (q *Query) collect() []EntityID {
	q.scratch = q.scratch[:0]
	if len(q.stores) == 0 {
		return q.scratch
	}
	smallest := q.stores[0]
	for _, s := range q.stores[1:] {
		if s.Len() < smallest.Len() {
			smallest = s
		}
	}
	for _, id := range smallest.Entities() {
		if q.matches(id) {
			q.scratch = append(q.scratch, id)
		}
	}
	return q.scratch
}

// Count returns the number of matching entities right now.
func (q *Query) Count() int {
	return len(q.collect())
}

// Each visits matching entities batch by batch. Structural changes must go
// through World.Defer; they are applied once the outermost pass ends.
func (q *Query) Each(fn func(EntityID)) {
	q.EachBatch(func(batch []EntityID) {
		for _, id := range batch {
			fn(id)
		}
	})
}

// EachBatch hands matching entities to fn in slices of at most BatchSize.
// The slices are only valid for the duration of the call.
func (q *Query) EachBatch(fn func([]EntityID)) {
	q.world.beginPass()
	defer q.world.endPass()
	ids := q.collect()
	for start := 0; start < len(ids); start += q.batch {
		end := min(start+q.batch, len(ids))
		fn(ids[start:end])
	}
}

// EachParallel runs fn over disjoint batches on up to workers goroutines.
// fn may only write records of the entity it is handed; shared state must be
// read-only for the duration of the pass.
func (q *Query) EachParallel(workers int, fn func(EntityID)) {
	if workers <= 1 {
		q.Each(fn)
		return
	}
	q.world.beginPass()
	defer q.world.endPass()
	ids := q.collect()
	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < len(ids); start += q.batch {
		batch := ids[start:min(start+q.batch, len(ids))]
		g.Go(func() error {
			for _, id := range batch {
				fn(id)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Each2 iterates matching entities and hands over their A and B records.
func Each2[A, B any](q *Query, sa *Store[A], sb *Store[B], fn func(EntityID, *A, *B)) {
	q.Each(func(id EntityID) {
		a, ok := sa.Get(id)
		if !ok {
			return
		}
		b, ok := sb.Get(id)
		if !ok {
			return
		}
		fn(id, a, b)
	})
}

// Each3 iterates matching entities and hands over their A, B and C records.
func Each3[A, B, C any](q *Query, sa *Store[A], sb *Store[B], sc *Store[C], fn func(EntityID, *A, *B, *C)) {
	q.Each(func(id EntityID) {
		a, ok := sa.Get(id)
		if !ok {
			return
		}
		b, ok := sb.Get(id)
		if !ok {
			return
		}
		c, ok := sc.Get(id)
		if !ok {
			return
		}
		fn(id, a, b, c)
	})
}
