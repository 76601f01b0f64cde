package ecs

import (
	"sync/atomic"
	"testing"
)

type position struct{ X, Y float64 }
type velocity struct{ DX, DY float64 }

const (
	markA Mask = 1 << iota
	markB
)

func TestCreateEntityNeverZero(t *testing.T) {
	w := NewWorld()
	id := w.CreateEntity()
	if id.IsZero() {
		t.Fatal("first entity must not be the zero handle")
	}
	if !w.Alive(id) {
		t.Fatal("expected entity to be alive after creation")
	}
	if w.Alive(NilEntity) {
		t.Fatal("NilEntity must never be alive")
	}
}

func TestStaleHandleDetected(t *testing.T) {
	w := NewWorld()
	pos := NewStore[position](w)

	old := w.CreateEntity()
	pos.Set(old, position{X: 1})
	w.DestroyEntity(old)

	reused := w.CreateEntity()
	if reused.Index() != old.Index() {
		t.Fatalf("expected index reuse, got %d want %d", reused.Index(), old.Index())
	}
	if reused.Generation() == old.Generation() {
		t.Fatal("generation must change on reuse")
	}
	if w.Alive(old) {
		t.Fatal("stale handle reported alive")
	}
	if _, ok := pos.Get(old); ok {
		t.Fatal("stale handle must not resolve a record")
	}
	pos.Set(reused, position{X: 2})
	if _, ok := pos.Get(old); ok {
		t.Fatal("stale handle resolved the new occupant's record")
	}
	if p, ok := pos.Get(reused); !ok || p.X != 2 {
		t.Fatalf("reused record = %+v, %v", p, ok)
	}
}

func TestStoreSwapRemoveKeepsIndex(t *testing.T) {
	w := NewWorld()
	pos := NewStore[position](w)
	ids := make([]EntityID, 5)
	for i := range ids {
		ids[i] = w.CreateEntity()
		pos.Set(ids[i], position{X: float64(i)})
	}
	pos.Remove(ids[1])
	if pos.Len() != 4 {
		t.Fatalf("Len = %d, want 4", pos.Len())
	}
	for i, id := range ids {
		p, ok := pos.Get(id)
		if i == 1 {
			if ok {
				t.Fatal("removed record still present")
			}
			continue
		}
		if !ok || p.X != float64(i) {
			t.Fatalf("record %d = %+v, %v", i, p, ok)
		}
	}
}

func TestQueryFiltersByStoresAndMarkers(t *testing.T) {
	w := NewWorld()
	pos := NewStore[position](w)
	vel := NewStore[velocity](w)

	both := w.CreateEntity()
	pos.Set(both, position{})
	vel.Set(both, velocity{})
	w.AddMarker(both, markA)

	posOnly := w.CreateEntity()
	pos.Set(posOnly, position{})
	w.AddMarker(posOnly, markA)

	excluded := w.CreateEntity()
	pos.Set(excluded, position{})
	vel.Set(excluded, velocity{})
	w.AddMarker(excluded, markA|markB)

	var got []EntityID
	w.Query(pos, vel).With(markA).Without(markB).Each(func(id EntityID) {
		got = append(got, id)
	})
	if len(got) != 1 || got[0] != both {
		t.Fatalf("query = %v, want [%v]", got, both)
	}
}

func TestDeferredCommandsApplyAfterPass(t *testing.T) {
	w := NewWorld()
	pos := NewStore[position](w)
	vel := NewStore[velocity](w)
	ids := make([]EntityID, 3)
	for i := range ids {
		ids[i] = w.CreateEntity()
		pos.Set(ids[i], position{})
	}

	seen := 0
	w.Query(pos).Each(func(id EntityID) {
		seen++
		AddComponent(w.Defer(), vel, id, velocity{DX: 1})
		w.Defer().AddMarker(id, markB)
		if vel.Has(id) || w.HasMarker(id, markB) {
			t.Fatal("deferred mutation visible inside the pass")
		}
	})
	if seen != 3 {
		t.Fatalf("visited %d, want 3", seen)
	}
	for _, id := range ids {
		if v, ok := vel.Get(id); !ok || v.DX != 1 {
			t.Fatalf("velocity not applied for %v", id)
		}
		if !w.HasMarker(id, markB) {
			t.Fatalf("marker not applied for %v", id)
		}
	}
	if w.Defer().Len() != 0 {
		t.Fatal("command buffer not drained")
	}
}

func TestNestedPassFlushesOnlyAtOuterEnd(t *testing.T) {
	w := NewWorld()
	pos := NewStore[position](w)
	id := w.CreateEntity()
	pos.Set(id, position{})

	outer := w.Query(pos)
	inner := w.Query(pos)
	outer.Each(func(EntityID) {
		inner.Each(func(e EntityID) {
			w.Defer().AddMarker(e, markA)
		})
		if w.HasMarker(id, markA) {
			t.Fatal("inner pass flushed while outer pass in flight")
		}
	})
	if !w.HasMarker(id, markA) {
		t.Fatal("marker not applied after outer pass")
	}
}

func TestStructuralChangeDuringPassPanics(t *testing.T) {
	w := NewWorld()
	pos := NewStore[position](w)
	id := w.CreateEntity()
	pos.Set(id, position{})

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on CreateEntity inside pass")
		}
	}()
	w.Query(pos).Each(func(EntityID) {
		w.CreateEntity()
	})
}

func TestDeferredDestroyDropsLaterCommands(t *testing.T) {
	w := NewWorld()
	pos := NewStore[position](w)
	id := w.CreateEntity()
	pos.Set(id, position{})

	w.Query(pos).Each(func(e EntityID) {
		w.Defer().Destroy(e)
		w.Defer().AddMarker(e, markA)
	})
	if w.Alive(id) {
		t.Fatal("entity survived deferred destroy")
	}
	if pos.Len() != 0 {
		t.Fatalf("records left after destroy: %d", pos.Len())
	}
}

func TestEachParallelVisitsEveryEntityOnce(t *testing.T) {
	w := NewWorld()
	pos := NewStore[position](w)
	const n = 1000
	for i := 0; i < n; i++ {
		id := w.CreateEntity()
		pos.Set(id, position{X: float64(i)})
	}
	var visits atomic.Int64
	w.Query(pos).BatchSize(64).EachParallel(4, func(id EntityID) {
		p, _ := pos.Get(id)
		p.Y = p.X * 2
		visits.Add(1)
	})
	if visits.Load() != n {
		t.Fatalf("visits = %d, want %d", visits.Load(), n)
	}
	pos.Each(func(_ EntityID, p *position) {
		if p.Y != p.X*2 {
			t.Fatalf("record not updated: %+v", *p)
		}
	})
}

func TestEach2(t *testing.T) {
	w := NewWorld()
	pos := NewStore[position](w)
	vel := NewStore[velocity](w)
	id := w.CreateEntity()
	pos.Set(id, position{X: 1})
	vel.Set(id, velocity{DX: 2})
	lone := w.CreateEntity()
	pos.Set(lone, position{})

	count := 0
	Each2(w.Query(pos, vel), pos, vel, func(_ EntityID, p *position, v *velocity) {
		p.X += v.DX
		count++
	})
	if count != 1 {
		t.Fatalf("Each2 visited %d, want 1", count)
	}
	if p, _ := pos.Get(id); p.X != 3 {
		t.Fatalf("X = %v, want 3", p.X)
	}
}
