package ecs

import (
	"fmt"
	"sync/atomic"
)

// World is the top-level ECS container. It owns the entity pool, the component
// registry, per-entity marker masks, and the deferred command buffer that is
// flushed whenever the outermost query pass finishes.
type World struct {
	pool     *EntityPool
	registry *Registry
	markers  []Mask
	cmds     CommandBuffer
	applying []Command
	passes   atomic.Int32
}

func NewWorld() *World {
	return &World{
		pool:     NewEntityPool(),
		registry: NewRegistry(),
		markers:  make([]Mask, 0, 1024),
	}
}

func (w *World) Pool() *EntityPool   { return w.pool }
func (w *World) Registry() *Registry { return w.registry }

// Defer returns the command buffer for structural changes requested mid-pass.
func (w *World) Defer() *CommandBuffer { return &w.cmds }

// InPass reports whether a query pass is currently iterating.
func (w *World) InPass() bool { return w.passes.Load() > 0 }

func (w *World) mustBeIdle(op string) {
	if w.InPass() {
		panic(fmt.Sprintf("ecs: %s during query pass; defer it", op))
	}
}

func (w *World) CreateEntity() EntityID {
	w.mustBeIdle("CreateEntity")
	id := w.pool.Create()
	for len(w.markers) <= int(id.Index()) {
		w.markers = append(w.markers, 0)
	}
	w.markers[id.Index()] = 0
	return id
}

func (w *World) Alive(id EntityID) bool {
	return !id.IsZero() && w.pool.Alive(id)
}

// DestroyEntity removes every record and marker of id immediately.
func (w *World) DestroyEntity(id EntityID) {
	w.mustBeIdle("DestroyEntity")
	if !w.Alive(id) {
		return
	}
	w.registry.RemoveAll(id)
	w.markers[id.Index()] = 0
	w.pool.Destroy(id)
}

// Markers returns the marker mask of id, zero for stale handles.
func (w *World) Markers(id EntityID) Mask {
	if !w.Alive(id) {
		return 0
	}
	return w.markers[id.Index()]
}

// HasMarker reports whether id carries every marker in m.
func (w *World) HasMarker(id EntityID, m Mask) bool {
	return w.Markers(id).Has(m)
}

func (w *World) AddMarker(id EntityID, m Mask) {
	w.mustBeIdle("AddMarker")
	if w.Alive(id) {
		w.markers[id.Index()] |= m
	}
}

func (w *World) RemoveMarker(id EntityID, m Mask) {
	w.mustBeIdle("RemoveMarker")
	if w.Alive(id) {
		w.markers[id.Index()] &^= m
	}
}

// Flush applies all deferred commands in submission order. Commands against
// entities that died before the flush are dropped. Flush is a no-op while a
// pass is in flight; the pass flushes when it ends.
func (w *World) Flush() {
	if w.InPass() {
		return
	}
	for w.cmds.Len() > 0 {
		w.applying = w.cmds.drain(w.applying)
		for i := range w.applying {
			w.apply(&w.applying[i])
		}
		clear(w.applying)
	}
}

func (w *World) apply(c *Command) {
	if !w.Alive(c.Entity) {
		return
	}
	switch c.Op {
	case OpAddComponent:
		c.store.assign(c.Entity, c.value)
	case OpRemoveComponent:
		c.store.Remove(c.Entity)
	case OpAddMarker:
		w.markers[c.Entity.Index()] |= c.Marker
	case OpRemoveMarker:
		w.markers[c.Entity.Index()] &^= c.Marker
	case OpDestroy:
		w.DestroyEntity(c.Entity)
	}
}

func (w *World) beginPass() { w.passes.Add(1) }

func (w *World) endPass() {
	if w.passes.Add(-1) == 0 {
		w.Flush()
	}
}
