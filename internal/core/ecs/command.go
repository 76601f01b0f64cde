package ecs

import "sync"

// CommandOp identifies a deferred structural mutation.
type CommandOp uint8

const (
	OpAddComponent CommandOp = iota
	OpRemoveComponent
	OpAddMarker
	OpRemoveMarker
	OpDestroy
)

func (op CommandOp) String() string {
	switch op {
	case OpAddComponent:
		return "add_component"
	case OpRemoveComponent:
		return "remove_component"
	case OpAddMarker:
		return "add_marker"
	case OpRemoveMarker:
		return "remove_marker"
	case OpDestroy:
		return "destroy"
	}
	return "unknown"
}

// Command is one queued mutation. Only the fields relevant to Op are set.
type Command struct {
	Op     CommandOp
	Entity EntityID
	Marker Mask
	store  Storage
	value  any
}

// CommandBuffer queues structural mutations requested during a query pass.
// It is safe for concurrent use so parallel passes can defer work.
type CommandBuffer struct {
	mu   sync.Mutex
	cmds []Command
}

func (b *CommandBuffer) push(c Command) {
	b.mu.Lock()
	b.cmds = append(b.cmds, c)
	b.mu.Unlock()
}

func (b *CommandBuffer) AddMarker(id EntityID, m Mask) {
	b.push(Command{Op: OpAddMarker, Entity: id, Marker: m})
}

func (b *CommandBuffer) RemoveMarker(id EntityID, m Mask) {
	b.push(Command{Op: OpRemoveMarker, Entity: id, Marker: m})
}

func (b *CommandBuffer) RemoveComponent(id EntityID, s Storage) {
	b.push(Command{Op: OpRemoveComponent, Entity: id, store: s})
}

func (b *CommandBuffer) Destroy(id EntityID) {
	b.push(Command{Op: OpDestroy, Entity: id})
}

// Len returns the number of pending commands.
func (b *CommandBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.cmds)
}

// AddComponent queues insertion of v into s for id.
func AddComponent[T any](b *CommandBuffer, s *Store[T], id EntityID, v T) {
	b.push(Command{Op: OpAddComponent, Entity: id, store: s, value: v})
}

// drain swaps out the pending commands, reusing the backing array next time.
func (b *CommandBuffer) drain(into []Command) []Command {
	b.mu.Lock()
	into = append(into[:0], b.cmds...)
	clear(b.cmds)
	b.cmds = b.cmds[:0]
	b.mu.Unlock()
	return into
}
