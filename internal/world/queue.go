package world

import "github.com/transitloop/sim/internal/component"

// QueueAction tells DrainQueue what to do with the entry it just visited.
type QueueAction uint8

const (
	QueueKeep   QueueAction = iota // leave the entry in place and continue
	QueueRemove                    // drop the entry and continue
	QueueStop                      // leave the entry and stop visiting
)

func validWaitingPoint(q *component.StationQueue, wp int) bool {
	return q != nil && wp >= 0 && wp < len(q.Queues)
}

// Enqueue adds e to the queue of waiting point wp. Entries are served by
// descending priority, FIFO within a priority.
func Enqueue(q *component.StationQueue, wp int, e component.QueueEntry) bool {
	if !validWaitingPoint(q, wp) {
		return false
	}
	wq := &q.Queues[wp]
	at := len(wq.Entries)
	for i := len(wq.Entries) - 1; i >= wq.Head; i-- {
		if wq.Entries[i].Priority >= e.Priority {
			break
		}
		at = i
	}
	wq.Entries = append(wq.Entries, component.QueueEntry{})
	copy(wq.Entries[at+1:], wq.Entries[at:])
	wq.Entries[at] = e
	return true
}

// Dequeue pops the front entry of waiting point wp.
func Dequeue(q *component.StationQueue, wp int) (component.QueueEntry, bool) {
	if !validWaitingPoint(q, wp) {
		return component.QueueEntry{}, false
	}
	wq := &q.Queues[wp]
	if wq.Head >= len(wq.Entries) {
		return component.QueueEntry{}, false
	}
	e := wq.Entries[wq.Head]
	wq.Entries[wq.Head] = component.QueueEntry{}
	wq.Head++
	compact(wq)
	return e, true
}

// compact reclaims the consumed prefix once it dominates the slice.
func compact(wq *component.WaitQueue) {
	if wq.Head == len(wq.Entries) {
		wq.Entries = wq.Entries[:0]
		wq.Head = 0
		return
	}
	if wq.Head >= 32 && wq.Head*2 >= len(wq.Entries) {
		n := copy(wq.Entries, wq.Entries[wq.Head:])
		clear(wq.Entries[n:])
		wq.Entries = wq.Entries[:n]
		wq.Head = 0
	}
}

// QueueLen returns the number of entries waiting at wp.
func QueueLen(q *component.StationQueue, wp int) int {
	if !validWaitingPoint(q, wp) {
		return 0
	}
	return len(q.Queues[wp].Entries) - q.Queues[wp].Head
}

// QueueEntries returns the waiting entries of wp front first. The slice
// aliases the queue.
func QueueEntries(q *component.StationQueue, wp int) []component.QueueEntry {
	if !validWaitingPoint(q, wp) {
		return nil
	}
	wq := &q.Queues[wp]
	return wq.Entries[wq.Head:]
}

// TotalQueued returns the entries waiting across all waiting points.
func TotalQueued(q *component.StationQueue) int {
	if q == nil {
		return 0
	}
	n := 0
	for i := range q.Queues {
		n += QueueLen(q, i)
	}
	return n
}

// DrainQueue visits the entries of wp front first. Removed entries are
// compacted out; kept entries keep their relative order.
func DrainQueue(q *component.StationQueue, wp int, visit func(component.QueueEntry) QueueAction) int {
	if !validWaitingPoint(q, wp) {
		return 0
	}
	wq := &q.Queues[wp]
	removed := 0
	w := wq.Head
	r := wq.Head
	for ; r < len(wq.Entries); r++ {
		e := wq.Entries[r]
		act := visit(e)
		if act == QueueStop {
			break
		}
		if act == QueueRemove {
			removed++
			continue
		}
		wq.Entries[w] = e
		w++
	}
	if removed == 0 {
		return 0
	}
	n := copy(wq.Entries[w:], wq.Entries[r:])
	end := w + n
	clear(wq.Entries[end:])
	wq.Entries = wq.Entries[:end]
	compact(wq)
	return removed
}
