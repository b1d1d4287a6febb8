package cluster

import "container/heap"

// EventHeap is the simulator's pending-event queue. Events leave it in
// (timestamp, type priority, event id) order, so two runs that schedule the
// same events pop them in the same order.
type EventHeap struct {
	q       eventQueue
	pending map[EventType]int
}

// NewEventHeap creates an empty queue.
func NewEventHeap() *EventHeap {
	return &EventHeap{pending: make(map[EventType]int)}
}

// Len returns the number of pending events.
func (h *EventHeap) Len() int { return len(h.q) }

// Pending returns how many events of type t are still queued.
func (h *EventHeap) Pending(t EventType) int { return h.pending[t] }

// PendingByType returns a copy of the per-type pending counts, omitting
// types with nothing queued.
func (h *EventHeap) PendingByType() map[EventType]int {
	out := make(map[EventType]int, len(h.pending))
	for t, n := range h.pending {
		if n > 0 {
			out[t] = n
		}
	}
	return out
}

// Schedule queues e.
func (h *EventHeap) Schedule(e Event) {
	heap.Push(&h.q, e)
	h.pending[e.Type()]++
}

// PopNext removes and returns the earliest event, or nil when empty.
func (h *EventHeap) PopNext() Event {
	if len(h.q) == 0 {
		return nil
	}
	e := heap.Pop(&h.q).(Event)
	h.pending[e.Type()]--
	return e
}

// Peek returns the earliest event without removing it, or nil.
func (h *EventHeap) Peek() Event {
	if len(h.q) == 0 {
		return nil
	}
	return h.q[0]
}

// before is the queue order.
func before(a, b Event) bool {
	if a.Timestamp() != b.Timestamp() {
		return a.Timestamp() < b.Timestamp()
	}
	if pa, pb := EventTypePriority[a.Type()], EventTypePriority[b.Type()]; pa != pb {
		return pa < pb
	}
	return a.EventID() < b.EventID()
}

// eventQueue implements heap.Interface.
type eventQueue []Event

func (q eventQueue) Len() int           { return len(q) }
func (q eventQueue) Less(i, j int) bool { return before(q[i], q[j]) }
func (q eventQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x interface{}) { *q = append(*q, x.(Event)) }

func (q *eventQueue) Pop() interface{} {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}
