// SPDX-License-Identifier: MIT
package event

// Queue is a bounded, lossy outbox of events. Its backing array is allocated
// once in NewQueue; Push and Pop never allocate, block or grow it.
//
// Pop returns the most recently pushed event first. Consumers drain the queue
// by popping until it reports empty, so events pushed during a single frame
// arrive newest first.
//
// Queue is not safe for concurrent use.
type Queue struct {
	items   []Event
	dropped uint64
}

// NewQueue returns an empty queue holding at most capacity events.
func NewQueue(capacity int) *Queue {
	return &Queue{items: make([]Event, 0, capacity)}
}

// Push appends e if there is room, otherwise the event is dropped.
func (q *Queue) Push(e Event) {
	if len(q.items) == cap(q.items) {
		q.dropped++
		return
	}
	q.items = append(q.items, e)
}

// Pop removes and returns the most recently pushed event. The boolean is
// false when the queue is empty.
func (q *Queue) Pop() (Event, bool) {
	n := len(q.items)
	if n == 0 {
		return None, false
	}
	e := q.items[n-1]
	q.items = q.items[:n-1]
	return e, true
}

// Len returns the number of queued events.
func (q *Queue) Len() int { return len(q.items) }

// Cap returns the fixed capacity.
func (q *Queue) Cap() int { return cap(q.items) }

// Dropped returns how many pushes were discarded because the queue was full.
func (q *Queue) Dropped() uint64 { return q.dropped }

// Reset empties the queue without releasing its storage.
func (q *Queue) Reset() {
	q.items = q.items[:0]
}
