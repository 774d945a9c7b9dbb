package audio

import (
	"sync"
	"sync/atomic"
)

// ----- Note Event ----- //

const (
	eventNoteOn = iota
	eventNoteOff
)

type noteEvent struct {
	kind int
	note Note
	gen  uint64 // power generation at enqueue time
}

// ----- Event Queue ----- //

// eventQueue is a fixed-size ring with a single consumer (the render path) that never
// locks. Producers on the control side serialize on mu.
type eventQueue struct {
	mu   sync.Mutex
	buf  []noteEvent
	mask uint64
	head atomic.Uint64 // next index to read, written by the consumer
	tail atomic.Uint64 // next index to write, written by producers
}

// newEventQueue rounds size up to a power of two.
func newEventQueue(size int) *eventQueue {
	n := 1
	for n < size {
		n <<= 1
	}
	return &eventQueue{
		buf:  make([]noteEvent, n),
		mask: uint64(n - 1),
	}
}

// push reports false when the ring is full. It never waits for the consumer.
func (q *eventQueue) push(e noteEvent) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	t := q.tail.Load()
	if t-q.head.Load() >= uint64(len(q.buf)) {
		return false
	}
	q.buf[t&q.mask] = e
	q.tail.Store(t + 1)
	return true
}

func (q *eventQueue) pop() (noteEvent, bool) {
	h := q.head.Load()
	if h == q.tail.Load() {
		return noteEvent{}, false
	}
	e := q.buf[h&q.mask]
	q.head.Store(h + 1)
	return e, true
}

func (q *eventQueue) len() int {
	return int(q.tail.Load() - q.head.Load())
}
