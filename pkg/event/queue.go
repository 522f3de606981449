package event

import (
	"sync"
	"time"
)

// Queue is an unbounded FIFO of events.
// Thread-Safety:
//   - Push: any goroutine, never blocks
//   - Pop: single consumer (dispatch loop)
type Queue struct {
	mu     sync.Mutex
	events []Event
	notify chan struct{}
}

func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

func (q *Queue) Push(e Event) {
	q.mu.Lock()
	q.events = append(q.events, e)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Pop waits up to timeout for the next event. ok is false on timeout.
// A zero timeout does not wait.
func (q *Queue) Pop(timeout time.Duration) (e Event, ok bool) {
	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	for {
		if e, ok = q.take(); ok {
			return e, true
		}
		if expired == nil {
			return Event{}, false
		}

		select {
		case <-q.notify:
		case <-expired:
			return q.take()
		}
	}
}

func (q *Queue) take() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}
	e := q.events[0]
	q.events[0] = Event{}
	q.events = q.events[1:]
	return e, true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
