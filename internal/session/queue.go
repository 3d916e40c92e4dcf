package session

import "sync"

// Queue decouples a subscriber from the publishing goroutine. Updates are
// handed to fn one at a time on a dedicated goroutine in the order they were
// pushed, so a slow fn never holds up the caller that produced them.
type Queue struct {
	fn Subscriber

	mu      sync.Mutex
	pending []Update
	closed  bool
	signal  chan struct{}
	done    chan struct{}
}

func NewQueue(fn Subscriber) *Queue {
	q := &Queue{
		fn:     fn,
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

// Push enqueues u. It never blocks and is a no-op after Close.
func (q *Queue) Push(u Update) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, u)
	q.mu.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Close stops accepting updates and waits until everything already queued has
// been delivered.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	q.mu.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)
	for range q.signal {
		for {
			q.mu.Lock()
			if len(q.pending) == 0 {
				closed := q.closed
				q.mu.Unlock()
				if closed {
					return
				}
				break
			}
			u := q.pending[0]
			q.pending = q.pending[1:]
			q.mu.Unlock()
			deliver(subscription{fn: q.fn}, u)
		}
	}
}
