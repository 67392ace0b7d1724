package services

import "sync"

// mediaQueue runs media backend commands one at a time, in submission order,
// on a dedicated goroutine. The state machine enqueues while holding its lock
// and never waits for a command to finish.
type mediaQueue struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	done    chan struct{}
	closed  bool
}

func newMediaQueue() *mediaQueue {
	q := &mediaQueue{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *mediaQueue) submit(cmd func()) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, cmd)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *mediaQueue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			if q.closed {
				q.mu.Unlock()
				return
			}
			q.mu.Unlock()
			<-q.wake
			continue
		}
		cmd := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		cmd()
	}
}

// flush blocks until every command submitted before the call has run.
func (q *mediaQueue) flush() {
	marker := make(chan struct{})
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.pending = append(q.pending, func() { close(marker) })
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	<-marker
}

// close runs the remaining commands and stops the worker.
func (q *mediaQueue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	<-q.done
}
