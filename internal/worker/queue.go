package worker

import (
	"sync"

	"zapslack/pkg/metrics"
	"zapslack/pkg/webhook"
)

// queue is the unbounded multi-producer single-consumer buffer between the
// dispatcher and the worker. Producers only ever take the mutex for an
// append, so enqueueing never blocks on delivery.
type queue struct {
	mu     sync.Mutex
	items  []webhook.Payload
	wake   chan struct{}
	closed bool
}

func newQueue() *queue {
	return &queue{wake: make(chan struct{}, 1)}
}

func (q *queue) push(p webhook.Payload) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrStopped
	}
	q.items = append(q.items, p)
	metrics.QueueDepth.Set(float64(len(q.items)))
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// pop removes the oldest payload. ok is false when the queue is empty.
func (q *queue) pop() (p webhook.Payload, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return webhook.Payload{}, false
	}
	p = q.items[0]
	q.items = q.items[1:]
	metrics.QueueDepth.Set(float64(len(q.items)))
	return p, true
}

// close rejects further pushes. Items already queued stay in place; the
// worker decides what happens to them.
func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

// discard drops everything still queued and reports how many payloads were
// thrown away.
func (q *queue) discard() int {
	q.mu.Lock()
	n := len(q.items)
	q.items = nil
	metrics.QueueDepth.Set(0)
	q.mu.Unlock()
	return n
}

func (q *queue) depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
