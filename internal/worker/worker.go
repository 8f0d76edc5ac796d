// Package worker owns the background delivery loop: it drains the payload
// queue in FIFO order and hands each payload to the webhook client. The
// event-producing goroutines never wait on it.
package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"zapslack/internal/constants"
	"zapslack/internal/logger"
	"zapslack/pkg/metrics"
	"zapslack/pkg/webhook"
)

var (
	// ErrStopped is returned by Enqueue once shutdown has been requested.
	ErrStopped = errors.New("delivery worker stopped")
	// ErrAlreadyStopped is returned by Shutdown when the worker was already
	// told to stop. Callers get an error, never a panic.
	ErrAlreadyStopped = errors.New("delivery worker already stopped")
)

// State is the worker's lifecycle phase.
type State int32

const (
	StateRunning State = iota
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Sender performs one outbound delivery. *webhook.Client satisfies it;
// tests substitute doubles.
type Sender interface {
	Send(ctx context.Context, p webhook.Payload) error
}

// Handle is the caller-visible capability over the background worker:
// enqueue payloads, request shutdown, await completion. Whoever builds the
// pipeline must retain it for graceful teardown.
type Handle struct {
	q          *queue
	shutdownCh chan struct{}
	done       chan struct{}
	state      atomic.Int32

	mu      sync.Mutex
	stopReq bool

	sender      Sender
	log         logger.Logger
	sendTimeout time.Duration
	failLog     *rate.Limiter
}

type Option func(*Handle)

// WithSendTimeout bounds each outbound call. Zero disables the bound, which
// reintroduces the "slow endpoint stalls the worker" hazard.
func WithSendTimeout(d time.Duration) Option {
	return func(h *Handle) { h.sendTimeout = d }
}

// WithFailureLogLimit throttles delivery-failure log lines to r per second.
func WithFailureLogLimit(r float64) Option {
	return func(h *Handle) { h.failLog = rate.NewLimiter(rate.Limit(r), 1) }
}

// Start spawns the worker goroutine and returns its handle.
func Start(sender Sender, log logger.Logger, opts ...Option) *Handle {
	if log == nil {
		log = logger.NewNop()
	}
	h := &Handle{
		q:           newQueue(),
		shutdownCh:  make(chan struct{}),
		done:        make(chan struct{}),
		sender:      sender,
		log:         log,
		sendTimeout: constants.DefaultSendTimeout,
		failLog:     rate.NewLimiter(rate.Limit(1), 5),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.state.Store(int32(StateRunning))
	go h.run()
	return h
}

// Enqueue hands a payload to the worker. It never blocks; after shutdown it
// returns ErrStopped and the payload is dropped.
func (h *Handle) Enqueue(p webhook.Payload) error {
	return h.q.push(p)
}

// Shutdown asks the worker to stop. Payloads still queued are discarded,
// not drained: shutdown is meant to be prompt and its latency must not
// depend on queue depth. The first call returns nil; any later call returns
// ErrAlreadyStopped.
func (h *Handle) Shutdown() error {
	h.mu.Lock()
	if h.stopReq {
		h.mu.Unlock()
		return ErrAlreadyStopped
	}
	h.stopReq = true
	h.mu.Unlock()

	h.q.close()
	close(h.shutdownCh)
	return nil
}

// Done is closed once the worker goroutine has exited.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the worker goroutine has exited.
func (h *Handle) Wait() { <-h.done }

func (h *Handle) State() State { return State(h.state.Load()) }

// QueueDepth reports how many payloads are waiting. Used by health checks.
func (h *Handle) QueueDepth() int { return h.q.depth() }

func (h *Handle) run() {
	defer close(h.done)

	for {
		// Shutdown takes priority over anything still queued.
		select {
		case <-h.shutdownCh:
			h.stop()
			return
		default:
		}

		p, ok := h.q.pop()
		if !ok {
			select {
			case <-h.shutdownCh:
				h.stop()
				return
			case <-h.q.wake:
			}
			continue
		}

		h.deliver(p)
	}
}

func (h *Handle) stop() {
	h.state.Store(int32(StateDraining))
	if n := h.q.discard(); n > 0 {
		h.log.Infow("discarding queued payloads on shutdown", "count", n)
	}
	h.state.Store(int32(StateStopped))
}

// deliver performs one send. A failure is terminal for that payload only:
// logged, counted, never requeued.
func (h *Handle) deliver(p webhook.Payload) {
	ctx := context.Background()
	cancel := func() {}
	if h.sendTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, h.sendTimeout)
	}
	start := time.Now()
	err := h.sender.Send(ctx, p)
	cancel()

	if err != nil {
		metrics.ObserveDelivery(time.Since(start), metrics.StatusFailed)
		if h.failLog == nil || h.failLog.Allow() {
			h.log.Errorw("webhook delivery failed",
				"payload_id", p.ID,
				"channel", p.Channel,
				"error", err,
			)
		}
		return
	}

	metrics.ObserveDelivery(time.Since(start), metrics.StatusSent)
	h.log.Debugw("webhook delivery succeeded", "payload_id", p.ID)
}
