package worker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zapslack/pkg/metrics"
	"zapslack/pkg/webhook"
)

// recordingSender is a webhook double. When blockUntil is set, Send waits
// for it (or context cancellation) before recording.
type recordingSender struct {
	mu         sync.Mutex
	sent       []string
	err        error
	blockUntil chan struct{}
}

func (s *recordingSender) Send(ctx context.Context, p webhook.Payload) error {
	if s.blockUntil != nil {
		select {
		case <-s.blockUntil:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	s.sent = append(s.sent, p.Text)
	s.mu.Unlock()
	return s.err
}

func (s *recordingSender) sentTexts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func TestDeliveryOrderIsFIFO(t *testing.T) {
	sender := &recordingSender{}
	h := Start(sender, nil)

	for i := 0; i < 20; i++ {
		require.NoError(t, h.Enqueue(webhook.Payload{Text: fmt.Sprintf("msg-%02d", i)}))
	}

	require.Eventually(t, func() bool {
		return len(sender.sentTexts()) == 20
	}, 2*time.Second, 10*time.Millisecond)

	sent := sender.sentTexts()
	for i := 0; i < 20; i++ {
		assert.Equal(t, fmt.Sprintf("msg-%02d", i), sent[i])
	}

	require.NoError(t, h.Shutdown())
	h.Wait()
}

func TestShutdownOnIdleWorker(t *testing.T) {
	h := Start(&recordingSender{}, nil)

	require.NoError(t, h.Shutdown())

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after shutdown")
	}
	assert.Equal(t, StateStopped, h.State())
}

func TestShutdownDiscardsQueuedPayloads(t *testing.T) {
	// The sender honors the per-send timeout, so the worker is stuck on at
	// most one in-flight delivery. Shutdown latency must not depend on the
	// hundreds of payloads still queued behind it.
	sender := &recordingSender{blockUntil: make(chan struct{})}
	h := Start(sender, nil, WithSendTimeout(50*time.Millisecond))

	for i := 0; i < 500; i++ {
		require.NoError(t, h.Enqueue(webhook.Payload{Text: fmt.Sprintf("msg-%d", i)}))
	}

	start := time.Now()
	require.NoError(t, h.Shutdown())

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after shutdown")
	}

	assert.Less(t, time.Since(start), time.Second)
	assert.LessOrEqual(t, len(sender.sentTexts()), 1)
	assert.Equal(t, 0, h.QueueDepth())
}

func TestEnqueueNeverBlocks(t *testing.T) {
	// Sender stalls forever; producers must still return immediately.
	sender := &recordingSender{blockUntil: make(chan struct{})}
	h := Start(sender, nil, WithSendTimeout(0))

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			_ = h.Enqueue(webhook.Payload{Text: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a stalled worker")
	}

	close(sender.blockUntil)
	require.NoError(t, h.Shutdown())
	h.Wait()
}

func TestEnqueueAfterShutdown(t *testing.T) {
	h := Start(&recordingSender{}, nil)
	require.NoError(t, h.Shutdown())
	h.Wait()

	err := h.Enqueue(webhook.Payload{Text: "late"})
	assert.ErrorIs(t, err, ErrStopped)
}

func TestShutdownIsReportedNotPanicked(t *testing.T) {
	h := Start(&recordingSender{}, nil)

	require.NoError(t, h.Shutdown())
	h.Wait()

	assert.ErrorIs(t, h.Shutdown(), ErrAlreadyStopped)
	assert.ErrorIs(t, h.Shutdown(), ErrAlreadyStopped)
}

func TestDeliveryFailureDoesNotStopWorker(t *testing.T) {
	sender := &recordingSender{err: fmt.Errorf("status 500")}
	h := Start(sender, nil)

	require.NoError(t, h.Enqueue(webhook.Payload{Text: "a"}))
	require.NoError(t, h.Enqueue(webhook.Payload{Text: "b"}))

	require.Eventually(t, func() bool {
		return len(sender.sentTexts()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, StateRunning, h.State())
	require.NoError(t, h.Shutdown())
	h.Wait()
}

func TestQueueDepthGaugeTracksQueue(t *testing.T) {
	q := newQueue()

	for i := 0; i < 3; i++ {
		require.NoError(t, q.push(webhook.Payload{Text: "x"}))
	}
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.QueueDepth))

	_, ok := q.pop()
	require.True(t, ok)
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.QueueDepth))

	assert.Equal(t, 2, q.discard())
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.QueueDepth))
}

func TestQueueDepthGaugeUnderConcurrentPushes(t *testing.T) {
	q := newQueue()

	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				_ = q.push(webhook.Payload{Text: "x"})
			}
		}()
	}
	wg.Wait()

	// The gauge is updated under the queue lock, so once the pushes settle
	// it must agree with the actual depth.
	assert.Equal(t, float64(q.depth()), testutil.ToFloat64(metrics.QueueDepth))
	assert.Equal(t, 200, q.discard())
}

func TestConcurrentProducers(t *testing.T) {
	sender := &recordingSender{}
	h := Start(sender, nil)

	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = h.Enqueue(webhook.Payload{Text: fmt.Sprintf("p%d-%d", p, i)})
			}
		}(p)
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return len(sender.sentTexts()) == 400
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, h.Shutdown())
	h.Wait()
}
