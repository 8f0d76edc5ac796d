package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2,
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), func() error {
		calls++
		return nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	var retries []int
	err := Do(context.Background(), fastPolicy(5), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, func(attempt int, err error, nextDelay time.Duration) {
		retries = append(retries, attempt)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), func() error {
		calls++
		return errors.New("still failing")
	}, nil)
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := NewPermanentError(errors.New("bad payload"))
	err := Do(context.Background(), fastPolicy(5), func() error {
		calls++
		return permanent
	}, nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "bad payload")
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, Policy{MaxAttempts: 10, InitialInterval: time.Second, Multiplier: 2}, func() error {
		calls++
		cancel()
		return errors.New("transient")
	}, nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestErrorWrapping(t *testing.T) {
	base := errors.New("boom")

	trans := NewTransientError(base)
	assert.True(t, trans.IsTransient())
	assert.ErrorIs(t, trans, base)

	perm := NewPermanentError(base)
	assert.True(t, perm.IsPermanent())
	assert.ErrorIs(t, perm, base)

	assert.Nil(t, NewTransientError(nil))
	assert.Nil(t, NewPermanentError(nil))
}

func TestNextDelay(t *testing.T) {
	policy := Policy{InitialInterval: 100 * time.Millisecond, MaxInterval: 300 * time.Millisecond, Multiplier: 2}

	assert.Equal(t, 100*time.Millisecond, NextDelay(policy, 1))
	assert.Equal(t, 200*time.Millisecond, NextDelay(policy, 2))
	assert.Equal(t, 300*time.Millisecond, NextDelay(policy, 3))
	assert.Equal(t, 300*time.Millisecond, NextDelay(policy, 10))
}
