// Package retry implements the optional backoff policy applied to webhook
// deliveries. The delivery worker itself never retries; a Policy only takes
// effect when the webhook client is explicitly configured with one.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// TransientError marks an error worth retrying (e.g. a 5xx response or a
// transport failure).
type TransientError interface {
	error
	IsTransient() bool
}

type transientError struct {
	err error
}

func (e *transientError) Error() string     { return e.err.Error() }
func (e *transientError) IsTransient() bool { return true }
func (e *transientError) Unwrap() error     { return e.err }

func NewTransientError(err error) TransientError {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// PermanentError marks an error that retrying cannot fix (e.g. a 4xx
// response to a malformed payload).
type PermanentError interface {
	error
	IsPermanent() bool
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string     { return e.err.Error() }
func (e *permanentError) IsPermanent() bool { return true }
func (e *permanentError) Unwrap() error     { return e.err }

func NewPermanentError(err error) PermanentError {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Policy bounds the retry schedule for one delivery.
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	MaxElapsedTime  time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		Multiplier:      2.0,
		MaxElapsedTime:  time.Minute,
	}
}

// Do runs fn under the policy's exponential backoff schedule. PermanentError
// results stop the schedule immediately; everything else is treated as
// transient. onRetry, when non-nil, is invoked before each wait with the
// attempt number that just failed.
func Do(ctx context.Context, policy Policy, fn func() error, onRetry func(attempt int, err error, nextDelay time.Duration)) error {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}

	var b backoff.BackOff = Exponential(policy)
	b = backoff.WithContext(b, ctx)
	b = backoff.WithMaxRetries(b, uint64(policy.MaxAttempts-1))

	attempt := 0
	operation := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}

		var perm PermanentError
		if errors.As(err, &perm) {
			return backoff.Permanent(err)
		}

		var trans TransientError
		if !errors.As(err, &trans) {
			err = NewTransientError(err)
		}

		if onRetry != nil && attempt < policy.MaxAttempts {
			onRetry(attempt, err, NextDelay(policy, attempt))
		}
		return err
	}

	return backoff.Retry(operation, b)
}
