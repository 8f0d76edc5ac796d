package retry

import (
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Exponential builds the backoff schedule described by a Policy.
func Exponential(policy Policy) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		exp.InitialInterval = policy.InitialInterval
	}
	if policy.MaxInterval > 0 {
		exp.MaxInterval = policy.MaxInterval
	}
	if policy.Multiplier > 0 {
		exp.Multiplier = policy.Multiplier
	}
	exp.MaxElapsedTime = policy.MaxElapsedTime
	return exp
}

// NextDelay estimates the nominal delay following the given attempt,
// ignoring jitter. Used for retry log lines.
func NextDelay(policy Policy, attempt int) time.Duration {
	d := float64(policy.InitialInterval) * math.Pow(policy.Multiplier, float64(attempt-1))
	if policy.MaxInterval > 0 && d > float64(policy.MaxInterval) {
		return policy.MaxInterval
	}
	return time.Duration(d)
}
