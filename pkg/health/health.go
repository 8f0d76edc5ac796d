// Package health reports liveness of the forwarding pipeline for the demo
// binary's debug endpoint.
package health

import (
	"context"
	"fmt"
	"time"

	"zapslack/internal/worker"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

type Checker interface {
	Check(ctx context.Context) error
	Name() string
}

type Health struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

type CheckResult struct {
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type CheckerRegistry struct {
	checkers []Checker
}

func NewCheckerRegistry() *CheckerRegistry {
	return &CheckerRegistry{checkers: make([]Checker, 0)}
}

func (r *CheckerRegistry) Register(checker Checker) {
	r.checkers = append(r.checkers, checker)
}

func (r *CheckerRegistry) Check(ctx context.Context) Health {
	results := make(map[string]CheckResult)
	allHealthy := true

	for _, checker := range r.checkers {
		err := checker.Check(ctx)
		result := CheckResult{Timestamp: time.Now()}
		if err != nil {
			result.Status = StatusUnhealthy
			result.Message = err.Error()
			allHealthy = false
		} else {
			result.Status = StatusHealthy
		}
		results[checker.Name()] = result
	}

	overall := StatusHealthy
	if !allHealthy {
		overall = StatusUnhealthy
	}

	return Health{
		Status:    overall,
		Timestamp: time.Now(),
		Checks:    results,
	}
}

// WorkerChecker reports unhealthy once the delivery worker has stopped.
type WorkerChecker struct {
	handle *worker.Handle
}

func NewWorkerChecker(h *worker.Handle) *WorkerChecker {
	return &WorkerChecker{handle: h}
}

func (c *WorkerChecker) Name() string { return "delivery_worker" }

func (c *WorkerChecker) Check(ctx context.Context) error {
	if state := c.handle.State(); state == worker.StateStopped {
		return fmt.Errorf("delivery worker stopped (queue depth %d)", c.handle.QueueDepth())
	}
	return nil
}
