// Package health aggregates named liveness and readiness checks.
package health

import (
	"sync"
	"time"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Check represents a health check result for a specific component
type Check struct {
	Name        string         `json:"name"`
	Status      Status         `json:"status"`
	Message     string         `json:"message,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	LastChecked time.Time      `json:"last_checked"`
	Duration    time.Duration  `json:"duration_ms"`
}

// CheckFunc is a function that performs a health check
type CheckFunc func() Check

// Response represents the overall health response
type Response struct {
	Status    Status           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Checks    map[string]Check `json:"checks"`
}

// Checker manages health checks for the service
type Checker struct {
	mu          sync.RWMutex
	readyChecks map[string]CheckFunc
	started     time.Time
}

// NewChecker creates a new health checker
func NewChecker() *Checker {
	return &Checker{
		readyChecks: make(map[string]CheckFunc),
		started:     time.Now(),
	}
}

// RegisterReadinessCheck registers a readiness check
func (c *Checker) RegisterReadinessCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readyChecks[name] = check
}

// CheckLiveness reports liveness; always healthy once constructed
func (c *Checker) CheckLiveness() Response {
	return Response{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Checks:    map[string]Check{},
	}
}

// CheckReadiness runs every registered readiness check; the worst
// individual status wins.
func (c *Checker) CheckReadiness() Response {
	c.mu.RLock()
	defer c.mu.RUnlock()

	response := Response{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Checks:    make(map[string]Check, len(c.readyChecks)),
	}

	for name, checkFunc := range c.readyChecks {
		start := time.Now()
		check := checkFunc()
		check.Name = name
		check.Duration = time.Since(start)
		check.LastChecked = start
		response.Checks[name] = check

		if check.Status == StatusUnhealthy {
			response.Status = StatusUnhealthy
		} else if check.Status == StatusDegraded && response.Status != StatusUnhealthy {
			response.Status = StatusDegraded
		}
	}

	return response
}
