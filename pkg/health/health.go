// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-shamir.
//
// go-shamir is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package health runs self-tests before secrets are handled: the RNG
// produces output, the fixed primes are intact and a known sharing
// round-trips.
package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Status represents the outcome of a check.
type Status string

const (
	// StatusHealthy indicates the check passed.
	StatusHealthy Status = "healthy"
	// StatusUnhealthy indicates the check failed.
	StatusUnhealthy Status = "unhealthy"
	// StatusDegraded indicates the check passed with reduced guarantees,
	// e.g. a software RNG where hardware was requested.
	StatusDegraded Status = "degraded"
)

// CheckResult represents the result of a single check.
type CheckResult struct {
	// Name is the identifier for this check.
	Name string `json:"name"`
	// Status is the outcome.
	Status Status `json:"status"`
	// Message provides additional context about the status.
	Message string `json:"message,omitempty"`
	// Latency is how long the check took to execute.
	Latency time.Duration `json:"latency"`
	// Error contains error details if the check failed.
	Error string `json:"error,omitempty"`
}

// CheckFunc performs a check.
type CheckFunc func(ctx context.Context) CheckResult

// Checker holds named checks.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// NewChecker creates an empty checker.
func NewChecker() *Checker {
	return &Checker{
		checks: make(map[string]CheckFunc),
	}
}

// RegisterCheck adds a check with the given name.
// If a check with this name already exists, it will be replaced.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	if check == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// UnregisterCheck removes a check.
func (c *Checker) UnregisterCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.checks, name)
}

// Run executes every registered check and returns the results sorted by
// name. A check that panics is reported unhealthy.
func (c *Checker) Run(ctx context.Context) []CheckResult {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	results := make([]CheckResult, 0, len(checks))
	for name, check := range checks {
		start := time.Now()
		result := runOne(ctx, name, check)
		result.Latency = time.Since(start)
		// Ensure name is set even if check doesn't set it
		if result.Name == "" {
			result.Name = name
		}
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results
}

func runOne(ctx context.Context, name string, check CheckFunc) (result CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			result = CheckResult{
				Name:    name,
				Status:  StatusUnhealthy,
				Message: "check panicked",
			}
		}
	}()
	if err := ctx.Err(); err != nil {
		return Unhealthy(name, "not run", err)
	}
	return check(ctx)
}

// GetAllChecks returns the names of all registered checks, sorted.
func (c *Checker) GetAllChecks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsHealthy returns true if no check is unhealthy.
func (c *Checker) IsHealthy(ctx context.Context) bool {
	return AggregateStatus(c.Run(ctx)) != StatusUnhealthy
}

// AggregateStatus returns the overall status based on check results.
// - If all checks are healthy, returns StatusHealthy
// - If any check is unhealthy, returns StatusUnhealthy
// - If any check is degraded (and none unhealthy), returns StatusDegraded
func AggregateStatus(results []CheckResult) Status {
	hasUnhealthy := false
	hasDegraded := false

	for _, result := range results {
		switch result.Status {
		case StatusUnhealthy:
			hasUnhealthy = true
		case StatusDegraded:
			hasDegraded = true
		}
	}

	if hasUnhealthy {
		return StatusUnhealthy
	}
	if hasDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}

// Healthy builds a passing result.
func Healthy(name, message string) CheckResult {
	return CheckResult{Name: name, Status: StatusHealthy, Message: message}
}

// Unhealthy builds a failing result from err.
func Unhealthy(name, message string, err error) CheckResult {
	r := CheckResult{Name: name, Status: StatusUnhealthy, Message: message}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}
