// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     health
// Description: Preflight checks for local engines, devices and providers
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package health

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"
)

// Status represents the outcome of a check
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
	StatusUnknown   Status = "unknown"
)

// CheckResult represents the result of a single check
type CheckResult struct {
	Name      string
	Status    Status
	Message   string
	Duration  time.Duration
	Timestamp time.Time
	Details   map[string]interface{}
}

// Checker is an interface for checks
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// NamedCheckFunc wraps a check function with a name
type NamedCheckFunc struct {
	name string
	fn   func(ctx context.Context) CheckResult
}

// NewChecker creates a named checker from a function
func NewChecker(name string, fn func(ctx context.Context) CheckResult) Checker {
	return &NamedCheckFunc{name: name, fn: fn}
}

// Name returns the checker name
func (c *NamedCheckFunc) Name() string {
	return c.name
}

// Check runs the check
func (c *NamedCheckFunc) Check(ctx context.Context) CheckResult {
	return c.fn(ctx)
}

// Registry runs a set of checkers concurrently
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	app      string
	version  string
}

// NewRegistry creates a new check registry
func NewRegistry(app, version string) *Registry {
	return &Registry{
		checkers: make(map[string]Checker),
		app:      app,
		version:  version,
	}
}

// Register adds a checker to the registry
func (r *Registry) Register(checker Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[checker.Name()] = checker
}

// RegisterFunc adds a check function to the registry
func (r *Registry) RegisterFunc(name string, fn func(ctx context.Context) CheckResult) {
	r.Register(NewChecker(name, fn))
}

// Check runs all checks and returns the overall status. Results are sorted
// by name.
func (r *Registry) Check(ctx context.Context) *Report {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report := &Report{
		App:       r.app,
		Version:   r.version,
		Timestamp: time.Now(),
		Checks:    make([]CheckResult, 0, len(r.checkers)),
	}

	var wg sync.WaitGroup
	results := make(chan CheckResult, len(r.checkers))

	for _, checker := range r.checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()
			start := time.Now()
			result := c.Check(ctx)
			result.Duration = time.Since(start)
			result.Timestamp = time.Now()
			if result.Name == "" {
				result.Name = c.Name()
			}
			results <- result
		}(checker)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	overallStatus := StatusHealthy
	for result := range results {
		report.Checks = append(report.Checks, result)
		switch result.Status {
		case StatusUnhealthy:
			overallStatus = StatusUnhealthy
		case StatusDegraded, StatusUnknown:
			if overallStatus != StatusUnhealthy {
				overallStatus = StatusDegraded
			}
		}
	}

	sort.Slice(report.Checks, func(i, j int) bool {
		return report.Checks[i].Name < report.Checks[j].Name
	})

	report.Status = overallStatus
	return report
}

// CheckWithTimeout runs all checks with a timeout
func (r *Registry) CheckWithTimeout(timeout time.Duration) *Report {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return r.Check(ctx)
}

// Report represents the overall check report
type Report struct {
	App       string        `json:"app"`
	Version   string        `json:"version"`
	Status    Status        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Checks    []CheckResult `json:"checks"`
}

// String returns a one-line summary of the report
func (r *Report) String() string {
	return fmt.Sprintf("%s %s: %s (%d checks)", r.App, r.Version, r.Status, len(r.Checks))
}

// Format renders one line per check
func (r *Report) Format() string {
	var b strings.Builder
	b.WriteString(r.String())
	b.WriteString("\n")
	for _, c := range r.Checks {
		fmt.Fprintf(&b, "  %-10s %-12s %s\n", c.Status, c.Name, c.Message)
	}
	return b.String()
}

// Failed returns the checks that are not healthy
func (r *Report) Failed() []CheckResult {
	var failed []CheckResult
	for _, c := range r.Checks {
		if c.Status != StatusHealthy {
			failed = append(failed, c)
		}
	}
	return failed
}

// Common checks

// BinaryCheck reports healthy when one of the candidates is on PATH or is
// an existing file.
func BinaryCheck(name string, candidates ...string) Checker {
	return NewChecker(name, func(ctx context.Context) CheckResult {
		for _, c := range candidates {
			if c == "" {
				continue
			}
			if path, err := exec.LookPath(c); err == nil {
				return CheckResult{
					Name:    name,
					Status:  StatusHealthy,
					Message: path,
					Details: map[string]interface{}{"path": path},
				}
			}
		}
		return CheckResult{
			Name:    name,
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("not found: %s", strings.Join(candidates, ", ")),
		}
	})
}

// FileCheck reports healthy when path exists
func FileCheck(name, path string) Checker {
	return NewChecker(name, func(ctx context.Context) CheckResult {
		if path == "" {
			return CheckResult{Name: name, Status: StatusUnhealthy, Message: "no path configured"}
		}
		if _, err := os.Stat(path); err != nil {
			return CheckResult{Name: name, Status: StatusUnhealthy, Message: err.Error()}
		}
		return CheckResult{Name: name, Status: StatusHealthy, Message: path}
	})
}

// HTTPCheck reports healthy when url answers with a status below 500.
// Any answer proves reachability; auth is not exercised here.
func HTTPCheck(name, url string, timeout time.Duration) Checker {
	return NewChecker(name, func(ctx context.Context) CheckResult {
		result := CheckResult{
			Name:    name,
			Details: map[string]interface{}{"url": url},
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			result.Status = StatusUnhealthy
			result.Message = err.Error()
			return result
		}

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			result.Status = StatusUnhealthy
			result.Message = err.Error()
			return result
		}
		resp.Body.Close()

		result.Details["status"] = resp.StatusCode
		if resp.StatusCode >= 500 {
			result.Status = StatusDegraded
			result.Message = fmt.Sprintf("server returned %d", resp.StatusCode)
			return result
		}
		result.Status = StatusHealthy
		result.Message = fmt.Sprintf("reachable (%d)", resp.StatusCode)
		return result
	})
}

// ErrorCheck turns a probe returning an error into a checker
func ErrorCheck(name string, probe func(ctx context.Context) (string, error)) Checker {
	return NewChecker(name, func(ctx context.Context) CheckResult {
		msg, err := probe(ctx)
		if err != nil {
			return CheckResult{Name: name, Status: StatusUnhealthy, Message: err.Error()}
		}
		return CheckResult{Name: name, Status: StatusHealthy, Message: msg}
	})
}
