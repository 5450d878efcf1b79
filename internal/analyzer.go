package internal

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// TaskService is the analysis call the analyzer drives
type TaskService interface {
	Analyze(ctx context.Context, text string) (*AnalysisResult, error)
}

// AuthState reports whether a user is signed in
type AuthState interface {
	IsAuthenticated() bool
}

// TaskAnalyzer validates a task, sends it, and records the outcome in the
// usage ledger. At most one analysis runs at a time per analyzer.
type TaskAnalyzer struct {
	service TaskService
	auth    AuthState
	ledger  *Ledger
	gate    *semaphore.Weighted
}

// NewTaskAnalyzer wires an analyzer. ledger may be nil.
func NewTaskAnalyzer(service TaskService, auth AuthState, ledger *Ledger) *TaskAnalyzer {
	return &TaskAnalyzer{
		service: service,
		auth:    auth,
		ledger:  ledger,
		gate:    semaphore.NewWeighted(1),
	}
}

// Analyze runs one analysis. Validation failures and ErrAuthRequired are
// returned before any network call; a submission made while another is in
// flight fails with ErrAnalysisInFlight.
func (a *TaskAnalyzer) Analyze(ctx context.Context, text string) (*AnalysisResult, error) {
	if err := ValidateTask(text, a.auth.IsAuthenticated()); err != nil {
		return nil, err
	}

	if !a.gate.TryAcquire(1) {
		return nil, ErrAnalysisInFlight
	}
	defer a.gate.Release(1)

	result, err := a.service.Analyze(ctx, text)
	if err != nil {
		return nil, err
	}

	if a.ledger != nil {
		stats := a.ledger.Record(result, text)
		LogDebug("ledger updated: %d tasks, %.1f steps on average", stats.TotalTasks, stats.AverageSteps)
	}
	return result, nil
}
