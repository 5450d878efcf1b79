package internal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iksnae/demystify/testutil"
)

type fixedAuth bool

func (f fixedAuth) IsAuthenticated() bool { return bool(f) }

// blockingService holds Analyze until release is closed.
type blockingService struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingService) Analyze(ctx context.Context, text string) (*AnalysisResult, error) {
	close(b.started)
	<-b.release
	return &AnalysisResult{Steps: []string{"one"}}, nil
}

func TestTaskAnalyzer_TooShortMakesNoRequest(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	token := api.AddUser("alice", "secret1", "alice@example.com")
	analyzer := NewTaskAnalyzer(NewClient(api.URL(), WithTokenSource(StaticToken(token))), fixedAuth(true), nil)

	_, err := analyzer.Analyze(context.Background(), "12345")
	assert.Same(t, ErrTaskTooShort, err)
	assert.Equal(t, 0, api.TotalCalls())
}

func TestTaskAnalyzer_UnauthenticatedMakesNoRequest(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	analyzer := NewTaskAnalyzer(NewClient(api.URL()), fixedAuth(false), nil)

	_, err := analyzer.Analyze(context.Background(), "Prepare the quarterly report for Monday")
	assert.True(t, IsAuthRequired(err))
	assert.Equal(t, 0, api.TotalCalls())
}

func TestTaskAnalyzer_RecordsLedger(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	token := api.AddUser("alice", "secret1", "alice@example.com")
	ledger := NewLedger(NewMemoryStore())
	analyzer := NewTaskAnalyzer(NewClient(api.URL(), WithTokenSource(StaticToken(token))), fixedAuth(true), ledger)

	result, err := analyzer.Analyze(context.Background(), "Prepare the quarterly report for Monday")
	require.NoError(t, err)
	assert.Len(t, result.Steps, 3)

	stats := ledger.Stats()
	assert.Equal(t, 1, stats.TotalTasks)
	assert.Equal(t, 3, stats.TotalSteps)
	assert.Equal(t, 2, stats.TotalAmbiguities)
	assert.Equal(t, 1, stats.TotalQuestions)
	assert.Equal(t, "Prepare the quarterly report for Monday", stats.RecentActivity[0].Task)
}

func TestTaskAnalyzer_FailureDoesNotRecord(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	ledger := NewLedger(NewMemoryStore())
	analyzer := NewTaskAnalyzer(NewClient(api.URL(), WithTokenSource(StaticToken("bogus"))), fixedAuth(true), ledger)

	_, err := analyzer.Analyze(context.Background(), "Prepare the quarterly report for Monday")
	require.Error(t, err)
	assert.Equal(t, 0, ledger.Stats().TotalTasks)
}

func TestTaskAnalyzer_SingleFlight(t *testing.T) {
	svc := &blockingService{started: make(chan struct{}), release: make(chan struct{})}
	analyzer := NewTaskAnalyzer(svc, fixedAuth(true), nil)

	done := make(chan error, 1)
	go func() {
		_, err := analyzer.Analyze(context.Background(), "Prepare the quarterly report for Monday")
		done <- err
	}()
	<-svc.started

	_, err := analyzer.Analyze(context.Background(), "Another valid task description")
	assert.ErrorIs(t, err, ErrAnalysisInFlight)

	close(svc.release)
	require.NoError(t, <-done)
}
