package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/iksnae/demystify/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsCommand(t *testing.T) {
	env := newCLIEnv(t)

	out, _, err := env.run(t, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "No activity yet")

	store, err := internal.NewSQLiteStore(filepath.Join(env.dir, "demystify.db"))
	require.NoError(t, err)
	ledger := internal.NewLedger(store)
	ledger.Record(internal.CreateTestResult(), "Prepare the quarterly report for Monday")
	ledger.Record(internal.CreateTestResult(), "Book the team offsite")
	require.NoError(t, store.Close())

	out, _, err = env.run(t, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Recent activity")
	assert.Contains(t, out, "Book the team offsite")
	assert.Contains(t, out, "3.0")
	assert.Contains(t, out, "3 steps, 2 ambiguities")

	out, _, err = env.run(t, "", "stats", "--clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Statistics cleared")

	out, _, err = env.run(t, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "No activity yet")
}

func TestDisplayStats_FreeFormDate(t *testing.T) {
	var buf bytes.Buffer
	displayStats(&buf, internal.UsageLedger{
		TotalTasks:     1,
		TotalSteps:     4,
		AverageSteps:   4,
		RecentActivity: []internal.Activity{{Task: "Legacy entry", Steps: 4, Date: "15/10/2026 10:00"}},
	})
	assert.Contains(t, buf.String(), "Legacy entry")
	assert.Contains(t, buf.String(), "15/10/2026 10:00")
}
