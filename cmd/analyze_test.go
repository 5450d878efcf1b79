package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/demystify/internal"
	"github.com/iksnae/demystify/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const analyzeRoute = "POST /api/desambiguar"

func TestAnalyzeCommand_RequiresSession(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run(t, "", "analyze", "Prepare the quarterly report for Monday")
	require.Error(t, err)
	assert.True(t, internal.IsAuthRequired(err), "error = %v", err)
	assert.Zero(t, env.api.Calls(analyzeRoute))
}

func TestAnalyzeCommand_TooShort(t *testing.T) {
	env := newCLIEnv(t)
	env.signIn(t, "alice")

	_, _, err := env.run(t, "", "analyze", "short")
	assert.ErrorIs(t, err, internal.ErrTaskTooShort)
	assert.Zero(t, env.api.Calls(analyzeRoute))
}

func TestAnalyzeCommand_Success(t *testing.T) {
	env := newCLIEnv(t)
	token := env.signIn(t, "alice")

	out, _, err := env.run(t, "", "analyze", "Prepare", "the", "quarterly", "report", "for", "Monday")
	require.NoError(t, err)

	assert.Contains(t, out, "Prepare the quarterly report for Monday")
	assert.Contains(t, out, "Steps (3)")
	assert.Contains(t, out, "Missing information (2)")
	assert.Contains(t, out, "Suggested questions (1)")
	assert.Contains(t, out, "1 task(s) analyzed so far")
	assert.Equal(t, 1, env.api.Calls(analyzeRoute))
	assert.Equal(t, "Bearer "+token, env.api.LastAuthorization(analyzeRoute))

	// The result is saved locally and recorded in the server history.
	entries, err := internal.NewResultCache(filepath.Join(env.dir, "results")).List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, internal.SourceAnalysis, entries[0].Source)
	assert.Len(t, env.api.History("alice"), 1)
}

func TestAnalyzeCommand_Stdin(t *testing.T) {
	env := newCLIEnv(t)
	env.signIn(t, "alice")

	out, _, err := env.run(t, "Organize the team offsite next month\n", "analyze", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Organize the team offsite next month")
}

func TestAnalyzeCommand_File(t *testing.T) {
	env := newCLIEnv(t)
	env.signIn(t, "alice")
	path := testutil.WriteFile(t, testutil.CreateTempDir(t), "task.txt", []byte("Write the onboarding guide for new hires"))

	out, _, err := env.run(t, "", "analyze", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "onboarding guide")

	_, _, err = env.run(t, "", "analyze", "--file", path, "extra words")
	assert.Error(t, err)
}

func TestAnalyzeCommand_Download(t *testing.T) {
	env := newCLIEnv(t)
	env.signIn(t, "alice")
	downloads := testutil.CreateTempDir(t)

	_, stderr, err := env.run(t, "", "analyze", "--download", downloads, "--format", "md",
		"Prepare the quarterly report for Monday")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Saved ")

	files, err := filepath.Glob(filepath.Join(downloads, "demystify_*.md"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "Prepare the quarterly report for Monday")
}

func TestAnalyzeCommand_BadDownloadFormat(t *testing.T) {
	env := newCLIEnv(t)
	env.signIn(t, "alice")

	_, _, err := env.run(t, "", "analyze", "--download", testutil.CreateTempDir(t), "--format", "pdf",
		"Prepare the quarterly report for Monday")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unsupported format"))
	assert.Zero(t, env.api.Calls(analyzeRoute))
}

func TestAnalyzeCommand_ExpiredToken(t *testing.T) {
	env := newCLIEnv(t)
	store, err := internal.NewSQLiteStore(filepath.Join(env.dir, "demystify.db"))
	require.NoError(t, err)
	require.NoError(t, store.Set(internal.TokenKey, "token-ghost"))
	require.NoError(t, store.Close())

	_, _, err = env.run(t, "", "analyze", "Prepare the quarterly report for Monday")
	assert.True(t, internal.IsAuthRequired(err), "error = %v", err)

	_, found := env.savedToken(t)
	assert.False(t, found, "a rejected token should be removed")
}
