package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/demystify/internal"
	"github.com/iksnae/demystify/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// cliEnv is a data directory plus a fake service for end-to-end command runs
type cliEnv struct {
	api *testutil.FakeAPI
	dir string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	for _, key := range []string{internal.EnvAPIURL, internal.EnvDataDir, internal.EnvTimeout, internal.EnvPageSize} {
		t.Setenv(key, "")
	}
	return &cliEnv{
		api: testutil.NewFakeAPI(t),
		dir: testutil.CreateTempDir(t),
	}
}

// resetFlags restores flag variables between runs of the shared rootCmd
func resetFlags() {
	verbose, apiURL, dataDir = false, "", ""
	analyzeFile, analyzeCopy, analyzeDownload, analyzeFormat = "", false, "", "txt"
	authUsername, authEmail, authFullName = "", "", ""
	historyPage, historySearch, historyYes, historyRender = 1, "", false, false
	examplesFilter = ""
	statsClear = false
	listClearCache = false
	showRender = false
	format, outputDir = "txt", "./exports"
	inspectFormat, inspectSampleRows = "text", 10
	healthcheckDetails = false

	var clear func(c *cobra.Command)
	clear = func(c *cobra.Command) {
		c.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
		for _, sub := range c.Commands() {
			clear(sub)
		}
	}
	clear(rootCmd)
}

// run executes the CLI with stdin and returns stdout and stderr
func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()
	full := append([]string{"--api-url", e.api.URL(), "--data-dir", e.dir}, args...)
	rootCmd.SetArgs(full)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// signIn creates username on the fake service and saves its token locally
func (e *cliEnv) signIn(t *testing.T, username string) string {
	t.Helper()
	token := e.api.AddUser(username, "secret1", username+"@example.com")
	store, err := internal.NewSQLiteStore(filepath.Join(e.dir, "demystify.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer func() { _ = store.Close() }()
	if err := store.Set(internal.TokenKey, token); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	return token
}

// savedToken reads the token kept in the data directory
func (e *cliEnv) savedToken(t *testing.T) (string, bool) {
	t.Helper()
	store, err := internal.NewSQLiteStore(filepath.Join(e.dir, "demystify.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer func() { _ = store.Close() }()
	token, found, err := store.Get(internal.TokenKey)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	return token, found
}

// seedResult saves a result in the data directory
func (e *cliEnv) seedResult(t *testing.T, id string) *internal.SavedResult {
	t.Helper()
	saved := internal.CreateTestSavedResult(id)
	if err := internal.NewResultCache(filepath.Join(e.dir, "results")).Put(saved); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	return saved
}
