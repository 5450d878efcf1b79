package cmd

import (
	"context"
	"fmt"

	"github.com/iksnae/demystify/internal"
	"github.com/spf13/cobra"
)

// analysisKey is the notification key shared by the analysis spinner and
// its retry messages, so a retry replaces the previous line.
const analysisKey = "analysis"

// app holds the services a command runs against
type app struct {
	cfg      *internal.Config
	store    *internal.SQLiteStore
	session  *internal.SessionManager
	client   *internal.Client
	ledger   *internal.Ledger
	results  *internal.ResultCache
	notifier *internal.Notifier
}

// newApp loads the configuration and opens the local database. Nothing
// here touches the network.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := internal.LoadConfig(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := internal.NewSQLiteStore(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}

	notifier := internal.NewNotifier(cmd.ErrOrStderr())
	authClient := internal.NewClient(cfg.APIURL, internal.WithTimeout(cfg.Timeout))
	session := internal.NewSessionManager(store, authClient)
	client := internal.NewClient(cfg.APIURL,
		internal.WithTimeout(cfg.Timeout),
		internal.WithTokenSource(session),
		internal.WithRetryObserver(notifier.RetryObserver(analysisKey)),
	)

	internal.LogDebug("api %s, data dir %s", cfg.APIURL, cfg.DataDir)
	return &app{
		cfg:      cfg,
		store:    store,
		session:  session,
		client:   client,
		ledger:   internal.NewLedger(store),
		results:  internal.NewResultCache(cfg.ResultsDir()),
		notifier: notifier,
	}, nil
}

// Close releases the local database
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		internal.LogWarn("Failed to close database: %v", err)
	}
}

// restore validates the saved token. A service that cannot be reached leaves
// the user signed out for this run without failing the command.
func (a *app) restore(ctx context.Context) {
	if err := a.session.Restore(ctx); err != nil {
		internal.LogWarn("Could not restore session: %v", err)
	}
}

// requireSession restores the session and fails when nobody is signed in.
func (a *app) requireSession(ctx context.Context) error {
	a.restore(ctx)
	if !a.session.IsAuthenticated() {
		return signInHint(internal.ErrAuthRequired)
	}
	return nil
}

func signInHint(err error) error {
	return fmt.Errorf("%w (run 'demystify login' or 'demystify register')", err)
}

// withApp wraps a RunE body with app setup and teardown
func withApp(run func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, args, a)
	}
}
