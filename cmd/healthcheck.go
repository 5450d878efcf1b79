package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/demystify/internal"
	"github.com/spf13/cobra"
)

var (
	healthcheckDetails bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check the local setup and the analysis service",
	Long: `Check the health of demystify by verifying:
  • Configuration
  • Local database access
  • Saved results
  • Saved session
  • Analysis service availability

The command fails when the service cannot be reached.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sectionStyle.Render("🔍 demystify Health Check"))
		fmt.Fprintln(out)

		// Step 1: Configuration
		fmt.Fprintln(out, infoStyle.Render("Step 1: Loading configuration..."))
		fmt.Fprintln(out, successStyle.Render("✅ Configuration is valid"))
		if healthcheckDetails {
			fmt.Fprintf(out, "   API URL: %s\n", a.cfg.APIURL)
			fmt.Fprintf(out, "   Data dir: %s\n", a.cfg.DataDir)
			fmt.Fprintf(out, "   Config file: %s\n", a.cfg.ConfigPath())
			fmt.Fprintf(out, "   Timeout: %s\n", a.cfg.Timeout)
		}
		fmt.Fprintln(out)

		// Step 2: Local database
		fmt.Fprintln(out, infoStyle.Render("Step 2: Checking local database..."))
		keys, err := a.store.Keys("%")
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Local database is not readable:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Local database ready (%d key(s))", len(keys))))
		if healthcheckDetails {
			fmt.Fprintf(out, "   Database: %s\n", a.cfg.DatabasePath())
		}
		fmt.Fprintln(out)

		// Step 3: Saved results
		fmt.Fprintln(out, infoStyle.Render("Step 3: Checking saved results..."))
		entries, err := a.results.List()
		if err != nil {
			fmt.Fprintln(out, warningStyle.Render("⚠️  Saved results index is unreadable:"), err)
		} else {
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ %d saved result(s)", len(entries))))
		}
		if healthcheckDetails {
			fmt.Fprintf(out, "   Directory: %s\n", a.results.GetCacheDir())
		}
		fmt.Fprintln(out)

		// Step 4: Saved session
		fmt.Fprintln(out, infoStyle.Render("Step 4: Checking saved session..."))
		hasToken := false
		if _, found, err := a.store.Get(internal.TokenKey); err == nil && found {
			hasToken = true
			fmt.Fprintln(out, successStyle.Render("✅ A session token is saved"))
		} else {
			fmt.Fprintln(out, warningStyle.Render("⚠️  Not signed in"))
		}
		fmt.Fprintln(out)

		// Step 5: Service
		fmt.Fprintln(out, infoStyle.Render("Step 5: Contacting the analysis service..."))
		health := a.client.HealthCheck(cmd.Context())
		online := health.Online()
		if online {
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Service is %s", health.Status)))
			if healthcheckDetails {
				if health.Version != "" {
					fmt.Fprintf(out, "   Version: %s\n", health.Version)
				}
				if health.AIService != "" {
					fmt.Fprintf(out, "   AI service: %s\n", health.AIService)
				}
				if health.Uptime > 0 {
					fmt.Fprintf(out, "   Uptime: %.0fs\n", health.Uptime)
				}
			}
		} else {
			fmt.Fprintln(out, errorStyle.Render("❌ Service is offline"))
			fmt.Fprintf(out, "   Cannot reach %s\n", a.client.BaseURL())
		}
		fmt.Fprintln(out)

		// Summary
		fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		fmt.Fprintln(out)
		switch {
		case online && hasToken:
			fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
			return nil
		case online:
			fmt.Fprintln(out, warningStyle.Render("⚠️  Service available but you are not signed in"))
			fmt.Fprintln(out, "   • Run 'demystify login' or 'demystify register'")
			return nil
		default:
			fmt.Fprintln(out, errorStyle.Render("❌ Health check failed"))
			fmt.Fprintln(out, "   • The analysis service is not reachable")
			fmt.Fprintf(out, "   • Set the URL with --api-url or %s\n", internal.EnvAPIURL)
			return fmt.Errorf("health check failed: service at %s is offline", a.client.BaseURL())
		}
	}),
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckDetails, "details", "d", false, "Show detailed diagnostic information")
}
