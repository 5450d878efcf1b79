package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/demystify/internal"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	apiURL  string
	dataDir string
	version string = "dev"
	commit  string = "unknown"
	date    string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "demystify",
	Short: "Break vague tasks down into concrete steps",
	Long: `demystify sends a task or instruction to the analysis service and shows
it back as a checklist of concrete steps, the ambiguities found in it and
the questions worth asking before you start.

Features:
  • Analyze a task from arguments, a file or stdin
  • Sign up, sign in and keep your session between runs
  • Browse, reopen and delete your analysis history
  • Export results as text, Markdown, JSON, JSONL or YAML
  • Local usage statistics

Quick Start:
  demystify register                          # Create an account
  demystify analyze "Prepare the launch plan" # Analyze a task
  demystify export --format md                # Export the last result

Configuration is read from <data-dir>/config.yaml and DEMYSTIFY_* variables.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Analysis service URL (overrides config and DEMYSTIFY_API_URL)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory for the local database, results and config.yaml")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
