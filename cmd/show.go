package cmd

import (
	"errors"
	"fmt"

	"github.com/iksnae/demystify/internal"
	"github.com/spf13/cobra"
)

var (
	showRender bool
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show [result-id]",
	Short: "Show a saved result",
	Long: `Display a locally saved result. Without an id the most recent result is
shown; any unambiguous id prefix works.`,
	Args: cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		saved, err := loadSaved(a, args)
		if err != nil {
			return err
		}
		if showRender {
			return renderMarkdown(cmd.OutOrStdout(), saved)
		}
		renderResult(cmd.OutOrStdout(), saved)
		return nil
	}),
}

// loadSaved loads the result named by the optional first argument
func loadSaved(a *app, args []string) (*internal.SavedResult, error) {
	id := ""
	if len(args) > 0 {
		id = args[0]
	}
	saved, err := a.results.Load(id)
	if errors.Is(err, internal.ErrNoResult) {
		if id == "" {
			return nil, fmt.Errorf("%w yet (run 'demystify analyze <task>' first)", err)
		}
		return nil, fmt.Errorf("%w (use 'demystify list' to see saved results)", err)
	}
	return saved, err
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showRender, "render", false, "Render as Markdown")
}
