package cmd

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/iksnae/demystify/internal/export"
	"github.com/spf13/cobra"
)

// shareCmd represents the share command
var shareCmd = &cobra.Command{
	Use:   "share [result-id]",
	Short: "Copy a short summary of a result to the clipboard",
	Long: `Print a short summary of a saved result and copy it to the clipboard.
Without an id the most recent result is shared.`,
	Args: cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		saved, err := loadSaved(a, args)
		if err != nil {
			return err
		}

		text := export.ShareText(saved.Result)
		fmt.Fprintln(cmd.OutOrStdout(), text)

		if err := clipboard.WriteAll(text); err != nil {
			a.notifier.Warn(fmt.Sprintf("Could not copy to clipboard: %v", err))
			return nil
		}
		a.notifier.Success("share", "Copied to clipboard")
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(shareCmd)
}
