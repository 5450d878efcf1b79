package cmd

import (
	"fmt"

	"github.com/iksnae/demystify/internal"
	"github.com/iksnae/demystify/internal/export"
	"github.com/spf13/cobra"
)

var (
	format    string
	outputDir string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [result-id]",
	Short: "Export a saved result to file",
	Long: `Export a saved result to one of the supported formats (txt, md, json,
jsonl, yaml). Without an id the most recent result is exported.
Use 'demystify list' to see saved result IDs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Create exporter first so a bad format fails before anything is opened
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		return withApp(func(cmd *cobra.Command, args []string, a *app) error {
			saved, err := loadSaved(a, args)
			if err != nil {
				return err
			}

			dir := outputDir
			if !cmd.Flags().Changed("out") && a.cfg.DownloadDir != "" {
				dir = a.cfg.DownloadDir
			}

			var path string
			err = internal.ShowProgressWith(cmd.Context(), a.notifier, "export",
				fmt.Sprintf("Exporting result %s to %s", shortID(saved.ID), dir), func() error {
					var exportErr error
					path, exportErr = writeExport(exporter, saved, dir)
					return exportErr
				})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		})(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "txt", "Export format (txt, md, json, jsonl, yaml)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory (defaults to download_dir from config.yaml, then ./exports)")
}
