package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/iksnae/demystify/internal"
	"github.com/iksnae/demystify/internal/export"
	"github.com/spf13/cobra"
)

var (
	analyzeFile     string
	analyzeCopy     bool
	analyzeDownload string
	analyzeFormat   string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [task...]",
	Short: "Analyze a task",
	Long: `Send a task or instruction to the analysis service and show the steps,
the missing information and the questions to ask.

The task is taken from the arguments, from --file, or from stdin when the
only argument is "-". You must be signed in.`,
	Example: `  demystify analyze "Prepare the quarterly report for Monday"
  demystify analyze --file task.txt --download ./exports --format md
  echo "Organize the team offsite" | demystify analyze -`,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		text, err := readTask(cmd, args)
		if err != nil {
			return err
		}
		exporter, err := downloadExporter()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a.restore(ctx)
		analyzer := internal.NewTaskAnalyzer(a.client, a.session, a.ledger)

		var result *internal.AnalysisResult
		err = internal.ShowProgressWith(ctx, a.notifier, analysisKey, "Analyzing task", func() error {
			var analyzeErr error
			result, analyzeErr = analyzer.Analyze(ctx, text)
			return analyzeErr
		})
		if err != nil {
			if internal.IsAuthRequired(err) {
				return signInHint(err)
			}
			return err
		}

		saved, err := a.results.Save(text, result, internal.SourceAnalysis)
		if err != nil {
			internal.LogWarn("Failed to save result locally: %v", err)
			saved = &internal.SavedResult{Task: text, Result: result, Source: internal.SourceAnalysis}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out)
		renderResult(out, saved)

		stats := a.ledger.Stats()
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%d task(s) analyzed so far, %.1f steps on average",
			stats.TotalTasks, stats.AverageSteps)))

		if analyzeCopy {
			if err := clipboard.WriteAll(export.ChecklistText(result)); err != nil {
				a.notifier.Warn(fmt.Sprintf("Could not copy to clipboard: %v", err))
			} else {
				a.notifier.Success("clipboard", "Checklist copied to clipboard")
			}
		}

		if exporter != nil {
			path, err := writeExport(exporter, saved, analyzeDownload)
			if err != nil {
				return err
			}
			a.notifier.Success("download", fmt.Sprintf("Saved %s", path))
		}
		return nil
	}),
}

// readTask collects the task text from --file, stdin or the arguments
func readTask(cmd *cobra.Command, args []string) (string, error) {
	switch {
	case analyzeFile != "":
		if len(args) > 0 {
			return "", fmt.Errorf("use either --file or task arguments, not both")
		}
		data, err := os.ReadFile(analyzeFile)
		if err != nil {
			return "", fmt.Errorf("failed to read task file: %w", err)
		}
		return string(data), nil
	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	default:
		return strings.Join(args, " "), nil
	}
}

func downloadExporter() (export.Exporter, error) {
	if analyzeDownload == "" {
		return nil, nil
	}
	return export.NewExporter(analyzeFormat)
}

// writeExport writes saved into dir under the download file name and
// returns the path written.
func writeExport(exporter export.Exporter, saved *internal.SavedResult, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	stamp := saved.CreatedAt
	if stamp.IsZero() {
		stamp = timeNow()
	}
	path := filepath.Join(dir, export.FileName(exporter, stamp))

	file, err := os.Create(path)
	if err != nil {
		return "", &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	if err := exporter.Export(saved, file); err != nil {
		_ = file.Close()
		return "", &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		return "", &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	return path, nil
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeFile, "file", "", "Read the task from a file")
	analyzeCmd.Flags().BoolVar(&analyzeCopy, "copy", false, "Copy the checklist to the clipboard")
	analyzeCmd.Flags().StringVar(&analyzeDownload, "download", "", "Also save the result into this directory")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "txt", "Download format (txt, md, json, jsonl, yaml)")
}
