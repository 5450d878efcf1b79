package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/demystify/internal"
	"github.com/spf13/cobra"
)

var (
	listClearCache bool
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	sourceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Italic(true)
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List locally saved results",
	Long: `List the results saved on this machine, most recent first. Every
analysis and every history entry you open is saved; the newest 50 are kept.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if listClearCache {
			if err := a.results.ClearCache(); err != nil {
				internal.LogWarn("Failed to clear saved results: %v", err)
			} else {
				internal.LogInfo("Saved results cleared")
			}
		}

		entries, err := a.results.List()
		if err != nil {
			return fmt.Errorf("failed to load saved results: %w", err)
		}
		displayResults(cmd.OutOrStdout(), entries)
		return nil
	}),
}

func displayResults(out io.Writer, entries []internal.ResultIndexEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, headerStyle.Render("📋 No saved results"))
		fmt.Fprintln(out, idStyle.Render("💡 Tip: run `demystify analyze <task>` to create one"))
		return
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("📋 Found %d saved result(s)", len(entries))))
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Task")+"\t"+titleStyle.Render("Steps")+"\t"+
		titleStyle.Render("Ambiguities")+"\t"+titleStyle.Render("Saved")+"\t"+titleStyle.Render("Source")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 100))

	for _, e := range entries {
		task := lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Render(truncate(e.Task, 50))
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(shortID(e.ID)),
			task,
			countStyle.Render(strconv.Itoa(e.Steps)),
			countStyle.Render(strconv.Itoa(e.Ambiguities)),
			dateStyle.Render(relativeTime(e.CreatedAt, true)),
			sourceStyle.Render(e.Source))
	}

	_ = w.Flush()
	fmt.Fprintln(out)
	fmt.Fprintln(out, idStyle.Render("💡 Tip: Use an ID prefix (e.g., ")+
		lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Render(shortID(entries[0].ID))+
		idStyle.Render(") with `demystify show <id>`"))
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listClearCache, "clear-cache", false, "Remove all saved results before listing")
}
