package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/iksnae/demystify/internal"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
)

var (
	historyPage   int
	historySearch string
	historyYes    bool
	historyRender bool
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse your analysis history",
	Long: `List the analyses stored on the server for the signed-in user, one page
at a time. --search fuzzy-matches the tasks of the page shown.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if historyPage < 1 {
			return fmt.Errorf("page must be >= 1")
		}
		ctx := cmd.Context()
		if err := a.requireSession(ctx); err != nil {
			return err
		}

		size := a.cfg.HistoryPageSize
		page, err := a.client.History(ctx, size, (historyPage-1)*size)
		if err != nil {
			return err
		}

		entries := page.Entries
		if historySearch != "" {
			entries = searchHistory(entries, historySearch)
		}
		displayHistory(cmd.OutOrStdout(), entries, historyPage, page.TotalPages(size), page.Total)
		return nil
	}),
}

// historyShowCmd represents the history show command
var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one analysis from your history",
	Long: `Show one analysis from your history. The entry becomes the current
result, so export and share act on it.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		id, err := parseHistoryID(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if err := a.requireSession(ctx); err != nil {
			return err
		}

		entry, err := a.client.HistoryEntry(ctx, id)
		if err != nil {
			return err
		}

		saved := savedFromHistory(entry)
		if err := a.results.Put(saved); err != nil {
			internal.LogWarn("Failed to save result locally: %v", err)
		}

		if historyRender {
			return renderMarkdown(cmd.OutOrStdout(), saved)
		}
		renderResult(cmd.OutOrStdout(), saved)
		return nil
	}),
}

// historyDeleteCmd represents the history delete command
var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one analysis from your history",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		id, err := parseHistoryID(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if err := a.requireSession(ctx); err != nil {
			return err
		}

		if !historyYes && !newPrompter(cmd).Confirm(fmt.Sprintf("Delete analysis %d?", id)) {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
			return nil
		}
		if err := a.client.DeleteHistoryEntry(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted analysis %d\n", id)
		return nil
	}),
}

func parseHistoryID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid history id %q", arg)
	}
	return id, nil
}

// savedFromHistory turns a history entry into a local result
func savedFromHistory(entry *internal.HistoryEntry) *internal.SavedResult {
	created, ok := entry.CreatedTime()
	if !ok {
		created = timeNow()
	}
	return &internal.SavedResult{
		ID:        uuid.NewString(),
		Task:      entry.OriginalText,
		Result:    entry.Result(),
		CreatedAt: created.UTC(),
		Source:    internal.SourceHistory,
		HistoryID: entry.ID,
	}
}

type historyTexts []internal.HistoryEntry

func (h historyTexts) String(i int) string { return h[i].OriginalText }
func (h historyTexts) Len() int            { return len(h) }

// searchHistory keeps the entries whose task fuzzy-matches query, best first
func searchHistory(entries []internal.HistoryEntry, query string) []internal.HistoryEntry {
	matches := fuzzy.FindFrom(query, historyTexts(entries))
	out := make([]internal.HistoryEntry, 0, len(matches))
	for _, m := range matches {
		out = append(out, entries[m.Index])
	}
	return out
}

func displayHistory(out io.Writer, entries []internal.HistoryEntry, page, pages, total int) {
	if len(entries) == 0 {
		fmt.Fprintln(out, headerStyle.Render("📋 No analyses found"))
		return
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("📋 %d analysis(es) in your history", total)))
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Task")+"\t"+titleStyle.Render("Steps")+"\t"+titleStyle.Render("Created")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 90))

	for _, e := range entries {
		task := lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Render(truncate(e.OriginalText, 50))
		created := dateStyle.Render(relativeTime(e.CreatedTime()))
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
			idStyle.Render(strconv.Itoa(e.ID)), task, countStyle.Render(strconv.Itoa(len(e.Steps))), created)
	}
	_ = w.Flush()

	fmt.Fprintln(out)
	if pages > 0 {
		fmt.Fprintln(out, idStyle.Render(fmt.Sprintf("Page %d of %d", page, pages)))
	}
	fmt.Fprintln(out, idStyle.Render("💡 Tip: open one with ")+
		lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Render(fmt.Sprintf("demystify history show %d", entries[0].ID)))
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd, historyDeleteCmd)

	historyCmd.Flags().IntVarP(&historyPage, "page", "p", 1, "Page to show")
	historyCmd.Flags().StringVarP(&historySearch, "search", "s", "", "Fuzzy filter on the task text")
	historyShowCmd.Flags().BoolVar(&historyRender, "render", false, "Render as Markdown")
	historyDeleteCmd.Flags().BoolVarP(&historyYes, "yes", "y", false, "Do not ask for confirmation")
}
