package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/demystify/internal"
	"github.com/spf13/cobra"
)

var (
	statsClear bool
)

var (
	statBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 2).
			Align(lipgloss.Center)

	statValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	statLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show your local usage statistics",
	Long: `Show the totals kept on this machine: tasks analyzed, steps, ambiguities,
suggested questions and the most recent activity.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if statsClear {
			a.ledger.Clear()
			fmt.Fprintln(cmd.OutOrStdout(), "Statistics cleared")
			return nil
		}
		displayStats(cmd.OutOrStdout(), a.ledger.Stats())
		return nil
	}),
}

func statBox(value, label string) string {
	return statBoxStyle.Render(statValueStyle.Render(value) + "\n" + statLabelStyle.Render(label))
}

func displayStats(out io.Writer, stats internal.UsageLedger) {
	fmt.Fprintln(out, headerStyle.Render("📊 Your statistics"))
	fmt.Fprintln(out)

	fmt.Fprintln(out, lipgloss.JoinHorizontal(lipgloss.Top,
		statBox(strconv.Itoa(stats.TotalTasks), "Tasks"),
		statBox(strconv.Itoa(stats.TotalSteps), "Steps"),
		statBox(fmt.Sprintf("%.1f", stats.AverageSteps), "Avg steps"),
		statBox(strconv.Itoa(stats.TotalAmbiguities), "Ambiguities"),
		statBox(strconv.Itoa(stats.TotalQuestions), "Questions"),
	))
	fmt.Fprintln(out)

	if len(stats.RecentActivity) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No activity yet"))
		return
	}

	fmt.Fprintln(out, titleStyle.Render("Recent activity"))
	for _, act := range stats.RecentActivity {
		when := act.Date
		if t, ok := act.Time(); ok {
			when = relativeTime(t, true)
		}
		fmt.Fprintf(out, "  %s  %s  %s\n",
			act.Task,
			countStyle.Render(fmt.Sprintf("%d steps, %d ambiguities", act.Steps, act.Ambiguities)),
			dateStyle.Render(when))
	}
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsClear, "clear", false, "Reset the statistics")
}
