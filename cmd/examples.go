package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/demystify/internal"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
)

var (
	examplesFilter string
)

var categoryStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("135")).
	Bold(true).
	Width(12)

// examplesCmd represents the examples command
var examplesCmd = &cobra.Command{
	Use:   "examples",
	Short: "Show example tasks to try",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		examples := a.client.ListExamples(cmd.Context())
		if examplesFilter != "" {
			examples = filterExamples(examples, examplesFilter)
		}
		displayExamples(cmd.OutOrStdout(), examples)
		return nil
	}),
}

type exampleTexts []internal.Example

func (e exampleTexts) String(i int) string { return e[i].Category + " " + e[i].Text }
func (e exampleTexts) Len() int            { return len(e) }

// filterExamples keeps the examples whose category or text fuzzy-matches query
func filterExamples(examples []internal.Example, query string) []internal.Example {
	matches := fuzzy.FindFrom(query, exampleTexts(examples))
	out := make([]internal.Example, 0, len(matches))
	for _, m := range matches {
		out = append(out, examples[m.Index])
	}
	return out
}

func displayExamples(out io.Writer, examples []internal.Example) {
	if len(examples) == 0 {
		fmt.Fprintln(out, headerStyle.Render("💡 No examples available"))
		return
	}

	fmt.Fprintln(out, headerStyle.Render("💡 Try one of these"))
	fmt.Fprintln(out)
	for _, ex := range examples {
		fmt.Fprintln(out, categoryStyle.Render(ex.Category)+ex.Text)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, idStyle.Render(fmt.Sprintf("💡 Tip: demystify analyze %q", examples[0].Text)))
}

func init() {
	rootCmd.AddCommand(examplesCmd)
	examplesCmd.Flags().StringVar(&examplesFilter, "filter", "", "Fuzzy filter on category and text")
}
