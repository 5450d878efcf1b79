package cmd

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/iksnae/demystify/internal"
	"github.com/iksnae/demystify/internal/export"
)

var (
	// Styles for analysis results
	taskHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Padding(0, 1)

	taskTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Padding(0, 2).
			MarginBottom(1)

	stepSectionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("42")).
				Bold(true).
				Padding(0, 1)

	ambiguitySectionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214")).
				Bold(true).
				Padding(0, 1)

	questionSectionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	itemStyle = lipgloss.NewStyle().
			Padding(0, 2)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

var timeNow = time.Now

// renderResult prints a saved result as styled sections
func renderResult(w io.Writer, saved *internal.SavedResult) {
	result := saved.Result
	if result == nil {
		result = &internal.AnalysisResult{}
	}

	fmt.Fprintln(w, taskHeaderStyle.Render("🎯 Task"))
	fmt.Fprintln(w, taskTextStyle.Render(saved.Task))

	fmt.Fprintln(w, stepSectionStyle.Render(fmt.Sprintf("✅ Steps (%d)", len(result.Steps))))
	if len(result.Steps) == 0 {
		fmt.Fprintln(w, itemStyle.Render(mutedStyle.Render("No steps were identified")))
	}
	for i, step := range result.Steps {
		fmt.Fprintln(w, itemStyle.Render(fmt.Sprintf("%d. %s", i+1, step)))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, ambiguitySectionStyle.Render(fmt.Sprintf("⚠️  Missing information (%d)", len(result.Ambiguities))))
	renderItems(w, result.Ambiguities, "The task looks clear")
	fmt.Fprintln(w)

	fmt.Fprintln(w, questionSectionStyle.Render(fmt.Sprintf("❓ Suggested questions (%d)", len(result.SuggestedQuestions))))
	renderItems(w, result.SuggestedQuestions, "No questions needed")
	fmt.Fprintln(w)

	if saved.ID != "" {
		meta := fmt.Sprintf("id %s · %s", shortID(saved.ID), saved.Source)
		if !saved.CreatedAt.IsZero() {
			meta += " · " + humanize.Time(saved.CreatedAt)
		}
		fmt.Fprintln(w, mutedStyle.Render(meta))
	}
}

func renderItems(w io.Writer, items []string, empty string) {
	if len(items) == 0 {
		fmt.Fprintln(w, itemStyle.Render(mutedStyle.Render(empty)))
		return
	}
	for _, item := range items {
		fmt.Fprintln(w, itemStyle.Render("• "+item))
	}
}

// renderMarkdown prints the Markdown export of saved through glamour
func renderMarkdown(w io.Writer, saved *internal.SavedResult) error {
	var buf bytes.Buffer
	if err := (&export.MarkdownExporter{}).Export(saved, &buf); err != nil {
		return err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := renderer.Render(buf.String())
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// shortID shows the first 8 characters of an id
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// truncate shortens s to max runes for table columns
func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// relativeTime renders t as "3 hours ago", or a dash when unknown
func relativeTime(t time.Time, ok bool) string {
	if !ok || t.IsZero() {
		return "—"
	}
	return humanize.Time(t)
}
