package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/demystify/internal"
)

// MarkdownExporter exports results in Markdown format
type MarkdownExporter struct{}

// Export exports a result to Markdown format
func (e *MarkdownExporter) Export(saved *internal.SavedResult, w io.Writer) error {
	result := resultOf(saved)

	_, _ = fmt.Fprintf(w, "# Task analysis\n\n")
	if saved != nil {
		if !saved.CreatedAt.IsZero() {
			_, _ = fmt.Fprintf(w, "**Created:** %s  \n", saved.CreatedAt.Format("2006-01-02 15:04"))
		}
		if saved.ID != "" {
			_, _ = fmt.Fprintf(w, "**ID:** %s  \n", saved.ID)
		}
		_, _ = fmt.Fprintf(w, "\n## Original task\n\n%s\n\n", quoteBlock(saved.Task))
	}

	_, _ = fmt.Fprintf(w, "---\n\n## Checklist\n\n")
	if len(result.Steps) == 0 {
		_, _ = fmt.Fprintf(w, "_No steps were identified._\n\n")
	}
	for _, step := range result.Steps {
		_, _ = fmt.Fprintf(w, "- [ ] %s\n", escapeMarkdown(step))
	}
	if len(result.Steps) > 0 {
		_, _ = fmt.Fprintln(w)
	}

	_, _ = fmt.Fprintf(w, "## Missing information\n\n")
	writeBullets(w, result.Ambiguities, "The task is clear enough!")

	_, _ = fmt.Fprintf(w, "## Suggested questions\n\n")
	writeBullets(w, result.SuggestedQuestions, "No additional questions.")

	return nil
}

func writeBullets(w io.Writer, items []string, empty string) {
	if len(items) == 0 {
		_, _ = fmt.Fprintf(w, "_%s_\n\n", empty)
		return
	}
	for _, item := range items {
		_, _ = fmt.Fprintf(w, "- %s\n", escapeMarkdown(item))
	}
	_, _ = fmt.Fprintln(w)
}

func quoteBlock(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		lines[i] = "> " + escapeMarkdown(line)
	}
	return strings.Join(lines, "\n")
}

// escapeMarkdown escapes markdown special characters
func escapeMarkdown(text string) string {
	// Basic escaping - preserve code blocks
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			// Escape markdown syntax outside code blocks
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
