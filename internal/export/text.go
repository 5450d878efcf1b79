package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iksnae/demystify/internal"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// TextExporter writes the boxed plain-text report used for downloads
type TextExporter struct {
	// Now stamps the report header; defaults to time.Now.
	Now func() time.Time
}

// Export writes the report
func (e *TextExporter) Export(saved *internal.SavedResult, w io.Writer) error {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	result := resultOf(saved)
	task := ""
	if saved != nil {
		task = saved.Task
	}

	var b strings.Builder
	b.WriteString("╔═══════════════════════════════════════════════════════════╗\n")
	b.WriteString("║              DEMYSTIFY - TASK ANALYSIS                    ║\n")
	fmt.Fprintf(&b, "║              Generated: %-34s║\n", now().Format("2006-01-02"))
	b.WriteString("╚═══════════════════════════════════════════════════════════╝\n\n")

	section(&b, "📝 ORIGINAL TASK:")
	b.WriteString(task + "\n\n")

	section(&b, "✅ CHECKLIST - CONCRETE STEPS:")
	for i, step := range result.Steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	b.WriteString("\n")

	section(&b, "⚠️  MISSING INFORMATION:")
	bullets(&b, result.Ambiguities, "✨ The task is clear enough!")

	section(&b, "❓ SUGGESTED QUESTIONS:")
	bullets(&b, result.SuggestedQuestions, "No additional questions")

	b.WriteString(rule + "\n")
	b.WriteString("📊 STATISTICS:\n")
	fmt.Fprintf(&b, "   • Steps identified: %d\n", len(result.Steps))
	fmt.Fprintf(&b, "   • Ambiguities detected: %d\n", len(result.Ambiguities))
	fmt.Fprintf(&b, "   • Suggested questions: %d\n\n", len(result.SuggestedQuestions))

	b.WriteString(rule + "\n")
	b.WriteString("🎯 Generated by demystify\n")
	b.WriteString("   AI task breakdown\n")
	b.WriteString(rule + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func section(b *strings.Builder, title string) {
	b.WriteString(title + "\n" + rule + "\n")
}

func bullets(b *strings.Builder, items []string, empty string) {
	if len(items) == 0 {
		b.WriteString(empty + "\n\n")
		return
	}
	for _, item := range items {
		b.WriteString("• " + item + "\n")
	}
	b.WriteString("\n")
}

// Extension returns the file extension for this format
func (e *TextExporter) Extension() string {
	return "txt"
}
