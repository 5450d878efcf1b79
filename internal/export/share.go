package export

import (
	"fmt"
	"strings"

	"github.com/iksnae/demystify/internal"
)

// ShareText is the short summary copied when a result is shared
func ShareText(result *internal.AnalysisResult) string {
	if result == nil {
		result = &internal.AnalysisResult{}
	}
	return fmt.Sprintf("🎯 demystify - Task analysis\n\n✅ %d steps identified\n⚠️ %d ambiguities detected\n\nTry demystify to break down your tasks!",
		len(result.Steps), len(result.Ambiguities))
}

// ChecklistText renders the steps as a numbered list for the clipboard
func ChecklistText(result *internal.AnalysisResult) string {
	if result == nil {
		return ""
	}
	lines := make([]string, len(result.Steps))
	for i, step := range result.Steps {
		lines[i] = fmt.Sprintf("%d. %s", i+1, step)
	}
	return strings.Join(lines, "\n")
}
