package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/demystify/internal"
)

func TestTextExporter_Export(t *testing.T) {
	exporter := &TextExporter{Now: func() time.Time { return time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC) }}

	var buf bytes.Buffer
	if err := exporter.Export(internal.CreateTestSavedResult("txt-1"), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"DEMYSTIFY - TASK ANALYSIS",
		"Generated: 2026-10-15",
		"📝 ORIGINAL TASK:\n" + rule + "\nPrepare the quarterly report for Monday",
		"1. Collect the sales figures for the quarter",
		"3. Review the draft with the team lead",
		"• Which quarter is meant",
		"• Is there a template to follow?",
		"Steps identified: 3",
		"Ambiguities detected: 2",
		"Suggested questions: 1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Export() output missing %q", want)
		}
	}
}

func TestTextExporter_EmptySections(t *testing.T) {
	saved := &internal.SavedResult{Task: "Water the plants", Result: &internal.AnalysisResult{Steps: []string{"Fill the can"}}}

	var buf bytes.Buffer
	if err := (&TextExporter{}).Export(saved, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "✨ The task is clear enough!") {
		t.Error("missing clear-task message")
	}
	if !strings.Contains(output, "No additional questions") {
		t.Error("missing no-questions message")
	}
}

func TestShareText(t *testing.T) {
	got := ShareText(internal.CreateTestResult())
	for _, want := range []string{"3 steps identified", "2 ambiguities detected"} {
		if !strings.Contains(got, want) {
			t.Errorf("ShareText() = %q, missing %q", got, want)
		}
	}
	if !strings.Contains(ShareText(nil), "0 steps identified") {
		t.Error("ShareText(nil) should report zero steps")
	}
}

func TestChecklistText(t *testing.T) {
	got := ChecklistText(&internal.AnalysisResult{Steps: []string{"a", "b"}})
	if got != "1. a\n2. b" {
		t.Errorf("ChecklistText() = %q", got)
	}
	if ChecklistText(nil) != "" {
		t.Error("ChecklistText(nil) should be empty")
	}
}
