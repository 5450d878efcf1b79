package internal

import (
	"time"
)

// CreateTestResult creates an analysis result with sample content
func CreateTestResult() *AnalysisResult {
	return &AnalysisResult{
		Steps: []string{
			"Collect the sales figures for the quarter",
			"Draft the summary slides",
			"Review the draft with the team lead",
		},
		Ambiguities: []string{
			"Which quarter is meant",
			"Who is the audience",
		},
		SuggestedQuestions: []string{
			"Is there a template to follow?",
		},
	}
}

// CreateTestSavedResult creates a saved result with a fixed id and time
func CreateTestSavedResult(id string) *SavedResult {
	return &SavedResult{
		ID:        id,
		Task:      "Prepare the quarterly report for Monday",
		Result:    CreateTestResult(),
		CreatedAt: time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC),
		Source:    SourceAnalysis,
	}
}

// CreateTestHistoryEntry creates a server history entry
func CreateTestHistoryEntry(id int, text string) HistoryEntry {
	r := CreateTestResult()
	return HistoryEntry{
		ID:             id,
		OriginalText:   text,
		Steps:          r.Steps,
		Ambiguities:    r.Ambiguities,
		Questions:      r.SuggestedQuestions,
		ResponseTimeMs: 840,
		CreatedAt:      "2026-10-14T18:05:00",
	}
}
