package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/demystify/internal"
)

// Section names used in JSONL records
const (
	SectionTask      = "task"
	SectionStep      = "step"
	SectionAmbiguity = "ambiguity"
	SectionQuestion  = "question"
)

// JSONLExporter exports results in JSONL format (one item per line)
type JSONLExporter struct{}

type jsonlRecord struct {
	Section string `json:"section"`
	Index   int    `json:"index"`
	Text    string `json:"text"`
}

// Export writes the task, then every step, ambiguity and question as its own line
func (e *JSONLExporter) Export(saved *internal.SavedResult, w io.Writer) error {
	enc := json.NewEncoder(w)
	result := resultOf(saved)

	if saved != nil && saved.Task != "" {
		if err := enc.Encode(jsonlRecord{Section: SectionTask, Index: 0, Text: saved.Task}); err != nil {
			return fmt.Errorf("failed to encode task: %w", err)
		}
	}

	sections := []struct {
		name  string
		items []string
	}{
		{SectionStep, result.Steps},
		{SectionAmbiguity, result.Ambiguities},
		{SectionQuestion, result.SuggestedQuestions},
	}
	for _, s := range sections {
		for i, text := range s.items {
			if err := enc.Encode(jsonlRecord{Section: s.name, Index: i + 1, Text: text}); err != nil {
				return fmt.Errorf("failed to encode %s %d: %w", s.name, i+1, err)
			}
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
