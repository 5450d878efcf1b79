package export

import (
	"fmt"
	"io"
	"time"

	"github.com/iksnae/demystify/internal"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(result *internal.SavedResult, w io.Writer) error
	Extension() string
}

// Formats lists the supported format names
var Formats = []string{"txt", "md", "json", "jsonl", "yaml"}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "txt", "text":
		return &TextExporter{}, nil
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: txt, md, json, jsonl, yaml)", format)
	}
}

// FileName returns the download name for an export made at t
func FileName(e Exporter, t time.Time) string {
	return fmt.Sprintf("demystify_%d.%s", t.UnixMilli(), e.Extension())
}

func resultOf(saved *internal.SavedResult) *internal.AnalysisResult {
	if saved == nil || saved.Result == nil {
		return &internal.AnalysisResult{}
	}
	return saved.Result
}
