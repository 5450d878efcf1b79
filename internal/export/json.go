package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/demystify/internal"
)

// JSONExporter exports results in JSON format (pretty-printed)
type JSONExporter struct{}

// Export exports a result to JSON format
func (e *JSONExporter) Export(result *internal.SavedResult, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(result)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
