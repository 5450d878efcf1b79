package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/iksnae/demystify/internal"
)

func TestListCommand(t *testing.T) {
	env := newCLIEnv(t)

	out, _, err := env.run(t, "", "list")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if !bytes.Contains([]byte(out), []byte("No saved results")) {
		t.Errorf("list output = %q, want empty notice", out)
	}

	env.seedResult(t, "abc12345-0000-4000-8000-000000000001")
	out, _, err = env.run(t, "", "list")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	for _, want := range []string{"abc12345", "Prepare the quarterly report", "analysis"} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Errorf("list output missing %q", want)
		}
	}
}

func TestListCommand_ClearCache(t *testing.T) {
	env := newCLIEnv(t)
	env.seedResult(t, "abc12345-0000-4000-8000-000000000001")

	out, _, err := env.run(t, "", "list", "--clear-cache")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if !bytes.Contains([]byte(out), []byte("No saved results")) {
		t.Errorf("list --clear-cache output = %q, want empty notice", out)
	}
}

func TestDisplayResults(t *testing.T) {
	tests := []struct {
		name    string
		entries []internal.ResultIndexEntry
		want    string
	}{
		{
			name:    "empty",
			entries: []internal.ResultIndexEntry{},
			want:    "No saved results",
		},
		{
			name: "long task is truncated",
			entries: []internal.ResultIndexEntry{
				{
					ID:        "def67890-0000-4000-8000-000000000002",
					Task:      "This is a very long task description that should be truncated when displayed in the list",
					Source:    internal.SourceHistory,
					CreatedAt: time.Now().Add(-2 * time.Hour),
					Steps:     4,
				},
			},
			want: "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			displayResults(&buf, tt.entries)
			if !bytes.Contains(buf.Bytes(), []byte(tt.want)) {
				t.Errorf("displayResults() output = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}
