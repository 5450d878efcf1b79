package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "Plan the launch", 50, "Plan the launch"},
		{"collapses whitespace", "Plan\n  the   launch", 50, "Plan the launch"},
		{"long", "abcdefghijklmnopqrstuvwxyz", 10, "abcdefg..."},
		{"runes", "ñññññññññññññ", 6, "ñññ..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.in, tt.max); got != tt.want {
				t.Errorf("truncate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("abc12345-0000"); got != "abc12345" {
		t.Errorf("shortID() = %q, want abc12345", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID() = %q, want abc", got)
	}
}

func TestRelativeTime(t *testing.T) {
	if got := relativeTime(time.Time{}, true); got != "—" {
		t.Errorf("relativeTime(zero) = %q", got)
	}
	if got := relativeTime(time.Now(), false); got != "—" {
		t.Errorf("relativeTime(!ok) = %q", got)
	}
	if got := relativeTime(time.Now().Add(-3*time.Hour), true); !strings.Contains(got, "hours ago") {
		t.Errorf("relativeTime(3h) = %q, want hours ago", got)
	}
}

func TestReadTask(t *testing.T) {
	resetFlags()
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("from stdin\n"))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no args", nil, ""},
		{"joined args", []string{"Plan", "the", "launch"}, "Plan the launch"},
		{"stdin", []string{"-"}, "from stdin\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readTask(cmd, tt.args)
			if err != nil {
				t.Fatalf("readTask() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("readTask() = %q, want %q", got, tt.want)
			}
		})
	}
}
