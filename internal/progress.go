package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

var spinnerChars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Notifier shows keyed status lines. While a key is pending, a new message
// for the same key replaces the previous one instead of stacking; a final
// Success or Fail replaces it with a definitive line. On a terminal the line
// is redrawn in place, otherwise each distinct message is written once.
type Notifier struct {
	mu      sync.Mutex
	w       io.Writer
	tty     bool
	key     string
	message string
	frame   int
}

// NewNotifier writes notifications to w
func NewNotifier(w io.Writer) *Notifier {
	return &Notifier{w: w, tty: isTerminal(w)}
}

// Update shows a pending message under key.
func (n *Notifier) Update(key, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.key == key && n.message == message {
		return
	}
	n.key = key
	n.message = message
	n.renderLocked()
}

// Success replaces the pending message under key with a success line.
func (n *Notifier) Success(key, message string) {
	n.finish(key, successStyle.Render("✓"), message)
}

// Fail replaces the pending message under key with a failure line.
func (n *Notifier) Fail(key, message string) {
	n.finish(key, errorStyle.Render("✗"), message)
}

// Warn writes a standalone warning line without touching the pending key.
func (n *Notifier) Warn(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.tty {
		if n.key != "" {
			fmt.Fprint(n.w, "\r\033[K")
		}
		fmt.Fprintf(n.w, "%s %s\n", warningStyle.Render("⚠"), message)
		if n.key != "" {
			n.renderLocked()
		}
		return
	}
	fmt.Fprintf(n.w, "WARNING: %s\n", message)
}

// Dismiss removes the pending message under key without a replacement.
func (n *Notifier) Dismiss(key string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.key != key {
		return
	}
	if n.tty {
		fmt.Fprint(n.w, "\r\033[K")
	}
	n.key, n.message = "", ""
}

// Pending returns the key and message currently shown, if any.
func (n *Notifier) Pending() (key, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.key, n.message
}

// RetryObserver reports analysis retries under key.
func (n *Notifier) RetryObserver(key string) RetryObserver {
	return RetryObserverFunc(func(e RetryEvent) {
		n.Update(key, fmt.Sprintf("Retrying... (%d/%d)", e.Attempt, e.MaxRetries))
	})
}

// Spin animates the pending line until the returned function is called.
func (n *Notifier) Spin(ctx context.Context) (stop func()) {
	if !n.tty {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n.mu.Lock()
				if n.key != "" {
					n.frame++
					n.renderLocked()
				}
				n.mu.Unlock()
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

func (n *Notifier) finish(key, icon, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.tty {
		if n.key == key {
			fmt.Fprint(n.w, "\r\033[K")
		}
		fmt.Fprintf(n.w, "%s %s\n", icon, message)
	} else {
		fmt.Fprintf(n.w, "%s\n", message)
	}
	if n.key == key {
		n.key, n.message = "", ""
	}
}

func (n *Notifier) renderLocked() {
	if n.tty {
		char := spinnerChars[n.frame%len(spinnerChars)]
		fmt.Fprintf(n.w, "\r\033[K%s %s", progressStyle.Render(char), n.message)
		return
	}
	fmt.Fprintf(n.w, "%s\n", n.message)
}

// ShowProgress runs fn while a spinner shows message on stderr
func ShowProgress(ctx context.Context, message string, fn func() error) error {
	return ShowProgressWith(ctx, NewNotifier(os.Stderr), "progress", message, fn)
}

// ShowProgressWith runs fn under key on n. fn may update the same key, for
// instance through n.RetryObserver(key).
func ShowProgressWith(ctx context.Context, n *Notifier, key, message string, fn func() error) error {
	n.Update(key, message)
	stop := n.Spin(ctx)

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		stop()
		if err != nil {
			n.Fail(key, fmt.Sprintf("%s: %v", message, err))
			return err
		}
		n.Success(key, message)
		return nil
	case <-ctx.Done():
		stop()
		n.Dismiss(key)
		return ctx.Err()
	}
}

// isTerminal checks if the writer is a terminal
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}
