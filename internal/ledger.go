package internal

import (
	"encoding/json"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	maxActivities   = 5
	activityTaskLen = 50
)

// Activity is one entry of the recent activity list
type Activity struct {
	Task        string `json:"tarea" yaml:"task"`
	Steps       int    `json:"pasos" yaml:"steps"`
	Ambiguities int    `json:"ambiguedades" yaml:"ambiguities"`
	Questions   int    `json:"preguntas" yaml:"questions"`
	Date        string `json:"fecha" yaml:"date"`
}

// Time parses Date. Entries written by other clients may carry a
// free-form date, in which case ok is false.
func (a Activity) Time() (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, a.Date)
	return t, err == nil
}

// UsageLedger is the local usage summary. Field names match the blob kept
// under LedgerKey.
type UsageLedger struct {
	TotalTasks       int        `json:"totalTareas" yaml:"total_tasks"`
	TotalSteps       int        `json:"totalPasos" yaml:"total_steps"`
	AverageSteps     float64    `json:"promedioPasos" yaml:"average_steps"`
	TotalAmbiguities int        `json:"totalAmbiguedades" yaml:"total_ambiguities"`
	TotalQuestions   int        `json:"totalPreguntas" yaml:"total_questions"`
	RecentActivity   []Activity `json:"ultimasActividades" yaml:"recent_activity"`
}

func emptyLedger() UsageLedger {
	return UsageLedger{RecentActivity: []Activity{}}
}

// Ledger records analysis counts in a Store
type Ledger struct {
	store Store
	now   func() time.Time
	mu    sync.Mutex
}

// NewLedger creates a ledger backed by store
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// Record adds one analysis to the ledger and returns the updated totals.
func (l *Ledger) Record(result *AnalysisResult, originalText string) UsageLedger {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := l.loadLocked()

	var steps, ambiguities, questions int
	if result != nil {
		steps = len(result.Steps)
		ambiguities = len(result.Ambiguities)
		questions = len(result.SuggestedQuestions)
	}

	stats.TotalTasks++
	stats.TotalSteps += steps
	stats.TotalAmbiguities += ambiguities
	stats.TotalQuestions += questions
	stats.AverageSteps = float64(stats.TotalSteps) / float64(stats.TotalTasks)

	activity := Activity{
		Task:        TruncateTask(originalText),
		Steps:       steps,
		Ambiguities: ambiguities,
		Questions:   questions,
		Date:        l.now().Format(time.RFC3339),
	}
	stats.RecentActivity = append([]Activity{activity}, stats.RecentActivity...)
	if len(stats.RecentActivity) > maxActivities {
		stats.RecentActivity = stats.RecentActivity[:maxActivities]
	}

	l.saveLocked(stats)
	return stats
}

// Stats returns the persisted ledger, or an empty one.
func (l *Ledger) Stats() UsageLedger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadLocked()
}

// Clear resets the ledger to zero and persists the empty value.
func (l *Ledger) Clear() UsageLedger {
	l.mu.Lock()
	defer l.mu.Unlock()
	stats := emptyLedger()
	l.saveLocked(stats)
	return stats
}

func (l *Ledger) loadLocked() UsageLedger {
	raw, ok, err := l.store.Get(LedgerKey)
	if err != nil {
		LogDebug("failed to read usage ledger: %v", err)
		return emptyLedger()
	}
	if !ok || raw == "" {
		return emptyLedger()
	}

	var stats UsageLedger
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		LogDebug("%v", &ParseError{Source: "ledger", Key: LedgerKey, Err: err})
		return emptyLedger()
	}
	if stats.RecentActivity == nil {
		stats.RecentActivity = []Activity{}
	}
	return stats
}

func (l *Ledger) saveLocked(stats UsageLedger) {
	data, err := json.Marshal(stats)
	if err != nil {
		LogDebug("failed to encode usage ledger: %v", err)
		return
	}
	if err := l.store.Set(LedgerKey, string(data)); err != nil {
		LogDebug("failed to save usage ledger: %v", err)
	}
}

// TruncateTask shortens text to 50 characters, appending "..." when cut.
func TruncateTask(text string) string {
	if utf8.RuneCountInString(text) <= activityTaskLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:activityTaskLen]) + "..."
}
