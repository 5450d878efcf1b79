package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	cacheVersion    = "1.0"
	maxSavedResults = 50
)

// Result sources
const (
	SourceAnalysis = "analysis"
	SourceHistory  = "history"
)

// SavedResult is an analysis kept on disk for later show, export or share
type SavedResult struct {
	ID        string          `json:"id" yaml:"id"`
	Task      string          `json:"task" yaml:"task"`
	Result    *AnalysisResult `json:"result" yaml:"result"`
	CreatedAt time.Time       `json:"created_at" yaml:"created_at"`
	Source    string          `json:"source" yaml:"source"`
	HistoryID int             `json:"history_id,omitempty" yaml:"history_id,omitempty"`
}

// CacheMetadata stores metadata about the cache
type CacheMetadata struct {
	CacheVersion string    `yaml:"cache_version"`
	CreatedAt    time.Time `yaml:"created_at"`
	UpdatedAt    time.Time `yaml:"updated_at"`
}

// ResultIndexEntry represents a saved result in the index
type ResultIndexEntry struct {
	ID          string    `yaml:"id"`
	Task        string    `yaml:"task"`
	Source      string    `yaml:"source"`
	CreatedAt   time.Time `yaml:"created_at"`
	Steps       int       `yaml:"steps"`
	Ambiguities int       `yaml:"ambiguities"`
	Questions   int       `yaml:"questions"`
}

// ResultIndex is the YAML index of saved results, most recent first
type ResultIndex struct {
	Results  []ResultIndexEntry `yaml:"results"`
	Metadata CacheMetadata      `yaml:"metadata"`
}

// ResultCache keeps analysis results as JSON files plus a YAML index
type ResultCache struct {
	cacheDir string
	now      func() time.Time
}

// NewResultCache creates a cache rooted at cacheDir
func NewResultCache(cacheDir string) *ResultCache {
	return &ResultCache{
		cacheDir: cacheDir,
		now:      time.Now,
	}
}

// EnsureCacheDir ensures the cache directory exists
func (rc *ResultCache) EnsureCacheDir() error {
	return os.MkdirAll(rc.cacheDir, 0755)
}

// GetCacheDir returns the cache directory path
func (rc *ResultCache) GetCacheDir() string {
	return rc.cacheDir
}

// GetIndexPath returns the path to the result index YAML file
func (rc *ResultCache) GetIndexPath() string {
	return filepath.Join(rc.cacheDir, "results.yaml")
}

// GetResultPath returns the path to a result's file
func (rc *ResultCache) GetResultPath(id string) string {
	return filepath.Join(rc.cacheDir, fmt.Sprintf("result_%s.json", id))
}

// LoadIndex loads the result index. A missing index is an empty one.
func (rc *ResultCache) LoadIndex() (*ResultIndex, error) {
	data, err := os.ReadFile(rc.GetIndexPath())
	if errors.Is(err, os.ErrNotExist) {
		now := rc.now()
		return &ResultIndex{
			Results:  []ResultIndexEntry{},
			Metadata: CacheMetadata{CacheVersion: cacheVersion, CreatedAt: now, UpdatedAt: now},
		}, nil
	}
	if err != nil {
		return nil, &StorageError{Path: rc.GetIndexPath(), Op: "read", Err: err}
	}

	var index ResultIndex
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, &ParseError{Source: "results", Key: rc.GetIndexPath(), Err: err}
	}
	return &index, nil
}

// SaveIndex saves the result index
func (rc *ResultCache) SaveIndex(index *ResultIndex) error {
	if err := rc.EnsureCacheDir(); err != nil {
		return err
	}

	data, err := yaml.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	return os.WriteFile(rc.GetIndexPath(), data, 0644)
}

// Save stores result and returns its saved form. Only the newest 50
// results are kept.
func (rc *ResultCache) Save(task string, result *AnalysisResult, source string) (*SavedResult, error) {
	saved := &SavedResult{
		ID:        uuid.NewString(),
		Task:      task,
		Result:    result,
		CreatedAt: rc.now().UTC(),
		Source:    source,
	}
	if err := rc.Put(saved); err != nil {
		return nil, err
	}
	return saved, nil
}

// Put writes saved and records it at the head of the index
func (rc *ResultCache) Put(saved *SavedResult) error {
	if err := rc.EnsureCacheDir(); err != nil {
		return err
	}
	if saved.Result == nil {
		saved.Result = &AnalysisResult{}
	}

	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := os.WriteFile(rc.GetResultPath(saved.ID), data, 0644); err != nil {
		return &StorageError{Path: rc.GetResultPath(saved.ID), Op: "write", Err: err}
	}

	index, err := rc.LoadIndex()
	if err != nil {
		return err
	}

	entries := make([]ResultIndexEntry, 0, len(index.Results)+1)
	entries = append(entries, indexEntry(saved))
	for _, e := range index.Results {
		if e.ID != saved.ID {
			entries = append(entries, e)
		}
	}
	if len(entries) > maxSavedResults {
		for _, stale := range entries[maxSavedResults:] {
			_ = os.Remove(rc.GetResultPath(stale.ID))
		}
		entries = entries[:maxSavedResults]
	}

	index.Results = entries
	index.Metadata.UpdatedAt = rc.now()
	return rc.SaveIndex(index)
}

func indexEntry(s *SavedResult) ResultIndexEntry {
	return ResultIndexEntry{
		ID:          s.ID,
		Task:        TruncateTask(s.Task),
		Source:      s.Source,
		CreatedAt:   s.CreatedAt,
		Steps:       len(s.Result.Steps),
		Ambiguities: len(s.Result.Ambiguities),
		Questions:   len(s.Result.SuggestedQuestions),
	}
}

// Load reads a saved result. id may be any unambiguous prefix; an empty id
// selects the most recent result.
func (rc *ResultCache) Load(id string) (*SavedResult, error) {
	fullID, err := rc.Resolve(id)
	if err != nil {
		return nil, err
	}

	path := rc.GetResultPath(fullID)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "read", Err: err}
	}

	var saved SavedResult
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, &ParseError{Source: "results", Key: path, Err: err}
	}
	return &saved, nil
}

// Latest returns the most recent saved result
func (rc *ResultCache) Latest() (*SavedResult, error) {
	return rc.Load("")
}

// Resolve expands an id prefix to a full id
func (rc *ResultCache) Resolve(id string) (string, error) {
	index, err := rc.LoadIndex()
	if err != nil {
		return "", err
	}
	if len(index.Results) == 0 {
		return "", ErrNoResult
	}
	if id == "" {
		return index.Results[0].ID, nil
	}

	var matches []string
	for _, e := range index.Results {
		if e.ID == id {
			return id, nil
		}
		if strings.HasPrefix(e.ID, id) {
			matches = append(matches, e.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNoResult, id)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("result id %q is ambiguous (%d matches)", id, len(matches))
	}
}

// List returns the index entries, most recent first
func (rc *ResultCache) List() ([]ResultIndexEntry, error) {
	index, err := rc.LoadIndex()
	if err != nil {
		return nil, err
	}
	return index.Results, nil
}

// Delete removes one saved result
func (rc *ResultCache) Delete(id string) error {
	fullID, err := rc.Resolve(id)
	if err != nil {
		return err
	}
	index, err := rc.LoadIndex()
	if err != nil {
		return err
	}

	kept := index.Results[:0]
	for _, e := range index.Results {
		if e.ID != fullID {
			kept = append(kept, e)
		}
	}
	index.Results = kept
	index.Metadata.UpdatedAt = rc.now()

	if err := os.Remove(rc.GetResultPath(fullID)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return rc.SaveIndex(index)
}

// ClearCache clears the cache
func (rc *ResultCache) ClearCache() error {
	index, err := rc.LoadIndex()
	if err == nil {
		for _, entry := range index.Results {
			_ = os.Remove(rc.GetResultPath(entry.ID))
		}
	}

	if err := os.Remove(rc.GetIndexPath()); err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}
