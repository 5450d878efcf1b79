package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by LoadConfig
const (
	EnvAPIURL   = "DEMYSTIFY_API_URL"
	EnvDataDir  = "DEMYSTIFY_DATA_DIR"
	EnvTimeout  = "DEMYSTIFY_TIMEOUT"
	EnvPageSize = "DEMYSTIFY_PAGE_SIZE"
)

// Config holds the client configuration
type Config struct {
	APIURL          string        `yaml:"api_url"`
	Timeout         time.Duration `yaml:"timeout"`
	HistoryPageSize int           `yaml:"history_page_size"`
	DownloadDir     string        `yaml:"download_dir,omitempty"`

	// DataDir holds the database, results and config.yaml itself.
	DataDir string `yaml:"-"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		APIURL:          DefaultAPIURL,
		Timeout:         30 * time.Second,
		HistoryPageSize: 10,
		DataDir:         DefaultDataDir(),
	}
}

// DefaultDataDir returns the per-user data directory
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "demystify")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".demystify")
	}
	return ".demystify"
}

// LoadConfig builds the configuration from defaults, <dataDir>/config.yaml
// and the environment, in that order. A .env file in the working directory
// is loaded first and never overrides variables already set. dataDir may be
// empty to use DEMYSTIFY_DATA_DIR or the default.
func LoadConfig(dataDir string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		LogWarn("ignoring .env: %v", err)
	}

	cfg := DefaultConfig()
	switch {
	case dataDir != "":
		cfg.DataDir = dataDir
	case os.Getenv(EnvDataDir) != "":
		cfg.DataDir = os.Getenv(EnvDataDir)
	}

	if err := cfg.loadFile(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile() error {
	data, err := os.ReadFile(c.ConfigPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &StorageError{Path: c.ConfigPath(), Op: "read", Err: err}
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return &ParseError{Source: "config", Key: c.ConfigPath(), Err: err}
	}
	LogDebug("loaded config from %s", c.ConfigPath())
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	if v := os.Getenv(EnvPageSize); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPageSize, err)
		}
		c.HistoryPageSize = n
	}
	return nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("api url cannot be empty")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid api url %q: %w", c.APIURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api url must use http or https, got %q", c.APIURL)
	}
	if u.Host == "" {
		return fmt.Errorf("api url %q has no host", c.APIURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0")
	}
	if c.HistoryPageSize <= 0 {
		return fmt.Errorf("history page size must be > 0")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data dir cannot be empty")
	}
	return nil
}

// Save writes the file-backed settings to config.yaml
func (c *Config) Save() error {
	if err := os.MkdirAll(c.DataDir, 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(c.ConfigPath(), data, 0600)
}

// ConfigPath returns the path of config.yaml
func (c *Config) ConfigPath() string {
	return filepath.Join(c.DataDir, "config.yaml")
}

// DatabasePath returns the path of the local database
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "demystify.db")
}

// ResultsDir returns the directory of saved results
func (c *Config) ResultsDir() string {
	return filepath.Join(c.DataDir, "results")
}
