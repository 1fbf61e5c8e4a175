// Package config defines process configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and BOARDSYNC_* env vars.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile, when set, receives a copy of every log line.
	LogFile string `koanf:"log_file"`

	// ContestSlug identifies the contest in the leaderboard URL.
	ContestSlug string `koanf:"contest_slug"`

	// BaseURL is the scheme and host of the leaderboard API.
	BaseURL string `koanf:"base_url"`

	// IntervalMinutes is the time between export cycles.
	IntervalMinutes int `koanf:"interval_minutes"`

	// PageSize is the limit requested per page.
	PageSize int `koanf:"page_size"`

	// PageDelayMS is the courtesy pause between page requests.
	PageDelayMS int `koanf:"page_delay_ms"`

	// RequestTimeoutSeconds bounds a single page request.
	RequestTimeoutSeconds int `koanf:"request_timeout_seconds"`

	// OutputFile is the CSV destination.
	OutputFile string `koanf:"output_file"`

	// MetadataFile is the JSON sidecar destination.
	MetadataFile string `koanf:"metadata_file"`

	// UserAgent overrides the browser-like User-Agent header.
	UserAgent string `koanf:"user_agent"`

	// MetricsAddr enables the status server (e.g. ":9090") when non-empty.
	MetricsAddr string `koanf:"metrics_addr"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFile:               "leaderboard_automation.log",
		ContestSlug:           "sliitxtreme-4-final",
		BaseURL:               "https://www.hackerrank.com",
		IntervalMinutes:       15,
		PageSize:              100,
		PageDelayMS:           1000,
		RequestTimeoutSeconds: 15,
		OutputFile:            "leaderboard.csv",
		MetadataFile:          "leaderboard_metadata.json",
		MetricsAddr:           "",
		MaxLeaderboardLimit:   500,
	}
}

// Interval returns the cycle interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// PageDelay returns the pause between page requests.
func (c *Config) PageDelay() time.Duration {
	return time.Duration(c.PageDelayMS) * time.Millisecond
}

// RequestTimeout returns the per-request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.ContestSlug) == "":
		return fmt.Errorf("%w: contest_slug must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.BaseURL) == "":
		return fmt.Errorf("%w: base_url must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.OutputFile) == "":
		return fmt.Errorf("%w: output_file must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.MetadataFile) == "":
		return fmt.Errorf("%w: metadata_file must not be empty", ErrInvalidConfig)
	case filepath.Clean(c.OutputFile) == filepath.Clean(c.MetadataFile):
		return fmt.Errorf("%w: output_file and metadata_file must differ", ErrInvalidConfig)
	case c.IntervalMinutes <= 0:
		return fmt.Errorf("%w: interval_minutes must be positive", ErrInvalidConfig)
	case c.PageSize <= 0:
		return fmt.Errorf("%w: page_size must be positive", ErrInvalidConfig)
	case c.PageDelayMS < 0:
		return fmt.Errorf("%w: page_delay_ms must not be negative", ErrInvalidConfig)
	case c.RequestTimeoutSeconds <= 0:
		return fmt.Errorf("%w: request_timeout_seconds must be positive", ErrInvalidConfig)
	case c.MaxLeaderboardLimit <= 0:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	}
	return nil
}
