// Package config provides configuration loading for the aura-frog hooks.
//
// Configuration is layered: hardcoded defaults, the user config file, the
// project config file, then environment variables exported by the host
// assistant. Hooks are short-lived processes, so the configuration is loaded
// once per invocation and passed explicitly to every component.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config holds the complete hook configuration.
type Config struct {
	Learning  LearningConfig  `koanf:"learning"`
	Backend   BackendConfig   `koanf:"backend"`
	Storage   StorageConfig   `koanf:"storage"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

// LearningConfig holds the feature flags and thresholds of the learning pipeline.
type LearningConfig struct {
	Enabled            bool          `koanf:"enabled"`
	FeedbackCollection bool          `koanf:"feedback_collection"`
	MetricsCollection  bool          `koanf:"metrics_collection"`
	ScrubSecrets       bool          `koanf:"scrub_secrets"`
	MinConfidence      float64       `koanf:"min_confidence"`
	PatternThreshold   int           `koanf:"pattern_threshold"`
	DedupWindow        time.Duration `koanf:"dedup_window"`
	DedupMaxEntries    int           `koanf:"dedup_max_entries"`
}

// BackendConfig holds the remote row-insert backend settings.
// The backend is used only when both URL and Key are set.
type BackendConfig struct {
	URL          string        `koanf:"url"`
	Key          Secret        `koanf:"key"`
	ReadKey      Secret        `koanf:"read_key"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
}

// StorageConfig holds local file store settings.
type StorageConfig struct {
	Dir               string `koanf:"dir"`
	MaxFeedback       int    `koanf:"max_feedback"`
	MaxWorkflowEvents int    `koanf:"max_workflow_events"`
}

// LoggingConfig selects the diagnostic log level and encoding.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig holds OpenTelemetry trace export settings.
type TelemetryConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Endpoint string `koanf:"endpoint"`
	Protocol string `koanf:"protocol"`
	Insecure bool   `koanf:"insecure"`
}

// MetricsConfig holds Prometheus textfile export settings.
type MetricsConfig struct {
	Textfile string `koanf:"textfile"`
}

// Default returns the configuration used when nothing is overridden.
//
// Learning is enabled by default: local mode needs no credentials.
func Default() *Config {
	return &Config{
		Learning: LearningConfig{
			Enabled:            true,
			FeedbackCollection: true,
			MetricsCollection:  true,
			ScrubSecrets:       true,
			MinConfidence:      0.5,
			PatternThreshold:   3,
			DedupWindow:        24 * time.Hour,
			DedupMaxEntries:    100,
		},
		Backend: BackendConfig{
			WriteTimeout: 10 * time.Second,
			ReadTimeout:  5 * time.Second,
		},
		Storage: StorageConfig{
			Dir:               ".claude/cache",
			MaxFeedback:       500,
			MaxWorkflowEvents: 1000,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
		Telemetry: TelemetryConfig{
			Endpoint: "localhost:4317",
			Protocol: "grpc",
			Insecure: true,
		},
	}
}

// LearningEnabled reports whether any learning should happen at all.
func (c *Config) LearningEnabled() bool {
	return c.Learning.Enabled
}

// FeedbackEnabled reports whether user feedback should be classified and stored.
func (c *Config) FeedbackEnabled() bool {
	return c.LearningEnabled() && c.Learning.FeedbackCollection
}

// MetricsEnabled reports whether metric collection is on.
func (c *Config) MetricsEnabled() bool {
	return c.LearningEnabled() && c.Learning.MetricsCollection
}

// BackendConfigured reports whether the remote backend has both URL and key.
// A partially configured backend routes to local mode.
func (c *Config) BackendConfigured() bool {
	return c.Backend.URL != "" && c.Backend.Key.IsSet()
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Learning.MinConfidence < 0 || c.Learning.MinConfidence > 1 {
		return fmt.Errorf("learning.min_confidence must be between 0 and 1, got %v", c.Learning.MinConfidence)
	}
	if c.Learning.PatternThreshold < 1 {
		return fmt.Errorf("learning.pattern_threshold must be positive, got %d", c.Learning.PatternThreshold)
	}
	if c.Learning.DedupWindow <= 0 {
		return errors.New("learning.dedup_window must be positive")
	}
	if c.Learning.DedupMaxEntries < 1 {
		return fmt.Errorf("learning.dedup_max_entries must be positive, got %d", c.Learning.DedupMaxEntries)
	}
	if c.Storage.Dir == "" {
		return errors.New("storage.dir is required")
	}
	if c.Storage.MaxFeedback < 1 || c.Storage.MaxWorkflowEvents < 1 {
		return errors.New("storage limits must be positive")
	}
	if c.Backend.WriteTimeout <= 0 || c.Backend.ReadTimeout <= 0 {
		return errors.New("backend timeouts must be positive")
	}
	if c.Backend.URL != "" {
		u, err := url.Parse(c.Backend.URL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("invalid backend url %q", c.Backend.URL)
		}
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	return nil
}
