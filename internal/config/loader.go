package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// ProjectConfigFile is the project-scoped config path, relative to the project root.
	ProjectConfigFile = ".claude/aura-frog.yaml"
)

// envKeys maps the environment variables exported by the host assistant to
// config keys. Variables not listed here are ignored.
var envKeys = map[string]string{
	"AF_LEARNING_ENABLED":         "learning.enabled",
	"AF_FEEDBACK_COLLECTION":      "learning.feedback_collection",
	"AF_METRICS_COLLECTION":       "learning.metrics_collection",
	"AF_SCRUB_SECRETS":            "learning.scrub_secrets",
	"SUPABASE_URL":                "backend.url",
	"SUPABASE_SECRET_KEY":         "backend.key",
	"SUPABASE_PUBLISHABLE_KEY":    "backend.read_key",
	"AF_CACHE_DIR":                "storage.dir",
	"AF_LOG_LEVEL":                "logging.level",
	"AF_LOG_FORMAT":               "logging.format",
	"OTEL_ENABLE":                 "telemetry.enabled",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "telemetry.endpoint",
	"AF_METRICS_TEXTFILE":         "metrics.textfile",
}

// Load loads configuration for the project rooted at projectDir using the
// default user config path.
func Load(projectDir string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return LoadWithFiles(
		filepath.Join(home, ".config", "aura-frog", "config.yaml"),
		filepath.Join(projectDir, ProjectConfigFile),
	)
}

// LoadWithFiles loads configuration from the given YAML files, then overrides
// with environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (SUPABASE_URL, AF_LEARNING_ENABLED, etc.)
//  2. YAML files, later paths overriding earlier ones
//  3. Hardcoded defaults
//
// Missing files are skipped. Files larger than 1MB or writable by group or
// others are rejected.
func LoadWithFiles(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if path == "" {
			continue
		}
		content, err := readConfigFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Empty variables are treated as unset.
	if err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		if value == "" {
			return "", nil
		}
		return envKeys[key], value
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Backend.URL = strings.TrimRight(cfg.Backend.URL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// readConfigFile opens the file once and validates the descriptor to avoid a
// stat/open race.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if err := validateConfigFileProperties(info); err != nil {
		return nil, fmt.Errorf("config file %s validation failed: %w", path, err)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// validateConfigFileProperties checks file permissions and size.
func validateConfigFileProperties(info os.FileInfo) error {
	if info.IsDir() {
		return fmt.Errorf("config path is a directory")
	}
	// Skip on Windows (different permission model)
	if runtime.GOOS != "windows" {
		if perm := info.Mode().Perm(); perm&0022 != 0 {
			return fmt.Errorf("insecure config file permissions: %v (must not be group or world writable)", perm)
		}
	}
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return nil
}
