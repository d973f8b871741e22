package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every mapped variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for key := range envKeys {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadWithFiles_NoFiles(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := LoadWithFiles(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadWithFiles_ProjectOverridesUser(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	user := writeConfig(t, dir, "user.yaml", `learning:
  pattern_threshold: 5
  dedup_window: 12h
storage:
  max_feedback: 50
`)
	project := writeConfig(t, dir, "project.yaml", `learning:
  pattern_threshold: 4
logging:
  level: DEBUG
`)

	cfg, err := LoadWithFiles(user, project)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Learning.PatternThreshold)
	assert.Equal(t, 12*time.Hour, cfg.Learning.DedupWindow)
	assert.Equal(t, 50, cfg.Storage.MaxFeedback)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Learning.Enabled, "unset keys keep defaults")
}

func TestLoadWithFiles_EnvOverridesFiles(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", `backend:
  url: https://file.example.com
learning:
  feedback_collection: true
`)

	t.Setenv("SUPABASE_URL", "https://env.example.com/")
	t.Setenv("SUPABASE_SECRET_KEY", "secret")
	t.Setenv("AF_FEEDBACK_COLLECTION", "false")
	t.Setenv("AF_CACHE_DIR", "/tmp/af-cache")

	cfg, err := LoadWithFiles(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.Backend.URL)
	assert.Equal(t, "secret", cfg.Backend.Key.Value())
	assert.True(t, cfg.BackendConfigured())
	assert.False(t, cfg.FeedbackEnabled())
	assert.Equal(t, "/tmp/af-cache", cfg.Storage.Dir)
}

func TestLoadWithFiles_LearningDisabledByEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("AF_LEARNING_ENABLED", "false")

	cfg, err := LoadWithFiles()
	require.NoError(t, err)
	assert.False(t, cfg.LearningEnabled())
	assert.False(t, cfg.FeedbackEnabled())
	assert.False(t, cfg.MetricsEnabled())
}

func TestLoadWithFiles_UnmappedEnvIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEARNING_PATTERN_THRESHOLD", "99")

	cfg, err := LoadWithFiles()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Learning.PatternThreshold)
}

func TestLoadWithFiles_InvalidValues(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", "logging:\n  format: xml\n")

	_, err := LoadWithFiles(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestLoadWithFiles_InvalidYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", "learning: [unclosed\n")

	_, err := LoadWithFiles(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config file")
}

func TestLoadWithFiles_TooLarge(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", "# "+strings.Repeat("x", maxConfigFileSize))

	_, err := LoadWithFiles(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestLoadWithFiles_InsecurePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission model differs on windows")
	}
	clearEnv(t)
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", "learning:\n  enabled: true\n")
	require.NoError(t, os.Chmod(path, 0666))

	_, err := LoadWithFiles(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure config file permissions")
}

func TestLoad_UsesProjectFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	project := t.TempDir()
	writeConfig(t, project, ProjectConfigFile, "storage:\n  dir: custom/cache\n")

	cfg, err := Load(project)
	require.NoError(t, err)
	assert.Equal(t, "custom/cache", cfg.Storage.Dir)
}
