package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurafrog/aura-frog/internal/jsonfile"
	"github.com/aurafrog/aura-frog/internal/learning"
	"github.com/aurafrog/aura-frog/internal/store"
)

var hostEnv = []string{
	"AF_LEARNING_ENABLED", "AF_FEEDBACK_COLLECTION", "AF_METRICS_COLLECTION",
	"SUPABASE_URL", "SUPABASE_SECRET_KEY", "SUPABASE_PUBLISHABLE_KEY",
	"AF_CACHE_DIR", "AF_METRICS_TEXTFILE", "OTEL_ENABLE",
	"CLAUDE_USER_INPUT", "CLAUDE_TOOL_NAME", "CLAUDE_TOOL_INPUT", "CLAUDE_TOOL_RESULT",
	"CLAUDE_FILE_PATHS", "AF_SESSION_ID", "AF_WORKFLOW_ID", "PROJECT_NAME",
	"AF_PROJECT_NAME", "AF_CURRENT_AGENT",
}

// newProject isolates the command from the host environment and returns a
// fresh project dir.
func newProject(t *testing.T) string {
	t.Helper()
	for _, k := range hostEnv {
		t.Setenv(k, "")
	}
	t.Setenv("HOME", t.TempDir())
	return t.TempDir()
}

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--project-dir", dir}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func readFeedback(t *testing.T, dir string) []learning.FeedbackRecord {
	t.Helper()
	var records []learning.FeedbackRecord
	require.NoError(t, jsonfile.Read(filepath.Join(dir, ".claude/cache", store.FeedbackFile), &records))
	return records
}

func TestPrompt_CapturesCorrection(t *testing.T) {
	dir := newProject(t)
	t.Setenv("CLAUDE_USER_INPUT", "no, that's wrong, please use const instead")
	t.Setenv("AF_SESSION_ID", "s1")

	out, err := run(t, dir, "prompt")
	require.NoError(t, err)
	assert.Contains(t, out, "🧠 Learning: Captured correction")

	records := readFeedback(t, dir)
	require.Len(t, records, 1)
	assert.Equal(t, "s1", records[0].SessionID)
	assert.FileExists(t, filepath.Join(dir, ".claude/cache", store.DigestFile))
}

func TestPrompt_ProjectNameFromDetection(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want string
	}{
		{"detected from package.json", "", "shop"},
		{"environment wins", "storefront", "storefront"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := newProject(t)
			require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name":"@acme/shop"}`), 0o644))
			t.Setenv("PROJECT_NAME", tt.env)
			t.Setenv("CLAUDE_USER_INPUT", "no, that's wrong, please use const instead")

			_, err := run(t, dir, "prompt")
			require.NoError(t, err)

			records := readFeedback(t, dir)
			require.Len(t, records, 1)
			assert.Equal(t, tt.want, records[0].ProjectName)
		})
	}
}

func TestPrompt_DisabledIsSilent(t *testing.T) {
	dir := newProject(t)
	t.Setenv("AF_LEARNING_ENABLED", "false")
	t.Setenv("CLAUDE_USER_INPUT", "no, that's wrong, please use const instead")

	out, err := run(t, dir, "prompt")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoFileExists(t, filepath.Join(dir, ".claude/cache", store.FeedbackFile))
}

func TestHook_BadConfigStillExitsZero(t *testing.T) {
	dir := newProject(t)
	t.Setenv("AF_LEARNING_ENABLED", "maybe")

	_, err := run(t, dir, "prompt")
	assert.NoError(t, err)
}

func TestPostTool_BashPattern(t *testing.T) {
	dir := newProject(t)
	t.Setenv("CLAUDE_TOOL_NAME", "Bash")
	t.Setenv("CLAUDE_TOOL_RESULT", "ok")

	var last string
	for i := 0; i < 6; i++ {
		t.Setenv("CLAUDE_TOOL_INPUT", "git status")
		out, err := run(t, dir, "post-tool")
		require.NoError(t, err)
		last = out
	}
	assert.Contains(t, last, `🧠 Smart Learn: Bash pattern! "git" is frequently used`)
}

func TestPostTool_IgnoresFailures(t *testing.T) {
	dir := newProject(t)
	t.Setenv("CLAUDE_TOOL_NAME", "Bash")
	t.Setenv("CLAUDE_TOOL_INPUT", "go test ./...")
	t.Setenv("CLAUDE_TOOL_RESULT", "FAILED")

	_, err := run(t, dir, "post-tool")
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(dir, ".claude/cache", "smart-learn-cache.json"))
}

func TestWorkflowEvent(t *testing.T) {
	dir := newProject(t)

	out, err := run(t, dir, "workflow-event", "rejected", "2", "wf-9", "too verbose")
	require.NoError(t, err)
	assert.Equal(t, "Recorded REJECTED for phase 2 (wf-9)\n", out)

	records := readFeedback(t, dir)
	require.Len(t, records, 1)
	assert.Equal(t, learning.KindRejection, records[0].Kind)
	assert.Equal(t, "too verbose", records[0].Reason)
}

func TestWorkflowEvent_ProjectNameFromDetection(t *testing.T) {
	dir := newProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name":"@acme/shop"}`), 0o644))

	_, err := run(t, dir, "workflow-event", "rejected", "2", "wf-9", "too verbose")
	require.NoError(t, err)

	records := readFeedback(t, dir)
	require.Len(t, records, 1)
	assert.Equal(t, "shop", records[0].ProjectName)
}

func TestWorkflowEvent_ActiveWorkflowFallback(t *testing.T) {
	dir := newProject(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".claude"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".claude", "active-workflow.txt"), []byte("wf-active\n"), 0o644))

	out, err := run(t, dir, "workflow-event", "APPROVED", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "(wf-active)")
}

func TestWorkflowEvent_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing args", []string{"workflow-event", "APPROVED"}},
		{"invalid type", []string{"workflow-event", "MAYBE", "1", "wf-1"}},
		{"no workflow id", []string{"workflow-event", "APPROVED", "1"}},
		{"bad attempt", []string{"workflow-event", "APPROVED", "1", "wf-1", "", "zero"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := newProject(t)
			_, err := run(t, dir, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestMemoryAndSessionStart(t *testing.T) {
	dir := newProject(t)

	out, err := run(t, dir, "memory")
	require.NoError(t, err)
	assert.Contains(t, out, "Memory not loaded")

	_, err = run(t, dir, "workflow-event", "REJECTED", "3", "wf-2", "needs tests")
	require.NoError(t, err)

	out, err = run(t, dir, "session-start")
	require.NoError(t, err)
	assert.Contains(t, out, "🧠 Memory: Loaded")

	out, err = run(t, dir, "memory")
	require.NoError(t, err)
	assert.Contains(t, out, "from cache")

	out, err = run(t, dir, "memory", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "from store")

	assert.FileExists(t, filepath.Join(dir, ".claude/project-contexts", filepath.Base(dir), "project-detection.json"))
}

func TestStatusJSON(t *testing.T) {
	dir := newProject(t)
	_, err := run(t, dir, "workflow-event", "MODIFIED", "1", "wf-3")
	require.NoError(t, err)

	out, err := run(t, dir, "status", "--json")
	require.NoError(t, err)

	var st learning.Status
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.True(t, st.Enabled)
	assert.Equal(t, learning.ModeLocal, st.Mode)
	assert.Equal(t, 1, st.FeedbackCount)
}

func TestMetricsTextfile(t *testing.T) {
	dir := newProject(t)
	path := filepath.Join(t.TempDir(), "afhook.prom")
	t.Setenv("AF_METRICS_TEXTFILE", path)

	_, err := run(t, dir, "workflow-event", "APPROVED", "1", "wf-4")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `aura_frog_workflow_events_total{type="APPROVED"} 1`))
}
