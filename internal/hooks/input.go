package hooks

import (
	"os"
	"strings"

	"github.com/aurafrog/aura-frog/internal/learning"
)

// Host environment variables.
const (
	EnvUserInput   = "CLAUDE_USER_INPUT"
	EnvToolName    = "CLAUDE_TOOL_NAME"
	EnvToolInput   = "CLAUDE_TOOL_INPUT"
	EnvToolResult  = "CLAUDE_TOOL_RESULT"
	EnvFilePaths   = "CLAUDE_FILE_PATHS"
	EnvSessionID   = "AF_SESSION_ID"
	EnvWorkflowID  = "AF_WORKFLOW_ID"
	EnvProjectName = "PROJECT_NAME"
	EnvAFProject   = "AF_PROJECT_NAME"
	EnvAgent       = "AF_CURRENT_AGENT"
)

// Input is the payload of one hook invocation.
type Input struct {
	Prompt      string
	ToolName    string
	ToolInput   string
	ToolResult  string
	FilePaths   []string
	SessionID   string
	WorkflowID  string
	ProjectName string
	Agent       string
}

// InputFromEnv reads the hook payload through getenv. A nil getenv reads the
// process environment.
func InputFromEnv(getenv func(string) string) *Input {
	if getenv == nil {
		getenv = os.Getenv
	}
	project := getenv(EnvProjectName)
	if project == "" {
		project = getenv(EnvAFProject)
	}
	return &Input{
		Prompt:      getenv(EnvUserInput),
		ToolName:    getenv(EnvToolName),
		ToolInput:   getenv(EnvToolInput),
		ToolResult:  getenv(EnvToolResult),
		FilePaths:   splitPaths(getenv(EnvFilePaths)),
		SessionID:   getenv(EnvSessionID),
		WorkflowID:  getenv(EnvWorkflowID),
		ProjectName: project,
		Agent:       getenv(EnvAgent),
	}
}

// Message converts the input into a learning message.
func (in *Input) Message() learning.Message {
	return learning.Message{
		Text:        in.Prompt,
		SessionID:   in.SessionID,
		WorkflowID:  in.WorkflowID,
		ProjectName: in.ProjectName,
		Agent:       in.Agent,
	}
}

// FilePath returns the first file path, or "".
func (in *Input) FilePath() string {
	if len(in.FilePaths) == 0 {
		return ""
	}
	return in.FilePaths[0]
}

// splitPaths splits a newline or comma separated list.
func splitPaths(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == ',' })
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
