// Package editlearn detects direct user edits to workflow documents and
// learns the preferences those edits reveal.
package editlearn

import (
	"path/filepath"
	"regexp"
	"strings"
)

// MonitoredPaths are scanned for workflow documents, relative to the project
// root. Directories are scanned one level deep for .md files.
var MonitoredPaths = []string{
	".claude/cache/workflow-state.json",
	".claude/logs/workflows",
	"docs/workflow",
	"workflow",
}

// workflowFileNames match workflow documents anywhere in the tree.
var workflowFileNames = []*regexp.Regexp{
	regexp.MustCompile(`(?i)workflow.*\.md$`),
	regexp.MustCompile(`(?i)phase-?\d+.*\.md$`),
	regexp.MustCompile(`(?i)deliverable.*\.md$`),
	regexp.MustCompile(`(?i)plan\.md$`),
	regexp.MustCompile(`(?i)spec\.md$`),
	regexp.MustCompile(`(?i)requirements\.md$`),
}

// IsWorkflowFile reports whether path, absolute or relative to root, is under
// a monitored path or has a workflow document name.
func IsWorkflowFile(root, path string) bool {
	rel := path
	if filepath.IsAbs(path) {
		if r, err := filepath.Rel(root, path); err == nil {
			rel = r
		}
	}
	rel = filepath.ToSlash(rel)
	for _, mp := range MonitoredPaths {
		if strings.HasPrefix(rel, mp) {
			return true
		}
	}

	name := filepath.Base(path)
	for _, re := range workflowFileNames {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}
