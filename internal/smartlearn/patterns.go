// Package smartlearn learns from tool actions that succeeded without user
// feedback: code written in a consistent style and bash commands run often.
package smartlearn

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aurafrog/aura-frog/internal/learning"
)

// CodePattern is a style trait detected in written code.
type CodePattern struct {
	Type    string `json:"type"`
	Pattern string `json:"pattern"`
	Weight  int    `json:"weight"`
}

// Key returns the "type:pattern" counter key.
func (p CodePattern) Key() string {
	return p.Type + ":" + p.Pattern
}

var (
	arrowFunction   = regexp.MustCompile(`=>\s*\{`)
	regularFunction = regexp.MustCompile(`function\s+\w+`)
	constDecl       = regexp.MustCompile(`\bconst\s+`)
	letDecl         = regexp.MustCompile(`\blet\s+`)
	asyncKeyword    = regexp.MustCompile(`\basync\b`)
	tsAnnotation    = regexp.MustCompile(`:\s*(?:string|number|boolean|Array|object|any)`)
	tryBlock        = regexp.MustCompile(`\btry\s*\{`)
	pyReturnHint    = regexp.MustCompile(`->\s*\w+`)
	pyAsyncDef      = regexp.MustCompile(`\basync\s+def\b`)
)

const (
	minTSAnnotations = 5
	minPyTypeHints   = 2
)

// DetectCodePatterns returns the style traits of content, based on the
// extension of filePath. Unknown extensions yield nothing.
func DetectCodePatterns(content, filePath string) []CodePattern {
	var patterns []CodePattern
	ext := strings.ToLower(filepath.Ext(filePath))
	count := func(re *regexp.Regexp) int { return len(re.FindAllStringIndex(content, -1)) }

	switch ext {
	case ".ts", ".tsx", ".js", ".jsx":
		if arrows := count(arrowFunction); arrows > count(regularFunction) {
			patterns = append(patterns, CodePattern{"style", "arrow_functions", arrows})
		}
		if consts := count(constDecl); consts > count(letDecl)*2 {
			patterns = append(patterns, CodePattern{"style", "prefer_const", consts})
		}
		if n := count(asyncKeyword); n > 0 {
			patterns = append(patterns, CodePattern{"style", "async_await", n})
		}
		if ext == ".ts" || ext == ".tsx" {
			if n := count(tsAnnotation); n > minTSAnnotations {
				patterns = append(patterns, CodePattern{"typing", "explicit_types", n})
			}
		}
		if strings.Contains(content, "useState") || strings.Contains(content, "useEffect") {
			patterns = append(patterns, CodePattern{"framework", "react_hooks", 1})
		}
		if n := count(tryBlock); n > 0 {
			patterns = append(patterns, CodePattern{"quality", "error_handling", n})
		}

	case ".py":
		if n := count(pyReturnHint); n > minPyTypeHints {
			patterns = append(patterns, CodePattern{"typing", "python_type_hints", n})
		}
		if n := count(pyAsyncDef); n > 0 {
			patterns = append(patterns, CodePattern{"style", "python_async", n})
		}
	}
	return patterns
}

// BashPattern is a normalized shell command.
type BashPattern struct {
	Base     string `json:"base"`
	Pattern  string `json:"pattern"`
	HasPipe  bool   `json:"has_pipe"`
	HasChain bool   `json:"has_chain"`
}

const maxBashPatternLength = 100

var (
	quotedString = regexp.MustCompile(`["'][^"']*["']`)
	digits       = regexp.MustCompile(`\d+`)
	whitespace   = regexp.MustCompile(`\s+`)
	separators   = regexp.MustCompile(`[|;&]`)
)

// ExtractBashPattern normalizes command: quoted strings become "", digit runs
// become N and whitespace collapses. It returns nil for an empty command.
func ExtractBashPattern(command string) *BashPattern {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return nil
	}
	normalized := quotedString.ReplaceAllString(trimmed, `""`)
	normalized = digits.ReplaceAllString(normalized, "N")
	normalized = whitespace.ReplaceAllString(normalized, " ")

	first := strings.TrimSpace(separators.Split(normalized, 2)[0])
	base, _, _ := strings.Cut(first, " ")

	return &BashPattern{
		Base:     base,
		Pattern:  learning.Truncate(normalized, maxBashPatternLength),
		HasPipe:  strings.Contains(command, "|"),
		HasChain: strings.Contains(command, "&&") || strings.Contains(command, ";"),
	}
}

// ignoredPrefixes are navigation and inspection commands not worth learning.
var ignoredPrefixes = []string{"cd ", "ls", "echo", "cat"}

// IsIgnoredCommand reports whether command is too trivial to track.
func IsIgnoredCommand(command string) bool {
	for _, p := range ignoredPrefixes {
		if strings.HasPrefix(command, p) {
			return true
		}
	}
	return false
}

// failureMarkers in a tool result mean the action did not succeed.
var failureMarkers = []string{"Error:", "error:", "FAILED", "failed"}

// IsToolFailure reports whether a tool result indicates failure.
func IsToolFailure(result string) bool {
	for _, m := range failureMarkers {
		if strings.Contains(result, m) {
			return true
		}
	}
	return false
}
