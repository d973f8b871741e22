package editlearn

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/aurafrog/aura-frog/internal/learning"
)

// Changes is a line-set difference between two versions of a document.
// Lines are trimmed; blank lines are ignored.
type Changes struct {
	Additions []string
	Removals  []string
}

// Empty reports whether nothing was added or removed.
func (c Changes) Empty() bool {
	return len(c.Additions) == 0 && len(c.Removals) == 0
}

// ExtractChanges returns the trimmed lines of newContent missing from
// oldContent, and the reverse. Line order and repetition are ignored.
func ExtractChanges(oldContent, newContent string) Changes {
	oldLines := strings.Split(oldContent, "\n")
	newLines := strings.Split(newContent, "\n")
	oldSet := lineSet(oldLines)
	newSet := lineSet(newLines)

	var c Changes
	for _, line := range newLines {
		if t := strings.TrimSpace(line); t != "" && !oldSet[t] {
			c.Additions = append(c.Additions, t)
		}
	}
	for _, line := range oldLines {
		if t := strings.TrimSpace(line); t != "" && !newSet[t] {
			c.Removals = append(c.Removals, t)
		}
	}
	return c
}

func lineSet(lines []string) map[string]bool {
	set := make(map[string]bool, len(lines))
	for _, l := range lines {
		set[strings.TrimSpace(l)] = true
	}
	return set
}

// EditPattern is a preference inferred from an edit.
type EditPattern struct {
	Type        string
	Category    string
	Rule        string
	Description string
	Evidence    string
}

const (
	verboseLineLength  = 100
	evidenceLength     = 100
	removedExcerptSize = 50
)

var fillerPhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?i)please note`),
	regexp.MustCompile(`(?i)it's important to`),
	regexp.MustCompile(`(?i)make sure to`),
	regexp.MustCompile(`(?i)don't forget to`),
}

// AnalyzeChanges infers preferences from c. One pattern is produced per
// matching line, so repeated evidence raises the pattern frequency.
func AnalyzeChanges(c Changes) []EditPattern {
	var patterns []EditPattern

	for _, line := range c.Additions {
		switch {
		case strings.HasPrefix(line, "#"):
			patterns = append(patterns, EditPattern{
				Type: "structure", Category: "documentation", Rule: "structured_headers",
				Description: "User prefers more structured headers",
				Evidence:    learning.Truncate(line, evidenceLength),
			})
		case strings.HasPrefix(line, "-"), strings.HasPrefix(line, "*"):
			patterns = append(patterns, EditPattern{
				Type: "format", Category: "documentation", Rule: "bullet_points",
				Description: "User prefers bullet point format",
				Evidence:    learning.Truncate(line, evidenceLength),
			})
		case strings.HasPrefix(line, "```"):
			patterns = append(patterns, EditPattern{
				Type: "format", Category: "documentation", Rule: "code_examples",
				Description: "User prefers code examples in documentation",
				Evidence:    "Added code block",
			})
		}
	}

	for _, line := range c.Removals {
		if utf8.RuneCountInString(line) > verboseLineLength {
			patterns = append(patterns, EditPattern{
				Type: "preference", Category: "verbosity", Rule: "concise_content",
				Description: "User prefers concise content (removed verbose text)",
				Evidence:    learning.Truncate(line, removedExcerptSize) + "...",
			})
		}
		for _, re := range fillerPhrases {
			if re.MatchString(line) {
				patterns = append(patterns, EditPattern{
					Type: "preference", Category: "tone", Rule: "direct_language",
					Description: "User prefers direct language (removed filler phrases)",
					Evidence:    learning.Truncate(line, removedExcerptSize),
				})
				break
			}
		}
	}

	if len(c.Removals) > len(c.Additions)*2 {
		patterns = append(patterns, EditPattern{
			Type: "preference", Category: "brevity", Rule: "reduce_content",
			Description: "User significantly reduced content - prefers brevity",
			Evidence:    fmt.Sprintf("Removed %d lines, added %d", len(c.Removals), len(c.Additions)),
		})
	}
	return patterns
}
