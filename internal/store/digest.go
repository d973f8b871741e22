package store

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aurafrog/aura-frog/internal/learning"
)

const (
	digestMaxCorrections = 10
	digestExcerptLength  = 150
	digestMaxExamples    = 3
)

// RenderDigest builds the Markdown summary of stored feedback and patterns
// that is read back into the assistant's context in later sessions.
func RenderDigest(records []learning.FeedbackRecord, patterns []learning.LearnedPattern, now time.Time) string {
	var b strings.Builder

	b.WriteString("# Learned Patterns\n\n")
	fmt.Fprintf(&b, "_Updated: %s_\n\n", now.UTC().Format(time.RFC3339))

	kinds := map[learning.Kind]int{}
	for _, r := range records {
		kinds[r.Kind]++
	}
	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Total Feedback: %d\n", len(records))
	fmt.Fprintf(&b, "- Corrections: %d\n", kinds[learning.KindCorrection])
	fmt.Fprintf(&b, "- Approvals: %d\n", kinds[learning.KindApproval])
	if n := kinds[learning.KindRejection] + kinds[learning.KindModification]; n > 0 {
		fmt.Fprintf(&b, "- Workflow Rejections/Modifications: %d\n", n)
	}
	fmt.Fprintf(&b, "- Learned Patterns: %d\n", len(patterns))

	byCategory := map[string][]learning.FeedbackRecord{}
	for _, r := range records {
		byCategory[r.Category] = append(byCategory[r.Category], r)
	}
	patternsByCategory := map[string][]learning.LearnedPattern{}
	for _, p := range patterns {
		patternsByCategory[p.Category] = append(patternsByCategory[p.Category], p)
	}

	for _, category := range digestCategories(byCategory, patternsByCategory) {
		catRecords := byCategory[category]
		fmt.Fprintf(&b, "\n## %s\n\n", category)
		fmt.Fprintf(&b, "Occurrences: %d\n", len(catRecords))

		if ps := patternsByCategory[category]; len(ps) > 0 {
			sortPatterns(ps)
			b.WriteString("\n### Patterns\n\n")
			for _, p := range ps {
				fmt.Fprintf(&b, "- **%s** (`%s`, frequency: %d)\n", p.Description, p.Rule, p.Frequency)
				for _, ex := range keepLast(p.Evidence, digestMaxExamples) {
					fmt.Fprintf(&b, "  - Example: %s\n", excerpt(ex))
				}
			}
		}

		var corrections []string
		for _, r := range newestFirst(catRecords, 0) {
			if r.Kind != learning.KindCorrection {
				continue
			}
			corrections = append(corrections, excerpt(r.Reason))
			if len(corrections) == digestMaxCorrections {
				break
			}
		}
		if len(corrections) > 0 {
			b.WriteString("\n### Recent Corrections\n\n")
			for _, c := range corrections {
				fmt.Fprintf(&b, "- %s\n", c)
			}
		}
	}

	return b.String()
}

func digestCategories(records map[string][]learning.FeedbackRecord, patterns map[string][]learning.LearnedPattern) []string {
	seen := map[string]bool{}
	var out []string
	for c := range records {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for c := range patterns {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// excerpt flattens s to one line and caps it at 150 characters plus "...".
func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= digestExcerptLength {
		return s
	}
	return learning.Truncate(s, digestExcerptLength) + "..."
}
