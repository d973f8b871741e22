package store

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aurafrog/aura-frog/internal/learning"
)

func TestRenderDigest(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	long := strings.Repeat("x", 200)

	records := []learning.FeedbackRecord{
		{Kind: learning.KindCorrection, Category: "code_style", Reason: "no, use const"},
		{Kind: learning.KindApproval, Category: "general", Reason: "great, that is exactly it"},
		{Kind: learning.KindCorrection, Category: "code_style", Reason: long},
	}
	patterns := []learning.LearnedPattern{
		{Category: "code_style", Rule: "prefer_const", Description: "Use const for values that are never reassigned", Frequency: 3, Evidence: []string{"no, use const"}},
	}

	doc := RenderDigest(records, patterns, now)

	assert.Contains(t, doc, "# Learned Patterns")
	assert.Contains(t, doc, "- Total Feedback: 3")
	assert.Contains(t, doc, "- Corrections: 2")
	assert.Contains(t, doc, "- Approvals: 1")
	assert.Contains(t, doc, "- Learned Patterns: 1")
	assert.Contains(t, doc, "## code_style\n\nOccurrences: 2")
	assert.Contains(t, doc, "## general\n\nOccurrences: 1")
	assert.Contains(t, doc, "- **Use const for values that are never reassigned** (`prefer_const`, frequency: 3)")
	assert.Contains(t, doc, "- "+strings.Repeat("x", 150)+"...\n")
	assert.NotContains(t, doc, strings.Repeat("x", 151))

	// newest correction is listed first
	assert.Less(t, strings.Index(doc, strings.Repeat("x", 150)), strings.LastIndex(doc, "- no, use const"))
	// approvals are counted but not listed as corrections
	assert.NotContains(t, doc, "- great, that is exactly it")
}

func TestRenderDigest_CapsCorrections(t *testing.T) {
	var records []learning.FeedbackRecord
	for i := 0; i < 15; i++ {
		records = append(records, learning.FeedbackRecord{
			Kind: learning.KindCorrection, Category: "testing", Reason: "fix " + string(rune('a'+i)),
		})
	}

	doc := RenderDigest(records, nil, time.Now())

	assert.Equal(t, digestMaxCorrections, strings.Count(doc, "\n- fix "))
	assert.Contains(t, doc, "- fix o")
	assert.NotContains(t, doc, "- fix e\n")
}

func TestRenderDigest_Empty(t *testing.T) {
	doc := RenderDigest(nil, nil, time.Now())
	assert.Contains(t, doc, "Total Feedback: 0")
	assert.NotContains(t, doc, "Occurrences")
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "a b", excerpt("a\n  b"))
	assert.Equal(t, strings.Repeat("é", 150), excerpt(strings.Repeat("é", 150)))
	assert.Equal(t, strings.Repeat("é", 150)+"...", excerpt(strings.Repeat("é", 151)))
}
