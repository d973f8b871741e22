package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurafrog/aura-frog/internal/config"
	"github.com/aurafrog/aura-frog/internal/jsonfile"
	"github.com/aurafrog/aura-frog/internal/learning"
	"github.com/aurafrog/aura-frog/internal/metrics"
)

func newTestLocal(t *testing.T) (*LocalStore, *metrics.Metrics) {
	t.Helper()
	cfg := config.Default().Storage
	cfg.Dir = t.TempDir()
	m := metrics.New()
	return NewLocalStore(cfg, nil, m), m
}

func TestLocalStore_AppendFeedbackWritesDigest(t *testing.T) {
	s, m := newTestLocal(t)
	ctx := context.Background()

	rec := &learning.FeedbackRecord{
		Kind:     learning.KindCorrection,
		Reason:   "no, that's wrong, please use const instead",
		Rating:   3,
		Category: learning.CategoryCodeStyle,
		Rule:     "prefer_const",
	}
	require.NoError(t, s.AppendFeedback(ctx, rec))
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	var stored []learning.FeedbackRecord
	require.NoError(t, jsonfile.Read(filepath.Join(s.Dir(), FeedbackFile), &stored))
	require.Len(t, stored, 1)
	assert.Equal(t, rec.ID, stored[0].ID)

	digest, err := os.ReadFile(filepath.Join(s.Dir(), DigestFile))
	require.NoError(t, err)
	assert.Contains(t, string(digest), "Total Feedback: 1")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues(opAppendFeedback, "local", "success")))
}

func TestLocalStore_FeedbackRetention(t *testing.T) {
	cfg := config.StorageConfig{Dir: t.TempDir(), MaxFeedback: 3, MaxWorkflowEvents: 2}
	s := NewLocalStore(cfg, nil, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.AppendFeedback(ctx, &learning.FeedbackRecord{Reason: fmt.Sprintf("r%d", i)}))
		require.NoError(t, s.AppendWorkflowEvent(ctx, &learning.WorkflowEvent{WorkflowID: "wf", Phase: fmt.Sprint(i)}))
	}

	recent, err := s.RecentFeedback(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "r4", recent[0].Reason)
	assert.Equal(t, "r2", recent[2].Reason)

	limited, err := s.RecentFeedback(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	events, err := s.WorkflowEvents()
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "3", events[0].Phase)
	assert.Equal(t, "4", events[1].Phase)
}

func TestLocalStore_WorkflowEventSkipsDigest(t *testing.T) {
	s, _ := newTestLocal(t)
	require.NoError(t, s.AppendWorkflowEvent(context.Background(), &learning.WorkflowEvent{WorkflowID: "wf"}))

	_, err := os.Stat(filepath.Join(s.Dir(), DigestFile))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLocalStore_UpsertPattern(t *testing.T) {
	ctx := context.Background()

	t.Run("insert defaults frequency to one", func(t *testing.T) {
		s, _ := newTestLocal(t)
		require.NoError(t, s.UpsertPattern(ctx, &learning.LearnedPattern{Category: "testing", Rule: "test_quality"}))

		ps, err := s.Patterns(ctx, 0)
		require.NoError(t, err)
		require.Len(t, ps, 1)
		assert.Equal(t, 1, ps[0].Frequency)
		assert.False(t, ps[0].CreatedAt.IsZero())
	})

	t.Run("insert keeps initial frequency", func(t *testing.T) {
		s, _ := newTestLocal(t)
		require.NoError(t, s.UpsertPattern(ctx, &learning.LearnedPattern{Category: "code_style", Rule: "prefer_const", Frequency: 3}))

		ps, err := s.Patterns(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, 3, ps[0].Frequency)
	})

	t.Run("update increments by one and caps evidence", func(t *testing.T) {
		s, _ := newTestLocal(t)
		p := &learning.LearnedPattern{Category: "code_style", Rule: "prefer_const", Frequency: 3, Evidence: []string{"e0"}}
		require.NoError(t, s.UpsertPattern(ctx, p))
		for i := 1; i <= 12; i++ {
			require.NoError(t, s.UpsertPattern(ctx, &learning.LearnedPattern{
				Category: "code_style", Rule: "prefer_const", Evidence: []string{fmt.Sprintf("e%d", i)},
			}))
		}

		ps, err := s.Patterns(ctx, 0)
		require.NoError(t, err)
		require.Len(t, ps, 1)
		assert.Equal(t, 15, ps[0].Frequency)
		require.Len(t, ps[0].Evidence, MaxEvidence)
		assert.Equal(t, "e3", ps[0].Evidence[0])
		assert.Equal(t, "e12", ps[0].Evidence[MaxEvidence-1])
	})

	t.Run("description fallback", func(t *testing.T) {
		s, _ := newTestLocal(t)
		require.NoError(t, s.UpsertPattern(ctx, &learning.LearnedPattern{Category: "a", Rule: "x", Description: "Same rule"}))
		require.NoError(t, s.UpsertPattern(ctx, &learning.LearnedPattern{Category: "b", Rule: "y", Description: "Same rule"}))

		ps, err := s.Patterns(ctx, 0)
		require.NoError(t, err)
		require.Len(t, ps, 1)
		assert.Equal(t, 2, ps[0].Frequency)
		assert.Equal(t, "a", ps[0].Category)
	})

	t.Run("ordered by frequency", func(t *testing.T) {
		s, _ := newTestLocal(t)
		require.NoError(t, s.UpsertPattern(ctx, &learning.LearnedPattern{Category: "a", Rule: "low"}))
		require.NoError(t, s.UpsertPattern(ctx, &learning.LearnedPattern{Category: "a", Rule: "high", Frequency: 5}))

		ps, err := s.Patterns(ctx, 1)
		require.NoError(t, err)
		require.Len(t, ps, 1)
		assert.Equal(t, "high", ps[0].Rule)
	})
}

func TestLocalStore_CorruptFileStartsEmpty(t *testing.T) {
	s, _ := newTestLocal(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), FeedbackFile), []byte("{not json"), 0o600))

	recent, err := s.RecentFeedback(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, recent)

	require.NoError(t, s.AppendFeedback(context.Background(), &learning.FeedbackRecord{Reason: "fresh"}))
	recent, err = s.RecentFeedback(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestMergePattern_RefreshesUpdatedAt(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	ps := mergePattern(nil, &learning.LearnedPattern{Category: "a", Rule: "b"}, t0)
	ps = mergePattern(ps, &learning.LearnedPattern{Category: "a", Rule: "b"}, t1)

	require.Len(t, ps, 1)
	assert.Equal(t, t0, ps[0].CreatedAt)
	assert.Equal(t, t1, ps[0].UpdatedAt)
}
