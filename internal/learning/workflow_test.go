package learning

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/aurafrog/aura-frog/internal/logging"
	"github.com/aurafrog/aura-frog/internal/metrics"
)

func TestParseEventType(t *testing.T) {
	tests := []struct {
		in      string
		want    EventType
		wantErr bool
	}{
		{"APPROVED", EventApproved, false},
		{"rejected", EventRejected, false},
		{" phase_start ", EventPhaseStart, false},
		{"Workflow_Complete", EventWorkflowComplete, false},
		{"PAUSED", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEventType(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidEventType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestActiveWorkflowID(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		assert.Empty(t, ActiveWorkflowID(t.TempDir()))
	})

	t.Run("claude dir wins", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, ".claude"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, ".claude", "active-workflow.txt"), []byte("wf-1\n"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(root, "active-workflow.txt"), []byte("wf-2"), 0o600))
		assert.Equal(t, "wf-1", ActiveWorkflowID(root))
	})

	t.Run("root fallback", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "active-workflow.txt"), []byte("  wf-2  "), 0o600))
		assert.Equal(t, "wf-2", ActiveWorkflowID(root))
	})
}

func TestWorkflowRecorder_Record(t *testing.T) {
	t.Run("rejection also stores feedback", func(t *testing.T) {
		store := &memStore{}
		m := metrics.New()
		r := NewWorkflowRecorder(store, nil, m)

		ev := &WorkflowEvent{WorkflowID: "wf-1", Phase: "2", EventType: EventRejected}
		require.NoError(t, r.Record(context.Background(), ev))

		require.Len(t, store.events, 1)
		assert.Equal(t, 1, store.events[0].AttemptCount)
		assert.False(t, store.events[0].CreatedAt.IsZero())

		require.Len(t, store.feedback, 1)
		rec := store.feedback[0]
		assert.Equal(t, KindRejection, rec.Kind)
		assert.Equal(t, CategoryWorkflow, rec.Category)
		assert.Equal(t, "phase_"+string(KindRejection), rec.Rule)
		assert.Equal(t, "Phase 2 rejected", rec.Reason)
		assert.Equal(t, "workflow_event", rec.Source)
		assert.Equal(t, 3, rec.Rating)

		assert.Equal(t, 1.0, testutil.ToFloat64(m.WorkflowEvents.WithLabelValues(string(EventRejected))))
	})

	t.Run("modification keeps given reason", func(t *testing.T) {
		store := &memStore{}
		r := NewWorkflowRecorder(store, nil, nil)

		ev := &WorkflowEvent{WorkflowID: "wf-1", Phase: "3", EventType: EventModified, AttemptCount: 2, Reason: "split the plan"}
		require.NoError(t, r.Record(context.Background(), ev))

		require.Len(t, store.feedback, 1)
		assert.Equal(t, KindModification, store.feedback[0].Kind)
		assert.Equal(t, "split the plan", store.feedback[0].Reason)
		assert.Equal(t, 2, store.events[0].AttemptCount)
	})

	t.Run("approval stores only the event", func(t *testing.T) {
		store := &memStore{}
		r := NewWorkflowRecorder(store, nil, nil)

		require.NoError(t, r.Record(context.Background(), &WorkflowEvent{WorkflowID: "wf-1", Phase: "1", EventType: EventApproved}))
		assert.Len(t, store.events, 1)
		assert.Empty(t, store.feedback)
	})

	t.Run("missing workflow id", func(t *testing.T) {
		r := NewWorkflowRecorder(&memStore{}, nil, nil)
		err := r.Record(context.Background(), &WorkflowEvent{EventType: EventApproved})
		assert.ErrorIs(t, err, ErrNoWorkflowID)
	})

	t.Run("invalid type", func(t *testing.T) {
		r := NewWorkflowRecorder(&memStore{}, nil, nil)
		err := r.Record(context.Background(), &WorkflowEvent{WorkflowID: "wf-1", EventType: "PAUSED"})
		assert.ErrorIs(t, err, ErrInvalidEventType)
	})

	t.Run("store error", func(t *testing.T) {
		r := NewWorkflowRecorder(&memStore{err: errStoreDown}, nil, nil)
		err := r.Record(context.Background(), &WorkflowEvent{WorkflowID: "wf-1", EventType: EventRejected})
		assert.ErrorIs(t, err, errStoreDown)
	})
}

// failFeedbackStore accepts events but rejects feedback.
type failFeedbackStore struct{ memStore }

func (f *failFeedbackStore) AppendFeedback(context.Context, *FeedbackRecord) error {
	return errStoreDown
}

func TestWorkflowRecorder_FeedbackFailureIsLogged(t *testing.T) {
	store := &failFeedbackStore{}
	logger := logging.NewTestLogger()
	r := NewWorkflowRecorder(store, logger.Underlying(), nil)

	err := r.Record(context.Background(), &WorkflowEvent{WorkflowID: "wf-9", Phase: "4", EventType: EventRejected})

	require.NoError(t, err)
	assert.Len(t, store.events, 1)
	logger.AssertLogged(t, zapcore.WarnLevel, "failed to store workflow feedback")
	logger.AssertField(t, "failed to store workflow feedback", "workflow_id", "wf-9")
}
