// Package store persists learning data to local JSON files or to a remote
// row-insert backend. The mode is chosen once by New; callers only see the
// learning.Store interface.
package store

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aurafrog/aura-frog/internal/config"
	"github.com/aurafrog/aura-frog/internal/learning"
	"github.com/aurafrog/aura-frog/internal/metrics"
)

// File names under the storage directory.
const (
	FeedbackFile       = "feedback.json"
	PatternsFile       = "learned-patterns.json"
	WorkflowEventsFile = "workflow-events.json"
	DigestFile         = "learned-patterns.md"
)

// MaxEvidence is the number of evidence samples kept per pattern, newest last.
const MaxEvidence = 10

// Operation labels used for metrics and logs.
const (
	opAppendFeedback      = "append_feedback"
	opUpsertPattern       = "upsert_pattern"
	opAppendWorkflowEvent = "append_workflow_event"
	opPatterns            = "patterns"
	opRecentFeedback      = "recent_feedback"
)

var (
	_ learning.Store = (*LocalStore)(nil)
	_ learning.Store = (*RemoteStore)(nil)
)

// New returns a RemoteStore when the backend URL and key are both set, and a
// LocalStore otherwise. Missing credentials are not an error.
func New(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) learning.Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	local := NewLocalStore(cfg.Storage, logger, m)
	if !cfg.BackendConfigured() {
		logger.Debug("using local store", zap.String("dir", cfg.Storage.Dir))
		return local
	}
	logger.Debug("using remote store", zap.String("url", cfg.Backend.URL))
	return NewRemoteStore(cfg.Backend, local, logger, m)
}

// observe records the outcome and latency of one store call.
func observe(m *metrics.Metrics, op string, mode learning.Mode, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.StoreOperations.WithLabelValues(op, string(mode), result).Inc()
	m.StoreDuration.WithLabelValues(op, string(mode)).Observe(time.Since(start).Seconds())
}

func prepareFeedback(rec *learning.FeedbackRecord, now time.Time) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
}

func prepareEvent(ev *learning.WorkflowEvent, now time.Time) {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = now
	}
}

// keepLast returns the last n elements of s.
func keepLast[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[len(s)-n:]
	}
	return s
}
