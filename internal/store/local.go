package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aurafrog/aura-frog/internal/config"
	"github.com/aurafrog/aura-frog/internal/jsonfile"
	"github.com/aurafrog/aura-frog/internal/learning"
	"github.com/aurafrog/aura-frog/internal/metrics"
)

// LocalStore keeps learning data in JSON array files under one directory and
// regenerates a Markdown digest after every feedback or pattern write.
//
// Each file is read, modified and replaced atomically on every call; nothing
// is cached between calls.
type LocalStore struct {
	dir       string
	maxRecs   int
	maxEvents int
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time

	mu sync.Mutex
}

// NewLocalStore creates a store rooted at cfg.Dir.
func NewLocalStore(cfg config.StorageConfig, logger *zap.Logger, m *metrics.Metrics) *LocalStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &LocalStore{
		dir:       cfg.Dir,
		maxRecs:   cfg.MaxFeedback,
		maxEvents: cfg.MaxWorkflowEvents,
		logger:    logger.Named("store.local"),
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Dir returns the storage directory.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Mode returns learning.ModeLocal.
func (s *LocalStore) Mode() learning.Mode {
	return learning.ModeLocal
}

// AppendFeedback appends rec to the feedback file, keeping the newest records.
func (s *LocalStore) AppendFeedback(_ context.Context, rec *learning.FeedbackRecord) (err error) {
	start := time.Now()
	defer func() { observe(s.metrics, opAppendFeedback, learning.ModeLocal, start, err) }()
	s.mu.Lock()
	defer s.mu.Unlock()

	prepareFeedback(rec, s.now())

	var records []learning.FeedbackRecord
	if err = s.readList(FeedbackFile, &records); err != nil {
		return err
	}
	records = keepLast(append(records, *rec), s.maxRecs)
	if err = jsonfile.WriteAtomic(s.path(FeedbackFile), records); err != nil {
		return fmt.Errorf("storing feedback: %w", err)
	}

	s.refreshDigest()
	return nil
}

// UpsertPattern increments the pattern matching p by category and rule, or by
// description, or inserts p.
func (s *LocalStore) UpsertPattern(_ context.Context, p *learning.LearnedPattern) (err error) {
	start := time.Now()
	defer func() { observe(s.metrics, opUpsertPattern, learning.ModeLocal, start, err) }()
	s.mu.Lock()
	defer s.mu.Unlock()

	var patterns []learning.LearnedPattern
	if err = s.readList(PatternsFile, &patterns); err != nil {
		return err
	}
	patterns = mergePattern(patterns, p, s.now())
	if err = jsonfile.WriteAtomic(s.path(PatternsFile), patterns); err != nil {
		return fmt.Errorf("storing pattern %s: %w", p.Key(), err)
	}

	s.refreshDigest()
	return nil
}

// mergePattern applies one upsert to patterns and returns the result.
func mergePattern(patterns []learning.LearnedPattern, p *learning.LearnedPattern, now time.Time) []learning.LearnedPattern {
	idx := -1
	for i := range patterns {
		if patterns[i].Key() == p.Key() {
			idx = i
			break
		}
	}
	if idx < 0 && p.Description != "" {
		for i := range patterns {
			if patterns[i].Description == p.Description {
				idx = i
				break
			}
		}
	}

	if idx >= 0 {
		existing := &patterns[idx]
		existing.Frequency++
		existing.Evidence = keepLast(append(existing.Evidence, p.Evidence...), MaxEvidence)
		existing.UpdatedAt = now
		return patterns
	}

	np := *p
	if np.Frequency < 1 {
		np.Frequency = 1
	}
	np.Evidence = keepLast(append([]string(nil), p.Evidence...), MaxEvidence)
	if np.CreatedAt.IsZero() {
		np.CreatedAt = now
	}
	np.UpdatedAt = now
	return append(patterns, np)
}

// AppendWorkflowEvent appends ev to the workflow events file. It does not
// touch the digest.
func (s *LocalStore) AppendWorkflowEvent(_ context.Context, ev *learning.WorkflowEvent) (err error) {
	start := time.Now()
	defer func() { observe(s.metrics, opAppendWorkflowEvent, learning.ModeLocal, start, err) }()
	s.mu.Lock()
	defer s.mu.Unlock()

	prepareEvent(ev, s.now())

	var events []learning.WorkflowEvent
	if err = s.readList(WorkflowEventsFile, &events); err != nil {
		return err
	}
	events = keepLast(append(events, *ev), s.maxEvents)
	if err = jsonfile.WriteAtomic(s.path(WorkflowEventsFile), events); err != nil {
		return fmt.Errorf("storing workflow event: %w", err)
	}
	return nil
}

// Patterns returns stored patterns, most frequent first. A limit of 0
// returns all of them.
func (s *LocalStore) Patterns(_ context.Context, limit int) (_ []learning.LearnedPattern, err error) {
	start := time.Now()
	defer func() { observe(s.metrics, opPatterns, learning.ModeLocal, start, err) }()
	s.mu.Lock()
	defer s.mu.Unlock()

	var patterns []learning.LearnedPattern
	if err = s.readList(PatternsFile, &patterns); err != nil {
		return nil, err
	}
	sortPatterns(patterns)
	if limit > 0 && len(patterns) > limit {
		patterns = patterns[:limit]
	}
	return patterns, nil
}

// RecentFeedback returns stored records, newest first. A limit of 0 returns
// all of them.
func (s *LocalStore) RecentFeedback(_ context.Context, limit int) (_ []learning.FeedbackRecord, err error) {
	start := time.Now()
	defer func() { observe(s.metrics, opRecentFeedback, learning.ModeLocal, start, err) }()
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []learning.FeedbackRecord
	if err = s.readList(FeedbackFile, &records); err != nil {
		return nil, err
	}
	return newestFirst(records, limit), nil
}

// WorkflowEvents returns the locally stored workflow events in append order.
func (s *LocalStore) WorkflowEvents() ([]learning.WorkflowEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []learning.WorkflowEvent
	if err := s.readList(WorkflowEventsFile, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

// readList loads a JSON array file. A missing file is empty; a corrupt file
// is logged and treated as empty so the next write replaces it.
func (s *LocalStore) readList(name string, v any) error {
	err := jsonfile.Read(s.path(name), v)
	switch {
	case err == nil, errors.Is(err, os.ErrNotExist):
		return nil
	case errors.Is(err, jsonfile.ErrCorrupt):
		s.logger.Warn("corrupt store file, starting empty", zap.String("file", name), zap.Error(err))
		return nil
	default:
		return fmt.Errorf("reading %s: %w", name, err)
	}
}

// refreshDigest rewrites the digest. Failures are logged; the data write has
// already succeeded.
func (s *LocalStore) refreshDigest() {
	var records []learning.FeedbackRecord
	var patterns []learning.LearnedPattern
	if err := s.readList(FeedbackFile, &records); err != nil {
		s.logger.Warn("failed to read feedback for digest", zap.Error(err))
		return
	}
	if err := s.readList(PatternsFile, &patterns); err != nil {
		s.logger.Warn("failed to read patterns for digest", zap.Error(err))
		return
	}

	doc := RenderDigest(records, patterns, s.now())
	if err := jsonfile.WriteBytes(s.path(DigestFile), []byte(doc)); err != nil {
		s.logger.Warn("failed to write digest", zap.String("file", DigestFile), zap.Error(err))
	}
}

func sortPatterns(patterns []learning.LearnedPattern) {
	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Frequency > patterns[j].Frequency
	})
}

func newestFirst(records []learning.FeedbackRecord, limit int) []learning.FeedbackRecord {
	out := make([]learning.FeedbackRecord, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		out = append(out, records[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
