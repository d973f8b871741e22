package learning

import (
	"context"
	"errors"
	"sort"
)

// memStore is an in-memory Store for pipeline tests.
type memStore struct {
	feedback []FeedbackRecord
	patterns []LearnedPattern
	events   []WorkflowEvent
	err      error
}

var _ Store = (*memStore)(nil)

var errStoreDown = errors.New("store down")

func (m *memStore) AppendFeedback(_ context.Context, rec *FeedbackRecord) error {
	if m.err != nil {
		return m.err
	}
	m.feedback = append(m.feedback, *rec)
	return nil
}

func (m *memStore) UpsertPattern(_ context.Context, p *LearnedPattern) error {
	if m.err != nil {
		return m.err
	}
	for i := range m.patterns {
		if m.patterns[i].Key() == p.Key() {
			m.patterns[i].Frequency++
			m.patterns[i].Evidence = append(m.patterns[i].Evidence, p.Evidence...)
			return nil
		}
	}
	np := *p
	if np.Frequency < 1 {
		np.Frequency = 1
	}
	m.patterns = append(m.patterns, np)
	return nil
}

func (m *memStore) AppendWorkflowEvent(_ context.Context, ev *WorkflowEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, *ev)
	return nil
}

func (m *memStore) Patterns(_ context.Context, limit int) ([]LearnedPattern, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := append([]LearnedPattern(nil), m.patterns...)
	sort.Slice(out, func(i, j int) bool { return out[i].Frequency > out[j].Frequency })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) RecentFeedback(_ context.Context, limit int) ([]FeedbackRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]FeedbackRecord, 0, len(m.feedback))
	for i := len(m.feedback) - 1; i >= 0; i-- {
		out = append(out, m.feedback[i])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) Mode() Mode { return ModeLocal }
