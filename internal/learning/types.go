package learning

import (
	"context"
	"time"
)

// Kind identifies the type of a feedback signal or record.
type Kind string

const (
	// KindNone means no feedback was detected.
	KindNone Kind = "none"
	// KindCorrection is user pushback on the assistant's output.
	KindCorrection Kind = "correction"
	// KindApproval is positive confirmation.
	KindApproval Kind = "approval"
	// KindRejection is a rejected workflow phase.
	KindRejection Kind = "rejection"
	// KindModification is a workflow phase accepted with changes.
	KindModification Kind = "modification"
)

// Rating returns the 1-5 rating stored with a record of this kind.
func (k Kind) Rating() int {
	switch k {
	case KindApproval:
		return 5
	case KindCorrection, KindRejection, KindModification:
		return 3
	default:
		return 4
	}
}

// FeedbackSignal is the verdict of Classify on a single message.
// Kind is KindNone exactly when Confidence is 0.
type FeedbackSignal struct {
	Kind       Kind
	Confidence float64
	// Evidence holds the matched pattern, or the matched keywords in table order.
	Evidence []string
}

// FeedbackRecord is a persisted observation. Records are never mutated after
// they are written.
type FeedbackRecord struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id,omitempty"`
	WorkflowID  string    `json:"workflow_id,omitempty"`
	ProjectName string    `json:"project_name,omitempty"`
	Agent       string    `json:"agent,omitempty"`
	Kind        Kind      `json:"feedback_type"`
	Reason      string    `json:"reason"`
	Rating      int       `json:"rating"`
	Category    string    `json:"category"`
	Rule        string    `json:"rule"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Confidence  float64   `json:"confidence,omitempty"`
	Source      string    `json:"source,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Pattern types stored on LearnedPattern.
const (
	PatternTypeCorrection = "correction"
	PatternTypeCodeStyle  = "code_style"
	PatternTypeWorkflow   = "workflow"
	PatternTypeEdit       = "user_preference"
)

// LearnedPattern is an aggregated rule. Category and Rule together form its
// identity.
type LearnedPattern struct {
	PatternType string    `json:"pattern_type"`
	Category    string    `json:"category"`
	Rule        string    `json:"rule"`
	Description string    `json:"description"`
	Evidence    []string  `json:"evidence"`
	Frequency   int       `json:"frequency"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Key returns the "category:rule" identity of the pattern.
func (p *LearnedPattern) Key() string {
	return PatternKey(p.Category, p.Rule)
}

// PatternKey joins a category and rule into a counter key.
func PatternKey(category, rule string) string {
	return category + ":" + rule
}

// WorkflowEvent records an action on a workflow phase.
type WorkflowEvent struct {
	ID           string    `json:"id"`
	WorkflowID   string    `json:"workflow_id"`
	Phase        string    `json:"phase"`
	EventType    EventType `json:"event_type"`
	AttemptCount int       `json:"attempt_count"`
	Reason       string    `json:"reason,omitempty"`
	SessionID    string    `json:"session_id,omitempty"`
	ProjectName  string    `json:"project_name,omitempty"`
	Agent        string    `json:"agent,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Mode names the active persistence backend.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// Store persists learning data. Implementations choose local files or a
// remote backend; callers never branch on the mode.
type Store interface {
	// AppendFeedback stores a record. ID and CreatedAt are assigned when empty.
	AppendFeedback(ctx context.Context, rec *FeedbackRecord) error

	// UpsertPattern creates the pattern, or increments the frequency of the
	// existing pattern with the same category and rule (or description).
	// A new pattern starts at p.Frequency, or 1 when unset.
	UpsertPattern(ctx context.Context, p *LearnedPattern) error

	// AppendWorkflowEvent stores a workflow event.
	AppendWorkflowEvent(ctx context.Context, ev *WorkflowEvent) error

	// Patterns returns learned patterns, most frequent first.
	Patterns(ctx context.Context, limit int) ([]LearnedPattern, error)

	// RecentFeedback returns the newest records first.
	RecentFeedback(ctx context.Context, limit int) ([]FeedbackRecord, error)

	// Mode reports which backend is active.
	Mode() Mode
}

// Message is one user prompt plus the context the host exported with it.
type Message struct {
	Text        string
	SessionID   string
	WorkflowID  string
	ProjectName string
	Agent       string
}
