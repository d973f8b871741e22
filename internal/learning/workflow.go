package learning

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aurafrog/aura-frog/internal/metrics"
)

// EventType is the action recorded on a workflow phase.
type EventType string

const (
	EventApproved         EventType = "APPROVED"
	EventRejected         EventType = "REJECTED"
	EventModified         EventType = "MODIFIED"
	EventCancelled        EventType = "CANCELLED"
	EventPhaseStart       EventType = "PHASE_START"
	EventWorkflowComplete EventType = "WORKFLOW_COMPLETE"
)

// EventTypes lists every valid event type.
var EventTypes = []EventType{
	EventApproved, EventRejected, EventModified,
	EventCancelled, EventPhaseStart, EventWorkflowComplete,
}

var (
	// ErrInvalidEventType indicates an unknown workflow event type.
	ErrInvalidEventType = errors.New("invalid event type")

	// ErrNoWorkflowID indicates no workflow ID was given or found.
	ErrNoWorkflowID = errors.New("no workflow ID provided and no active workflow found")
)

// ParseEventType validates s case-insensitively.
func ParseEventType(s string) (EventType, error) {
	et := EventType(strings.ToUpper(strings.TrimSpace(s)))
	for _, valid := range EventTypes {
		if et == valid {
			return et, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrInvalidEventType, s)
}

// ActiveWorkflowID reads the active workflow ID from .claude/active-workflow.txt
// or active-workflow.txt under root. It returns "" when neither exists.
func ActiveWorkflowID(root string) string {
	for _, p := range []string{
		filepath.Join(root, ".claude", "active-workflow.txt"),
		filepath.Join(root, "active-workflow.txt"),
	} {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		if id := strings.TrimSpace(string(data)); id != "" {
			return id
		}
	}
	return ""
}

// WorkflowRecorder stores workflow events. Rejections and modifications also
// produce a FeedbackRecord so they feed the same digest as prompt feedback.
type WorkflowRecorder struct {
	store   Store
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewWorkflowRecorder creates a recorder. A nil logger is replaced by a
// no-op logger and nil metrics by a private registry.
func NewWorkflowRecorder(store Store, logger *zap.Logger, m *metrics.Metrics) *WorkflowRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &WorkflowRecorder{store: store, logger: logger, metrics: m, now: time.Now}
}

// Record validates and stores ev. The event write error is returned; a
// failure to store the derived feedback is only logged.
func (r *WorkflowRecorder) Record(ctx context.Context, ev *WorkflowEvent) error {
	if ev.WorkflowID == "" {
		return ErrNoWorkflowID
	}
	if _, err := ParseEventType(string(ev.EventType)); err != nil {
		return err
	}
	if ev.AttemptCount < 1 {
		ev.AttemptCount = 1
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = r.now().UTC()
	}

	if err := r.store.AppendWorkflowEvent(ctx, ev); err != nil {
		return fmt.Errorf("recording %s event: %w", ev.EventType, err)
	}
	r.metrics.WorkflowEvents.WithLabelValues(string(ev.EventType)).Inc()

	kind, ok := feedbackKindFor(ev.EventType)
	if !ok {
		return nil
	}
	reason := ev.Reason
	if reason == "" {
		reason = fmt.Sprintf("Phase %s %s", ev.Phase, strings.ToLower(string(ev.EventType)))
	}
	rec := &FeedbackRecord{
		SessionID:   ev.SessionID,
		WorkflowID:  ev.WorkflowID,
		ProjectName: ev.ProjectName,
		Agent:       ev.Agent,
		Kind:        kind,
		Reason:      Truncate(reason, MaxReasonLength),
		Rating:      kind.Rating(),
		Category:    CategoryWorkflow,
		Rule:        "phase_" + string(kind),
		Fingerprint: Fingerprint(reason),
		Source:      "workflow_event",
		CreatedAt:   ev.CreatedAt,
	}
	if err := r.store.AppendFeedback(ctx, rec); err != nil {
		r.logger.Warn("failed to store workflow feedback",
			zap.String("workflow_id", ev.WorkflowID),
			zap.String("event_type", string(ev.EventType)),
			zap.Error(err))
		return nil
	}
	r.metrics.FeedbackTotal.WithLabelValues(string(kind)).Inc()
	return nil
}

func feedbackKindFor(et EventType) (Kind, bool) {
	switch et {
	case EventRejected:
		return KindRejection, true
	case EventModified:
		return KindModification, true
	default:
		return "", false
	}
}
