package learning

import (
	"context"
	"fmt"
	"strings"

	"github.com/aurafrog/aura-frog/internal/config"
)

// Status summarizes the learning configuration and stored data.
type Status struct {
	Enabled           bool   `json:"enabled"`
	FeedbackEnabled   bool   `json:"feedback_enabled"`
	MetricsEnabled    bool   `json:"metrics_enabled"`
	BackendConfigured bool   `json:"backend_configured"`
	Mode              Mode   `json:"mode"`
	FeedbackCount     int    `json:"feedback_count"`
	PatternCount      int    `json:"pattern_count"`
	Error             string `json:"error,omitempty"`
}

// GetStatus reports flags and counts. Store errors are reported in
// Status.Error rather than returned.
func GetStatus(ctx context.Context, cfg *config.Config, store Store) Status {
	st := Status{
		Enabled:           cfg.LearningEnabled(),
		FeedbackEnabled:   cfg.FeedbackEnabled(),
		MetricsEnabled:    cfg.MetricsEnabled(),
		BackendConfigured: cfg.BackendConfigured(),
		Mode:              store.Mode(),
	}
	if !st.Enabled {
		return st
	}

	var errs []string
	if records, err := store.RecentFeedback(ctx, cfg.Storage.MaxFeedback); err != nil {
		errs = append(errs, fmt.Sprintf("feedback: %v", err))
	} else {
		st.FeedbackCount = len(records)
	}
	if patterns, err := store.Patterns(ctx, 0); err != nil {
		errs = append(errs, fmt.Sprintf("patterns: %v", err))
	} else {
		st.PatternCount = len(patterns)
	}
	st.Error = strings.Join(errs, "; ")
	return st
}

// String renders the status for the terminal.
func (s Status) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Learning:  %s\n", onOff(s.Enabled))
	fmt.Fprintf(&b, "Feedback:  %s\n", onOff(s.FeedbackEnabled))
	fmt.Fprintf(&b, "Metrics:   %s\n", onOff(s.MetricsEnabled))
	fmt.Fprintf(&b, "Mode:      %s\n", s.Mode)
	if s.Enabled {
		fmt.Fprintf(&b, "Feedback records: %d\n", s.FeedbackCount)
		fmt.Fprintf(&b, "Learned patterns: %d\n", s.PatternCount)
	}
	if s.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", s.Error)
	}
	return b.String()
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
