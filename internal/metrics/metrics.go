// Package metrics provides Prometheus counters for the learning hooks.
//
// Hooks are short-lived processes with nothing to scrape, so metrics live in
// a private registry that is written to a node-exporter textfile on exit.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "aura_frog"

// Metrics holds every collector registered by the hooks.
type Metrics struct {
	Registry *prometheus.Registry

	// FeedbackTotal counts stored feedback records.
	// Labels: kind (correction, approval, rejection, modification)
	FeedbackTotal *prometheus.CounterVec

	// FeedbackSkipped counts inputs that did not produce a record.
	// Labels: reason (disabled, command, unclassified, low_confidence, not_learnable, duplicate)
	FeedbackSkipped *prometheus.CounterVec

	// PatternsPromoted counts corrections promoted to learned patterns.
	PatternsPromoted prometheus.Counter

	// WorkflowEvents counts recorded workflow events.
	// Labels: type
	WorkflowEvents *prometheus.CounterVec

	// ActionPatterns counts repeated tool actions reported by the observer.
	// Labels: kind (code, bash)
	ActionPatterns *prometheus.CounterVec

	// EditsLearned counts workflow file edits that produced patterns.
	EditsLearned prometheus.Counter

	// StoreOperations counts store calls.
	// Labels: op, mode (local, remote), result (success, error)
	StoreOperations *prometheus.CounterVec

	// StoreDuration tracks store call latency.
	// Labels: op, mode
	StoreDuration *prometheus.HistogramVec
}

// New creates a Metrics instance backed by a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		FeedbackTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "learning",
			Name:      "feedback_total",
			Help:      "Total number of stored feedback records by kind",
		}, []string{"kind"}),
		FeedbackSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "learning",
			Name:      "feedback_skipped_total",
			Help:      "Total number of prompts that produced no feedback record",
		}, []string{"reason"}),
		PatternsPromoted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "learning",
			Name:      "patterns_promoted_total",
			Help:      "Total number of corrections promoted to learned patterns",
		}),
		WorkflowEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "events_total",
			Help:      "Total number of recorded workflow events by type",
		}, []string{"type"}),
		ActionPatterns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "observer",
			Name:      "patterns_detected_total",
			Help:      "Total number of repeated tool-use patterns detected",
		}, []string{"kind"}),
		EditsLearned: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "observer",
			Name:      "workflow_edits_learned_total",
			Help:      "Total number of workflow file edits that produced patterns",
		}),
		StoreOperations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Total number of store operations",
		}, []string{"op", "mode", "result"}),
		StoreDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Duration of store operations in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "mode"}),
	}
}

// WriteTextfile writes the registry in the text exposition format to path,
// replacing the file atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
