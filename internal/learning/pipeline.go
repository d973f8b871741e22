package learning

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/aurafrog/aura-frog/internal/config"
	"github.com/aurafrog/aura-frog/internal/metrics"
	"github.com/aurafrog/aura-frog/internal/secrets"
)

const (
	// DedupCacheFile is the dedup and counter cache, relative to the storage dir.
	DedupCacheFile = "auto-learn-cache.json"

	// MaxReasonLength caps the stored reason text, in characters.
	MaxReasonLength = 500

	// MaxEvidenceLength caps a single evidence excerpt, in characters.
	MaxEvidenceLength = 150

	// noticeConfidence is the lowest confidence that prints a capture notice.
	noticeConfidence = 0.7

	minPromptLength  = 5
	sourceAutoDetect = "auto_detect"
)

// SkipReason explains why a prompt produced no record.
type SkipReason string

const (
	SkipNone          SkipReason = ""
	SkipDisabled      SkipReason = "disabled"
	SkipEmpty         SkipReason = "empty"
	SkipCommand       SkipReason = "command"
	SkipUnclassified  SkipReason = "unclassified"
	SkipLowConfidence SkipReason = "low_confidence"
	SkipNotLearnable  SkipReason = "not_learnable"
	SkipDuplicate     SkipReason = "duplicate"
)

// Outcome describes what Process did with one message.
type Outcome struct {
	Signal       FeedbackSignal
	Learnability Learnability
	Category     Category
	Skipped      SkipReason
	Duplicate    bool
	Stored       bool
	Count        int
	Promoted     bool
	// Notice is the line shown to the user, empty when nothing is shown.
	Notice string
}

// Pipeline classifies prompts and persists the resulting feedback.
type Pipeline struct {
	cfg      *config.Config
	store    Store
	logger   *zap.Logger
	scrubber secrets.Scrubber
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	now      func() time.Time
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithScrubber sets the secret scrubber applied to reason text.
func WithScrubber(s secrets.Scrubber) PipelineOption {
	return func(p *Pipeline) { p.scrubber = s }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// WithTracer sets the tracer used for pipeline spans.
func WithTracer(t trace.Tracer) PipelineOption {
	return func(p *Pipeline) { p.tracer = t }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline creates a pipeline. A nil logger is replaced by a no-op logger.
func NewPipeline(cfg *config.Config, store Store, logger *zap.Logger, opts ...PipelineOption) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		cfg:      cfg,
		store:    store,
		logger:   logger,
		scrubber: secrets.NoopScrubber{},
		metrics:  metrics.New(),
		tracer:   otel.Tracer("github.com/aurafrog/aura-frog/internal/learning"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs one message through the pipeline. It never returns an error;
// storage failures are logged and the outcome reflects what was persisted.
func (p *Pipeline) Process(ctx context.Context, msg Message) Outcome {
	ctx, span := p.tracer.Start(ctx, "learning.Process")
	defer span.End()

	out := p.process(ctx, msg)

	span.SetAttributes(
		attribute.String("signal.kind", string(out.Signal.Kind)),
		attribute.Float64("signal.confidence", out.Signal.Confidence),
		attribute.String("skip_reason", string(out.Skipped)),
		attribute.Bool("stored", out.Stored),
		attribute.Bool("promoted", out.Promoted),
	)
	if out.Skipped != SkipNone {
		p.metrics.FeedbackSkipped.WithLabelValues(string(out.Skipped)).Inc()
	}
	return out
}

func (p *Pipeline) process(ctx context.Context, msg Message) Outcome {
	var out Outcome
	if !p.cfg.FeedbackEnabled() {
		out.Skipped = SkipDisabled
		return out
	}

	text := strings.TrimSpace(msg.Text)
	if utf8.RuneCountInString(text) < minPromptLength {
		out.Skipped = SkipEmpty
		return out
	}
	if strings.HasPrefix(text, "/") {
		out.Skipped = SkipCommand
		return out
	}

	out.Signal = Classify(text)
	if out.Signal.Kind == KindNone {
		out.Skipped = SkipUnclassified
		return out
	}
	if out.Signal.Confidence < p.cfg.Learning.MinConfidence {
		out.Skipped = SkipLowConfidence
		return out
	}

	out.Learnability = IsLearnable(text)
	if !out.Learnability.Learnable {
		p.logger.Debug("feedback not learnable",
			zap.String("reason", string(out.Learnability.Reason)),
			zap.Strings("task_indicators", out.Learnability.TaskIndicators))
		out.Skipped = SkipNotLearnable
		return out
	}

	out.Category = Categorize(text)
	reason := p.reasonText(text)
	fingerprint := Fingerprint(reason)
	now := p.now().UTC()

	cachePath := filepath.Join(p.cfg.Storage.Dir, DedupCacheFile)
	cache, err := LoadDedupCache(cachePath, p.cfg.Learning.DedupWindow, p.cfg.Learning.DedupMaxEntries)
	if err != nil {
		p.logger.Warn("failed to load dedup cache, starting empty", zap.String("path", cachePath), zap.Error(err))
	}
	cache.Prune(now)

	// The counter moves before the duplicate check so repeated phrasing
	// still counts toward promotion.
	out.Count = cache.Increment(out.Category.Key(), now)

	out.Duplicate = cache.Contains(fingerprint)
	if out.Duplicate {
		out.Skipped = SkipDuplicate
	} else {
		cache.Add(DedupEntry{
			Fingerprint: fingerprint,
			Kind:        out.Signal.Kind,
			Category:    out.Category.Category,
			Rule:        out.Category.Rule,
			CreatedAt:   now,
		})
		rec := &FeedbackRecord{
			SessionID:   msg.SessionID,
			WorkflowID:  msg.WorkflowID,
			ProjectName: msg.ProjectName,
			Agent:       msg.Agent,
			Kind:        out.Signal.Kind,
			Reason:      reason,
			Rating:      out.Signal.Kind.Rating(),
			Category:    out.Category.Category,
			Rule:        out.Category.Rule,
			Fingerprint: fingerprint,
			Confidence:  out.Signal.Confidence,
			Source:      sourceAutoDetect,
			CreatedAt:   now,
		}
		if err := p.store.AppendFeedback(ctx, rec); err != nil {
			p.logger.Warn("failed to store feedback", zap.String("mode", string(p.store.Mode())), zap.Error(err))
		} else {
			out.Stored = true
			p.metrics.FeedbackTotal.WithLabelValues(string(rec.Kind)).Inc()
		}
	}

	threshold := p.cfg.Learning.PatternThreshold
	key := out.Category.Key()
	if out.Signal.Kind == KindCorrection && (cache.Promoted(key) || out.Count >= threshold) {
		promote := !cache.Promoted(key)
		pattern := &LearnedPattern{
			PatternType: PatternTypeCorrection,
			Category:    out.Category.Category,
			Rule:        out.Category.Rule,
			Description: Describe(out.Category),
			Evidence:    []string{Truncate(reason, MaxEvidenceLength)},
			Frequency:   1,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if promote {
			pattern.Frequency = out.Count
		}
		if err := p.store.UpsertPattern(ctx, pattern); err != nil {
			p.logger.Warn("failed to upsert pattern", zap.String("pattern", pattern.Key()), zap.Error(err))
		} else if promote {
			cache.MarkPromoted(key)
			out.Promoted = true
			p.metrics.PatternsPromoted.Inc()
		}
	}

	if err := cache.Save(cachePath); err != nil {
		p.logger.Warn("failed to save dedup cache", zap.String("path", cachePath), zap.Error(err))
	}

	out.Notice = p.notice(out)
	return out
}

// reasonText scrubs secrets when enabled and truncates to MaxReasonLength.
func (p *Pipeline) reasonText(text string) string {
	if p.cfg.Learning.ScrubSecrets {
		scrubbed, rules := p.scrubber.Scrub(text)
		if len(rules) > 0 {
			p.logger.Info("redacted secrets from feedback", zap.Strings("rules", rules))
		}
		text = scrubbed
	}
	return Truncate(text, MaxReasonLength)
}

func (p *Pipeline) notice(out Outcome) string {
	switch {
	case out.Promoted:
		return fmt.Sprintf("🧠 Pattern detected: %s/%s (%d occurrences)", out.Category.Category, out.Category.Rule, out.Count)
	case out.Stored && out.Signal.Kind == KindCorrection && out.Signal.Confidence >= noticeConfidence:
		return fmt.Sprintf("🧠 Learning: Captured %s (%d%% confidence)", out.Signal.Kind, int(math.Round(out.Signal.Confidence*100)))
	default:
		return ""
	}
}

// Truncate returns at most n characters of s.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
