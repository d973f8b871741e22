// Package memory renders learned patterns and recent corrections into a
// markdown context file the assistant reads at session start.
package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/aurafrog/aura-frog/internal/config"
	"github.com/aurafrog/aura-frog/internal/jsonfile"
	"github.com/aurafrog/aura-frog/internal/learning"
)

const (
	// ContextFile is the rendered memory, relative to the storage dir.
	ContextFile = "memory-context.md"

	// MaxAge is how long a rendered context is reused without a reload.
	MaxAge = time.Hour

	patternLimit    = 20
	feedbackScan    = 50
	correctionLimit = 10
	correctionAge   = 30 * 24 * time.Hour
	shownPerSection = 5
)

var (
	// ErrDisabled is returned when learning is switched off.
	ErrDisabled = errors.New("learning disabled")

	// ErrNoData is returned when the store holds nothing worth loading.
	ErrNoData = errors.New("no memory data yet")
)

// Result describes a Load call.
type Result struct {
	// Count is the number of items rendered, or the bullet count of a cached file.
	Count  int
	Cached bool
}

// Loader builds the memory context file from a learning store.
type Loader struct {
	cfg    *config.Config
	store  learning.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewLoader creates a loader writing into cfg.Storage.Dir.
func NewLoader(cfg *config.Config, store learning.Store, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		cfg:    cfg,
		store:  store,
		logger: logger.Named("memory"),
		now:    time.Now,
	}
}

// Path returns the location of the rendered context file.
func (l *Loader) Path() string {
	return filepath.Join(l.cfg.Storage.Dir, ContextFile)
}

// Load renders the memory context, reusing a file younger than MaxAge
// unless force is set.
func (l *Loader) Load(ctx context.Context, force bool) (Result, error) {
	ctx, span := otel.Tracer("github.com/aurafrog/aura-frog/internal/memory").Start(ctx, "memory.Load")
	defer span.End()

	if !l.cfg.LearningEnabled() {
		return Result{}, ErrDisabled
	}

	if !force {
		if res, ok := l.cached(); ok {
			span.SetAttributes(attribute.Bool("memory.cached", true))
			return res, nil
		}
	}

	patterns, err := l.store.Patterns(ctx, patternLimit)
	if err != nil {
		return Result{}, fmt.Errorf("loading patterns: %w", err)
	}
	recent, err := l.store.RecentFeedback(ctx, feedbackScan)
	if err != nil {
		return Result{}, fmt.Errorf("loading feedback: %w", err)
	}
	corrections := recentCorrections(recent, l.now())

	total := len(patterns) + len(corrections)
	span.SetAttributes(attribute.Int("memory.items", total))
	if total == 0 {
		return Result{}, ErrNoData
	}

	content := Render(patterns, corrections)
	if err := jsonfile.WriteBytes(l.Path(), []byte(content)); err != nil {
		return Result{}, fmt.Errorf("writing memory context: %w", err)
	}
	l.logger.Info("memory context loaded",
		zap.Int("patterns", len(patterns)),
		zap.Int("corrections", len(corrections)),
		zap.String("mode", string(l.store.Mode())))
	return Result{Count: total}, nil
}

func (l *Loader) cached() (Result, bool) {
	info, err := os.Stat(l.Path())
	if err != nil || l.now().Sub(info.ModTime()) >= MaxAge {
		return Result{}, false
	}
	data, err := os.ReadFile(l.Path())
	if err != nil {
		return Result{}, false
	}
	count := 0
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "- ") {
			count++
		}
	}
	return Result{Count: count, Cached: true}, true
}

// Content returns the rendered context file.
func (l *Loader) Content() (string, error) {
	data, err := os.ReadFile(l.Path())
	if err != nil {
		return "", fmt.Errorf("reading memory context: %w", err)
	}
	return string(data), nil
}

// Clear removes the rendered context file. A missing file is not an error.
func (l *Loader) Clear() error {
	if err := os.Remove(l.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clearing memory context: %w", err)
	}
	return nil
}

// recentCorrections keeps the newest corrections, rejections and
// modifications younger than correctionAge.
func recentCorrections(records []learning.FeedbackRecord, now time.Time) []learning.FeedbackRecord {
	var out []learning.FeedbackRecord
	for _, r := range records {
		if r.Kind == learning.KindApproval || now.Sub(r.CreatedAt) > correctionAge {
			continue
		}
		out = append(out, r)
		if len(out) == correctionLimit {
			break
		}
	}
	return out
}

// Render formats patterns and corrections as the memory context document.
func Render(patterns []learning.LearnedPattern, corrections []learning.FeedbackRecord) string {
	var b strings.Builder
	b.WriteString("# Loaded Memory Context\n\n")

	if len(patterns) > 0 {
		b.WriteString("## Learned Patterns\n")
		for _, p := range patterns {
			fmt.Fprintf(&b, "- **%s**: %s (frequency: %d)\n", p.PatternType, p.Description, p.Frequency)
		}
		b.WriteString("\n")
	}

	if len(corrections) > 0 {
		b.WriteString("## Recent Corrections (Avoid These)\n")
		for i, c := range corrections {
			if i == shownPerSection {
				break
			}
			if c.Reason != "" {
				fmt.Fprintf(&b, "- %s\n", c.Reason)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
