package smartlearn

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/aurafrog/aura-frog/internal/jsonfile"
	"github.com/aurafrog/aura-frog/internal/learning"
	"github.com/aurafrog/aura-frog/internal/metrics"
)

const (
	// CacheFile holds success counters, relative to the storage dir.
	CacheFile = "smart-learn-cache.json"

	// SuccessThreshold is the number of successful writes showing a code
	// pattern before it is learned.
	SuccessThreshold = 3

	// BashThreshold is the number of successful runs of a command before it
	// is learned.
	BashThreshold = SuccessThreshold * 2

	// MaxActions caps the recent action log.
	MaxActions = 200

	maxCommandLength = 200
	otherExtension   = "other"
)

// Action is one successful tool action.
type Action struct {
	Type       string        `json:"type"`
	File       string        `json:"file,omitempty"`
	Command    string        `json:"command,omitempty"`
	Patterns   []CodePattern `json:"patterns,omitempty"`
	CmdPattern *BashPattern  `json:"cmd_pattern,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}

// Counter counts occurrences of one code pattern for an extension.
type Counter struct {
	Count  int `json:"count"`
	Weight int `json:"weight"`
}

// FileStats aggregates successful writes for one file extension.
type FileStats struct {
	SuccessCount int                 `json:"success_count"`
	Patterns     map[string]*Counter `json:"patterns"`
}

// BashStats counts successful runs of one base command.
type BashStats struct {
	Count       int       `json:"count"`
	LastSuccess time.Time `json:"last_success"`
}

// Cache is the persisted tracker state.
type Cache struct {
	FilePatterns      map[string]*FileStats `json:"file_patterns"`
	BashPatterns      map[string]*BashStats `json:"bash_patterns"`
	SuccessfulActions []Action              `json:"successful_actions"`
}

func newCache() *Cache {
	return &Cache{
		FilePatterns: map[string]*FileStats{},
		BashPatterns: map[string]*BashStats{},
	}
}

// Tracker counts successful actions and promotes repeated ones to learned
// patterns through the store.
type Tracker struct {
	dir     string
	store   learning.Store
	logger  *zap.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

// NewTracker creates a tracker whose cache lives in dir.
func NewTracker(dir string, store learning.Store, logger *zap.Logger, m *metrics.Metrics) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Tracker{
		dir:     dir,
		store:   store,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("github.com/aurafrog/aura-frog/internal/smartlearn"),
		now:     time.Now,
	}
}

// RecordWrite records a successful Write or Edit of filePath with content
// and returns the notices for patterns learned as a result.
func (t *Tracker) RecordWrite(ctx context.Context, tool, filePath, content string) []string {
	if filePath == "" || content == "" {
		return nil
	}
	return t.record(ctx, Action{
		Type:     strings.ToLower(tool),
		File:     filePath,
		Patterns: DetectCodePatterns(content, filePath),
	})
}

// RecordBash records a successful shell command and returns the notices for
// patterns learned as a result. Trivial commands are ignored.
func (t *Tracker) RecordBash(ctx context.Context, command string) []string {
	if command == "" || IsIgnoredCommand(command) {
		return nil
	}
	return t.record(ctx, Action{
		Type:       "bash",
		Command:    learning.Truncate(command, maxCommandLength),
		CmdPattern: ExtractBashPattern(command),
	})
}

func (t *Tracker) record(ctx context.Context, action Action) []string {
	ctx, span := t.tracer.Start(ctx, "smartlearn.Record")
	defer span.End()
	span.SetAttributes(attribute.String("action.type", action.Type))

	path := filepath.Join(t.dir, CacheFile)
	cache := t.load(path)

	action.Timestamp = t.now().UTC()
	cache.SuccessfulActions = append(cache.SuccessfulActions, action)
	if n := len(cache.SuccessfulActions); n > MaxActions {
		cache.SuccessfulActions = cache.SuccessfulActions[n-MaxActions:]
	}

	switch action.Type {
	case "write", "edit":
		ext := strings.ToLower(filepath.Ext(action.File))
		if ext == "" {
			ext = otherExtension
		}
		stats := cache.FilePatterns[ext]
		if stats == nil {
			stats = &FileStats{Patterns: map[string]*Counter{}}
			cache.FilePatterns[ext] = stats
		}
		if stats.Patterns == nil {
			stats.Patterns = map[string]*Counter{}
		}
		stats.SuccessCount++
		for _, p := range action.Patterns {
			c := stats.Patterns[p.Key()]
			if c == nil {
				c = &Counter{}
				stats.Patterns[p.Key()] = c
			}
			c.Count++
			c.Weight += max(p.Weight, 1)
		}
	case "bash":
		if action.CmdPattern != nil {
			stats := cache.BashPatterns[action.CmdPattern.Base]
			if stats == nil {
				stats = &BashStats{}
				cache.BashPatterns[action.CmdPattern.Base] = stats
			}
			stats.Count++
			stats.LastSuccess = action.Timestamp
		}
	}

	notices := t.promote(ctx, cache)
	if err := jsonfile.WriteAtomic(path, cache); err != nil {
		t.logger.Warn("failed to save smart-learn cache", zap.String("path", path), zap.Error(err))
	}
	span.SetAttributes(attribute.Int("patterns.learned", len(notices)))
	return notices
}

func (t *Tracker) load(path string) *Cache {
	cache := newCache()
	if err := jsonfile.Read(path, cache); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			t.logger.Debug("ignoring unreadable smart-learn cache", zap.String("path", path), zap.Error(err))
		}
		return newCache()
	}
	if cache.FilePatterns == nil {
		cache.FilePatterns = map[string]*FileStats{}
	}
	if cache.BashPatterns == nil {
		cache.BashPatterns = map[string]*BashStats{}
	}
	return cache
}

// promote upserts every counter at or over its threshold and resets it.
// Counters are reset even when the upsert fails.
func (t *Tracker) promote(ctx context.Context, cache *Cache) []string {
	var notices []string
	now := t.now().UTC()

	for _, ext := range sortedKeys(cache.FilePatterns) {
		stats := cache.FilePatterns[ext]
		for _, key := range sortedKeys(stats.Patterns) {
			c := stats.Patterns[key]
			if c.Count < SuccessThreshold {
				continue
			}
			typ, pattern, _ := strings.Cut(key, ":")
			t.upsert(ctx, &learning.LearnedPattern{
				PatternType: learning.PatternTypeCodeStyle,
				Category:    typ,
				Rule:        pattern,
				Description: fmt.Sprintf("Prefer %s in %s files", strings.ReplaceAll(pattern, "_", " "), ext),
				Evidence:    []string{fmt.Sprintf("Auto-detected from %d successful operations", c.Count)},
				CreatedAt:   now,
				UpdatedAt:   now,
			})
			c.Count = 0
			t.metrics.ActionPatterns.WithLabelValues("code").Inc()
			notices = append(notices, fmt.Sprintf("🧠 Smart Learn: Pattern detected! %q in %s files", pattern, ext))
		}
	}

	for _, cmd := range sortedKeys(cache.BashPatterns) {
		stats := cache.BashPatterns[cmd]
		if stats.Count < BashThreshold {
			continue
		}
		t.upsert(ctx, &learning.LearnedPattern{
			PatternType: learning.PatternTypeWorkflow,
			Category:    "bash",
			Rule:        cmd,
			Description: "Commonly used command: " + cmd,
			Evidence:    []string{fmt.Sprintf("Used successfully %d times", stats.Count)},
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		stats.Count = 0
		t.metrics.ActionPatterns.WithLabelValues("bash").Inc()
		notices = append(notices, fmt.Sprintf("🧠 Smart Learn: Bash pattern! %q is frequently used", cmd))
	}
	return notices
}

func (t *Tracker) upsert(ctx context.Context, p *learning.LearnedPattern) {
	if err := t.store.UpsertPattern(ctx, p); err != nil {
		t.logger.Warn("failed to store learned pattern", zap.String("pattern", p.Key()), zap.Error(err))
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
