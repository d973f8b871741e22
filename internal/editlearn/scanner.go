package editlearn

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
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
	// HashesFile records the last seen hash of each workflow file, relative
	// to the storage dir.
	HashesFile = "workflow-file-hashes.json"

	// UserEditDelay is how long after our last record a content change must
	// happen to count as a user edit rather than the assistant's own write.
	UserEditDelay = 10 * time.Second

	sourceEditDetection = "workflow_edit_detection"
	ruleUserPreference  = "user_preference"
)

// FileHash is the last recorded state of a workflow file.
type FileHash struct {
	Hash      string    `json:"hash"`
	Timestamp time.Time `json:"timestamp"`
}

// Scanner compares workflow files against their recorded hashes and learns
// from the ones a user edited.
type Scanner struct {
	root        string
	cacheDir    string
	projectName string
	store       learning.Store
	logger      *zap.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	now         func() time.Time
	headContent func(root, path string) (string, error)
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithProjectName sets the project name stored on feedback records.
func WithProjectName(name string) ScannerOption {
	return func(s *Scanner) { s.projectName = name }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) ScannerOption {
	return func(s *Scanner) { s.metrics = m }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ScannerOption {
	return func(s *Scanner) { s.now = now }
}

// WithHeadContent overrides how the previous version of a file is read.
func WithHeadContent(fn func(root, path string) (string, error)) ScannerOption {
	return func(s *Scanner) { s.headContent = fn }
}

// NewScanner creates a scanner for the project at root that keeps its hash
// cache in cacheDir.
func NewScanner(root, cacheDir string, store learning.Store, logger *zap.Logger, opts ...ScannerOption) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scanner{
		root:        root,
		cacheDir:    cacheDir,
		store:       store,
		logger:      logger,
		metrics:     metrics.New(),
		tracer:      otel.Tracer("github.com/aurafrog/aura-frog/internal/editlearn"),
		now:         time.Now,
		headContent: HeadContent,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan checks every monitored workflow file and returns the notices for
// edits that produced patterns.
func (s *Scanner) Scan(ctx context.Context) []string {
	ctx, span := s.tracer.Start(ctx, "editlearn.Scan")
	defer span.End()

	hashes := s.loadHashes()
	var notices []string
	for _, path := range s.workflowFiles() {
		if notice := s.checkFile(ctx, path, hashes); notice != "" {
			notices = append(notices, notice)
		}
	}
	s.saveHashes(hashes)

	span.SetAttributes(attribute.Int("edits.learned", len(notices)))
	return notices
}

// workflowFiles lists the files under the monitored paths, relative to root.
func (s *Scanner) workflowFiles() []string {
	var files []string
	for _, mp := range MonitoredPaths {
		full := filepath.Join(s.root, mp)
		info, err := os.Stat(full)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			files = append(files, mp)
			continue
		}
		entries, err := os.ReadDir(full)
		if err != nil {
			s.logger.Debug("failed to list workflow dir", zap.String("dir", mp), zap.Error(err))
			continue
		}
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
				files = append(files, filepath.ToSlash(filepath.Join(mp, e.Name())))
			}
		}
	}
	return files
}

func (s *Scanner) checkFile(ctx context.Context, rel string, hashes map[string]FileHash) string {
	full := filepath.Join(s.root, rel)
	data, err := os.ReadFile(full)
	if err != nil {
		return ""
	}
	current := hashContent(data)
	now := s.now().UTC()

	saved, seen := hashes[rel]
	if seen && saved.Hash == current {
		return ""
	}
	hashes[rel] = FileHash{Hash: current, Timestamp: now}
	if !seen || now.Sub(saved.Timestamp) <= UserEditDelay {
		return ""
	}

	old, err := s.headContent(s.root, rel)
	if err != nil {
		s.logger.Debug("no previous version for edited workflow file", zap.String("file", rel), zap.Error(err))
		return ""
	}
	newContent := string(data)
	if old == "" || old == newContent {
		return ""
	}
	changes := ExtractChanges(old, newContent)
	if changes.Empty() {
		return ""
	}
	return s.recordEdit(ctx, rel, changes)
}

func (s *Scanner) recordEdit(ctx context.Context, rel string, changes Changes) string {
	name := filepath.Base(rel)
	patterns := AnalyzeChanges(changes)

	reason := "User directly edited workflow file: " + name
	rec := &learning.FeedbackRecord{
		ProjectName: s.projectName,
		Kind:        learning.KindCorrection,
		Reason:      reason,
		Rating:      learning.KindCorrection.Rating(),
		Category:    learning.CategoryWorkflowEdit,
		Rule:        ruleUserPreference,
		Fingerprint: learning.Fingerprint(reason),
		Source:      sourceEditDetection,
	}
	if err := s.store.AppendFeedback(ctx, rec); err != nil {
		s.logger.Warn("failed to store workflow edit feedback", zap.String("file", rel), zap.Error(err))
	}

	now := s.now().UTC()
	for _, p := range patterns {
		err := s.store.UpsertPattern(ctx, &learning.LearnedPattern{
			PatternType: p.Type,
			Category:    p.Category,
			Rule:        p.Rule,
			Description: p.Description,
			Evidence:    []string{p.Evidence},
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			s.logger.Warn("failed to store edit pattern", zap.String("pattern", learning.PatternKey(p.Category, p.Rule)), zap.Error(err))
		}
	}

	s.logger.Info("learned from workflow edit",
		zap.String("file", rel),
		zap.Int("additions", len(changes.Additions)),
		zap.Int("removals", len(changes.Removals)),
		zap.Int("patterns", len(patterns)))

	if len(patterns) == 0 {
		return ""
	}
	s.metrics.EditsLearned.Inc()
	return fmt.Sprintf("🧠 Workflow Edit: Detected %d pattern(s) from user edits to %s", len(patterns), name)
}

func (s *Scanner) hashesPath() string {
	return filepath.Join(s.cacheDir, HashesFile)
}

func (s *Scanner) loadHashes() map[string]FileHash {
	hashes := map[string]FileHash{}
	if err := jsonfile.Read(s.hashesPath(), &hashes); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("ignoring unreadable hash cache", zap.Error(err))
		}
		return map[string]FileHash{}
	}
	if hashes == nil {
		hashes = map[string]FileHash{}
	}
	return hashes
}

func (s *Scanner) saveHashes(hashes map[string]FileHash) {
	if err := jsonfile.WriteAtomic(s.hashesPath(), hashes); err != nil {
		s.logger.Warn("failed to save hash cache", zap.Error(err))
	}
}

func hashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
