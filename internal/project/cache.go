package project

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aurafrog/aura-frog/internal/jsonfile"
	"github.com/aurafrog/aura-frog/internal/sanitize"
)

const (
	// ContextsDir holds per-project detection results, relative to the root.
	ContextsDir = ".claude/project-contexts"

	// DetectionFile is the cached detection inside a project's context dir.
	DetectionFile = "project-detection.json"

	// DefaultMaxAge is how long a cached detection stays valid.
	DefaultMaxAge = 24 * time.Hour

	emptyHash  = "empty"
	hashLength = 12
)

// KeyFiles invalidate the cache when their size or modification time changes.
var KeyFiles = []string{
	"package.json",
	"composer.json",
	"pubspec.yaml",
	"go.mod",
	"pyproject.toml",
	"requirements.txt",
	"Cargo.toml",
	"project.godot",
	"angular.json",
	"next.config.js",
	"next.config.mjs",
	"next.config.ts",
	"nuxt.config.ts",
	"vite.config.ts",
	"vitest.config.ts",
	"jest.config.js",
	"tsconfig.json",
}

// KeyFilesHash fingerprints the size and modification time of the key files
// present in dir. It returns "empty" when none exist.
func KeyFilesHash(dir string) string {
	var parts []string
	for _, name := range KeyFiles {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s:%d:%d", name, info.ModTime().UnixMilli(), info.Size()))
	}
	if len(parts) == 0 {
		return emptyHash
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])[:hashLength]
}

// Cache stores detections for the projects under one root directory.
type Cache struct {
	root   string
	maxAge time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewCache creates a cache rooted at root. A nil logger is replaced by a
// no-op logger.
func NewCache(root string, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		root:   root,
		maxAge: DefaultMaxAge,
		logger: logger,
		now:    time.Now,
	}
}

func (c *Cache) path(name string) string {
	return filepath.Join(c.root, ContextsDir, sanitize.PathSegment(name), DetectionFile)
}

// Load returns the cached detection for the named project when it is still
// valid: younger than the max age and with an unchanged key file hash.
func (c *Cache) Load(name string) (*Detection, bool) {
	var d Detection
	if err := jsonfile.Read(c.path(name), &d); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logger.Debug("ignoring unreadable project cache", zap.String("project", name), zap.Error(err))
		}
		return nil, false
	}
	if c.now().Sub(d.DetectedAt) > c.maxAge {
		return nil, false
	}
	if d.KeyFilesHash != KeyFilesHash(d.Path) {
		return nil, false
	}
	return &d, true
}

// Save writes d under its project name.
func (c *Cache) Save(d *Detection) error {
	if d.Name == "" {
		return fmt.Errorf("saving project detection: %w", ErrEmptyProjectName)
	}
	return jsonfile.WriteAtomic(c.path(d.Name), d)
}

// Clear removes the cached detection for the named project.
func (c *Cache) Clear(name string) error {
	err := os.Remove(c.path(name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Detect returns the cached detection for dir, or runs and caches a fresh
// one. force skips the cache.
func (c *Cache) Detect(dir string, force bool) (*Detection, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	name := DetectName(abs)
	if !force {
		if d, ok := c.Load(name); ok && d.Path == abs {
			return d, nil
		}
	}

	d, err := Detect(abs)
	if err != nil {
		return nil, err
	}
	d.DetectedAt = c.now().UTC()
	if err := c.Save(d); err != nil {
		c.logger.Warn("failed to cache project detection", zap.String("project", d.Name), zap.Error(err))
	}
	return d, nil
}
