package learning

import (
	"errors"
	"os"
	"time"

	"github.com/aurafrog/aura-frog/internal/jsonfile"
)

// DedupEntry is one accepted signal inside the rolling window.
type DedupEntry struct {
	Fingerprint string    `json:"fingerprint"`
	Kind        Kind      `json:"kind"`
	Category    string    `json:"category"`
	Rule        string    `json:"rule"`
	CreatedAt   time.Time `json:"created_at"`
}

// PatternCounter counts observations of one category:rule key. Promoted is
// set once the key has produced a stored pattern.
type PatternCounter struct {
	Count    int       `json:"count"`
	LastSeen time.Time `json:"last_seen"`
	Promoted bool      `json:"promoted,omitempty"`
}

// DedupCache holds the rolling fingerprint window and the pattern counters.
// It is loaded, mutated and saved once per invocation.
type DedupCache struct {
	Entries  []DedupEntry              `json:"entries"`
	Patterns map[string]PatternCounter `json:"patterns"`

	window     time.Duration
	maxEntries int
}

// NewDedupCache returns an empty cache with the given window and entry cap.
func NewDedupCache(window time.Duration, maxEntries int) *DedupCache {
	return &DedupCache{
		Patterns:   make(map[string]PatternCounter),
		window:     window,
		maxEntries: maxEntries,
	}
}

// LoadDedupCache reads the cache at path. A missing or corrupt file yields an
// empty cache; other read errors are returned with the empty cache.
func LoadDedupCache(path string, window time.Duration, maxEntries int) (*DedupCache, error) {
	c := NewDedupCache(window, maxEntries)
	err := jsonfile.Read(path, c)
	if err != nil {
		c = NewDedupCache(window, maxEntries)
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, jsonfile.ErrCorrupt) {
			return c, nil
		}
		return c, err
	}
	if c.Patterns == nil {
		c.Patterns = make(map[string]PatternCounter)
	}
	return c, nil
}

// Save writes the cache to path atomically.
func (c *DedupCache) Save(path string) error {
	return jsonfile.WriteAtomic(path, c)
}

// Prune drops entries older than the window and counters not observed within
// it. Promoted counters are kept so a promotion happens once per key.
func (c *DedupCache) Prune(now time.Time) {
	kept := c.Entries[:0]
	for _, e := range c.Entries {
		if now.Sub(e.CreatedAt) <= c.window {
			kept = append(kept, e)
		}
	}
	c.Entries = kept

	for key, counter := range c.Patterns {
		if !counter.Promoted && now.Sub(counter.LastSeen) > c.window {
			delete(c.Patterns, key)
		}
	}
}

// Contains reports whether fingerprint is in the window.
func (c *DedupCache) Contains(fingerprint string) bool {
	for _, e := range c.Entries {
		if e.Fingerprint == fingerprint {
			return true
		}
	}
	return false
}

// Add appends an entry and keeps only the newest maxEntries.
func (c *DedupCache) Add(e DedupEntry) {
	c.Entries = append(c.Entries, e)
	if over := len(c.Entries) - c.maxEntries; over > 0 {
		c.Entries = append([]DedupEntry(nil), c.Entries[over:]...)
	}
}

// Increment bumps the counter for key and returns the new count.
func (c *DedupCache) Increment(key string, now time.Time) int {
	counter := c.Patterns[key]
	counter.Count++
	counter.LastSeen = now
	c.Patterns[key] = counter
	return counter.Count
}

// Count returns the current count for key.
func (c *DedupCache) Count(key string) int {
	return c.Patterns[key].Count
}

// Promoted reports whether key has already been promoted to a pattern.
func (c *DedupCache) Promoted(key string) bool {
	return c.Patterns[key].Promoted
}

// MarkPromoted records that key has been promoted.
func (c *DedupCache) MarkPromoted(key string) {
	counter := c.Patterns[key]
	counter.Promoted = true
	c.Patterns[key] = counter
}
