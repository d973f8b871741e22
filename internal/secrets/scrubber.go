package secrets

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	gitleaksConfig "github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
	gitleaksRegexp "github.com/zricethezav/gitleaks/v8/regexp"
)

// Redaction replaces every detected secret.
const Redaction = "[REDACTED]"

// Scrubber redacts secrets from text.
type Scrubber interface {
	// Scrub returns text with secrets replaced and the IDs of matching rules.
	Scrub(text string) (string, []string)
}

// GitleaksScrubber detects secrets with the gitleaks default configuration.
type GitleaksScrubber struct {
	detector *detect.Detector
}

// New creates a scrubber. allowlist may be nil.
func New(allowlist *Allowlist) (*GitleaksScrubber, error) {
	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("creating gitleaks detector: %w", err)
	}
	if allowlist != nil {
		if err := applyAllowlist(&detector.Config, allowlist); err != nil {
			return nil, err
		}
	}
	return &GitleaksScrubber{detector: detector}, nil
}

// Scrub implements Scrubber.
func (s *GitleaksScrubber) Scrub(text string) (string, []string) {
	if text == "" {
		return text, nil
	}
	findings := s.detector.DetectString(text)
	if len(findings) == 0 {
		return text, nil
	}

	secrets := make([]string, 0, len(findings))
	rules := make([]string, 0, len(findings))
	seen := make(map[string]bool)
	for _, f := range findings {
		if f.Secret != "" {
			secrets = append(secrets, f.Secret)
		}
		if !seen[f.RuleID] {
			seen[f.RuleID] = true
			rules = append(rules, f.RuleID)
		}
	}

	// Longest first so a secret containing another is replaced whole.
	sort.Slice(secrets, func(i, j int) bool { return len(secrets[i]) > len(secrets[j]) })
	for _, secret := range secrets {
		text = strings.ReplaceAll(text, secret, Redaction)
	}
	sort.Strings(rules)
	return text, rules
}

// NoopScrubber returns text unchanged.
type NoopScrubber struct{}

// Scrub implements Scrubber.
func (NoopScrubber) Scrub(text string) (string, []string) {
	return text, nil
}

// applyAllowlist merges allowlist patterns into the gitleaks config.
func applyAllowlist(cfg *gitleaksConfig.Config, allowlist *Allowlist) error {
	global := &gitleaksConfig.Allowlist{
		Description: "aura-frog project allowlist",
	}
	for _, pattern := range allowlist.Regexes {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidRegex, pattern, err)
		}
		global.Regexes = append(global.Regexes, (*gitleaksRegexp.Regexp)(re))
	}
	global.StopWords = append(global.StopWords, allowlist.StopWords...)
	cfg.Allowlists = append(cfg.Allowlists, global)
	return nil
}

var (
	_ Scrubber = (*GitleaksScrubber)(nil)
	_ Scrubber = NoopScrubber{}
)
