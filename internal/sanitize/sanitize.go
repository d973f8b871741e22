// Package sanitize turns free-form names into safe file system path segments.
//
// Project names come from manifests (package.json, Cargo.toml, ...) and are
// used as directory names under the project context cache, so they must not
// contain separators or traversal sequences.
package sanitize

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	// MaxSegmentLength is the maximum length of a sanitized segment.
	MaxSegmentLength = 64

	// hashSuffixLength is the length of "-<8 hex chars>".
	hashSuffixLength = 9

	// DefaultSegment is used when sanitization produces an empty result.
	DefaultSegment = "default"
)

// PathSegment sanitizes s for use as a single path element.
//
// Letters, digits, '.', '_' and '-' are kept; every other run of characters
// becomes a single '-'. Leading and trailing separators and dots are trimmed,
// so the result is never "." or "..". Results longer than MaxSegmentLength
// are truncated and suffixed with a hash of the input.
//
// Examples:
//
//	"my-app"        -> "my-app"
//	"vendor/pkg"    -> "vendor-pkg"
//	"../../etc"     -> "etc"
//	"" or "///"     -> "default"
func PathSegment(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastDash := false
	for _, r := range s {
		if isSegmentRune(r) {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}

	out := strings.Trim(b.String(), "-.")
	if out == "" {
		return DefaultSegment
	}
	if len(out) > MaxSegmentLength {
		out = truncateWithHash(s, out)
	}
	return out
}

func isSegmentRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
		r == '.' || r == '_' || r == '-'
}

// truncateWithHash keeps the head of sanitized and appends a hash of the
// original so distinct long names stay distinct.
func truncateWithHash(original, sanitized string) string {
	hash := sha256.Sum256([]byte(original))
	suffix := "-" + hex.EncodeToString(hash[:])[:8]
	head := strings.TrimRight(sanitized[:MaxSegmentLength-hashSuffixLength], "-.")
	return head + suffix
}
