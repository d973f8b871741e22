package learning

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	normalizeMaxRunes = 200
	fingerprintLength = 16
)

// Normalize lowercases text, collapses whitespace runs to one space and
// truncates to 200 characters.
func Normalize(text string) string {
	collapsed := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	runes := []rune(collapsed)
	if len(runes) > normalizeMaxRunes {
		return string(runes[:normalizeMaxRunes])
	}
	return collapsed
}

// Fingerprint returns a stable 16 hex character hash of the normalized text.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])[:fingerprintLength]
}
