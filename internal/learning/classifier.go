package learning

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Confidence levels assigned by Classify.
const (
	ConfidencePattern       = 0.9
	ConfidenceApproval      = 0.8
	ConfidenceKeywords      = 0.7
	ConfidenceSingleKeyword = 0.5
)

// signalRule pairs a compiled regex with the kind it detects and a fixed
// confidence. Rules are evaluated in order; the first match wins.
type signalRule struct {
	regex      *regexp.Regexp
	kind       Kind
	confidence float64
}

func correction(pattern string) signalRule {
	return signalRule{regex: regexp.MustCompile(`(?i)` + pattern), kind: KindCorrection, confidence: ConfidencePattern}
}

func approval(pattern string) signalRule {
	return signalRule{regex: regexp.MustCompile(`(?i)` + pattern), kind: KindApproval, confidence: ConfidenceApproval}
}

// signalRules lists correction patterns before approval patterns, so a message
// that matches both is a correction.
var signalRules = []signalRule{
	// Direct negations
	correction(`^no[,.\s!]`),
	correction(`^nope`),
	correction(`^wrong`),
	correction(`^incorrect`),
	correction(`^that's not (right|correct|what)`),
	correction(`^that was wrong`),

	// Correction phrases
	correction(`^actually[,\s]`),
	correction(`should (be|have|use|not)`),
	correction(`shouldn't (be|have|use|do)`),
	correction(`instead of`),
	correction(`not like that`),
	correction(`don't (do|add|use|put|include|create|make|write)`),
	correction(`do not (do|add|use|put|include|create|make|write)`),
	correction(`never (add|use|do|include|create|make|write)`),
	correction(`stop (adding|using|doing|including|creating|making|writing)`),

	// Modification requests
	correction(`^(change|fix|update|modify|correct|adjust|remove|delete|undo) (that|this|it)`),
	correction(`^(change|fix|update|modify|correct) the`),
	correction(`^that should`),
	correction(`^it should`),
	correction(`^please (don't|do not|stop|change|fix|remove)`),

	// Preference statements
	correction(`^i (prefer|want|need|like)`),
	correction(`^always (use|add|include)`),
	correction(`^(too|very) (verbose|long|short|complex|simple)`),

	// Critique
	correction(`^(why did you|why are you)`),
	correction(`^that's (too|unnecessary|overkill|wrong)`),
	correction(`^(remove|delete|get rid of) (the|all|those|these) (comments?|jsdoc|docstrings?|annotations?)`),

	approval(`^(good|great|perfect|excellent|nice|awesome|well done)`),
	approval(`^that's (good|great|perfect|right|correct|what i wanted)`),
	approval(`^(yes|yep|yeah)[,.\s!]`),
	approval(`^exactly`),
	approval(`^looks good`),
	approval(`^thank(s| you)`),
}

// correctionKeywords are weaker correction hints matched as lowercase
// substrings when no pattern matched.
var correctionKeywords = []string{
	"wrong", "incorrect", "mistake", "error", "fix", "change", "update",
	"don't", "dont", "shouldn't", "shouldnt", "never", "stop",
	"remove", "delete", "undo", "revert", "actually", "instead",
	"too much", "too many", "unnecessary", "overkill", "verbose",
	"not like", "not what", "prefer", "want you to", "need you to",
}

// Classify detects whether text is a correction, an approval or neither.
// It is a pure function of its input.
func Classify(text string) FeedbackSignal {
	input := strings.TrimSpace(text)
	if utf8.RuneCountInString(input) < 3 {
		return FeedbackSignal{Kind: KindNone}
	}

	for _, rule := range signalRules {
		if rule.regex.MatchString(input) {
			return FeedbackSignal{
				Kind:       rule.kind,
				Confidence: rule.confidence,
				Evidence:   []string{rule.regex.String()},
			}
		}
	}

	lower := strings.ToLower(input)
	var matched []string
	for _, kw := range correctionKeywords {
		if strings.Contains(lower, kw) {
			matched = append(matched, kw)
		}
	}

	switch {
	case len(matched) >= 2:
		return FeedbackSignal{Kind: KindCorrection, Confidence: ConfidenceKeywords, Evidence: matched}
	case len(matched) == 1:
		return FeedbackSignal{Kind: KindCorrection, Confidence: ConfidenceSingleKeyword, Evidence: matched}
	default:
		return FeedbackSignal{Kind: KindNone}
	}
}
