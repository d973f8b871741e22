package learning

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Length bounds for learnable feedback, in characters.
const (
	MinLearnableLength = 15
	MaxLearnableLength = 200
)

// LearnReason explains an IsLearnable verdict.
type LearnReason string

const (
	ReasonTooShort           LearnReason = "too_short"
	ReasonTooLong            LearnReason = "too_long"
	ReasonTaskSpecific       LearnReason = "task_specific"
	ReasonGeneralIndicator   LearnReason = "general_indicator"
	ReasonLikelyTaskSpecific LearnReason = "likely_task_specific"
	ReasonNoIndicators       LearnReason = "no_specific_indicators"
)

// Learnability is the verdict of IsLearnable.
type Learnability struct {
	Learnable bool
	Reason    LearnReason
	// TaskIndicators names the distinct task-specific indicators that matched.
	TaskIndicators []string
}

// generalIndicators mark feedback phrased as a standing rule.
var generalIndicators = regexp.MustCompile(`(?i)\b(?:always|never|prefer(?:red|s)?|style|conventions?|by default|avoid|from now on|instead of|in general|whenever|every time|consistently|const|let|var|semicolons?|quotes|tabs|spaces|indentation|camel ?case|arrow functions?|trailing commas?|early returns?)\b`)

// taskIndicator is a named pattern that ties feedback to one concrete task.
type taskIndicator struct {
	name  string
	regex *regexp.Regexp
}

// taskIndicators are counted by distinct name. Identifier shapes are matched
// case-sensitively.
var taskIndicators = []taskIndicator{
	{"file_path", regexp.MustCompile(`[\w.-]+(?:/[\w.-]+){2,}|[\w-]+/[\w-]+\.\w+`)},
	{"file_extension", regexp.MustCompile(`(?i)\w\.(?:tsx?|jsx?|mjs|cjs|py|go|rs|java|kt|swift|dart|php|rb|css|scss|html|vue|svelte|json|ya?ml|toml|md|sh|sql)\b`)},
	{"color_literal", regexp.MustCompile(`(?i)#[0-9a-f]{3,8}\b|\brgba?\(|\bhsla?\(|\b(?:red|green|blue|yellow|orange|purple|pink|black|white|gr[ae]y)\b`)},
	{"multi_digit_number", regexp.MustCompile(`\b\d{2,}\b`)},
	{"camel_case", regexp.MustCompile(`\b[a-z]+[A-Z][a-zA-Z0-9]*\b`)},
	{"snake_case", regexp.MustCompile(`\b[a-z0-9]+_[a-z0-9_]+\b`)},
	{"pascal_case", regexp.MustCompile(`\b[A-Z][a-z0-9]+[A-Z][a-zA-Z0-9]*\b`)},
	{"ui_element", regexp.MustCompile(`(?i)\b(?:button|modal|dialog|navbar|sidebar|header|footer|dropdown|tooltip|menu|card|checkbox|input field|text ?box|icon|banner)\b`)},
	{"function_call", regexp.MustCompile(`\b\w+\([^)]*\)`)},
	{"line_reference", regexp.MustCompile(`(?i)\b(?:lines?|row|column|col)\s+\d+|:\d+:\d+|\bL\d+\b`)},
	{"rename", regexp.MustCompile(`(?i)\brename\b.+\bto\b`)},
}

// IsLearnable decides whether feedback is a reusable preference rather than
// an instruction tied to one file, identifier or position.
func IsLearnable(text string) Learnability {
	input := strings.TrimSpace(text)
	n := utf8.RuneCountInString(input)
	if n < MinLearnableLength {
		return Learnability{Reason: ReasonTooShort}
	}
	if n > MaxLearnableLength {
		return Learnability{Reason: ReasonTooLong}
	}

	var matched []string
	for _, ind := range taskIndicators {
		if ind.regex.MatchString(input) {
			matched = append(matched, ind.name)
		}
	}
	general := generalIndicators.MatchString(input)

	switch {
	case len(matched) >= 2:
		return Learnability{Reason: ReasonTaskSpecific, TaskIndicators: matched}
	case general:
		return Learnability{Learnable: true, Reason: ReasonGeneralIndicator, TaskIndicators: matched}
	case len(matched) == 1:
		return Learnability{Reason: ReasonLikelyTaskSpecific, TaskIndicators: matched}
	default:
		return Learnability{Learnable: true, Reason: ReasonNoIndicators}
	}
}
