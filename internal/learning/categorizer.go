package learning

import (
	"regexp"
	"strings"
)

// Category names of the feedback taxonomy.
const (
	CategoryCodeStyle     = "code_style"
	CategoryCodeQuality   = "code_quality"
	CategoryTesting       = "testing"
	CategoryErrorHandling = "error_handling"
	CategorySecurity      = "security"
	CategoryFormatting    = "formatting"
	CategoryReact         = "react"
	CategoryGeneral       = "general"
	CategoryWorkflow      = "workflow"
	CategoryWorkflowEdit  = "workflow_edit"
)

// ValidCategories maps valid category strings to true.
var ValidCategories = map[string]bool{
	CategoryCodeStyle:     true,
	CategoryCodeQuality:   true,
	CategoryTesting:       true,
	CategoryErrorHandling: true,
	CategorySecurity:      true,
	CategoryFormatting:    true,
	CategoryReact:         true,
	CategoryGeneral:       true,
	CategoryWorkflow:      true,
	CategoryWorkflowEdit:  true,
}

// Category is a (category, rule) taxonomy bucket.
type Category struct {
	Category string
	Rule     string
}

// Key returns the "category:rule" counter key.
func (c Category) Key() string {
	return PatternKey(c.Category, c.Rule)
}

// DefaultCategory is returned when no branch matches.
var DefaultCategory = Category{Category: CategoryGeneral, Rule: "preference"}

// subRule refines a matched branch into a specific rule.
type subRule struct {
	regex *regexp.Regexp
	rule  string
}

// categoryBranch is one node of the decision tree. Branches are evaluated in
// order over lowercased text; within a matching branch the first matching
// sub-rule wins, else fallback.
type categoryBranch struct {
	trigger  *regexp.Regexp
	category string
	subRules []subRule
	fallback string
}

var (
	removeIntent = regexp.MustCompile(`\b(?:remove|delete|no|less|fewer|too many|excessive|get rid of|stop|don't|do not|without|unnecessary|drop)\b`)
	addIntent    = regexp.MustCompile(`\b(?:add|more|include|write|need|missing)\b`)
	anyType      = regexp.MustCompile(`\bany type\b|\bany\s+types\b|:\s*any\b|\bas any\b|\bno any\b|\bthe any\b|\busing any\b|\buse any\b`)
	letOrVar     = regexp.MustCompile(`\b(?:use|using|with|declare|declaring|prefer)\s+(?:let|var)\b|\b(?:let|var)\s+(?:instead|declarations?|keyword|statements?)\b`)
	reactHooks   = regexp.MustCompile(`\buse(?:state|effect|memo|callback|ref|context|reducer)\b|\bhooks?\b`)
)

var categoryBranches = []categoryBranch{
	{
		trigger:  regexp.MustCompile(`\b(?:comments?|commenting|jsdoc|docstrings?|annotations?|documentation)\b`),
		category: CategoryCodeStyle,
		subRules: []subRule{
			{removeIntent, "no_excessive_comments"},
			{addIntent, "add_comments"},
		},
		fallback: "comments",
	},
	{
		trigger:  regexp.MustCompile(`\b(?:emojis?|emoticons?)\b`),
		category: CategoryCodeStyle,
		subRules: []subRule{{removeIntent, "no_emojis"}},
		fallback: "emojis",
	},
	{
		trigger:  regexp.MustCompile(`\b(?:verbose|verbosity|concise|wordy|too long|shorter|brief|overkill|over-?engineer\w*|keep it simple)\b`),
		category: CategoryCodeStyle,
		subRules: []subRule{
			{regexp.MustCompile(`overkill|over-?engineer|keep it simple`), "keep_it_simple"},
		},
		fallback: "be_concise",
	},
	{
		trigger:  regexp.MustCompile(`\b(?:types?|typing|typed|typescript|type-safe|type safety)\b|` + anyType.String()),
		category: CategoryCodeStyle,
		subRules: []subRule{
			{regexp.MustCompile(`\bstrict\w*\b`), "strict_types"},
			{anyType, "no_any_type"},
		},
		fallback: "type_safety",
	},
	{
		trigger:  regexp.MustCompile(`arrow|=>|\bconst\b|\basync\b|\bawait\b|\.then\(|\bpromises?\b|` + letOrVar.String()),
		category: CategoryCodeStyle,
		subRules: []subRule{
			{regexp.MustCompile(`arrow|=>`), "prefer_arrow_functions"},
			{regexp.MustCompile(`\bconst\b`), "prefer_const"},
			{letOrVar, "variable_declaration"},
		},
		fallback: "async_await",
	},
	{
		trigger:  regexp.MustCompile(`\b(?:tests?|testing|specs?|coverage|mocks?|mocking|assertions?|jest|vitest|pytest)\b`),
		category: CategoryTesting,
		subRules: []subRule{
			{regexp.MustCompile(`\b(?:describe|structure|organi[sz]e|group\w*|setup|arrange|layout)\b`), "test_structure"},
		},
		fallback: "test_quality",
	},
	{
		trigger:  regexp.MustCompile(`\b(?:imports?|exports?|modules?|require)\b`),
		category: CategoryCodeStyle,
		subRules: []subRule{
			{regexp.MustCompile(`\b(?:order\w*|organi[sz]\w*|sort\w*|group\w*|alphabeti\w*)\b`), "organize_imports"},
		},
		fallback: "imports",
	},
	{
		trigger:  regexp.MustCompile(`\b(?:naming|names?|named|rename|camel ?case|snake_case|snake case|pascal ?case|kebab-case)\b`),
		category: CategoryCodeStyle,
		subRules: []subRule{
			{regexp.MustCompile(`camel|snake|pascal|kebab|convention`), "naming_convention"},
		},
		fallback: "naming",
	},
	{
		trigger:  regexp.MustCompile(`\b(?:complex\w*|simpl\w*|readab\w*|refactor\w*|clean(?:er)?|nest(?:ed|ing))\b`),
		category: CategoryCodeQuality,
		fallback: "simplicity",
	},
	{
		trigger:  regexp.MustCompile(`\b(?:errors?|exceptions?|throw\w*|try[- /]catch|catch(?:es|ing)?|error handling)\b`),
		category: CategoryErrorHandling,
		fallback: "error_handling",
	},
	{
		trigger:  regexp.MustCompile(`\b(?:security|secure|insecure|auth\w*|passwords?|tokens?|secrets?|credentials?|sanitiz\w*|injection|xss|csrf|api keys?)\b`),
		category: CategorySecurity,
		fallback: "security_practice",
	},
	{
		trigger:  regexp.MustCompile(`\b(?:format\w*|indent\w*|prettier|whitespace|line length|semicolons?|quotes|tabs|spaces|trailing commas?|brackets?|braces?)\b`),
		category: CategoryFormatting,
		fallback: "code_formatting",
	},
	{
		trigger:  regexp.MustCompile(`\b(?:react|components?|props?|hooks?|jsx)\b|` + reactHooks.String()),
		category: CategoryReact,
		subRules: []subRule{{reactHooks, "hooks_usage"}},
		fallback: "component_design",
	},
}

// Categorize maps feedback text to a taxonomy bucket. The first matching
// branch wins; DefaultCategory is returned when none match.
func Categorize(text string) Category {
	lower := strings.ToLower(text)
	for _, b := range categoryBranches {
		if !b.trigger.MatchString(lower) {
			continue
		}
		for _, sr := range b.subRules {
			if sr.regex.MatchString(lower) {
				return Category{Category: b.category, Rule: sr.rule}
			}
		}
		return Category{Category: b.category, Rule: b.fallback}
	}
	return DefaultCategory
}
