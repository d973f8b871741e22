package learning

import "strings"

// ruleDescriptions are the sentences stored on promoted patterns.
var ruleDescriptions = map[string]string{
	"no_excessive_comments":  "Avoid excessive comments; let code explain itself",
	"add_comments":           "Add comments where intent is not obvious",
	"comments":               "Follow the user's commenting preferences",
	"no_emojis":              "Do not use emojis in code or output",
	"emojis":                 "Follow the user's emoji preferences",
	"be_concise":             "Be concise; avoid verbose output",
	"keep_it_simple":         "Keep it simple; avoid over-engineering",
	"strict_types":           "Use strict typing",
	"no_any_type":            "Avoid the any type",
	"type_safety":            "Prefer type-safe code",
	"prefer_arrow_functions": "Prefer arrow functions",
	"prefer_const":           "Prefer const over let",
	"variable_declaration":   "Follow the user's variable declaration style",
	"async_await":            "Prefer async/await over promise chains",
	"test_structure":         "Follow the user's test structure",
	"test_quality":           "Write meaningful tests",
	"organize_imports":       "Keep imports organized",
	"imports":                "Follow the user's import conventions",
	"naming_convention":      "Follow the project naming convention",
	"naming":                 "Use clear, descriptive names",
	"simplicity":             "Prefer simple, readable code",
	"error_handling":         "Handle errors explicitly",
	"security_practice":      "Follow secure coding practices",
	"code_formatting":        "Follow the project formatting style",
	"hooks_usage":            "Follow the user's hooks usage rules",
	"component_design":       "Follow the user's component design preferences",
	"preference":             "General user preference",
}

// Describe returns the human sentence for a category.
func Describe(c Category) string {
	if d, ok := ruleDescriptions[c.Rule]; ok {
		return d
	}
	return "User preference: " + strings.ReplaceAll(c.Rule, "_", " ")
}
