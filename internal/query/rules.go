package query

import (
	"regexp"
	"strings"
)

// Rule names, in evaluation order.
const (
	WildcardPlacement = "wildcard-placement"
	ParenContent      = "paren-content"
	ModifierAdjacency = "modifier-adjacency"
	UnbalancedQuotes  = "unbalanced-quotes"
	FieldScope        = "field-scope"
)

var (
	// a '*' at the start, or right after a non-word character
	misplacedWildcard = regexp.MustCompile(`^\*|[^a-zA-Z0-9_]\*`)

	// paren-free runs interleaved with flat groups
	parenGroups = regexp.MustCompile(`^([^()]*|\(([a-zA-Z0-9_+\-:()" ]|\*)+\))*$`)

	// every modifier glued to a token
	gluedModifiers = regexp.MustCompile(`^([^+-]*|[+-]([a-zA-Z0-9_:()]|\*)+)*$`)

	// colon-free runs interleaved with field:value pairs
	fieldPairs = regexp.MustCompile(`^([^:]*|([a-zA-Z0-9_]|\*)+:([a-zA-Z0-9_()"]|\*)+)*$`)
)

// Rule is a single syntax check over a whole query string.
type Rule struct {
	// Name identifies the rule in configuration and reports.
	Name string
	// Reason is the fixed message reported when the rule fails.
	Reason string

	check  func(q string) bool
	locate func(q string) (Span, bool)
}

// Check reports whether q satisfies the rule.
func (r Rule) Check(q string) bool {
	if r.check == nil {
		return true
	}
	return r.check(q)
}

var rules = []Rule{
	{
		Name:   WildcardPlacement,
		Reason: "wildcard (*) must be preceded by an alphanumeric/underscore character",
		check:  checkWildcard,
		locate: locateWildcard,
	},
	{
		Name:   ParenContent,
		Reason: "parentheses must contain at least one alphanumeric/underscore character, with valid content",
		check:  parenGroups.MatchString,
		locate: locateParen,
	},
	{
		Name:   ModifierAdjacency,
		Reason: "'+'/'-' modifiers must be followed by at least one alphanumeric/underscore character",
		check:  gluedModifiers.MatchString,
		locate: locateModifier,
	},
	{
		Name:   UnbalancedQuotes,
		Reason: `quote (") marks must be closed in pairs`,
		check:  checkQuotes,
		locate: locateQuote,
	},
	{
		Name:   FieldScope,
		Reason: "field declarations (:) must be preceded and followed by at least one alphanumeric/underscore character",
		check:  fieldPairs.MatchString,
		locate: locateField,
	},
}

// Rules returns the built-in rules in evaluation order.
// The returned slice is a copy and may be filtered or reordered freely.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Lookup returns the built-in rule with the given name.
func Lookup(name string) (Rule, bool) {
	for _, r := range rules {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}

// Position returns the 1-based evaluation position of the named rule,
// or 0 if no built-in rule has that name.
func Position(name string) int {
	for i, r := range rules {
		if r.Name == name {
			return i + 1
		}
	}
	return 0
}

func checkWildcard(q string) bool {
	return !misplacedWildcard.MatchString(q)
}

func checkQuotes(q string) bool {
	return strings.Count(q, `"`)%2 == 0
}

func isWordByte(c byte) bool {
	return c == '_' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}
