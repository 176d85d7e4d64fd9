package internal

import (
	"github.com/gnolang/qlint/internal/query"
	tt "github.com/gnolang/qlint/internal/types"
)

// LintRule defines the interface for all lint rules.
type LintRule interface {
	// Rule returns the syntax check the lint rule runs.
	Rule() query.Rule

	// Name returns the name of the lint rule.
	Name() string

	// Suggestion returns a hint on how to fix a violation.
	Suggestion() string

	Severity() tt.Severity
	SetSeverity(tt.Severity)
}

// SyntaxRule adapts a query syntax rule to the lint engine.
type SyntaxRule struct {
	rule       query.Rule
	suggestion string
	severity   tt.Severity
}

// NewSyntaxRule wraps r with error severity.
func NewSyntaxRule(r query.Rule) *SyntaxRule {
	return &SyntaxRule{
		rule:       r,
		suggestion: suggestions[r.Name],
		severity:   tt.SeverityError,
	}
}

func (r *SyntaxRule) Rule() query.Rule { return r.rule }

func (r *SyntaxRule) Name() string { return r.rule.Name }

func (r *SyntaxRule) Suggestion() string { return r.suggestion }

func (r *SyntaxRule) Severity() tt.Severity { return r.severity }

func (r *SyntaxRule) SetSeverity(s tt.Severity) { r.severity = s }

var suggestions = map[string]string{
	query.WildcardPlacement: "attach the wildcard to the end of a term prefix, e.g. `search*`",
	query.ParenContent:      "close every group and keep only terms, modifiers, fields and quotes inside, e.g. `(foo OR bar)`",
	query.ModifierAdjacency: "write the modifier directly before its term, e.g. `+required -excluded`",
	query.UnbalancedQuotes:  "add the missing closing quote, e.g. `\"exact phrase\"`",
	query.FieldScope:        "write fields as `name:value` with no spaces around the colon",
}

// defaultRules returns one lint rule per built-in syntax rule, in evaluation order.
func defaultRules() []LintRule {
	builtins := query.Rules()
	out := make([]LintRule, 0, len(builtins))
	for _, r := range builtins {
		out = append(out, NewSyntaxRule(r))
	}
	return out
}
