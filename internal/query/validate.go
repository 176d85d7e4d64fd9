package query

import (
	"errors"
	"fmt"
)

// ErrRejected is wrapped by every RejectedError.
var ErrRejected = errors.New("query rejected")

// Result is the outcome of validating one query.
// The zero value is an accepted result.
type Result struct {
	// Rule is the name of the first failing rule, empty when accepted.
	Rule string
	// Reason is the failing rule's message, empty when accepted.
	Reason string
	// Span locates the offending text within the query.
	Span Span
}

// Accepted reports whether no rule failed.
func (r Result) Accepted() bool {
	return r.Rule == ""
}

// Err returns nil for an accepted result and a *RejectedError otherwise.
func (r Result) Err() error {
	if r.Accepted() {
		return nil
	}
	return &RejectedError{Rule: r.Rule, Reason: r.Reason, Span: r.Span}
}

// RejectedError describes a rejected query.
type RejectedError struct {
	Rule   string
	Reason string
	Span   Span
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Rule, e.Reason)
}

func (e *RejectedError) Unwrap() error { return ErrRejected }

// Validate runs the built-in rules over q in order and returns the first
// failure. Empty input is always accepted.
func Validate(q string) Result {
	return ValidateWith(q, rules)
}

// ValidateWith is like Validate but evaluates the given rules in the given
// order.
func ValidateWith(q string, rs []Rule) Result {
	if len(q) == 0 {
		return Result{}
	}
	for _, r := range rs {
		if r.Check(q) {
			continue
		}
		return Result{
			Rule:   r.Name,
			Reason: r.Reason,
			Span:   r.Locate(q),
		}
	}
	return Result{}
}
