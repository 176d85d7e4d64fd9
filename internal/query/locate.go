package query

import "strings"

// Span is a half-open byte range [Start, End) within a query.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

func whole(q string) Span { return Span{Start: 0, End: len(q)} }

// NewRule builds a rule from a predicate that reports whether a query is
// well-formed. Failures of such a rule are located at the whole query.
func NewRule(name, reason string, check func(q string) bool) Rule {
	return Rule{Name: name, Reason: reason, check: check}
}

// Locate returns the span of q that the rule objects to. It only narrows the
// report: it is meaningful when Check(q) is false, and falls back to the
// whole query when nothing narrower can be found.
func (r Rule) Locate(q string) Span {
	if r.locate == nil {
		return whole(q)
	}
	if s, ok := r.locate(q); ok {
		return s
	}
	return whole(q)
}

func locateWildcard(q string) (Span, bool) {
	loc := misplacedWildcard.FindStringIndex(q)
	if loc == nil {
		return Span{}, false
	}
	// the match always ends with the '*'
	return Span{Start: loc[1] - 1, End: loc[1]}, true
}

func locateParen(q string) (Span, bool) {
	depth, open := 0, -1
	for i := 0; i < len(q); i++ {
		c := q[i]
		switch {
		case c == '(':
			if depth == 0 {
				open = i
				if i+1 < len(q) && q[i+1] == ')' {
					return Span{Start: i, End: i + 2}, true
				}
			}
			depth++
		case c == ')':
			if depth == 0 {
				return Span{Start: i, End: i + 1}, true
			}
			depth--
		case depth > 0 && !isGroupByte(c):
			return Span{Start: i, End: i + 1}, true
		}
	}
	if depth > 0 {
		return Span{Start: open, End: len(q)}, true
	}
	return Span{}, false
}

func locateModifier(q string) (Span, bool) {
	for i := 0; i < len(q); i++ {
		if q[i] != '+' && q[i] != '-' {
			continue
		}
		if i+1 == len(q) || !isModifierTailByte(q[i+1]) {
			return Span{Start: i, End: i + 1}, true
		}
	}
	return Span{}, false
}

func locateQuote(q string) (Span, bool) {
	i := strings.LastIndexByte(q, '"')
	if i < 0 {
		return Span{}, false
	}
	return Span{Start: i, End: i + 1}, true
}

func locateField(q string) (Span, bool) {
	last := -1
	for i := 0; i < len(q); i++ {
		if q[i] != ':' {
			continue
		}
		last = i
		before := i > 0 && (isWordByte(q[i-1]) || q[i-1] == '*')
		after := i+1 < len(q) && isFieldValueByte(q[i+1])
		if !before || !after {
			return Span{Start: i, End: i + 1}, true
		}
	}
	if last < 0 {
		return Span{}, false
	}
	// every colon looks fine on its own, so two pairs share a term (a:b:c)
	return Span{Start: last, End: last + 1}, true
}

func isGroupByte(c byte) bool {
	return isWordByte(c) || strings.IndexByte(`+-:()" *`, c) >= 0
}

func isModifierTailByte(c byte) bool {
	return isWordByte(c) || strings.IndexByte(`:()*`, c) >= 0
}

func isFieldValueByte(c byte) bool {
	return isWordByte(c) || strings.IndexByte(`()"*`, c) >= 0
}
