package nolint

import (
	"fmt"
	"strings"
)

const (
	commentPrefix = "#"
	nolintPrefix  = "nolint"
)

// Manager manages nolint scopes of a single query file and checks if a line is nolinted.
type Manager struct {
	scopes []nolintScope
}

// nolintScope represents a line range where nolint applies.
type nolintScope struct {
	rules map[string]struct{} // empty => apply to all rules
	start int
	end   int
}

// IsComment reports whether a query file line is a comment.
func IsComment(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), commentPrefix)
}

// ParseLines parses nolint comments in the lines of a query file and returns a Manager.
// Line numbers are 1-based.
func ParseLines(lines []string) *Manager {
	manager := &Manager{}
	firstQuery := findQueryLine(lines, 0)

	for i, line := range lines {
		if !IsComment(line) {
			continue
		}
		ns, err := parseComment(lines, i, firstQuery)
		if err != nil {
			// ignore ordinary comments and malformed directives
			continue
		}
		manager.scopes = append(manager.scopes, ns)
	}
	return manager
}

// parseComment parses the nolint comment at index idx and determines its scope.
func parseComment(lines []string, idx, firstQuery int) (nolintScope, error) {
	var ns nolintScope
	text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[idx]), commentPrefix))

	if !strings.HasPrefix(text, nolintPrefix) {
		return ns, fmt.Errorf("not a nolint comment")
	}
	rest := text[len(nolintPrefix):]

	// either a bare directive or a colon followed by rule names
	if len(rest) > 0 && rest[0] != ':' {
		return ns, fmt.Errorf("invalid nolint comment format")
	}
	if len(rest) > 0 {
		rest = strings.TrimSpace(rest[1:])
		if rest == "" {
			return ns, fmt.Errorf("invalid nolint comment: no rules specified after colon")
		}
	}
	ns.rules = parseIgnoreRuleNames(rest)

	// a header directive separated from the first query by a blank line covers the whole file
	if firstQuery < 0 || idx < firstQuery {
		if idx+1 < len(lines) && strings.TrimSpace(lines[idx+1]) == "" {
			ns.start = 1
			ns.end = len(lines)
			return ns, nil
		}
	}

	next := findQueryLine(lines, idx+1)
	if next < 0 {
		ns.start = idx + 1
		ns.end = idx + 1
		return ns, nil
	}
	ns.start = idx + 1
	ns.end = next + 1
	return ns, nil
}

// findQueryLine returns the index of the first query line at or after from, or -1.
func findQueryLine(lines []string, from int) int {
	for i := from; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" || IsComment(lines[i]) {
			continue
		}
		return i
	}
	return -1
}

// parseIgnoreRuleNames parses the rule list from the nolint comment.
func parseIgnoreRuleNames(text string) map[string]struct{} {
	rulesMap := make(map[string]struct{})
	if text == "" {
		return rulesMap
	}
	for _, rule := range strings.Split(text, ",") {
		rule = strings.TrimSpace(rule)
		if rule != "" {
			rulesMap[rule] = struct{}{}
		}
	}
	return rulesMap
}

// IsNolint checks if the given 1-based line and rule are nolinted.
func (m *Manager) IsNolint(line int, ruleName string) bool {
	if m == nil {
		return false
	}
	for _, ns := range m.scopes {
		if line < ns.start || line > ns.end {
			continue
		}
		if len(ns.rules) == 0 {
			return true
		}
		if _, exists := ns.rules[ruleName]; exists {
			return true
		}
	}
	return false
}
