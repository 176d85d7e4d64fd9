package nolint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNolintRules(t *testing.T) {
	t.Parallel()
	result := parseIgnoreRuleNames("rule1, rule2,,rule3")
	assert.Len(t, result, 3)
	for _, rule := range []string{"rule1", "rule2", "rule3"} {
		assert.Contains(t, result, rule)
	}
	assert.Empty(t, parseIgnoreRuleNames(""))
}

func TestParseLines(t *testing.T) {
	t.Parallel()
	src := `title:go
# nolint:field-scope,paren-content
field:
(term

# regular comment
# nolint

*foo
+ bar
#nolint:
- baz`
	manager := ParseLines(strings.Split(src, "\n"))

	tests := []struct {
		name string
		line int
		rule string
		want bool
	}{
		{"first query untouched", 1, "field-scope", false},
		{"listed rule on next query", 3, "field-scope", true},
		{"unlisted rule on next query", 3, "unbalanced-quotes", false},
		{"scope ends at next query", 4, "paren-content", false},
		{"bare directive skips blank lines", 9, "wildcard-placement", true},
		{"bare directive covers any rule", 9, "anything", true},
		{"one query only", 10, "modifier-adjacency", false},
		{"empty rule list is ignored", 12, "modifier-adjacency", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, manager.IsNolint(tt.line, tt.rule), tt.name)
	}
}

func TestParseLinesFileScope(t *testing.T) {
	t.Parallel()
	src := "# nolint:unbalanced-quotes\n\nsay \"hi\nfoo:\n\"again"
	manager := ParseLines(strings.Split(src, "\n"))

	assert.True(t, manager.IsNolint(3, "unbalanced-quotes"))
	assert.True(t, manager.IsNolint(5, "unbalanced-quotes"))
	assert.False(t, manager.IsNolint(4, "field-scope"))
}

func TestIsComment(t *testing.T) {
	t.Parallel()
	assert.True(t, IsComment("# note"))
	assert.True(t, IsComment("   #nolint"))
	assert.False(t, IsComment("title:#1"))

	var m *Manager
	assert.False(t, m.IsNolint(1, "x"))
}
