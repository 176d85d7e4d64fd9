package internal

import (
	"fmt"
	"go/token"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/gnolang/qlint/internal/nolint"
	"github.com/gnolang/qlint/internal/query"
	tt "github.com/gnolang/qlint/internal/types"
)

// CategorySyntax is the category of every issue the engine reports.
const CategorySyntax = "syntax"

// Engine manages the linting process.
type Engine struct {
	rootDir string
	logger  *zap.Logger
	cache   *Cache

	mu           sync.RWMutex
	rules        []LintRule // evaluation order
	ignoredRules map[string]bool
	ignoredPaths []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithCache enables result caching for Run.
func WithCache(cache *Cache) Option {
	return func(e *Engine) { e.cache = cache }
}

// NewEngine creates a new lint engine. Rules are configured by name;
// unknown names are ignored.
func NewEngine(rootDir string, rules map[string]tt.ConfigRule, opts ...Option) (*Engine, error) {
	engine := &Engine{
		rootDir:      rootDir,
		logger:       zap.NewNop(),
		ignoredRules: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(engine)
	}
	if engine.logger == nil {
		engine.logger = zap.NewNop()
	}
	engine.applyRules(rules)

	return engine, nil
}

func (e *Engine) applyRules(rules map[string]tt.ConfigRule) {
	e.rules = defaultRules()

	for key, rule := range rules {
		r := e.findRule(key)
		if r == nil {
			e.logger.Debug("unknown rule in configuration", zap.String("rule", key))
			continue
		}
		r.SetSeverity(rule.Severity)
	}
}

func (e *Engine) findRule(name string) LintRule {
	for _, r := range e.rules {
		if r.Name() == name {
			return r
		}
	}
	return nil
}

// Rules returns the names of the enabled rules in evaluation order.
func (e *Engine) Rules() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var names []string
	for _, r := range e.rules {
		if e.isActive(r) {
			names = append(names, r.Name())
		}
	}
	return names
}

// ruleSet identifies the enabled rules and their severities, in evaluation
// order. Cached results are only reused under the same rule set.
func (e *Engine) ruleSet() string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	parts := make([]string, 0, len(e.rules))
	for _, r := range e.rules {
		if e.isActive(r) {
			parts = append(parts, r.Name()+"="+r.Severity().String())
		}
	}
	return strings.Join(parts, ",")
}

func (e *Engine) isActive(r LintRule) bool {
	return r.Severity() != tt.SeverityOff && !e.ignoredRules[r.Name()]
}

// Run lints every query in the given file and returns a slice of Issues.
func (e *Engine) Run(filename string) ([]tt.Issue, error) {
	if e.IsIgnoredPath(filename) {
		return nil, nil
	}

	ruleSet := e.ruleSet()
	if e.cache != nil {
		if issues, ok := e.cache.Get(filename, ruleSet); ok {
			e.logger.Debug("cache hit", zap.String("file", filename))
			return issues, nil
		}
	}

	source, err := ReadSourceCode(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading query file: %w", err)
	}
	issues := e.lint(filename, source)

	if e.cache != nil {
		if err := e.cache.Set(filename, ruleSet, issues); err != nil {
			e.logger.Warn("failed to cache lint result", zap.String("file", filename), zap.Error(err))
		}
	}
	return issues, nil
}

// RunSource lints every query in the given source and returns a slice of Issues.
func (e *Engine) RunSource(source []byte) ([]tt.Issue, error) {
	return e.lint("", NewSourceCode(source)), nil
}

// Check validates a single query with the enabled rules.
func (e *Engine) Check(q string) query.Result {
	return query.ValidateWith(q, e.activeRules(nil))
}

// RunQuery lints a single query as if it were the only line of the named source.
func (e *Engine) RunQuery(name, q string) []tt.Issue {
	res := e.Check(q)
	if res.Accepted() {
		return nil
	}
	return []tt.Issue{e.newIssue(name, QueryLine{Line: 1, Text: q}, res)}
}

func (e *Engine) lint(filename string, source *SourceCode) []tt.Issue {
	nolintMgr := nolint.ParseLines(source.Lines)

	var issues []tt.Issue
	for _, ql := range source.Queries() {
		line := ql.Line
		res := query.ValidateWith(ql.Text, e.activeRules(func(rule string) bool {
			return nolintMgr.IsNolint(line, rule)
		}))
		if res.Accepted() {
			continue
		}
		issues = append(issues, e.newIssue(filename, ql, res))
	}
	return issues
}

// activeRules returns the enabled syntax rules in evaluation order, minus the skipped ones.
func (e *Engine) activeRules(skip func(rule string) bool) []query.Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]query.Rule, 0, len(e.rules))
	for _, r := range e.rules {
		if !e.isActive(r) || (skip != nil && skip(r.Name())) {
			continue
		}
		out = append(out, r.Rule())
	}
	return out
}

func (e *Engine) newIssue(filename string, ql QueryLine, res query.Result) tt.Issue {
	r := e.findRule(res.Rule)
	issue := tt.Issue{
		Rule:     res.Rule,
		Category: CategorySyntax,
		Filename: filename,
		Query:    ql.Text,
		Message:  res.Reason,
		Note:     fmt.Sprintf("%s is rule %d of %d in evaluation order", res.Rule, query.Position(res.Rule), len(query.Rules())),
		Start: token.Position{
			Filename: filename,
			Offset:   ql.Offset + res.Span.Start,
			Line:     ql.Line,
			Column:   res.Span.Start + 1,
		},
		End: token.Position{
			Filename: filename,
			Offset:   ql.Offset + res.Span.End,
			Line:     ql.Line,
			Column:   res.Span.End,
		},
	}
	if r != nil {
		issue.Severity = r.Severity()
		issue.Suggestion = r.Suggestion()
	}
	return issue
}

// IgnoreRule disables the named rule.
func (e *Engine) IgnoreRule(rule string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ignoredRules == nil {
		e.ignoredRules = make(map[string]bool)
	}
	e.ignoredRules[rule] = true
}

// IgnorePath skips files matching the given glob pattern or living under the given directory.
func (e *Engine) IgnorePath(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ignoredPaths = append(e.ignoredPaths, filepath.Clean(path))
}

// IsIgnoredPath reports whether path was excluded with IgnorePath.
func (e *Engine) IsIgnoredPath(path string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	path = filepath.Clean(path)
	for _, ignored := range e.ignoredPaths {
		if path == ignored || strings.HasPrefix(path, ignored+string(filepath.Separator)) {
			return true
		}
		if ok, _ := filepath.Match(ignored, path); ok {
			return true
		}
		if ok, _ := filepath.Match(ignored, filepath.Base(path)); ok {
			return true
		}
	}
	return false
}
