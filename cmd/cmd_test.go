package cmd

import (
	"bytes"
	"encoding/json"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gnolang/qlint/internal"
	"github.com/gnolang/qlint/internal/query"
	"github.com/gnolang/qlint/internal/types"
	"github.com/gnolang/qlint/lint"
)

func init() {
	color.NoColor = true
}

type mockLintEngine struct {
	mock.Mock
}

func (m *mockLintEngine) Run(filePath string) ([]types.Issue, error) {
	args := m.Called(filePath)
	return args.Get(0).([]types.Issue), args.Error(1)
}

func (m *mockLintEngine) RunSource(source []byte) ([]types.Issue, error) {
	args := m.Called(source)
	return args.Get(0).([]types.Issue), args.Error(1)
}

func (m *mockLintEngine) IgnoreRule(rule string) {
	m.Called(rule)
}

func (m *mockLintEngine) IgnorePath(path string) {
	m.Called(path)
}

func newTestEngine(t *testing.T) *internal.Engine {
	t.Helper()
	engine, err := internal.NewEngine(".", nil)
	require.NoError(t, err)
	return engine
}

func TestSplitList(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    string
		expected []string
	}{
		{"", nil},
		{"field-scope", []string{"field-scope"}},
		{" field-scope , unbalanced-quotes ", []string{"field-scope", "unbalanced-quotes"}},
		{"a,,b,", []string{"a", "b"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, splitList(tt.input), "input %q", tt.input)
	}
}

func TestApplyIgnores(t *testing.T) {
	t.Parallel()
	mockEngine := new(mockLintEngine)
	mockEngine.On("IgnoreRule", "field-scope").Return()
	mockEngine.On("IgnoreRule", "paren-content").Return()
	mockEngine.On("IgnorePath", "vendor").Return()

	applyIgnores(mockEngine, "field-scope, paren-content", "vendor")

	mockEngine.AssertExpectations(t)
}

func TestRunNormalLintProcess(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "saved.query")
	require.NoError(t, os.WriteFile(path, []byte("title:go\nbad:\n"), 0o644))

	issues := []types.Issue{
		{
			Rule:     query.FieldScope,
			Filename: path,
			Query:    "bad:",
			Message:  "field declarations (:) must be preceded and followed by at least one alphanumeric/underscore character",
			Start:    token.Position{Filename: path, Line: 2, Column: 4},
			End:      token.Position{Filename: path, Line: 2, Column: 4},
		},
	}
	mockEngine := new(mockLintEngine)
	mockEngine.On("Run", path).Return(issues, nil)

	var out bytes.Buffer
	err := runNormalLintProcess(t.Context(), zap.NewNop(), mockEngine, []string{path}, &out, false, "")
	assert.ErrorIs(t, err, errIssuesFound)
	assert.Contains(t, out.String(), "field-scope")
	assert.Contains(t, out.String(), "2 | bad:")

	mockEngine.AssertExpectations(t)
}

func TestRunNormalLintProcessClean(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "saved.query")
	require.NoError(t, os.WriteFile(path, []byte("title:go\n"), 0o644))

	mockEngine := new(mockLintEngine)
	mockEngine.On("Run", path).Return([]types.Issue(nil), nil)

	var out bytes.Buffer
	err := runNormalLintProcess(t.Context(), zap.NewNop(), mockEngine, []string{path}, &out, false, "")
	assert.NoError(t, err)
	assert.Empty(t, out.String())
}

func TestRunNormalLintProcessJSONFile(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "saved.query")
	require.NoError(t, os.WriteFile(path, []byte("\"open\n"), 0o644))
	jsonPath := filepath.Join(tempDir, "out.json")

	engine := newTestEngine(t)

	var out bytes.Buffer
	err := runNormalLintProcess(t.Context(), zap.NewNop(), engine, []string{path}, &out, true, jsonPath)
	assert.ErrorIs(t, err, errIssuesFound)
	assert.Empty(t, out.String())

	d, err := os.ReadFile(jsonPath)
	require.NoError(t, err)

	var byFile map[string][]types.Issue
	require.NoError(t, json.Unmarshal(d, &byFile))
	require.Len(t, byFile[path], 1)
	assert.Equal(t, query.UnbalancedQuotes, byFile[path][0].Rule)
	assert.Equal(t, types.SeverityError, byFile[path][0].Severity)
}

func TestRunCheckArgs(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	var out bytes.Buffer
	err := runCheckArgs(engine, []string{"title:go", "+fast", "(a OR b)"}, &out, false)
	assert.NoError(t, err)
	assert.Equal(t, "ok\n", out.String())

	out.Reset()
	err = runCheckArgs(engine, []string{"title:go", "*x"}, &out, false)
	assert.ErrorIs(t, err, errIssuesFound)
	assert.Contains(t, out.String(), query.WildcardPlacement)
	assert.Contains(t, out.String(), "<query>:1:1")
	assert.NotContains(t, out.String(), "ok\n")
}

func TestRunCheckArgsJSON(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	var out bytes.Buffer
	err := runCheckArgs(engine, []string{"a b", "a:"}, &out, true)
	assert.ErrorIs(t, err, errIssuesFound)

	var results []checkResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	require.Len(t, results, 2)
	assert.True(t, results[0].Accepted)
	assert.Empty(t, results[0].Rule)
	assert.False(t, results[1].Accepted)
	assert.Equal(t, query.FieldScope, results[1].Rule)
	assert.Equal(t, "field declarations (:) must be preceded and followed by at least one alphanumeric/underscore character", results[1].Reason)
}

func TestRunCheckStdin(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	input := strings.NewReader("# saved searches\ntitle:go\n\n(a OR b\n")

	var out bytes.Buffer
	err := runCheckStdin(engine, input, &out, false)
	assert.ErrorIs(t, err, errIssuesFound)
	assert.Contains(t, out.String(), query.ParenContent)
	assert.Contains(t, out.String(), "<stdin>:4:")
	assert.Contains(t, out.String(), "4 | (a OR b")
}

func TestRunCheckStdinJSON(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	input := strings.NewReader("title:go\n#tag:x\n\n#tag:\n# nolint\n\"open\n- x\n")

	var out bytes.Buffer
	err := runCheckStdin(engine, input, &out, true)
	assert.ErrorIs(t, err, errIssuesFound)

	var results []checkResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	require.Len(t, results, 6)
	assert.True(t, results[0].Accepted)
	assert.Equal(t, "#tag:x", results[1].Query)
	assert.True(t, results[1].Accepted)
	assert.Equal(t, "#tag:", results[2].Query)
	assert.False(t, results[2].Accepted, "lines starting with '#' are queries on stdin")
	assert.Equal(t, query.FieldScope, results[2].Rule)
	assert.True(t, results[3].Accepted)
	assert.False(t, results[4].Accepted, "nolint does not apply on stdin")
	assert.Equal(t, query.UnbalancedQuotes, results[4].Rule)
	assert.False(t, results[5].Accepted)
	assert.Equal(t, query.ModifierAdjacency, results[5].Rule)
}

func TestRunCheckStdinHashLine(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	var out bytes.Buffer
	err := runCheckStdin(engine, strings.NewReader("title:go\n#tag:\n"), &out, false)
	assert.ErrorIs(t, err, errIssuesFound)
	assert.Contains(t, out.String(), query.FieldScope)
	assert.Contains(t, out.String(), "<stdin>:2:")
	assert.Contains(t, out.String(), "2 | #tag:")
}

func TestRunCheckStdinEmpty(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	var out bytes.Buffer
	err := runCheckStdin(engine, strings.NewReader(""), &out, false)
	assert.NoError(t, err)
	assert.Equal(t, "ok\n", out.String())
}

func TestInitConfigurationFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), ".qlint.yaml")

	require.NoError(t, initConfigurationFile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "name: qlint")
	for _, r := range query.Rules() {
		assert.Contains(t, string(content), r.Name+":")
	}
	assert.Contains(t, string(content), "severity: ERROR")

	engine, err := lint.New(".", path)
	require.NoError(t, err)
	assert.Len(t, engine.Rules(), len(query.Rules()))
}

func TestNewWatchReporter(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	report := newWatchReporter(&out)

	report("clean.query", nil)
	assert.Equal(t, "clean.query: ok\n", out.String())

	out.Reset()
	report(filepath.Join(t.TempDir(), "gone.query"), []types.Issue{
		{
			Rule:    query.UnbalancedQuotes,
			Query:   `"open`,
			Message: `quote (") marks must be closed in pairs`,
			Start:   token.Position{Line: 1, Column: 1},
			End:     token.Position{Line: 1, Column: 1},
		},
	})
	assert.Contains(t, out.String(), query.UnbalancedQuotes)
	assert.Contains(t, out.String(), `1 | "open`)
}

func TestLoadServeConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cmd := &cobra.Command{}
		addServeFlags(cmd)

		cfg, err := loadServeConfig(cmd)
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, int64(64<<10), cfg.MaxBodyBytes)
		assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("QLINT_ADDR", "127.0.0.1:9090")
		t.Setenv("QLINT_MAX_BODY_BYTES", "1024")

		cmd := &cobra.Command{}
		addServeFlags(cmd)

		cfg, err := loadServeConfig(cmd)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:9090", cfg.Addr)
		assert.Equal(t, int64(1024), cfg.MaxBodyBytes)
	})

	t.Run("flag overrides environment", func(t *testing.T) {
		t.Setenv("QLINT_ADDR", "127.0.0.1:9090")

		cmd := &cobra.Command{}
		addServeFlags(cmd)
		require.NoError(t, cmd.Flags().Set("addr", ":7070"))

		cfg, err := loadServeConfig(cmd)
		require.NoError(t, err)
		assert.Equal(t, ":7070", cfg.Addr)
	})

	t.Run("empty address", func(t *testing.T) {
		cmd := &cobra.Command{}
		addServeFlags(cmd)
		require.NoError(t, cmd.Flags().Set("addr", ""))

		_, err := loadServeConfig(cmd)
		assert.Error(t, err)
	})
}

func TestExecuteCheck(t *testing.T) {
	var out, stderr bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&stderr)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	rootCmd.SetArgs([]string{"check", "title:go"})
	require.NoError(t, execute(rootCmd, &stderr))
	assert.Equal(t, "ok\n", out.String())

	out.Reset()
	rootCmd.SetArgs([]string{"check", "a:"})
	err := execute(rootCmd, &stderr)
	assert.ErrorIs(t, err, errIssuesFound)
	assert.Contains(t, out.String(), query.FieldScope)
	assert.Empty(t, stderr.String(), "issues are not reported as command errors")
}

func TestExecuteLintWithoutPaths(t *testing.T) {
	var stderr bytes.Buffer
	rootCmd.SetErr(&stderr)
	t.Cleanup(func() {
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	rootCmd.SetArgs([]string{"lint"})
	err := execute(rootCmd, &stderr)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, errIssuesFound)
	assert.Contains(t, stderr.String(), "please provide file or directory paths")
}
