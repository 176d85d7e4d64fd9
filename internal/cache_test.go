package internal

import (
	"go/token"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tt "github.com/gnolang/qlint/internal/types"
)

const testRuleSet = "wildcard-placement=ERROR,field-scope=ERROR"

func TestCache(t *testing.T) {
	tmpDir := createTempDir(t, "cache-test")

	cacheDir := filepath.Join(tmpDir, "cache")
	cache, err := NewCache(cacheDir)
	require.NoError(t, err)

	t.Run("SaveAndLoad", func(t *testing.T) {
		filename := writeQueryFile(t, tmpDir, "test.query", "*foo\n")
		issues := []tt.Issue{
			{
				Rule:     "wildcard-placement",
				Category: "syntax",
				Filename: filename,
				Query:    "*foo",
				Message:  "test issue",
				Severity: tt.SeverityWarning,
				Start:    token.Position{Line: 1, Column: 1, Filename: filename},
				End:      token.Position{Line: 1, Column: 1, Filename: filename},
			},
		}

		require.NoError(t, cache.Set(filename, testRuleSet, issues))

		loadedIssues, found := cache.Get(filename, testRuleSet)
		assert.True(t, found)
		assert.Equal(t, issues, loadedIssues)

		// a fresh cache reads the results back from disk
		reopened, err := NewCache(cacheDir)
		require.NoError(t, err)
		loadedIssues, found = reopened.Get(filename, testRuleSet)
		assert.True(t, found)
		assert.Equal(t, issues, loadedIssues)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, found := cache.Get("nonexistent.query", testRuleSet)
		assert.False(t, found)
	})

	t.Run("FileModified", func(t *testing.T) {
		filename := writeQueryFile(t, tmpDir, "modified.query", "a:b\n")
		require.NoError(t, cache.Set(filename, testRuleSet, nil))

		require.NoError(t, os.WriteFile(filename, []byte("a:b:c\n"), 0o644))
		_, found := cache.Get(filename, testRuleSet)
		assert.False(t, found)
	})

	t.Run("RuleSetChanged", func(t *testing.T) {
		filename := writeQueryFile(t, tmpDir, "rules.query", "a:\n")
		require.NoError(t, cache.Set(filename, testRuleSet, nil))

		_, found := cache.Get(filename, "wildcard-placement=ERROR")
		assert.False(t, found)
		// the stale result is dropped, not kept for the old rule set
		_, found = cache.Get(filename, testRuleSet)
		assert.False(t, found)
	})

	t.Run("Expired", func(t *testing.T) {
		filename := writeQueryFile(t, tmpDir, "expired.query", "a\n")
		require.NoError(t, cache.Set(filename, testRuleSet, nil))

		cache.SetMaxAge(-time.Second)
		defer cache.SetMaxAge(defaultMaxAge)
		_, found := cache.Get(filename, testRuleSet)
		assert.False(t, found)
	})

	t.Run("InvalidateAll", func(t *testing.T) {
		filename := writeQueryFile(t, tmpDir, "all.query", "a\n")
		require.NoError(t, cache.Set(filename, testRuleSet, nil))

		cache.InvalidateAll()
		_, found := cache.Get(filename, testRuleSet)
		assert.False(t, found)
	})
}

func TestCacheConfigChangeBetweenRuns(t *testing.T) {
	tmpDir := createTempDir(t, "cache-config-test")
	config := writeQueryFile(t, tmpDir, ".qlint.yaml", "name: qlint\n")
	filename := writeQueryFile(t, tmpDir, "a.query", "a\n")
	cacheDir := filepath.Join(tmpDir, "cache")

	first, err := NewCache(cacheDir, config)
	require.NoError(t, err)
	require.NoError(t, first.Set(filename, testRuleSet, nil))

	same, err := NewCache(cacheDir, config)
	require.NoError(t, err)
	_, found := same.Get(filename, testRuleSet)
	assert.True(t, found, "unchanged configuration reuses the result")

	require.NoError(t, os.WriteFile(config, []byte("name: changed\n"), 0o644))
	changed, err := NewCache(cacheDir, config)
	require.NoError(t, err)
	_, found = changed.Get(filename, testRuleSet)
	assert.False(t, found, "result stored under the old configuration")
}

func TestCacheMissingConfigFile(t *testing.T) {
	tmpDir := createTempDir(t, "cache-missing-config-test")

	_, err := NewCache(filepath.Join(tmpDir, "cache"), filepath.Join(tmpDir, "missing.yaml"))
	assert.Error(t, err)
}

func TestCacheConcurrency(t *testing.T) {
	tempDir := createTempDir(t, "cache-concurrency-test")

	cache, err := NewCache(filepath.Join(tempDir, "cache"))
	require.NoError(t, err)

	testFile := writeQueryFile(t, tempDir, "test.query", "foo\n")
	issues := []tt.Issue{{
		Rule:     "test-rule",
		Category: "test",
		Filename: testFile,
		Message:  "Test issue",
		Start:    token.Position{Line: 1, Column: 1},
		End:      token.Position{Line: 1, Column: 3},
	}}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, cache.Set(testFile, testRuleSet, issues))
		}()
		go func() {
			defer wg.Done()
			_, _ = cache.Get(testFile, testRuleSet)
		}()
	}
	wg.Wait()

	got, found := cache.Get(testFile, testRuleSet)
	assert.True(t, found)
	assert.Equal(t, issues, got)
}
