package internal

import (
	"crypto/md5"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	tt "github.com/gnolang/qlint/internal/types"
)

const (
	cacheFileName = "qlint_cache.gob"
	defaultMaxAge = 24 * time.Hour
)

// cachedResult is the lint result of one file and everything it was computed from.
type cachedResult struct {
	ContentHash string
	ModTime     time.Time
	// RuleSet identifies the configuration files and the enabled rules at
	// the time of the run.
	RuleSet  string
	Issues   []tt.Issue
	StoredAt time.Time
}

// Cache keeps lint results on disk between runs. A result is reused only
// while the file, the configuration files and the enabled rules are all
// unchanged, and only until it grows older than the max age.
type Cache struct {
	dir        string
	configHash string
	maxAge     time.Duration

	mu      sync.Mutex
	results map[string]cachedResult
}

// NewCache opens the cache stored in dir, creating the directory if needed.
// configFiles are hashed when the cache is opened; results stored under a
// different hash are never returned.
func NewCache(dir string, configFiles ...string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	configHash, err := hashFiles(configFiles)
	if err != nil {
		return nil, err
	}

	c := &Cache{
		dir:        dir,
		configHash: configHash,
		maxAge:     defaultMaxAge,
		results:    make(map[string]cachedResult),
	}
	if err := c.load(); err != nil {
		return nil, fmt.Errorf("failed to load cache: %w", err)
	}
	return c, nil
}

// Get returns the issues stored for filename under ruleSet.
func (c *Cache) Get(filename, ruleSet string) ([]tt.Issue, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, ok := c.results[filename]
	if !ok {
		return nil, false
	}
	if !c.fresh(filename, ruleSet, res) {
		delete(c.results, filename)
		return nil, false
	}
	return res.Issues, true
}

// Set stores the issues of filename computed under ruleSet and writes the
// cache to disk.
func (c *Cache) Set(filename, ruleSet string, issues []tt.Issue) error {
	hash, modTime, err := fileState(filename)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.results[filename] = cachedResult{
		ContentHash: hash,
		ModTime:     modTime,
		RuleSet:     c.key(ruleSet),
		Issues:      issues,
		StoredAt:    time.Now(),
	}
	return c.save()
}

func (c *Cache) SetMaxAge(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.maxAge = d
}

// InvalidateAll drops every stored result.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.results = make(map[string]cachedResult)
	_ = c.save() // best effort, manual operation
}

func (c *Cache) key(ruleSet string) string {
	return c.configHash + "|" + ruleSet
}

func (c *Cache) fresh(filename, ruleSet string, res cachedResult) bool {
	if res.RuleSet != c.key(ruleSet) || time.Since(res.StoredAt) > c.maxAge {
		return false
	}
	hash, modTime, err := fileState(filename)
	return err == nil && hash == res.ContentHash && modTime.Equal(res.ModTime)
}

func (c *Cache) load() error {
	f, err := os.Open(filepath.Join(c.dir, cacheFileName))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	return gob.NewDecoder(f).Decode(&c.results)
}

func (c *Cache) save() error {
	f, err := os.Create(filepath.Join(c.dir, cacheFileName))
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(c.results); err != nil {
		return fmt.Errorf("failed to encode cache file: %w", err)
	}
	return nil
}

func fileState(filename string) (string, time.Time, error) {
	f, err := os.Open(filename)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to hash %s: %w", filename, err)
	}
	info, err := f.Stat()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to stat %s: %w", filename, err)
	}
	return hex.EncodeToString(h.Sum(nil)), info.ModTime(), nil
}

// hashFiles digests the names and contents of files, in order.
func hashFiles(files []string) (string, error) {
	h := md5.New()
	for _, name := range files {
		if name == "" {
			continue
		}
		content, err := os.ReadFile(name)
		if err != nil {
			return "", fmt.Errorf("failed to hash %s: %w", name, err)
		}
		fmt.Fprintf(h, "%s\x00%d\x00", name, len(content))
		h.Write(content)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
