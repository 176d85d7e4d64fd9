package lint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/gnolang/qlint/internal"
	tt "github.com/gnolang/qlint/internal/types"
)

// DefaultConfigFile is the configuration file read when no other is given.
const DefaultConfigFile = ".qlint.yaml"

type LintEngine interface {
	Run(filePath string) ([]tt.Issue, error)
	RunSource(source []byte) ([]tt.Issue, error)
	IgnoreRule(rule string)
	IgnorePath(path string)
}

// New creates a lint engine configured from the given YAML file.
// An empty path, or a missing default file, yields the default configuration.
func New(rootDir string, configurationPath string, opts ...internal.Option) (*internal.Engine, error) {
	config, err := loadConfiguration(configurationPath)
	if err != nil {
		return nil, err
	}

	return internal.NewEngine(rootDir, config.Rules, opts...)
}

// ProgressOutput is where directory walks draw their progress bar.
// Set it to io.Discard to silence it.
var ProgressOutput io.Writer = os.Stderr

func ProcessSources(
	ctx context.Context,
	logger *zap.Logger,
	engine LintEngine,
	sources [][]byte,
	processor func(LintEngine, []byte) ([]tt.Issue, error),
) ([]tt.Issue, error) {
	var allIssues []tt.Issue
	for i, source := range sources {
		if err := ctx.Err(); err != nil {
			return allIssues, err
		}
		issues, err := processor(engine, source)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing source", zap.Int("source", i), zap.Error(err))
			}
			return nil, err
		}
		allIssues = append(allIssues, issues...)
	}

	return allIssues, nil
}

func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	engine LintEngine,
	paths []string,
	processor func(LintEngine, string) ([]tt.Issue, error),
) ([]tt.Issue, error) {
	var allIssues []tt.Issue
	for _, path := range paths {
		issues, err := ProcessPath(ctx, logger, engine, path, processor)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			}
			return nil, err
		}
		allIssues = append(allIssues, issues...)
	}

	return allIssues, nil
}

// ProcessPath lints a single file or every query file below a directory.
// Directory entries are processed by a bounded pool of workers; the first
// file error is returned together with the issues of the other files.
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	engine LintEngine,
	path string,
	processor func(LintEngine, string) ([]tt.Issue, error),
) ([]tt.Issue, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}

	if !info.IsDir() {
		if !hasDesiredExtension(path) {
			return []tt.Issue{}, nil
		}
		fileIssues, err := processor(engine, path)
		if err != nil {
			return []tt.Issue{}, err
		}
		return fileIssues, nil
	}

	files, err := collectFiles(path)
	if err != nil {
		return nil, err
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(ProgressOutput),
		progressbar.OptionSetDescription(path),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	type fileResult struct {
		issues []tt.Issue
		err    error
	}
	results := make(chan fileResult, len(files))

	// limit the number of workers
	sem := make(chan struct{}, runtime.NumCPU())
	var wg sync.WaitGroup

	cancelled := false
	for _, filePath := range files {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		select {
		case <-ctx.Done():
			cancelled = true
		case sem <- struct{}{}:
		}
		if cancelled {
			break
		}

		wg.Add(1)
		go func(fp string) {
			defer wg.Done()
			defer func() { <-sem }()

			fileIssues, err := processor(engine, fp)
			if err != nil && logger != nil {
				logger.Error("Error processing file", zap.String("file", fp), zap.Error(err))
			}
			results <- fileResult{issues: fileIssues, err: err}
			_ = bar.Add(1)
		}(filePath)
	}
	wg.Wait()
	close(results)
	_ = bar.Finish()

	issues := []tt.Issue{}
	var firstErr error
	for res := range results {
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		issues = append(issues, res.issues...)
	}
	sortIssues(issues)

	if cancelled {
		return issues, ctx.Err()
	}
	return issues, firstErr
}

func collectFiles(root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(filePath string, fileInfo os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fileInfo.IsDir() && hasDesiredExtension(filePath) {
			files = append(files, filePath)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", root, err)
	}
	return files, nil
}

func sortIssues(issues []tt.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Filename != issues[j].Filename {
			return issues[i].Filename < issues[j].Filename
		}
		return issues[i].Start.Line < issues[j].Start.Line
	})
}

func ProcessFile(engine LintEngine, filePath string) ([]tt.Issue, error) {
	return engine.Run(filePath)
}

func ProcessSource(engine LintEngine, source []byte) ([]tt.Issue, error) {
	return engine.RunSource(source)
}

func hasDesiredExtension(path string) bool {
	return internal.IsQueryFile(path)
}

// Config represents the overall configuration with a name and a slice of rules.
type Config struct {
	Name  string                   `yaml:"name"`
	Rules map[string]tt.ConfigRule `yaml:"rules"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Name:  "qlint",
		Rules: map[string]tt.ConfigRule{},
	}
}

func loadConfiguration(configurationPath string) (Config, error) {
	if configurationPath == "" {
		return DefaultConfig(), nil
	}
	config, err := parseConfigurationFile(configurationPath)
	if errors.Is(err, os.ErrNotExist) && filepath.Clean(configurationPath) == DefaultConfigFile {
		return DefaultConfig(), nil
	}
	return config, err
}

func parseConfigurationFile(configurationPath string) (Config, error) {
	var config Config

	f, err := os.Open(configurationPath)
	if err != nil {
		return config, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("error parsing configuration file %s: %w", configurationPath, err)
	}

	return config, nil
}
