package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/qlint/formatter"
	"github.com/gnolang/qlint/internal"
	tt "github.com/gnolang/qlint/internal/types"
	"github.com/gnolang/qlint/lint"
)

var (
	ignoreRules    string
	ignorePaths    string
	lintJsonOutput bool
	outPath        string
	cacheDir       string
)

var lintCmd = &cobra.Command{
	Use:   "lint [paths...]",
	Short: "Check every query in the given files and directories",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("please provide file or directory paths")
		}

		ctx, cancel := context.WithTimeout(commandContext(cmd), timeout)
		defer cancel()

		engine, err := newEngine(cacheDir)
		if err != nil {
			return err
		}
		applyIgnores(engine, ignoreRules, ignorePaths)

		return runNormalLintProcess(ctx, logger, engine, args, cmd.OutOrStdout(), lintJsonOutput, outPath)
	},
}

func init() {
	lintCmd.Flags().StringVar(&ignoreRules, "ignore", "", "Comma-separated list of lint rules to ignore")
	lintCmd.Flags().StringVar(&ignorePaths, "ignore-paths", "", "Comma-separated list of paths to ignore")
	lintCmd.Flags().BoolVar(&lintJsonOutput, "json", false, "Output issues in JSON format")
	lintCmd.Flags().StringVarP(&outPath, "output", "o", "", "Output path (when using JSON)")
	lintCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Directory for the lint result cache (disabled when empty)")
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// newEngine builds an engine from the configuration file, optionally backed
// by a result cache that is invalidated whenever that file changes.
func newEngine(cacheDir string) (*internal.Engine, error) {
	opts := []internal.Option{internal.WithLogger(logger)}
	if cacheDir != "" {
		var deps []string
		if _, err := os.Stat(cfgFile); err == nil {
			deps = append(deps, cfgFile)
		}
		cache, err := internal.NewCache(cacheDir, deps...)
		if err != nil {
			return nil, fmt.Errorf("error opening cache: %w", err)
		}
		opts = append(opts, internal.WithCache(cache))
	}

	engine, err := lint.New(".", cfgFile, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing lint engine: %w", err)
	}
	return engine, nil
}

func applyIgnores(engine lint.LintEngine, rules, paths string) {
	for _, rule := range splitList(rules) {
		engine.IgnoreRule(rule)
	}
	for _, path := range splitList(paths) {
		engine.IgnorePath(path)
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func runNormalLintProcess(
	ctx context.Context,
	logger *zap.Logger,
	engine lint.LintEngine,
	paths []string,
	out io.Writer,
	isJson bool,
	jsonOutput string,
) error {
	issues, err := lint.ProcessFiles(ctx, logger, engine, paths, lint.ProcessFile)
	if err != nil {
		return fmt.Errorf("error processing files: %w", err)
	}

	if err := printIssues(logger, out, issues, isJson, jsonOutput); err != nil {
		return err
	}

	if len(issues) > 0 {
		return errIssuesFound
	}
	return nil
}

func groupByFile(issues []tt.Issue) (map[string][]tt.Issue, []string) {
	issuesByFile := make(map[string][]tt.Issue)
	for _, issue := range issues {
		issuesByFile[issue.Filename] = append(issuesByFile[issue.Filename], issue)
	}

	sortedFiles := make([]string, 0, len(issuesByFile))
	for filename := range issuesByFile {
		sortedFiles = append(sortedFiles, filename)
	}
	sort.Strings(sortedFiles)

	return issuesByFile, sortedFiles
}

func printIssues(logger *zap.Logger, out io.Writer, issues []tt.Issue, isJson bool, jsonOutput string) error {
	issuesByFile, sortedFiles := groupByFile(issues)

	if !isJson {
		// text output
		for _, filename := range sortedFiles {
			fileIssues := issuesByFile[filename]
			sourceCode, err := internal.ReadSourceCode(filename)
			if err != nil {
				logger.Warn("Error reading source file", zap.String("file", filename), zap.Error(err))
				sourceCode = nil
			}
			fmt.Fprintln(out, formatter.GenerateFormattedIssue(fileIssues, sourceCode))
		}
		return nil
	}

	// JSON output
	d, err := json.Marshal(issuesByFile)
	if err != nil {
		return fmt.Errorf("error marshalling issues to JSON: %w", err)
	}
	if jsonOutput == "" {
		fmt.Fprintln(out, string(d))
		return nil
	}
	if err := os.WriteFile(jsonOutput, d, 0o644); err != nil {
		return fmt.Errorf("error writing JSON output file: %w", err)
	}
	return nil
}
