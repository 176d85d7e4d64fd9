package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gnolang/qlint/formatter"
	"github.com/gnolang/qlint/internal"
	tt "github.com/gnolang/qlint/internal/types"
)

const stdinName = "<stdin>"

var checkJsonOutput bool

var checkCmd = &cobra.Command{
	Use:   "check [query...]",
	Short: "Check queries given as arguments, or one query per line from stdin",
	Long: `Check queries given as arguments, or one query per line from stdin.

Every non-blank stdin line is checked as a query. Lines starting with '#'
are not comments here and nolint directives do not apply; use "qlint lint"
for query files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := newEngine("")
		if err != nil {
			return err
		}
		applyIgnores(engine, ignoreRules, "")

		if len(args) > 0 {
			return runCheckArgs(engine, args, cmd.OutOrStdout(), checkJsonOutput)
		}
		return runCheckStdin(engine, cmd.InOrStdin(), cmd.OutOrStdout(), checkJsonOutput)
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkJsonOutput, "json", false, "Output results in JSON format")
	checkCmd.Flags().StringVar(&ignoreRules, "ignore", "", "Comma-separated list of lint rules to ignore")
}

// checkResult is the JSON form of a single check.
type checkResult struct {
	Query    string `json:"query"`
	Accepted bool   `json:"accepted"`
	Rule     string `json:"rule,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func runCheckArgs(engine *internal.Engine, queries []string, out io.Writer, isJson bool) error {
	var (
		issues  []tt.Issue
		results = make([]checkResult, 0, len(queries))
	)
	for _, q := range queries {
		found := engine.RunQuery("", q)
		issues = append(issues, found...)

		res := checkResult{Query: q, Accepted: len(found) == 0}
		if !res.Accepted {
			res.Rule = found[0].Rule
			res.Reason = found[0].Message
		}
		results = append(results, res)
	}

	if isJson {
		if err := writeCheckJSON(out, results); err != nil {
			return err
		}
	} else if len(issues) == 0 {
		fmt.Fprintln(out, "ok")
	} else {
		fmt.Fprintln(out, formatter.GenerateFormattedIssue(issues, nil))
	}

	if len(issues) > 0 {
		return errIssuesFound
	}
	return nil
}

// runCheckStdin checks every non-blank stdin line as a query. Unlike query
// files, stdin has no comments, so a line starting with '#' is checked too.
func runCheckStdin(engine *internal.Engine, in io.Reader, out io.Writer, isJson bool) error {
	content, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("error reading stdin: %w", err)
	}

	source := internal.NewSourceCode(content)
	var (
		issues  []tt.Issue
		results = make([]checkResult, 0, len(source.Lines))
	)
	for i, line := range source.Lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		res := checkResult{Query: line, Accepted: true}
		for _, issue := range engine.RunQuery(stdinName, line) {
			issue.Start.Line = i + 1
			issue.End.Line = i + 1
			issues = append(issues, issue)
			res.Accepted = false
			res.Rule = issue.Rule
			res.Reason = issue.Message
		}
		results = append(results, res)
	}

	if isJson {
		if err := writeCheckJSON(out, results); err != nil {
			return err
		}
	} else if len(issues) == 0 {
		fmt.Fprintln(out, "ok")
	} else {
		fmt.Fprintln(out, formatter.GenerateFormattedIssue(issues, source))
	}

	if len(issues) > 0 {
		return errIssuesFound
	}
	return nil
}

func writeCheckJSON(out io.Writer, results []checkResult) error {
	d, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("error marshalling results to JSON: %w", err)
	}
	fmt.Fprintln(out, string(d))
	return nil
}
