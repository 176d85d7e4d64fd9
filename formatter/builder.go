package formatter

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/fatih/color"

	"github.com/gnolang/qlint/internal"
	"github.com/gnolang/qlint/internal/query"
	tt "github.com/gnolang/qlint/internal/types"
)

const tabWidth = 8

var (
	errorStyle      = color.New(color.FgRed, color.Bold)
	warningStyle    = color.New(color.FgHiYellow, color.Bold)
	infoStyle       = color.New(color.FgHiBlue, color.Bold)
	ruleStyle       = color.New(color.FgYellow, color.Bold)
	fileStyle       = color.New(color.FgCyan, color.Bold)
	lineStyle       = color.New(color.FgHiBlue, color.Bold)
	messageStyle    = color.New(color.FgRed, color.Bold)
	suggestionStyle = color.New(color.FgGreen, color.Bold)
)

// issueFormatter is the interface that wraps the IssueTemplate method.
// Implementations of this interface are responsible for formatting specific types of lint issues.
type issueFormatter interface {
	IssueTemplate() string
}

// getIssueFormatter returns the formatter for the given rule,
// falling back to a GeneralIssueFormatter.
func getIssueFormatter(rule string) issueFormatter {
	switch rule {
	case query.UnbalancedQuotes:
		return &UnbalancedQuotesFormatter{}
	default:
		return &GeneralIssueFormatter{}
	}
}

// GenerateFormattedIssue formats a slice of issues into a human-readable string.
// snippet may be nil, in which case each issue's own query text is shown.
func GenerateFormattedIssue(issues []tt.Issue, snippet *internal.SourceCode) string {
	var builder strings.Builder
	for _, issue := range issues {
		formatter := getIssueFormatter(issue.Rule)
		builder.WriteString(buildIssue(issue, snippet, formatter))
	}
	return builder.String()
}

/***** Issue Formatter Builder *****/

type IssueData struct {
	Category        string
	Severity        string
	Rule            string
	Filename        string
	Query           string
	Padding         string
	Line            string
	StartLine       int
	StartColumn     int
	EndColumn       int
	MaxLineNumWidth int
	Message         string
	Suggestion      string
	Note            string
}

var funcMap = template.FuncMap{
	"header":              header,
	"snippet":             querySnippet,
	"underlineAndMessage": underlineAndMessage,
	"suggestion":          suggestion,
	"note":                note,
	"quoteInfo":           quoteInfo,
}

func buildIssue(issue tt.Issue, snippet *internal.SourceCode, formatter issueFormatter) string {
	maxLineNumWidth := calculateMaxLineNumWidth(issue.Start.Line)

	data := IssueData{
		Severity:        issue.Severity.String(),
		Category:        issue.Category,
		Rule:            issue.Rule,
		Filename:        displayName(issue.Filename),
		Query:           issue.Query,
		Line:            lineText(issue, snippet),
		StartLine:       issue.Start.Line,
		StartColumn:     issue.Start.Column,
		EndColumn:       issue.End.Column,
		Message:         issue.Message,
		Suggestion:      issue.Suggestion,
		Note:            issue.Note,
		MaxLineNumWidth: maxLineNumWidth,
		Padding:         strings.Repeat(" ", maxLineNumWidth+1),
	}

	tmpl := template.Must(template.New("issue").Funcs(funcMap).Parse(formatter.IssueTemplate()))

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Sprintf("Error formatting issue: %v", err)
	}
	return buf.String()
}

func displayName(filename string) string {
	if filename == "" {
		return "<query>"
	}
	return filename
}

// lineText returns the source line of the issue, or the issue's query when
// the source is not available.
func lineText(issue tt.Issue, snippet *internal.SourceCode) string {
	if snippet != nil && issue.Start.Line > 0 && issue.Start.Line <= len(snippet.Lines) {
		return snippet.Lines[issue.Start.Line-1]
	}
	return issue.Query
}

// utils functions used in the text templates

func header(rule string, severity string, maxLineNumWidth int, filename string, startLine int, startColumn int) string {
	var endString string
	switch severity {
	case "WARNING":
		endString = warningStyle.Sprint("warning: ")
	case "INFO":
		endString = infoStyle.Sprint("info: ")
	default:
		endString = errorStyle.Sprint("error: ")
	}

	endString += ruleStyle.Sprintf("%s\n", rule)

	padding := strings.Repeat(" ", maxLineNumWidth)
	endString += lineStyle.Sprintf("%s--> ", padding)
	endString += fileStyle.Sprintf("%s:%d:%d", filename, startLine, startColumn)

	return endString
}

func querySnippet(line string, lineNum int, maxLineNumWidth int, padding string) string {
	endString := lineStyle.Sprintf("%s|\n", padding)
	endString += lineStyle.Sprintf("%*d | ", maxLineNumWidth, lineNum)
	endString += expandTabs(line)
	return endString
}

func underlineAndMessage(message string, padding string, line string, startColumn int, endColumn int) string {
	endString := lineStyle.Sprintf("%s| ", padding)

	underlineStart := calculateVisualColumn(line, startColumn)
	underlineEnd := calculateVisualColumn(line, endColumn)
	underlineLength := underlineEnd - underlineStart + 1
	if underlineLength < 1 {
		underlineLength = 1
	}

	endString += strings.Repeat(" ", underlineStart)
	endString += messageStyle.Sprintf("%s\n", strings.Repeat("~", underlineLength))

	endString += lineStyle.Sprintf("%s= ", padding)
	endString += messageStyle.Sprint(message)

	return endString
}

func suggestion(suggestion string) string {
	if suggestion == "" {
		return ""
	}
	return suggestionStyle.Sprint("Suggestion: ") + suggestion
}

func note(note string) string {
	if note == "" {
		return ""
	}
	return suggestionStyle.Sprint("Note: ") + lineStyle.Sprint(note)
}

func calculateMaxLineNumWidth(line int) int {
	return len(fmt.Sprintf("%d", line))
}

// calculateVisualColumn calculates the visual column position
// in a string. taking into account tab characters.
func calculateVisualColumn(line string, column int) int {
	if column < 1 {
		return 0
	}
	visualColumn := 0
	for i, ch := range line {
		if i+1 >= column {
			break
		}
		if ch == '\t' {
			visualColumn += tabWidth - (visualColumn % tabWidth)
		} else {
			visualColumn++
		}
	}
	return visualColumn
}

// expandTabs replaces tab characters with spaces up to the next tab stop.
func expandTabs(line string) string {
	var expanded strings.Builder
	column := 0
	for _, ch := range line {
		if ch == '\t' {
			spaceCount := tabWidth - (column % tabWidth)
			expanded.WriteString(strings.Repeat(" ", spaceCount))
			column += spaceCount
			continue
		}
		expanded.WriteRune(ch)
		column++
	}
	return expanded.String()
}
