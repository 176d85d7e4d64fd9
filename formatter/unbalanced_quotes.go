package formatter

import (
	"strings"
)

type UnbalancedQuotesFormatter struct{}

func (f *UnbalancedQuotesFormatter) IssueTemplate() string {
	return `{{header .Rule .Severity .MaxLineNumWidth .Filename .StartLine .StartColumn}}
{{snippet .Line .StartLine .MaxLineNumWidth .Padding}}
{{underlineAndMessage .Message .Padding .Line .StartColumn .EndColumn}}
{{quoteInfo .Padding .Query}}
{{- if .Suggestion}}
{{suggestion .Suggestion}}
{{- end}}
{{- if .Note}}
{{note .Note}}
{{- end}}

`
}

func quoteInfo(padding string, query string) string {
	count := strings.Count(query, `"`)
	endString := lineStyle.Sprintf("%s| ", padding)
	if count == 1 {
		return endString + messageStyle.Sprint("found 1 quote mark")
	}
	return endString + messageStyle.Sprintf("found %d quote marks", count)
}
