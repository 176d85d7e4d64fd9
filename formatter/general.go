package formatter

type GeneralIssueFormatter struct{}

func (f *GeneralIssueFormatter) IssueTemplate() string {
	return `{{header .Rule .Severity .MaxLineNumWidth .Filename .StartLine .StartColumn}}
{{snippet .Line .StartLine .MaxLineNumWidth .Padding}}
{{underlineAndMessage .Message .Padding .Line .StartColumn .EndColumn}}
{{- if .Suggestion}}
{{suggestion .Suggestion}}
{{- end}}
{{- if .Note}}
{{note .Note}}
{{- end}}

`
}
