package types

import (
	"fmt"
	"go/token"
	"strings"

	"gopkg.in/yaml.v3"
)

// Issue represents a syntax issue found in a query.
type Issue struct {
	Rule     string
	Category string
	Filename string
	// Query is the full text of the offending query.
	Query      string
	Message    string
	Suggestion string
	Note       string
	Severity   Severity
	Start      token.Position
	End        token.Position
}

// Severity is how seriously an issue should be treated.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityOff
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "ERROR"
	case SeverityWarning:
		return "WARNING"
	case SeverityInfo:
		return "INFO"
	case SeverityOff:
		return "OFF"
	}
	return "UNKNOWN"
}

// ParseSeverity parses a severity name, ignoring case.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return SeverityError, nil
	case "WARNING":
		return SeverityWarning, nil
	case "INFO":
		return SeverityInfo, nil
	case "OFF":
		return SeverityOff, nil
	}
	return SeverityError, fmt.Errorf("unknown severity %q", s)
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s Severity) MarshalYAML() (any, error) {
	return s.String(), nil
}

func (s *Severity) UnmarshalYAML(node *yaml.Node) error {
	return s.UnmarshalText([]byte(node.Value))
}

// ConfigRule is the per-rule section of the configuration file.
type ConfigRule struct {
	Severity Severity `yaml:"severity"`
}
