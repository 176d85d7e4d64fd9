package internal

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gnolang/qlint/internal/nolint"
)

// queryExtensions lists the file extensions treated as query files.
var queryExtensions = map[string]bool{
	".query":  true,
	".lucene": true,
	".qry":    true,
}

// IsQueryFile reports whether path has a query file extension.
func IsQueryFile(path string) bool {
	return queryExtensions[strings.ToLower(filepath.Ext(path))]
}

// SourceCode stores the content of a query file.
type SourceCode struct {
	Lines []string

	offsets []int
}

// ReadSourceCode reads the content of a file and returns it as a `SourceCode` struct.
func ReadSourceCode(filename string) (*SourceCode, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return NewSourceCode(content), nil
}

// NewSourceCode splits raw file content into lines.
func NewSourceCode(content []byte) *SourceCode {
	lines := strings.Split(string(content), "\n")
	offsets := make([]int, len(lines))
	offset := 0
	for i, line := range lines {
		offsets[i] = offset
		offset += len(line) + 1
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return &SourceCode{Lines: lines, offsets: offsets}
}

// QueryLine is a single query read from a query file.
type QueryLine struct {
	// Line is the 1-based line number.
	Line int
	// Offset is the byte offset of the line start within the file.
	Offset int
	Text   string
}

// Queries returns the non-blank, non-comment lines of the source.
func (s *SourceCode) Queries() []QueryLine {
	var out []QueryLine
	for i, line := range s.Lines {
		if strings.TrimSpace(line) == "" || nolint.IsComment(line) {
			continue
		}
		q := QueryLine{Line: i + 1, Text: line}
		if i < len(s.offsets) {
			q.Offset = s.offsets[i]
		}
		out = append(out, q)
	}
	return out
}
