package render

import (
	"bytes"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const diffContext = 3

// Diff returns a unified diff turning document a into b, or nil when they
// are identical.
func Diff(aName string, a []byte, bName string, b []byte) ([]byte, error) {
	if bytes.Equal(a, b) {
		return nil, nil
	}
	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(a),
		B:        splitLines(b),
		FromFile: aName,
		ToFile:   bName,
		Context:  diffContext,
	})
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// splitLines keeps line terminators and terminates a trailing partial line.
func splitLines(data []byte) []string {
	var lines []string
	for line := range strings.Lines(string(data)) {
		if !strings.HasSuffix(line, "\n") {
			line += "\n"
		}
		lines = append(lines, line)
	}
	return lines
}
