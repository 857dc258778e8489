package backend

import (
	"fmt"
	"strings"
)

// AccessError reports a version-control invocation that did not complete
// successfully: a non-zero exit, a transport failure or a killed process.
type AccessError struct {
	URL      string
	Command  string
	ExitCode int
	Output   string
	Err      error
}

func (e *AccessError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("git: command %q failed with exit code %d and output: %q", e.Command, e.ExitCode, e.Output)
	if e.URL != "" {
		msg = fmt.Sprintf("git: %s: command %q failed with exit code %d and output: %q", e.URL, e.Command, e.ExitCode, e.Output)
	}
	if e.Err != nil && e.Output == "" {
		msg += fmt.Sprintf(" (%v)", e.Err)
	}
	return msg
}

func (e *AccessError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ReferenceNotFoundError reports a lookup that ran fine but found no such
// branch, tag or commit in the queried repository.
type ReferenceNotFoundError struct {
	Kind RefKind
	Name string
	URL  string
}

func (e *ReferenceNotFoundError) Error() string {
	if e == nil {
		return "<nil>"
	}
	kind := e.Kind.String()
	return fmt.Sprintf("git: %s%s %s not found for repository %s", strings.ToUpper(kind[:1]), kind[1:], e.Name, e.URL)
}

// flattenOutput joins multi-line command output into a single line.
func flattenOutput(out string) string {
	out = strings.ReplaceAll(out, "\r\n", "\n")
	out = strings.ReplaceAll(out, "\n", "; ")
	return strings.Trim(out, "; ")
}
