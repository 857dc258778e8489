package statetree

import (
	"errors"
	"fmt"
)

var ErrUnknownEnvironment = errors.New("unknown environment")

// ManifestParseError reports a manifest that exists on a branch but is not
// a decodable list of states.
type ManifestParseError struct {
	Branch string
	Err    error
}

func (e *ManifestParseError) Error() string {
	return fmt.Sprintf("statetree: could not parse manifest for branch %s: %v", e.Branch, e.Err)
}

func (e *ManifestParseError) Unwrap() error { return e.Err }

// EntryError attaches the owning branch and 1-based entry position to a
// validator failure.
type EntryError struct {
	Branch string
	Index  int
	Err    error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("statetree: branch %s: entry %d: %v", e.Branch, e.Index, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }

// VerificationError reports a state whose pin could not be confirmed.
type VerificationError struct {
	State string
	URL   string
	Err   error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("statetree: state %s (%s): %v", e.State, e.URL, e.Err)
}

func (e *VerificationError) Unwrap() error { return e.Err }
