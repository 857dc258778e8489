// Package manifest holds the state data model and turns raw manifest
// entries into validated states.
package manifest

import (
	"fmt"
	"strings"

	gitbackend "github.com/thiagokokada/statetree/internal/git/backend"
)

// DefaultFile is where every environment branch keeps its manifest.
const DefaultFile = "states.yaml"

// Option keys recognized inside a state's mapping form.
const (
	OptionURL    = "url"
	OptionBranch = "branch"
	OptionCommit = "commit"
	OptionTag    = "tag"
)

// Reference pins a state to one branch, commit or tag of its repository.
type Reference struct {
	Kind gitbackend.RefKind
	Name string
}

func Branch(name string) *Reference { return &Reference{Kind: gitbackend.RefKindBranch, Name: name} }
func Commit(name string) *Reference { return &Reference{Kind: gitbackend.RefKindCommit, Name: name} }
func Tag(name string) *Reference    { return &Reference{Kind: gitbackend.RefKindTag, Name: name} }

func (r Reference) String() string {
	kind := r.Kind.String()
	return fmt.Sprintf("%s%s: %s", strings.ToUpper(kind[:1]), kind[1:], r.Name)
}

// State is one named, optionally pinned, pointer to a source repository.
type State struct {
	Name string
	URL  string
	Ref  *Reference
}

// String is the canonical rendering used to order and deduplicate states:
// "name (url)" or "name (url) [Kind: ref]".
func (s State) String() string {
	out := fmt.Sprintf("%s (%s)", s.Name, s.URL)
	if s.Ref != nil {
		out = fmt.Sprintf("%s [%s]", out, s.Ref)
	}
	return out
}
