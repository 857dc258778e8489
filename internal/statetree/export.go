package statetree

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thiagokokada/statetree/internal/manifest"
)

// Export renders env as a mapping from state name to either its URL or
// {<kind>: <ref>, url: <url>}.
//
// States are ordered by their canonical rendering and exact repeats are
// dropped, so the output only depends on the set of states. When two
// distinct states share a name, the one sorting last wins while the key
// keeps the position of the first.
//
// The canonical rendering is the identity of a state. Distinct states whose
// names or URLs contain " (" or ") [" can render identically, e.g. name
// "x (y)" with URL "z" and name "x" with URL "y) (z"; only one of them is
// exported.
func Export(env *Environment) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	index := map[string]int{}
	for _, state := range sortedStates(env.States) {
		value := stateNode(state)
		if i, ok := index[state.Name]; ok {
			doc.Content[i+1] = value
			continue
		}
		index[state.Name] = len(doc.Content)
		doc.Content = append(doc.Content, strNode(state.Name), value)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("statetree: encode environment %s: %w", env.Name, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("statetree: encode environment %s: %w", env.Name, err)
	}
	return buf.Bytes(), nil
}

// sortedStates orders states by String() and keeps one state per
// rendering.
func sortedStates(states []manifest.State) []manifest.State {
	keyed := make(map[string]manifest.State, len(states))
	for _, state := range states {
		keyed[state.String()] = state
	}
	keys := make([]string, 0, len(keyed))
	for key := range keyed {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, strings.Compare)
	out := make([]manifest.State, 0, len(keys))
	for _, key := range keys {
		out = append(out, keyed[key])
	}
	return out
}

func stateNode(state manifest.State) *yaml.Node {
	if state.Ref == nil {
		return strNode(state.URL)
	}
	return &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
		Content: []*yaml.Node{
			strNode(state.Ref.Kind.String()), strNode(state.Ref.Name),
			strNode(manifest.OptionURL), strNode(state.URL),
		},
	}
}

func strNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}
