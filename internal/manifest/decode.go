package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Decode parses a manifest document into its raw entries, in file order.
// An empty document or an explicit null has no entries. Anything that is not
// valid YAML, or whose top level is not a list, is an error.
func Decode(data []byte) ([]*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	root := resolve(doc.Content[0])
	if root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null" {
		return nil, nil
	}
	if root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("manifest must be a list of states, not %s", typeName(root))
	}
	return root.Content, nil
}

// Parse decodes data and validates every entry. The first failing entry
// aborts parsing.
func Parse(data []byte) ([]State, error) {
	entries, err := Decode(data)
	if err != nil {
		return nil, err
	}
	states := make([]State, 0, len(entries))
	for i, entry := range entries {
		state, err := ParseEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		states = append(states, state)
	}
	return states, nil
}
