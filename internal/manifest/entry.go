package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"

	gitbackend "github.com/thiagokokada/statetree/internal/git/backend"
)

var refOptions = []string{OptionBranch, OptionCommit, OptionTag}

// ParseEntry validates one manifest entry: a single-key mapping from the
// state name to either a URL string or a mapping of options.
//
// It does no I/O. Scalars keep their source text, so `tag: 1.0` pins "1.0".
func ParseEntry(node *yaml.Node) (State, error) {
	node = resolve(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return State{}, &SchemaError{Msg: fmt.Sprintf("state must be a mapping with exactly one key, not %s", typeName(node))}
	}
	entries := fields(node)
	if len(entries) != 1 {
		return State{}, &SchemaError{Msg: "state must have exactly one key", Keys: fieldKeys(entries)}
	}
	keyNode, value := entries[0].key, entries[0].value
	name := keyNode.Value
	if keyNode.Kind != yaml.ScalarNode || name == "" {
		return State{}, &SchemaError{Msg: "state name must be a non-empty string"}
	}

	switch {
	case value.Kind == yaml.ScalarNode && value.ShortTag() == "!!str":
		if value.Value == "" {
			return State{}, &SchemaError{State: name, Msg: "url must not be empty"}
		}
		return State{Name: name, URL: value.Value}, nil
	case value.Kind == yaml.MappingNode:
		return parseOptions(name, value)
	default:
		return State{}, &SchemaError{State: name, Msg: fmt.Sprintf("options should be passed as string or mapping, not %s", typeName(value))}
	}
}

func parseOptions(name string, node *yaml.Node) (State, error) {
	options := map[string]string{}
	var invalid, refs []string
	for _, f := range fields(node) {
		key, value := f.key.Value, f.value
		if !isOption(key) {
			invalid = append(invalid, key)
			continue
		}
		if value.Kind != yaml.ScalarNode || value.ShortTag() == "!!null" {
			return State{}, &SchemaError{State: name, Msg: fmt.Sprintf("option %q must be a string, not %s", key, typeName(value))}
		}
		options[key] = value.Value
		if key != OptionURL {
			refs = append(refs, key)
		}
	}
	if len(invalid) > 0 {
		return State{}, &SchemaError{State: name, Msg: "invalid options", Keys: invalid}
	}
	url, ok := options[OptionURL]
	if !ok {
		return State{}, &SchemaError{State: name, Msg: `missing mandatory option "url"`}
	}
	if url == "" {
		return State{}, &SchemaError{State: name, Msg: "url must not be empty"}
	}
	if len(refs) > 1 {
		return State{}, &SchemaError{State: name, Msg: `more than one of "branch", "commit" or "tag" specified`, Keys: refs}
	}
	state := State{Name: name, URL: url}
	if len(refs) == 1 {
		kind, _ := gitbackend.ParseRefKind(refs[0])
		state.Ref = &Reference{Kind: kind, Name: options[refs[0]]}
	}
	return state, nil
}

func isOption(key string) bool {
	if key == OptionURL {
		return true
	}
	for _, opt := range refOptions {
		if key == opt {
			return true
		}
	}
	return false
}

type field struct {
	key, value *yaml.Node
}

// fields returns the pairs of a mapping node. A repeated key keeps the
// position of its first occurrence and the value of its last, the way
// decoding into a dictionary would.
func fields(node *yaml.Node) []field {
	var out []field
	index := map[string]int{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := resolve(node.Content[i]), resolve(node.Content[i+1])
		if key.Kind == yaml.ScalarNode {
			if j, ok := index[key.Value]; ok {
				out[j].value = value
				continue
			}
			index[key.Value] = len(out)
		}
		out = append(out, field{key: key, value: value})
	}
	return out
}

func fieldKeys(fs []field) []string {
	keys := make([]string, 0, len(fs))
	for _, f := range fs {
		keys = append(keys, f.key.Value)
	}
	return keys
}

func resolve(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

// typeName names a node's type the way a manifest author would.
func typeName(node *yaml.Node) string {
	node = resolve(node)
	if node == nil {
		return "null"
	}
	switch node.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "list"
	case yaml.DocumentNode:
		return "document"
	}
	switch tag := node.ShortTag(); tag {
	case "!!str":
		return "string"
	case "!!int":
		return "int"
	case "!!float":
		return "float"
	case "!!bool":
		return "bool"
	case "!!null":
		return "null"
	default:
		return tag
	}
}
