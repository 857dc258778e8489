package manifest

import (
	"fmt"
	"strings"
)

// SchemaError reports a manifest entry that does not follow the state schema.
type SchemaError struct {
	// State is the entry's name, empty when the entry has no usable name.
	State string
	Msg   string
	// Keys lists the offending option keys, if any.
	Keys []string
}

func (e *SchemaError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("manifest: ")
	if e.State != "" {
		fmt.Fprintf(&b, "state %q: ", e.State)
	}
	b.WriteString(e.Msg)
	if len(e.Keys) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Keys, ", "))
	}
	return b.String()
}
