package backend

import "strings"

// RefKind identifies what a pinned reference names inside a repository.
type RefKind uint8

const (
	RefKindBranch RefKind = iota
	RefKindCommit
	RefKindTag
)

func (k RefKind) String() string {
	switch k {
	case RefKindBranch:
		return "branch"
	case RefKindCommit:
		return "commit"
	case RefKindTag:
		return "tag"
	default:
		return "unknown"
	}
}

// ParseRefKind maps a manifest option key to its RefKind.
func ParseRefKind(raw string) (RefKind, bool) {
	switch strings.TrimSpace(raw) {
	case "branch":
		return RefKindBranch, true
	case "commit":
		return RefKindCommit, true
	case "tag":
		return RefKindTag, true
	default:
		return 0, false
	}
}
