package domain

import "fmt"

// ScopeType selects the item dimension for queries and remote fetches.
// The numeric values match the remote API "type" query parameter.
type ScopeType int

// scope types as defined by the remote protocol
const (
	ScopeFeed    ScopeType = 0
	ScopeFolder  ScopeType = 1
	ScopeStarred ScopeType = 2
	ScopeAll     ScopeType = 3
)

// Scope identifies a set of items: a single feed, a folder, all starred
// items, or everything. ID is meaningful only for feed and folder scopes.
type Scope struct {
	Type ScopeType
	ID   int64
}

// ParseScopeType converts a string name to a ScopeType
func ParseScopeType(s string) (ScopeType, error) {
	switch s {
	case "feed":
		return ScopeFeed, nil
	case "folder":
		return ScopeFolder, nil
	case "starred":
		return ScopeStarred, nil
	case "all", "":
		return ScopeAll, nil
	}
	return 0, fmt.Errorf("unknown scope type %q", s)
}

func (t ScopeType) String() string {
	switch t {
	case ScopeFeed:
		return "feed"
	case ScopeFolder:
		return "folder"
	case ScopeStarred:
		return "starred"
	case ScopeAll:
		return "all"
	}
	return fmt.Sprintf("scope(%d)", int(t))
}
