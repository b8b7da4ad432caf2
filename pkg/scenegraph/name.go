package scenegraph

import "strings"

// Separator divides the segments of a node path.
const Separator = '.'

const invalidPlaceholder = "<Invalid>"

// Name is the full dotted path of a node together with the offset at which
// the node's own segment begins. Two names are equal only if both the path
// and the offset are equal.
type Name struct {
	path       string
	nameOffset int
	invalid    bool
}

// InvalidName is returned for lookups on invalid nodes. Both its path and
// its leaf render as "<Invalid>", but it never equals the name of a node,
// even one called "<Invalid>".
var InvalidName = Name{path: invalidPlaceholder, invalid: true}

// NewName returns a Name for path whose own segment starts at offset.
func NewName(path string, offset int) Name {
	return Name{path: path, nameOffset: offset}
}

// Path returns the full dotted path.
func (n Name) Path() string { return n.path }

// Leaf returns the final path segment, or "" if the offset is out of range.
func (n Name) Leaf() string {
	if n.invalid {
		return n.path
	}
	if n.nameOffset < 0 || n.nameOffset > len(n.path) {
		return ""
	}
	return n.path[n.nameOffset:]
}

// LeafLength returns len(n.Leaf()).
func (n Name) LeafLength() int { return len(n.Leaf()) }

func (n Name) String() string { return n.path }

// ValidName reports whether s can be used as a node name: it must be
// non-empty and must not contain the Separator.
func ValidName(s string) bool {
	return s != "" && !strings.ContainsRune(s, Separator)
}

// IsValidName is ValidName for an optional name; a nil pointer is never valid.
func IsValidName(candidate *string) bool {
	return candidate != nil && ValidName(*candidate)
}

// childName builds the Name of a node called leaf under a parent with the
// given path.
func childName(parentPath, leaf string) Name {
	if parentPath == "" {
		return Name{path: leaf}
	}
	return Name{
		path:       parentPath + string(Separator) + leaf,
		nameOffset: len(parentPath) + 1,
	}
}
