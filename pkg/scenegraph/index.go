package scenegraph

import "strconv"

// NodeIndex identifies a node across the storages of one SceneGraph.
// The zero value is Invalid. Handles issued before a Clear must not be used
// afterwards.
type NodeIndex struct {
	// slot is the storage offset plus one, so that the zero value is invalid.
	slot uint32
}

// Invalid is the NodeIndex that refers to no node.
var Invalid = NodeIndex{}

func indexAt(pos int) NodeIndex { return NodeIndex{slot: uint32(pos) + 1} }

// IsValid reports whether n refers to a node slot. It does not check that
// the slot exists in a particular graph.
func (n NodeIndex) IsValid() bool { return n.slot != 0 }

// AsNumber returns the storage offset of n, or -1 if n is invalid.
func (n NodeIndex) AsNumber() int {
	if n.slot == 0 {
		return -1
	}
	return int(n.slot - 1)
}

func (n NodeIndex) String() string {
	if n.slot == 0 {
		return "NodeIndex(invalid)"
	}
	return "NodeIndex(" + strconv.Itoa(n.AsNumber()) + ")"
}
