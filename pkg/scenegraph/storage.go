package scenegraph

import "iter"

// The storage views below walk the parallel storages in construction order.
// Position i of every storage belongs to the node ConvertToNodeIndex(i).

// Hierarchy yields the hierarchy record of every node.
func (g *SceneGraph) Hierarchy() iter.Seq2[NodeIndex, NodeHeader] {
	return func(yield func(NodeIndex, NodeHeader) bool) {
		for i, h := range g.hierarchy {
			if !yield(indexAt(i), h) {
				return
			}
		}
	}
}

// Names yields the name of every node.
func (g *SceneGraph) Names() iter.Seq2[NodeIndex, Name] {
	return func(yield func(NodeIndex, Name) bool) {
		for i, n := range g.names {
			if !yield(indexAt(i), n) {
				return
			}
		}
	}
}

// Contents yields the content slot of every node, nil slots included.
func (g *SceneGraph) Contents() iter.Seq2[NodeIndex, GraphObject] {
	return func(yield func(NodeIndex, GraphObject) bool) {
		for i, c := range g.content {
			if !yield(indexAt(i), c) {
				return
			}
		}
	}
}

// ContentStorage returns the content storage itself. Writing an element
// replaces that node's content. The slice is only valid until the next
// insertion or Clear.
func (g *SceneGraph) ContentStorage() []GraphObject { return g.content }

// ConvertToNodeIndex returns the node stored at position pos, or Invalid if
// pos is out of range.
func (g *SceneGraph) ConvertToNodeIndex(pos int) NodeIndex {
	if pos < 0 || pos >= len(g.hierarchy) {
		return Invalid
	}
	return indexAt(pos)
}

// StoragePosition returns the storage position of node, or -1.
func (g *SceneGraph) StoragePosition(node NodeIndex) int { return g.pos(node) }
