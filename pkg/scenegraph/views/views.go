// Package views provides iterators over a scenegraph.SceneGraph: the
// children of a node, the subtree below a node, the path up to the root, and
// adapters that pair node names with content or filter content by type.
//
// All views read the graph lazily. Do not insert nodes while iterating.
package views

import (
	"iter"

	"github.com/chazu/scenecore/pkg/scenegraph"
)

// Filter selects which children Children yields.
type Filter int

const (
	AcceptAll           Filter = iota
	AcceptNodesOnly            // skip end points
	AcceptEndPointsOnly        // only end points
)

func (f Filter) accepts(g *scenegraph.SceneGraph, n scenegraph.NodeIndex) bool {
	switch f {
	case AcceptNodesOnly:
		return !g.IsNodeEndPoint(n)
	case AcceptEndPointsOnly:
		return g.IsNodeEndPoint(n)
	default:
		return true
	}
}

// Children yields the direct children of parent in insertion order.
func Children(g *scenegraph.SceneGraph, parent scenegraph.NodeIndex, accept Filter) iter.Seq[scenegraph.NodeIndex] {
	return func(yield func(scenegraph.NodeIndex) bool) {
		for c := g.NodeChild(parent); c.IsValid(); c = g.NodeSibling(c) {
			if accept.accepts(g, c) && !yield(c) {
				return
			}
		}
	}
}

// Order is the visiting order of Downwards.
type Order int

const (
	BreadthFirst Order = iota
	DepthFirst
)

func (o Order) String() string {
	if o == DepthFirst {
		return "depth-first"
	}
	return "breadth-first"
}

// Downwards yields start and every node below it. Siblings of start are not
// visited. Depth-first order is pre-order; children keep insertion order in
// both orders.
func Downwards(g *scenegraph.SceneGraph, start scenegraph.NodeIndex, order Order) iter.Seq[scenegraph.NodeIndex] {
	if order == DepthFirst {
		return depthFirst(g, start)
	}
	return breadthFirst(g, start)
}

func breadthFirst(g *scenegraph.SceneGraph, start scenegraph.NodeIndex) iter.Seq[scenegraph.NodeIndex] {
	return func(yield func(scenegraph.NodeIndex) bool) {
		if g.StoragePosition(start) < 0 {
			return
		}
		queue := []scenegraph.NodeIndex{start}
		for len(queue) > 0 {
			n := queue[0]
			queue = queue[1:]
			if !yield(n) {
				return
			}
			for c := g.NodeChild(n); c.IsValid(); c = g.NodeSibling(c) {
				queue = append(queue, c)
			}
		}
	}
}

func depthFirst(g *scenegraph.SceneGraph, start scenegraph.NodeIndex) iter.Seq[scenegraph.NodeIndex] {
	return func(yield func(scenegraph.NodeIndex) bool) {
		if g.StoragePosition(start) < 0 {
			return
		}
		if !yield(start) {
			return
		}
		stack := []scenegraph.NodeIndex{g.NodeChild(start)}
		for len(stack) > 0 {
			top := len(stack) - 1
			n := stack[top]
			if !n.IsValid() {
				stack = stack[:top]
				continue
			}
			if !yield(n) {
				return
			}
			// Resume with the sibling once the subtree of n is done.
			stack[top] = g.NodeSibling(n)
			stack = append(stack, g.NodeChild(n))
		}
	}
}

// Upwards yields start, its parent, and so on up to the root.
func Upwards(g *scenegraph.SceneGraph, start scenegraph.NodeIndex) iter.Seq[scenegraph.NodeIndex] {
	return func(yield func(scenegraph.NodeIndex) bool) {
		if g.StoragePosition(start) < 0 {
			return
		}
		for n := start; n.IsValid(); n = g.NodeParent(n) {
			if !yield(n) {
				return
			}
		}
	}
}

// Pairs yields the name and content of every node in nodes.
func Pairs(g *scenegraph.SceneGraph, nodes iter.Seq[scenegraph.NodeIndex]) iter.Seq2[scenegraph.Name, scenegraph.GraphObject] {
	return func(yield func(scenegraph.Name, scenegraph.GraphObject) bool) {
		for n := range nodes {
			if !yield(g.NodeName(n), g.NodeContent(n)) {
				return
			}
		}
	}
}

// OfType yields the nodes of nodes whose content is a T, with that content.
func OfType[T any](g *scenegraph.SceneGraph, nodes iter.Seq[scenegraph.NodeIndex]) iter.Seq2[scenegraph.NodeIndex, T] {
	return func(yield func(scenegraph.NodeIndex, T) bool) {
		for n := range nodes {
			v, ok := scenegraph.ContentAs[T](g, n)
			if ok && !yield(n, v) {
				return
			}
		}
	}
}
