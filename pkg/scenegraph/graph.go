package scenegraph

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrNoSuchNode is returned by Lookup for paths that match no node.
var ErrNoSuchNode = errors.New("no such node")

// NodeHeader is the hierarchy record of one node.
type NodeHeader struct {
	parent      NodeIndex
	firstChild  NodeIndex
	nextSibling NodeIndex
	endPoint    bool
}

// Parent is Invalid for the root.
func (h NodeHeader) Parent() NodeIndex { return h.parent }

// FirstChild is Invalid for a leaf.
func (h NodeHeader) FirstChild() NodeIndex { return h.firstChild }

// NextSibling is Invalid for the last child of a parent.
func (h NodeHeader) NextSibling() NodeIndex { return h.nextSibling }

// IsEndPoint reports whether the node refuses new children.
func (h NodeHeader) IsEndPoint() bool { return h.endPoint }

// AssertHandler receives the message of a failed graph assertion. Whatever
// the handler does, the operation that asserted has not modified the graph.
type AssertHandler func(msg string)

// PanicOnAssert is an AssertHandler that panics with the message.
func PanicOnAssert(msg string) { panic("scenegraph: " + msg) }

// Option configures a SceneGraph.
type Option func(*SceneGraph)

// WithLogger sets the logger used by the default assert handler.
func WithLogger(l *slog.Logger) Option {
	return func(g *SceneGraph) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithAssertHandler replaces the default assert handler, which logs the
// message at error level and returns.
func WithAssertHandler(h AssertHandler) Option {
	return func(g *SceneGraph) { g.onAssert = h }
}

// WithCapacity preallocates storage for n nodes.
func WithCapacity(n int) Option {
	return func(g *SceneGraph) {
		if n > 0 {
			g.capacity = n
		}
	}
}

// SceneGraph is a tree of named nodes backed by three parallel storages.
type SceneGraph struct {
	hierarchy []NodeHeader
	names     []Name
	content   []GraphObject

	logger   *slog.Logger
	onAssert AssertHandler
	capacity int
}

// New returns a graph containing only the root node.
func New(opts ...Option) *SceneGraph {
	g := &SceneGraph{capacity: 1}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	g.reset()
	return g
}

func (g *SceneGraph) reset() {
	g.hierarchy = make([]NodeHeader, 1, g.capacity)
	g.names = make([]Name, 1, g.capacity)
	g.content = make([]GraphObject, 1, g.capacity)
}

// Clear drops every node except a fresh root. Indices issued before the call
// must not be used again.
func (g *SceneGraph) Clear() { g.reset() }

// Root returns the index of the root node.
func (g *SceneGraph) Root() NodeIndex { return indexAt(0) }

// NodeCount returns the number of nodes, root included.
func (g *SceneGraph) NodeCount() int { return len(g.hierarchy) }

func (g *SceneGraph) assertf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if g.onAssert != nil {
		g.onAssert(msg)
		return
	}
	g.logger.Error("scene graph assertion failed", "msg", msg)
}

// pos returns the storage offset of n, or -1 if n does not address a node
// of this graph.
func (g *SceneGraph) pos(n NodeIndex) int {
	p := n.AsNumber()
	if p < 0 || p >= len(g.hierarchy) {
		return -1
	}
	return p
}

// AddChild appends a node called name as the last child of parent and
// returns its index. It returns Invalid without modifying the graph if
// parent is invalid, the name is invalid, parent is an end point, or parent
// already has a child with the same name.
func (g *SceneGraph) AddChild(parent NodeIndex, name string, content ...GraphObject) NodeIndex {
	pp := g.pos(parent)
	if pp < 0 {
		return Invalid
	}
	if !ValidName(name) {
		g.assertf("invalid node name %q", name)
		return Invalid
	}
	if g.hierarchy[pp].endPoint {
		g.assertf("cannot add child %q to end point %q", name, g.names[pp].path)
		return Invalid
	}
	if first := g.hierarchy[pp].firstChild; first.IsValid() {
		return g.AddSibling(first, name, content...)
	}

	child := g.appendNode(parent, childName(g.names[pp].path, name), content)
	g.hierarchy[pp].firstChild = child
	return child
}

// AddSibling appends a node called name to the end of the sibling chain
// that anchor belongs to and returns its index. The new node shares anchor's
// parent. It returns Invalid without modifying the graph if anchor is
// invalid, the name is invalid, anchor is the root, or the chain already
// holds a node with the same name.
//
// An end-point anchor is accepted: the end-point flag only forbids children.
func (g *SceneGraph) AddSibling(anchor NodeIndex, name string, content ...GraphObject) NodeIndex {
	ap := g.pos(anchor)
	if ap < 0 {
		return Invalid
	}
	if !ValidName(name) {
		g.assertf("invalid node name %q", name)
		return Invalid
	}
	parent := g.hierarchy[ap].parent
	pp := g.pos(parent)
	if pp < 0 {
		g.assertf("cannot add sibling %q to the root node", name)
		return Invalid
	}
	if g.hierarchy[pp].endPoint {
		g.assertf("cannot add %q under end point %q", name, g.names[pp].path)
		return Invalid
	}

	// Check the whole chain for the name, not just the part after anchor.
	var tail int
	for cur := g.hierarchy[pp].firstChild; cur.IsValid(); cur = g.hierarchy[cur.AsNumber()].nextSibling {
		tail = cur.AsNumber()
		if g.names[tail].Leaf() == name {
			g.assertf("duplicate sibling name %q under %q", name, g.names[pp].path)
			return Invalid
		}
	}

	sibling := g.appendNode(parent, childName(g.names[pp].path, name), content)
	g.hierarchy[tail].nextSibling = sibling
	return sibling
}

func (g *SceneGraph) appendNode(parent NodeIndex, name Name, content []GraphObject) NodeIndex {
	var obj GraphObject
	if len(content) > 0 {
		obj = content[0]
	}
	g.hierarchy = append(g.hierarchy, NodeHeader{parent: parent})
	g.names = append(g.names, name)
	g.content = append(g.content, obj)
	return indexAt(len(g.hierarchy) - 1)
}

// Find resolves a dotted path from the root.
func (g *SceneGraph) Find(path string) NodeIndex {
	return g.FindFrom(g.Root(), path)
}

// FindFrom resolves a dotted path relative to start: each segment selects a
// child of the node matched by the previous one. It returns Invalid if start
// is invalid, path is empty, or any segment has no match.
func (g *SceneGraph) FindFrom(start NodeIndex, path string) NodeIndex {
	if g.pos(start) < 0 || path == "" {
		return Invalid
	}
	cur := start
	for segment := range strings.SplitSeq(path, string(Separator)) {
		cur = g.findChild(cur, segment)
		if !cur.IsValid() {
			return Invalid
		}
	}
	return cur
}

// Lookup is Find with an error for paths that match nothing.
func (g *SceneGraph) Lookup(path string) (NodeIndex, error) {
	n := g.Find(path)
	if !n.IsValid() {
		return Invalid, fmt.Errorf("%w: %q", ErrNoSuchNode, path)
	}
	return n, nil
}

func (g *SceneGraph) findChild(parent NodeIndex, leaf string) NodeIndex {
	if leaf == "" {
		return Invalid
	}
	for c := g.hierarchy[parent.AsNumber()].firstChild; c.IsValid(); c = g.hierarchy[c.AsNumber()].nextSibling {
		if g.names[c.AsNumber()].Leaf() == leaf {
			return c
		}
	}
	return Invalid
}

// SetContent replaces the content of node. A nil content clears the slot.
func (g *SceneGraph) SetContent(node NodeIndex, content GraphObject) bool {
	p := g.pos(node)
	if p < 0 {
		return false
	}
	g.content[p] = content
	return true
}

// NodeContent returns the content of node, or nil.
func (g *SceneGraph) NodeContent(node NodeIndex) GraphObject {
	p := g.pos(node)
	if p < 0 {
		return nil
	}
	return g.content[p]
}

// HasNodeContent reports whether node carries a payload. It is false for
// invalid indices.
func (g *SceneGraph) HasNodeContent(node NodeIndex) bool { return g.NodeContent(node) != nil }

// HasNodeChild reports whether node has at least one child.
func (g *SceneGraph) HasNodeChild(node NodeIndex) bool { return g.NodeChild(node).IsValid() }

// HasNodeSibling reports whether a sibling follows node.
func (g *SceneGraph) HasNodeSibling(node NodeIndex) bool { return g.NodeSibling(node).IsValid() }

// HasNodeParent reports whether node has a parent, which every node but
// the root does.
func (g *SceneGraph) HasNodeParent(node NodeIndex) bool { return g.NodeParent(node).IsValid() }

// NodeParent returns the parent of node; Invalid for the root.
func (g *SceneGraph) NodeParent(node NodeIndex) NodeIndex {
	if p := g.pos(node); p >= 0 {
		return g.hierarchy[p].parent
	}
	return Invalid
}

// NodeChild returns the first child of node.
func (g *SceneGraph) NodeChild(node NodeIndex) NodeIndex {
	if p := g.pos(node); p >= 0 {
		return g.hierarchy[p].firstChild
	}
	return Invalid
}

// NodeSibling returns the next sibling of node.
func (g *SceneGraph) NodeSibling(node NodeIndex) NodeIndex {
	if p := g.pos(node); p >= 0 {
		return g.hierarchy[p].nextSibling
	}
	return Invalid
}

// NodeName returns the name of node, or InvalidName.
func (g *SceneGraph) NodeName(node NodeIndex) Name {
	if p := g.pos(node); p >= 0 {
		return g.names[p]
	}
	return InvalidName
}

// MakeEndPoint marks node as an end point. Existing children are kept, but
// AddChild on the node fails from now on.
func (g *SceneGraph) MakeEndPoint(node NodeIndex) {
	if p := g.pos(node); p >= 0 {
		g.hierarchy[p].endPoint = true
	}
}

// IsNodeEndPoint is false for invalid indices.
func (g *SceneGraph) IsNodeEndPoint(node NodeIndex) bool {
	if p := g.pos(node); p >= 0 {
		return g.hierarchy[p].endPoint
	}
	return false
}
