package importer

import (
	"fmt"

	"github.com/chazu/scenecore/pkg/scenegraph"
)

// nodeDesc is a node described by user code but not yet inserted. Nodes are
// inserted by (scene ...), so a description can be built bottom-up.
type nodeDesc struct {
	name     string
	content  scenegraph.GraphObject
	endPoint bool
	children []*nodeDesc
}

// builder owns the graph under construction and turns failed insertions
// into EvalErrors.
type builder struct {
	g       *scenegraph.SceneGraph
	asserts []string
	errs    []EvalError
}

func newBuilder(opts ...scenegraph.Option) *builder {
	b := &builder{}
	opts = append(opts[:len(opts):len(opts)], scenegraph.WithAssertHandler(b.recordAssert))
	b.g = scenegraph.New(opts...)
	return b
}

func (b *builder) recordAssert(msg string) {
	b.asserts = append(b.asserts, msg)
}

// insert adds d under parent, then its children depth first. A node that
// cannot be inserted is reported and its subtree skipped.
func (b *builder) insert(parent scenegraph.NodeIndex, d *nodeDesc) {
	b.asserts = b.asserts[:0]
	n := b.g.AddChild(parent, d.name, d.content)
	if !n.IsValid() {
		msg := fmt.Sprintf("cannot add node %q under %q", d.name, b.g.NodeName(parent).Path())
		if len(b.asserts) > 0 {
			msg += ": " + b.asserts[0]
		}
		b.errs = append(b.errs, EvalError{Message: msg})
		return
	}
	for _, c := range d.children {
		b.insert(n, c)
	}
	if d.endPoint {
		b.g.MakeEndPoint(n)
	}
}
