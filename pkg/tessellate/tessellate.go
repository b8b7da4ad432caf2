// Package tessellate replaces primitive payloads in a scene graph with
// triangle meshes built by a geometry kernel.
package tessellate

import (
	"context"
	"errors"
	"fmt"

	"github.com/deadsy/sdfx/sdf"

	"github.com/chazu/scenecore/internal/ctxlog"
	"github.com/chazu/scenecore/pkg/datatypes"
	"github.com/chazu/scenecore/pkg/kernel"
	"github.com/chazu/scenecore/pkg/scenegraph"
	"github.com/chazu/scenecore/pkg/scenegraph/views"
)

// Options controls a tessellation run.
type Options struct {
	// Bake applies the transforms of a node's ancestors (and its own) to the
	// geometry, producing meshes in world space. Without it meshes stay in
	// the node's local space.
	Bake bool
}

// Stats summarizes a run.
type Stats struct {
	Primitives int // primitive payloads visited
	Meshes     int // meshes written back
	Skipped    int // primitives whose mesh came out empty
	Vertices   int
	Triangles  int
}

// transformStack accumulates matrices during the depth-first walk.
type transformStack struct {
	world []sdf.M44
}

func newTransformStack() *transformStack {
	return &transformStack{world: []sdf.M44{datatypes.Identity()}}
}

func (ts *transformStack) push(local sdf.M44) {
	ts.world = append(ts.world, ts.top().Mul(local))
}

func (ts *transformStack) pop() {
	if len(ts.world) > 1 {
		ts.world = ts.world[:len(ts.world)-1]
	}
}

func (ts *transformStack) top() sdf.M44 { return ts.world[len(ts.world)-1] }

// Tessellate walks g depth first and, for every node holding a
// *datatypes.PrimitiveData, builds the solid with k and stores the resulting
// *datatypes.MeshData in the node's place. Hierarchy and names are not
// touched.
//
// A primitive too thin for the kernel's resolution (kernel.ErrEmptyMesh)
// keeps its payload, is counted in Stats.Skipped and logged as a warning.
// Any other failure aborts the run before anything is written back, leaving
// g as it was.
func Tessellate(ctx context.Context, g *scenegraph.SceneGraph, k kernel.Kernel, opts Options) (Stats, error) {
	var stats Stats
	if g == nil {
		return stats, nil
	}
	t := &tessellator{ctx: ctx, g: g, k: k, opts: opts, ts: newTransformStack(), stats: &stats}
	for c := range views.Children(g, g.Root(), views.AcceptAll) {
		if err := t.walkNode(c); err != nil {
			return Stats{}, fmt.Errorf("tessellate: %w", err)
		}
	}
	for _, r := range t.results {
		g.SetContent(r.node, r.mesh)
	}
	ctxlog.FromContext(ctx).Debug("tessellated scene",
		"primitives", stats.Primitives, "meshes", stats.Meshes, "skipped", stats.Skipped,
		"vertices", stats.Vertices, "triangles", stats.Triangles)
	return stats, nil
}

type result struct {
	node scenegraph.NodeIndex
	mesh *datatypes.MeshData
}

type tessellator struct {
	ctx     context.Context
	g       *scenegraph.SceneGraph
	k       kernel.Kernel
	opts    Options
	ts      *transformStack
	stats   *Stats
	results []result
}

func (t *tessellator) walkNode(n scenegraph.NodeIndex) error {
	if err := t.ctx.Err(); err != nil {
		return err
	}
	local, ok := datatypes.ChainTransform(t.g, n)
	if ok {
		t.ts.push(local)
		defer t.ts.pop()
	}

	if p, ok := scenegraph.ContentAs[*datatypes.PrimitiveData](t.g, n); ok {
		if err := t.handlePrimitive(n, p); err != nil {
			return err
		}
	}

	for c := range views.Children(t.g, n, views.AcceptAll) {
		if err := t.walkNode(c); err != nil {
			return err
		}
	}
	return nil
}

func (t *tessellator) handlePrimitive(n scenegraph.NodeIndex, p *datatypes.PrimitiveData) error {
	t.stats.Primitives++
	name := t.g.NodeName(n).Path()

	solid, err := p.Solid(t.k)
	if err != nil {
		return fmt.Errorf("node %s: %w", name, err)
	}
	if t.opts.Bake {
		solid = t.k.Transform(solid, t.ts.top())
	}

	mesh, err := t.k.ToMesh(solid)
	if errors.Is(err, kernel.ErrEmptyMesh) {
		t.stats.Skipped++
		ctxlog.FromContext(t.ctx).Warn("primitive left untessellated",
			"node", name, "kind", p.Kind, "err", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("node %s: ToMesh: %w", name, err)
	}
	t.results = append(t.results, result{node: n, mesh: &datatypes.MeshData{Mesh: *mesh, Source: p.Kind.String()}})

	t.stats.Meshes++
	t.stats.Vertices += mesh.VertexCount()
	t.stats.Triangles += mesh.TriangleCount()
	ctxlog.FromContext(t.ctx).Debug("tessellated node",
		"node", name, "kind", p.Kind, "triangles", mesh.TriangleCount())
	return nil
}
