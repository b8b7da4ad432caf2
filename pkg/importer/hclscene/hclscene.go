// Package hclscene loads scene graphs from HCL manifests:
//
//	node "chair" {
//	  transform {
//	    translate = [0, 0, 10]
//	  }
//	  node "seat" {
//	    box { size = [var.width, var.width, 4] }
//	  }
//	  node "finish" {
//	    end_point = true
//	    material "oak" { color = "#c8a165" }
//	  }
//	}
//
// Variables passed to Load are visible to expressions under var.
package hclscene

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/chazu/scenecore/internal/ctxlog"
	"github.com/chazu/scenecore/pkg/datatypes"
	"github.com/chazu/scenecore/pkg/scenegraph"
)

// ErrInvalidScene is wrapped by errors for manifests that decode cleanly
// but describe a graph that cannot be built.
var ErrInvalidScene = errors.New("invalid scene")

type manifest struct {
	Nodes []*nodeBlock `hcl:"node,block"`
}

type nodeBlock struct {
	Name     string          `hcl:"name,label"`
	EndPoint bool            `hcl:"end_point,optional"`
	Box      *boxBlock       `hcl:"box,block"`
	Cylinder *cylinderBlock  `hcl:"cylinder,block"`
	Sphere   *sphereBlock    `hcl:"sphere,block"`
	Mesh     *meshBlock      `hcl:"mesh,block"`
	Xform    *transformBlock `hcl:"transform,block"`
	Material *materialBlock  `hcl:"material,block"`
	Bone     *boneBlock      `hcl:"bone,block"`
	Children []*nodeBlock    `hcl:"node,block"`
}

type boxBlock struct {
	Size hcl.Expression `hcl:"size"`
}

type cylinderBlock struct {
	Height float64 `hcl:"height"`
	Radius float64 `hcl:"radius"`
}

type sphereBlock struct {
	Radius float64 `hcl:"radius"`
}

type meshBlock struct {
	Vertices []float64 `hcl:"vertices"`
	Normals  []float64 `hcl:"normals,optional"`
	Indices  []int64   `hcl:"indices"`
}

type transformBlock struct {
	Translate hcl.Expression `hcl:"translate,optional"`
	Rotate    hcl.Expression `hcl:"rotate,optional"`
}

type materialBlock struct {
	Name  string `hcl:"name,label"`
	Color string `hcl:"color,optional"`
}

type boneBlock struct {
	Name   string         `hcl:"name,label"`
	Offset hcl.Expression `hcl:"offset,optional"`
}

// functions available to manifest expressions.
var functions = map[string]function.Function{
	"abs":    stdlib.AbsoluteFunc,
	"ceil":   stdlib.CeilFunc,
	"floor":  stdlib.FloorFunc,
	"max":    stdlib.MaxFunc,
	"min":    stdlib.MinFunc,
	"format": stdlib.FormatFunc,
	"lower":  stdlib.LowerFunc,
	"upper":  stdlib.UpperFunc,
}

// LoadFile reads and loads the manifest at path.
func LoadFile(ctx context.Context, path string, vars map[string]cty.Value, opts ...scenegraph.Option) (*scenegraph.SceneGraph, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hclscene: %w", err)
	}
	return Load(ctx, path, src, vars, opts...)
}

// Load parses src and builds the scene graph it describes. filename is used
// in diagnostics only.
func Load(ctx context.Context, filename string, src []byte, vars map[string]cty.Value, opts ...scenegraph.Option) (*scenegraph.SceneGraph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Decoding scene manifest.", "path", filename)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse scene manifest %s: %w", filename, diags)
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{"var": cty.ObjectVal(vars)},
		Functions: functions,
	}

	var m manifest
	if diags := gohcl.DecodeBody(file.Body, evalCtx, &m); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode scene manifest %s: %w", filename, diags)
	}

	b := &builder{evalCtx: evalCtx}
	opts = append(opts[:len(opts):len(opts)], scenegraph.WithAssertHandler(b.recordAssert))
	b.g = scenegraph.New(opts...)
	for _, n := range m.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := b.insert(b.g.Root(), n); err != nil {
			return nil, fmt.Errorf("scene manifest %s: %w", filename, err)
		}
	}

	logger.Debug("Successfully decoded scene manifest.", "path", filename, "nodes", b.g.NodeCount())
	return b.g, nil
}

type builder struct {
	g       *scenegraph.SceneGraph
	evalCtx *hcl.EvalContext
	assert  string
}

func (b *builder) recordAssert(msg string) {
	if b.assert == "" {
		b.assert = msg
	}
}

func (b *builder) insert(parent scenegraph.NodeIndex, nb *nodeBlock) error {
	content, err := b.payload(nb)
	if err != nil {
		return err
	}
	if nb.EndPoint && len(nb.Children) > 0 {
		return fmt.Errorf("node %q: %w: end point has children", nb.Name, ErrInvalidScene)
	}

	b.assert = ""
	var n scenegraph.NodeIndex
	if content != nil {
		n = b.g.AddChild(parent, nb.Name, content)
	} else {
		n = b.g.AddChild(parent, nb.Name)
	}
	if !n.IsValid() {
		return fmt.Errorf("node %q: %w: %s", nb.Name, ErrInvalidScene, b.assert)
	}

	for _, c := range nb.Children {
		if err := b.insert(n, c); err != nil {
			return err
		}
	}
	if nb.EndPoint {
		b.g.MakeEndPoint(n)
	}
	return nil
}

// payload returns the node's content, or nil for a plain grouping node.
func (b *builder) payload(nb *nodeBlock) (scenegraph.GraphObject, error) {
	var out []scenegraph.GraphObject
	if nb.Box != nil {
		if b.isNull(nb.Box.Size) {
			return nil, fmt.Errorf("node %q: box requires size", nb.Name)
		}
		size, err := b.vec3(nb.Box.Size)
		if err != nil {
			return nil, fmt.Errorf("node %q: box size: %w", nb.Name, err)
		}
		out = append(out, &datatypes.PrimitiveData{Kind: datatypes.PrimBox, Size: size})
	}
	if nb.Cylinder != nil {
		out = append(out, &datatypes.PrimitiveData{Kind: datatypes.PrimCylinder, Height: nb.Cylinder.Height, Radius: nb.Cylinder.Radius})
	}
	if nb.Sphere != nil {
		out = append(out, &datatypes.PrimitiveData{Kind: datatypes.PrimSphere, Radius: nb.Sphere.Radius})
	}
	if nb.Mesh != nil {
		md, err := meshData(nb.Mesh)
		if err != nil {
			return nil, fmt.Errorf("node %q: mesh: %w", nb.Name, err)
		}
		out = append(out, md)
	}
	if nb.Xform != nil {
		td := &datatypes.TransformData{}
		var err error
		if td.Translate, err = b.vec3(nb.Xform.Translate); err != nil {
			return nil, fmt.Errorf("node %q: transform translate: %w", nb.Name, err)
		}
		if td.Rotate, err = b.vec3(nb.Xform.Rotate); err != nil {
			return nil, fmt.Errorf("node %q: transform rotate: %w", nb.Name, err)
		}
		out = append(out, td)
	}
	if nb.Material != nil {
		out = append(out, &datatypes.MaterialData{Name: nb.Material.Name, Color: nb.Material.Color})
	}
	if nb.Bone != nil {
		bd := &datatypes.BoneData{Name: nb.Bone.Name}
		var err error
		if bd.Offset, err = b.vec3(nb.Bone.Offset); err != nil {
			return nil, fmt.Errorf("node %q: bone offset: %w", nb.Name, err)
		}
		out = append(out, bd)
	}

	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0], nil
	}
	return nil, fmt.Errorf("node %q: %w: %d payload blocks, at most one is allowed", nb.Name, ErrInvalidScene, len(out))
}

// isNull reports whether expr is absent or evaluates to null. gohcl fills a
// missing hcl.Expression attribute with a static null.
func (b *builder) isNull(expr hcl.Expression) bool {
	if expr == nil {
		return true
	}
	val, diags := expr.Value(b.evalCtx)
	return !diags.HasErrors() && val.IsNull()
}

// vec3 evaluates expr as a three-number tuple. An absent optional attribute
// is the zero vector.
func (b *builder) vec3(expr hcl.Expression) (datatypes.Vec3, error) {
	if expr == nil {
		return datatypes.Vec3{}, nil
	}
	val, diags := expr.Value(b.evalCtx)
	if diags.HasErrors() {
		return datatypes.Vec3{}, diags
	}
	if val.IsNull() {
		return datatypes.Vec3{}, nil
	}

	list, err := convert.Convert(val, cty.List(cty.Number))
	if err != nil {
		return datatypes.Vec3{}, fmt.Errorf("%s: expected a list of three numbers: %w", expr.Range(), err)
	}
	var xyz []float64
	if err := gocty.FromCtyValue(list, &xyz); err != nil {
		return datatypes.Vec3{}, fmt.Errorf("%s: %w", expr.Range(), err)
	}
	if len(xyz) != 3 {
		return datatypes.Vec3{}, fmt.Errorf("%s: expected 3 components, got %d", expr.Range(), len(xyz))
	}
	return datatypes.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

func meshData(mb *meshBlock) (*datatypes.MeshData, error) {
	md := &datatypes.MeshData{Source: "manifest"}
	md.Vertices = make([]float32, len(mb.Vertices))
	for i, v := range mb.Vertices {
		md.Vertices[i] = float32(v)
	}
	if len(mb.Normals) > 0 {
		md.Normals = make([]float32, len(mb.Normals))
		for i, v := range mb.Normals {
			md.Normals[i] = float32(v)
		}
	}
	md.Indices = make([]uint32, len(mb.Indices))
	for i, v := range mb.Indices {
		if v < 0 {
			return nil, fmt.Errorf("index %d is negative", i)
		}
		md.Indices[i] = uint32(v)
	}
	return md, nil
}
