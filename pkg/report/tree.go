// Package report renders scene graphs for people: an indented tree, a YAML
// listing, and line diffs between listings.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/chazu/scenecore/pkg/datatypes"
	"github.com/chazu/scenecore/pkg/scenegraph"
)

// TreeOptions controls WriteTree.
type TreeOptions struct {
	// Color forces ANSI colors on or off regardless of the terminal.
	Color bool
	// Details appends a one-line summary of each node's content.
	Details bool
}

type palette struct {
	name, typ, endPoint, detail *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		name:     color.New(color.FgCyan, color.Bold),
		typ:      color.New(color.FgYellow),
		endPoint: color.New(color.FgMagenta),
		detail:   color.RGB(128, 128, 128),
	}
	for _, c := range []*color.Color{p.name, p.typ, p.endPoint, p.detail} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// WriteTree writes g as an indented tree, one node per line. End points are
// marked with '*'.
func WriteTree(w io.Writer, g *scenegraph.SceneGraph, opts TreeOptions) error {
	tw := &treeWriter{w: w, g: g, opts: opts, p: newPalette(opts.Color)}
	if _, err := fmt.Fprintln(w, tw.p.detail.Sprint("<root>")); err != nil {
		return err
	}
	return tw.children(g.Root(), "")
}

type treeWriter struct {
	w    io.Writer
	g    *scenegraph.SceneGraph
	opts TreeOptions
	p    palette
}

func (tw *treeWriter) children(parent scenegraph.NodeIndex, indent string) error {
	for c := tw.g.NodeChild(parent); c.IsValid(); c = tw.g.NodeSibling(c) {
		last := !tw.g.HasNodeSibling(c)
		branch, next := "├─ ", "│  "
		if last {
			branch, next = "└─ ", "   "
		}
		if _, err := fmt.Fprintln(tw.w, indent+branch+tw.line(c)); err != nil {
			return err
		}
		if err := tw.children(c, indent+next); err != nil {
			return err
		}
	}
	return nil
}

func (tw *treeWriter) line(n scenegraph.NodeIndex) string {
	var sb strings.Builder
	sb.WriteString(tw.p.name.Sprint(tw.g.NodeName(n).Leaf()))
	if tw.g.IsNodeEndPoint(n) {
		sb.WriteString(tw.p.endPoint.Sprint("*"))
	}
	if c := tw.g.NodeContent(n); c != nil {
		sb.WriteString(" ")
		sb.WriteString(tw.p.typ.Sprintf("[%s]", c.TypeName()))
		if tw.opts.Details {
			if d := Describe(c); d != "" {
				sb.WriteString(" ")
				sb.WriteString(tw.p.detail.Sprint(d))
			}
		}
	}
	return sb.String()
}

// Describe summarizes known payload types in one line. Unknown payloads
// yield "".
func Describe(obj scenegraph.GraphObject) string {
	switch v := obj.(type) {
	case *datatypes.PrimitiveData:
		switch v.Kind {
		case datatypes.PrimBox:
			return fmt.Sprintf("box size=%s", v.Size)
		case datatypes.PrimCylinder:
			return fmt.Sprintf("cylinder h=%g r=%g", v.Height, v.Radius)
		case datatypes.PrimSphere:
			return fmt.Sprintf("sphere r=%g", v.Radius)
		}
		return v.Kind.String()
	case *datatypes.TransformData:
		return fmt.Sprintf("translate=%s rotate=%s", v.Translate, v.Rotate)
	case *datatypes.MeshData:
		s := fmt.Sprintf("%d vertices, %d triangles", v.VertexCount(), v.TriangleCount())
		if v.Source != "" {
			s += " from " + v.Source
		}
		return s
	case *datatypes.MaterialData:
		if v.Color == "" {
			return v.Name
		}
		return v.Name + " " + v.Color
	case *datatypes.BoneData:
		return fmt.Sprintf("%s offset=%s", v.Name, v.Offset)
	}
	return ""
}
