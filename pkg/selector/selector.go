// Package selector picks node paths out of a scene graph from a user
// selection list and a node predicate.
package selector

import (
	"fmt"
	"slices"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/chazu/scenecore/pkg/datatypes"
	"github.com/chazu/scenecore/pkg/scenegraph"
	"github.com/chazu/scenecore/pkg/scenegraph/views"
)

// Predicate reports whether a node is a candidate for selection.
type Predicate func(g *scenegraph.SceneGraph, n scenegraph.NodeIndex) bool

// SelectionList is a user's explicit choice of nodes by path.
//
// A node listed in Unselected is never selected. A node listed in Selected
// is selected. Otherwise the nearest listed ancestor decides, and a node
// with no listed ancestor falls back to SelectByDefault.
type SelectionList struct {
	Selected        []string `json:"selected,omitempty" yaml:"selected,omitempty"`
	Unselected      []string `json:"unselected,omitempty" yaml:"unselected,omitempty"`
	SelectByDefault bool     `json:"selectByDefault" yaml:"selectByDefault"`
}

// All selects every node.
func All() SelectionList { return SelectionList{SelectByDefault: true} }

// state returns the explicit decision for path, if any.
func (l SelectionList) state(path string) (selected, listed bool) {
	if slices.Contains(l.Unselected, path) {
		return false, true
	}
	if slices.Contains(l.Selected, path) {
		return true, true
	}
	return false, false
}

// IsSelected reports whether node is selected by the list. The root is
// never selected.
func (l SelectionList) IsSelected(g *scenegraph.SceneGraph, node scenegraph.NodeIndex) bool {
	for n := range views.Upwards(g, node) {
		if n == g.Root() {
			break
		}
		if sel, ok := l.state(g.NodeName(n).Path()); ok {
			return sel
		}
	}
	return l.SelectByDefault
}

// GenerateTargetNodes returns, in breadth-first order, the paths of the
// nodes that match pred and are selected by list. A nil pred matches every
// node.
func GenerateTargetNodes(g *scenegraph.SceneGraph, list SelectionList, pred Predicate) []string {
	var out []string
	for n := range views.Downwards(g, g.Root(), views.BreadthFirst) {
		if n == g.Root() {
			continue
		}
		if pred != nil && !pred(g, n) {
			continue
		}
		if list.IsSelected(g, n) {
			out = append(out, g.NodeName(n).Path())
		}
	}
	return out
}

func contentType(typ string) Predicate {
	return func(g *scenegraph.SceneGraph, n scenegraph.NodeIndex) bool {
		c := g.NodeContent(n)
		return c != nil && c.TypeName() == typ
	}
}

var (
	IsMesh      = contentType(datatypes.TypeMesh)
	IsTransform = contentType(datatypes.TypeTransform)
	IsBone      = contentType(datatypes.TypeBone)
	IsPrimitive = contentType(datatypes.TypePrimitive)
	IsMaterial  = contentType(datatypes.TypeMaterial)
)

// Env is what a filter expression sees for each node.
type Env struct {
	Path       string `expr:"path"`
	Name       string `expr:"name"`
	Type       string `expr:"type"`
	EndPoint   bool   `expr:"endPoint"`
	Depth      int    `expr:"depth"`
	HasContent bool   `expr:"hasContent"`
	ChildCount int    `expr:"childCount"`
}

// NodeEnv builds the expression environment for n.
func NodeEnv(g *scenegraph.SceneGraph, n scenegraph.NodeIndex) Env {
	name := g.NodeName(n)
	env := Env{
		Path:     name.Path(),
		Name:     name.Leaf(),
		EndPoint: g.IsNodeEndPoint(n),
	}
	if c := g.NodeContent(n); c != nil {
		env.Type = c.TypeName()
		env.HasContent = true
	}
	for range views.Upwards(g, n) {
		env.Depth++
	}
	env.Depth-- // the root is depth 0
	for range views.Children(g, n, views.AcceptAll) {
		env.ChildCount++
	}
	return env
}

// Compile compiles a boolean filter expression such as
//
//	type == "mesh" && depth > 1 && !endPoint
//
// into a Predicate. Evaluation errors count as no match.
func Compile(src string) (Predicate, error) {
	prog, err := expr.Compile(src, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", src, err)
	}
	return func(g *scenegraph.SceneGraph, n scenegraph.NodeIndex) bool {
		ok, err := eval(prog, NodeEnv(g, n))
		return err == nil && ok
	}, nil
}

func eval(prog *vm.Program, env Env) (bool, error) {
	out, err := expr.Run(prog, env)
	if err != nil {
		return false, err
	}
	b, _ := out.(bool)
	return b, nil
}

// And matches nodes matched by every predicate.
func And(preds ...Predicate) Predicate {
	return func(g *scenegraph.SceneGraph, n scenegraph.NodeIndex) bool {
		for _, p := range preds {
			if !p(g, n) {
				return false
			}
		}
		return true
	}
}
