// Package meshgroup gathers the mesh nodes of a scene graph into levels of
// detail, each mesh with its world transform and the content of its
// children.
package meshgroup

import (
	"errors"
	"slices"
	"strings"

	"github.com/deadsy/sdfx/sdf"

	"github.com/chazu/scenecore/pkg/datatypes"
	"github.com/chazu/scenecore/pkg/scenegraph"
	"github.com/chazu/scenecore/pkg/scenegraph/views"
	"github.com/chazu/scenecore/pkg/selector"
)

// ErrNoMeshes is returned when the selection contains no mesh nodes.
var ErrNoMeshes = errors.New("no selected mesh nodes")

// Mesh is one selected mesh node.
type Mesh struct {
	Name  string
	Path  string
	Node  scenegraph.NodeIndex
	Data  *datatypes.MeshData
	World sdf.M44
	// Extras holds the content of the node's children (materials, bones,
	// transforms) in insertion order.
	Extras []scenegraph.GraphObject
}

// LodGroup is the set of meshes for one level of detail.
type LodGroup struct {
	Index  int
	Meshes []Mesh
}

// Rules assigns meshes to levels explicitly. Lods[i] selects the meshes of
// level i+1; meshes not selected by any entry are level 0 and must be in
// the main selection.
type Rules struct {
	Lods []selector.SelectionList
}

// Gather collects the selected mesh nodes breadth first. The level of a
// mesh comes from a lod suffix on its own name or, failing that, on the
// nearest ancestor's name.
func Gather(g *scenegraph.SceneGraph, list selector.SelectionList) ([]LodGroup, error) {
	return GatherWithRules(g, list, nil)
}

// GatherWithRules is Gather with explicit level rules. With a nil rules the
// naming convention applies.
func GatherWithRules(g *scenegraph.SceneGraph, list selector.SelectionList, rules *Rules) ([]LodGroup, error) {
	selected := selector.GenerateTargetNodes(g, list, selector.IsMesh)
	var byLod [][]string
	if rules != nil {
		for _, l := range rules.Lods {
			byLod = append(byLod, selector.GenerateTargetNodes(g, l, selector.IsMesh))
		}
	}

	var groups []LodGroup
	for n, md := range views.OfType[*datatypes.MeshData](g, views.Downwards(g, g.Root(), views.BreadthFirst)) {
		path := g.NodeName(n).Path()

		lod := -1
		if rules != nil {
			for i, paths := range byLod {
				if slices.Contains(paths, path) {
					lod = i + 1
					break
				}
			}
		}
		if lod < 0 {
			if !slices.Contains(selected, path) {
				continue
			}
			lod = 0
			if rules == nil {
				lod = max(0, lodFromHierarchy(g, n))
			}
		}

		for len(groups) <= lod {
			groups = append(groups, LodGroup{Index: len(groups)})
		}
		groups[lod].Meshes = append(groups[lod].Meshes, Mesh{
			Name:   g.NodeName(n).Leaf(),
			Path:   path,
			Node:   n,
			Data:   md,
			World:  WorldTransform(g, n),
			Extras: childContent(g, n),
		})
	}
	if len(groups) == 0 {
		return nil, ErrNoMeshes
	}
	return groups, nil
}

// lodFromHierarchy returns the level named by node or its nearest named
// ancestor below the root, or -1.
func lodFromHierarchy(g *scenegraph.SceneGraph, node scenegraph.NodeIndex) int {
	for n := range views.Upwards(g, node) {
		if n == g.Root() {
			break
		}
		if lod := LodIndex(g.NodeName(n).Leaf()); lod >= 0 {
			return lod
		}
	}
	return -1
}

// LodIndex reads a level of detail from a name ending in "lodN" or
// "lod<sep>N" (case-insensitive, sep one of "_-:|# "). It returns -1 when
// the name carries none.
func LodIndex(name string) int {
	n := len(name)
	if n == 0 || !isDigit(name[n-1]) {
		return -1
	}
	digit := int(name[n-1] - '0')
	if n >= 4 && strings.EqualFold(name[n-4:n-1], "lod") {
		return digit
	}
	if n >= 5 && strings.EqualFold(name[n-5:n-2], "lod") && strings.IndexByte("_-:|# ", name[n-2]) >= 0 {
		return digit
	}
	return -1
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// WorldTransform concatenates the chain transforms from the root down to
// node.
func WorldTransform(g *scenegraph.SceneGraph, node scenegraph.NodeIndex) sdf.M44 {
	world := datatypes.Identity()
	for n := range views.Upwards(g, node) {
		if local, ok := datatypes.ChainTransform(g, n); ok {
			world = local.Mul(world)
		}
	}
	return world
}

func childContent(g *scenegraph.SceneGraph, node scenegraph.NodeIndex) []scenegraph.GraphObject {
	var out []scenegraph.GraphObject
	for _, c := range views.Pairs(g, views.Children(g, node, views.AcceptAll)) {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}
