// Package datatypes defines the payloads that importers attach to scene
// graph nodes and that processing passes consume.
package datatypes

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/scenecore/pkg/kernel"
	"github.com/chazu/scenecore/pkg/kernel/sdfx"
	"github.com/chazu/scenecore/pkg/scenegraph"
	"github.com/chazu/scenecore/pkg/scenegraph/views"
)

// Payload type names, as returned by TypeName.
const (
	TypePrimitive = "primitive"
	TypeTransform = "transform"
	TypeMesh      = "mesh"
	TypeMaterial  = "material"
	TypeBone      = "bone"
)

// Vec3 is a 3D vector.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// V converts to the sdfx vector type.
func (v Vec3) V() v3.Vec { return v3.Vec{X: v.X, Y: v.Y, Z: v.Z} }

func (v Vec3) IsZero() bool { return v == Vec3{} }

func (v Vec3) String() string { return fmt.Sprintf("(%g %g %g)", v.X, v.Y, v.Z) }

func issue(sev scenegraph.ValidationSeverity, format string, args ...any) scenegraph.ContentIssue {
	return scenegraph.ContentIssue{Message: fmt.Sprintf(format, args...), Severity: sev}
}

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// PrimitiveKind distinguishes between primitive shapes.
type PrimitiveKind int

const (
	PrimBox PrimitiveKind = iota
	PrimCylinder
	PrimSphere
)

func (k PrimitiveKind) String() string {
	switch k {
	case PrimBox:
		return "box"
	case PrimCylinder:
		return "cylinder"
	case PrimSphere:
		return "sphere"
	default:
		return "unknown"
	}
}

// ParsePrimitiveKind is the inverse of PrimitiveKind.String.
func ParsePrimitiveKind(s string) (PrimitiveKind, error) {
	for _, k := range []PrimitiveKind{PrimBox, PrimCylinder, PrimSphere} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown primitive kind %q", s)
}

// PrimitiveData is an analytic solid waiting to be tessellated. Size is used
// by boxes, Height and Radius by cylinders, Radius by spheres.
type PrimitiveData struct {
	Kind   PrimitiveKind `json:"kind"`
	Size   Vec3          `json:"size,omitempty"`
	Height float64       `json:"height,omitempty"`
	Radius float64       `json:"radius,omitempty"`
}

func (*PrimitiveData) TypeName() string { return TypePrimitive }

func (p *PrimitiveData) CheckContent() []scenegraph.ContentIssue {
	var issues []scenegraph.ContentIssue
	switch p.Kind {
	case PrimBox:
		if p.Size.X <= 0 || p.Size.Y <= 0 || p.Size.Z <= 0 {
			issues = append(issues, issue(scenegraph.SeverityError, "box size %v must be positive", p.Size))
		}
	case PrimCylinder:
		if p.Height <= 0 || p.Radius <= 0 {
			issues = append(issues, issue(scenegraph.SeverityError, "cylinder height %g and radius %g must be positive", p.Height, p.Radius))
		}
	case PrimSphere:
		if p.Radius <= 0 {
			issues = append(issues, issue(scenegraph.SeverityError, "sphere radius %g must be positive", p.Radius))
		}
	default:
		issues = append(issues, issue(scenegraph.SeverityError, "unknown primitive kind %d", int(p.Kind)))
	}
	return issues
}

// Solid builds the primitive with k.
func (p *PrimitiveData) Solid(k kernel.Kernel) (kernel.Solid, error) {
	switch p.Kind {
	case PrimBox:
		return k.Box(p.Size.X, p.Size.Y, p.Size.Z)
	case PrimCylinder:
		return k.Cylinder(p.Height, p.Radius)
	case PrimSphere:
		return k.Sphere(p.Radius)
	default:
		return nil, fmt.Errorf("unknown primitive kind %d", int(p.Kind))
	}
}

// ---------------------------------------------------------------------------
// Transform
// ---------------------------------------------------------------------------

// Transform is implemented by payloads that carry a local transform.
type Transform interface {
	scenegraph.GraphObject
	Matrix() sdf.M44
}

// Identity is the identity matrix.
func Identity() sdf.M44 { return sdf.Translate3d(v3.Vec{}) }

// LocalTransform returns the transform that node contributes: its own
// content if that is a transform, otherwise the first end-point child that
// carries one.
func LocalTransform(g *scenegraph.SceneGraph, node scenegraph.NodeIndex) (sdf.M44, bool) {
	if t, ok := scenegraph.ContentAs[Transform](g, node); ok {
		return t.Matrix(), true
	}
	for c := range views.Children(g, node, views.AcceptEndPointsOnly) {
		if t, ok := scenegraph.ContentAs[Transform](g, c); ok {
			return t.Matrix(), true
		}
	}
	return sdf.M44{}, false
}

// ChainTransform returns the transform node adds on the path from the root.
// It is LocalTransform, except for an end-point child whose matrix its
// parent already contributes; that child adds nothing, so descendants added
// under it before MakeEndPoint are not transformed twice.
func ChainTransform(g *scenegraph.SceneGraph, node scenegraph.NodeIndex) (sdf.M44, bool) {
	if lentToParent(g, node) {
		return sdf.M44{}, false
	}
	return LocalTransform(g, node)
}

func lentToParent(g *scenegraph.SceneGraph, node scenegraph.NodeIndex) bool {
	if !g.IsNodeEndPoint(node) {
		return false
	}
	if _, ok := scenegraph.ContentAs[Transform](g, node); !ok {
		return false
	}
	parent := g.NodeParent(node)
	if !parent.IsValid() {
		return false
	}
	if _, ok := scenegraph.ContentAs[Transform](g, parent); ok {
		return false
	}
	for c := range views.Children(g, parent, views.AcceptEndPointsOnly) {
		if _, ok := scenegraph.ContentAs[Transform](g, c); ok {
			return c == node
		}
	}
	return false
}

// TransformData is a local transform: rotation by Euler angles in degrees
// (X, then Y, then Z) followed by translation.
type TransformData struct {
	Translate Vec3 `json:"translate,omitempty"`
	Rotate    Vec3 `json:"rotate,omitempty"`
}

func (*TransformData) TypeName() string { return TypeTransform }

func (t *TransformData) Matrix() sdf.M44 {
	return sdf.Translate3d(t.Translate.V()).Mul(sdfx.RotationMatrix(t.Rotate.X, t.Rotate.Y, t.Rotate.Z))
}

// ---------------------------------------------------------------------------
// Mesh
// ---------------------------------------------------------------------------

// MeshData is triangle geometry. Source names the primitive kind it was
// tessellated from, if any.
type MeshData struct {
	kernel.Mesh
	Source string `json:"source,omitempty"`
}

func (*MeshData) TypeName() string { return TypeMesh }

func (m *MeshData) CheckContent() []scenegraph.ContentIssue {
	if m.IsEmpty() {
		return []scenegraph.ContentIssue{issue(scenegraph.SeverityWarning, "mesh has no vertices")}
	}
	var issues []scenegraph.ContentIssue
	if len(m.Vertices)%3 != 0 {
		issues = append(issues, issue(scenegraph.SeverityError, "vertex array length %d is not a multiple of 3", len(m.Vertices)))
	}
	if len(m.Normals) != 0 && len(m.Normals) != len(m.Vertices) {
		issues = append(issues, issue(scenegraph.SeverityError, "%d normal components for %d vertex components", len(m.Normals), len(m.Vertices)))
	}
	if len(m.Indices)%3 != 0 {
		issues = append(issues, issue(scenegraph.SeverityError, "index array length %d is not a multiple of 3", len(m.Indices)))
	}
	vc := uint32(m.VertexCount())
	for i, idx := range m.Indices {
		if idx >= vc {
			issues = append(issues, issue(scenegraph.SeverityError, "index %d at %d out of range (%d vertices)", idx, i, vc))
			break
		}
	}
	return issues
}

// ---------------------------------------------------------------------------
// Material
// ---------------------------------------------------------------------------

// MaterialData names a material and its base color ("#rrggbb").
type MaterialData struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

func (*MaterialData) TypeName() string { return TypeMaterial }

// RGB parses Color. An empty color is white.
func (m *MaterialData) RGB() (r, g, b uint8, err error) {
	if m.Color == "" {
		return 255, 255, 255, nil
	}
	hex, ok := strings.CutPrefix(m.Color, "#")
	if !ok || len(hex) != 6 {
		return 0, 0, 0, fmt.Errorf("color %q is not of the form #rrggbb", m.Color)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("color %q: %w", m.Color, err)
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}

func (m *MaterialData) CheckContent() []scenegraph.ContentIssue {
	var issues []scenegraph.ContentIssue
	if m.Name == "" {
		issues = append(issues, issue(scenegraph.SeverityWarning, "material has no name"))
	}
	if _, _, _, err := m.RGB(); err != nil {
		issues = append(issues, issue(scenegraph.SeverityError, "%v", err))
	}
	return issues
}

// ---------------------------------------------------------------------------
// Bone
// ---------------------------------------------------------------------------

// BoneData is a skeleton joint. Offset is its bind position relative to the
// parent bone.
type BoneData struct {
	Name   string `json:"name"`
	Offset Vec3   `json:"offset,omitempty"`
}

func (*BoneData) TypeName() string { return TypeBone }
