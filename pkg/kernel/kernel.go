// Package kernel defines the geometry kernel the tessellation pass uses to
// turn primitive payloads into triangle meshes. Backends live in the sdfx
// and manifold subpackages.
package kernel

import (
	"errors"

	"github.com/deadsy/sdfx/sdf"
)

// ErrEmptyMesh is returned by ToMesh when a valid solid yields no triangles,
// typically because it is thinner than the kernel's resolution.
var ErrEmptyMesh = errors.New("empty mesh")

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel builds solids and converts them to meshes. Primitives are centered
// on the origin. Constructors return an error for non-positive dimensions.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) (Solid, error)
	Cylinder(height, radius float64) (Solid, error)
	Sphere(radius float64) (Solid, error)

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees
	Transform(s Solid, m sdf.M44) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
