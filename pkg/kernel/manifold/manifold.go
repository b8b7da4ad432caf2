//go:build manifold

// Package manifold implements kernel.Kernel on the Manifold C library
// (https://github.com/elalish/manifold). Primitives are polygonal, so the
// tessellated meshes are exact rather than sampled.
//
// Build with -tags=manifold; manifoldc must be installed under /usr/local.
package manifold

/*
#cgo CFLAGS: -I/usr/local/include
#cgo LDFLAGS: -L/usr/local/lib -lmanifoldc

#include <stdlib.h>
#include <manifold/manifoldc.h>
*/
import "C"

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/scenecore/pkg/kernel"
	"github.com/chazu/scenecore/pkg/kernel/sdfx"
)

var _ kernel.Kernel = (*Kernel)(nil)

type solid struct {
	ptr *C.ManifoldManifold
}

func (s *solid) BoundingBox() (min, max [3]float64) {
	bbox := C.manifold_bounding_box(C.manifold_alloc_box(), s.ptr)
	defer C.manifold_delete_box(bbox)

	min = [3]float64{
		float64(C.manifold_box_min_x(bbox)),
		float64(C.manifold_box_min_y(bbox)),
		float64(C.manifold_box_min_z(bbox)),
	}
	max = [3]float64{
		float64(C.manifold_box_max_x(bbox)),
		float64(C.manifold_box_max_y(bbox)),
		float64(C.manifold_box_max_z(bbox)),
	}
	return min, max
}

// wrap takes ownership of ptr; the C object is freed with the Go value.
func wrap(ptr *C.ManifoldManifold) *solid {
	s := &solid{ptr: ptr}
	runtime.SetFinalizer(s, func(s *solid) {
		if s.ptr != nil {
			C.manifold_delete_manifold(s.ptr)
			s.ptr = nil
		}
	})
	return s
}

func unwrap(s kernel.Solid) *C.ManifoldManifold {
	return s.(*solid).ptr
}

// Kernel implements kernel.Kernel with Manifold.
type Kernel struct {
	segments int
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithSegments sets the number of segments used for circular cross
// sections. Values below 3 are ignored.
func WithSegments(n int) Option {
	return func(k *Kernel) {
		if n >= 3 {
			k.segments = n
		}
	}
}

// DefaultSegments is the circular resolution when none is configured.
const DefaultSegments = 48

// New returns a Kernel.
func New(opts ...Option) (*Kernel, error) {
	k := &Kernel{segments: DefaultSegments}
	for _, opt := range opts {
		opt(k)
	}
	return k, nil
}

func (k *Kernel) Box(x, y, z float64) (kernel.Solid, error) {
	if x <= 0 || y <= 0 || z <= 0 {
		return nil, fmt.Errorf("box size (%g, %g, %g) must be positive", x, y, z)
	}
	return wrap(C.manifold_cube(C.manifold_alloc_manifold(),
		C.double(x), C.double(y), C.double(z), C.int(1))), nil
}

// Cylinder creates a Z-aligned cylinder centered on the origin.
func (k *Kernel) Cylinder(height, radius float64) (kernel.Solid, error) {
	if height <= 0 || radius <= 0 {
		return nil, fmt.Errorf("cylinder height %g and radius %g must be positive", height, radius)
	}
	return wrap(C.manifold_cylinder(C.manifold_alloc_manifold(),
		C.double(height), C.double(radius), C.double(radius),
		C.int(k.segments), C.int(1))), nil
}

func (k *Kernel) Sphere(radius float64) (kernel.Solid, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("sphere radius %g must be positive", radius)
	}
	return wrap(C.manifold_sphere(C.manifold_alloc_manifold(),
		C.double(radius), C.int(k.segments))), nil
}

func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(C.manifold_union(C.manifold_alloc_manifold(), unwrap(a), unwrap(b)))
}

// Difference returns a - b.
func (k *Kernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(C.manifold_difference(C.manifold_alloc_manifold(), unwrap(a), unwrap(b)))
}

func (k *Kernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(C.manifold_intersection(C.manifold_alloc_manifold(), unwrap(a), unwrap(b)))
}

func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return wrap(C.manifold_translate(C.manifold_alloc_manifold(), unwrap(s),
		C.double(x), C.double(y), C.double(z)))
}

// Rotate uses the same X, Y, Z order as the sdfx kernel so both backends
// agree on TransformData.
func (k *Kernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return k.Transform(s, sdfx.RotationMatrix(x, y, z))
}

// Transform applies the affine part of m. Manifold takes the 3x4 matrix
// column by column; the columns are recovered by mapping the basis vectors.
func (k *Kernel) Transform(s kernel.Solid, m sdf.M44) kernel.Solid {
	o := m.MulPosition(v3.Vec{})
	cx := m.MulPosition(v3.Vec{X: 1}).Sub(o)
	cy := m.MulPosition(v3.Vec{Y: 1}).Sub(o)
	cz := m.MulPosition(v3.Vec{Z: 1}).Sub(o)
	return wrap(C.manifold_transform(C.manifold_alloc_manifold(), unwrap(s),
		C.double(cx.X), C.double(cx.Y), C.double(cx.Z),
		C.double(cy.X), C.double(cy.Y), C.double(cy.Z),
		C.double(cz.X), C.double(cz.Y), C.double(cz.Z),
		C.double(o.X), C.double(o.Y), C.double(o.Z)))
}

// ToMesh reads the solid's MeshGL. Positions are the first three vertex
// properties; normals are the next three when present and are otherwise
// averaged from the faces.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	meshGL := C.manifold_get_meshgl(C.manifold_alloc_meshgl(), unwrap(s))
	defer C.manifold_delete_meshgl(meshGL)

	numVert := int(C.manifold_meshgl_num_vert(meshGL))
	numTri := int(C.manifold_meshgl_num_tri(meshGL))
	if numVert == 0 || numTri == 0 {
		return nil, fmt.Errorf("%w: manifold produced no triangles", kernel.ErrEmptyMesh)
	}
	numProp := int(C.manifold_meshgl_num_prop(meshGL))
	if numProp < 3 {
		return nil, fmt.Errorf("manifold mesh has %d vertex properties, need 3", numProp)
	}

	props := make([]float32, numVert*numProp)
	C.manifold_meshgl_vert_properties((*C.float)(unsafe.Pointer(&props[0])), meshGL)
	indices := make([]uint32, numTri*3)
	C.manifold_meshgl_tri_verts((*C.uint32_t)(unsafe.Pointer(&indices[0])), meshGL)

	m := &kernel.Mesh{
		Vertices: make([]float32, 0, numVert*3),
		Indices:  indices,
	}
	hasNormals := numProp >= 6
	if hasNormals {
		m.Normals = make([]float32, 0, numVert*3)
	}
	for v := range numVert {
		p := props[v*numProp:]
		m.Vertices = append(m.Vertices, p[0], p[1], p[2])
		if hasNormals {
			m.Normals = append(m.Normals, p[3], p[4], p[5])
		}
	}
	if !hasNormals {
		m.SmoothNormals()
	}
	return m, nil
}
