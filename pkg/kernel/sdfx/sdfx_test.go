package sdfx

import (
	"errors"
	"math"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/scenecore/pkg/kernel"
)

// Low resolution keeps the marching cubes tests fast.
const testCells = 32

func mustMesh(t *testing.T, k *Kernel, s kernel.Solid) *kernel.Mesh {
	t.Helper()
	m, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if m.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if len(m.Vertices) != len(m.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(m.Vertices), len(m.Normals))
	}
	if len(m.Indices) != m.TriangleCount()*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(m.Indices), m.TriangleCount()*3)
	}
	return m
}

func assertBounds(t *testing.T, s kernel.Solid, wantMin, wantMax [3]float64, tol float64) {
	t.Helper()
	min, max := s.BoundingBox()
	for i := range 3 {
		if math.Abs(min[i]-wantMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected ~%f", i, min[i], wantMin[i])
		}
		if math.Abs(max[i]-wantMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected ~%f", i, max[i], wantMax[i])
		}
	}
}

func TestNewOptions(t *testing.T) {
	if got := New().MeshCells(); got != DefaultMeshCells {
		t.Errorf("MeshCells() = %d, want %d", got, DefaultMeshCells)
	}
	if got := New(WithMeshCells(16)).MeshCells(); got != 16 {
		t.Errorf("MeshCells() = %d, want 16", got)
	}
	if got := New(WithMeshCells(0)).MeshCells(); got != DefaultMeshCells {
		t.Errorf("MeshCells() = %d, want %d", got, DefaultMeshCells)
	}
}

func TestPrimitives(t *testing.T) {
	k := New(WithMeshCells(testCells))

	box, err := k.Box(100, 50, 25)
	if err != nil {
		t.Fatalf("Box: %v", err)
	}
	assertBounds(t, box, [3]float64{-50, -25, -12.5}, [3]float64{50, 25, 12.5}, 0.01)
	mustMesh(t, k, box)

	cyl, err := k.Cylinder(50, 10)
	if err != nil {
		t.Fatalf("Cylinder: %v", err)
	}
	assertBounds(t, cyl, [3]float64{-10, -10, -25}, [3]float64{10, 10, 25}, 0.01)
	mustMesh(t, k, cyl)

	sph, err := k.Sphere(5)
	if err != nil {
		t.Fatalf("Sphere: %v", err)
	}
	assertBounds(t, sph, [3]float64{-5, -5, -5}, [3]float64{5, 5, 5}, 0.01)
	mustMesh(t, k, sph)
}

func TestPrimitiveErrors(t *testing.T) {
	k := New()
	tests := []struct {
		name string
		make func() (kernel.Solid, error)
	}{
		{"zero box", func() (kernel.Solid, error) { return k.Box(0, 1, 1) }},
		{"negative box", func() (kernel.Solid, error) { return k.Box(1, -1, 1) }},
		{"flat cylinder", func() (kernel.Solid, error) { return k.Cylinder(0, 1) }},
		{"thin cylinder", func() (kernel.Solid, error) { return k.Cylinder(1, 0) }},
		{"empty sphere", func() (kernel.Solid, error) { return k.Sphere(0) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if s, err := tt.make(); err == nil {
				t.Errorf("expected error, got solid %v", s)
			}
		})
	}
}

func TestToMeshTooThin(t *testing.T) {
	k := New(WithMeshCells(testCells))
	// 8mm radius over a 500mm axis falls between the sample points.
	s, err := k.Cylinder(500, 8)
	if err != nil {
		t.Fatalf("Cylinder failed: %v", err)
	}
	_, err = k.ToMesh(s)
	if !errors.Is(err, kernel.ErrEmptyMesh) {
		t.Errorf("err = %v, want ErrEmptyMesh", err)
	}
}

func TestDifference(t *testing.T) {
	k := New(WithMeshCells(testCells))
	box, _ := k.Box(100, 100, 100)
	cyl, _ := k.Cylinder(120, 20)

	boxMesh := mustMesh(t, k, box)
	diffMesh := mustMesh(t, k, k.Difference(box, cyl))
	// A box with a hole should have more triangles than a plain box.
	if diffMesh.TriangleCount() <= boxMesh.TriangleCount() {
		t.Fatalf("difference (%d triangles) should have more triangles than box (%d triangles)",
			diffMesh.TriangleCount(), boxMesh.TriangleCount())
	}
}

func TestUnionAndIntersection(t *testing.T) {
	k := New(WithMeshCells(testCells))
	a, _ := k.Box(50, 50, 50)
	b, _ := k.Box(50, 50, 50)
	b = k.Translate(b, 30, 0, 0)

	u := k.Union(a, b)
	assertBounds(t, u, [3]float64{-25, -25, -25}, [3]float64{55, 25, 25}, 0.5)
	mustMesh(t, k, u)

	mustMesh(t, k, k.Intersection(a, b))
}

func TestTranslate(t *testing.T) {
	k := New()
	box, _ := k.Box(10, 10, 10)
	moved := k.Translate(box, 100, 200, 300)
	assertBounds(t, moved, [3]float64{95, 195, 295}, [3]float64{105, 205, 305}, 0.5)
}

func TestRotate(t *testing.T) {
	k := New()
	box, _ := k.Box(100, 10, 10)

	// A long box along X rotated 90 degrees around Z should extend along Y instead.
	rotated := k.Rotate(box, 0, 0, 90)
	assertBounds(t, rotated, [3]float64{-5, -50, -5}, [3]float64{5, 50, 5}, 0.5)
}

func TestTransformMatchesTranslate(t *testing.T) {
	k := New()
	box, _ := k.Box(10, 10, 10)
	viaMatrix := k.Transform(box, sdf.Translate3d(v3.Vec{X: 1, Y: 2, Z: 3}))
	viaTranslate := k.Translate(box, 1, 2, 3)

	minA, maxA := viaMatrix.BoundingBox()
	minB, maxB := viaTranslate.BoundingBox()
	if minA != minB || maxA != maxB {
		t.Errorf("Transform bounds %v..%v != Translate bounds %v..%v", minA, maxA, minB, maxB)
	}
}

func TestRotationMatrixIdentity(t *testing.T) {
	if got, want := RotationMatrix(0, 0, 0), sdf.RotateZ(0).Mul(sdf.RotateY(0)).Mul(sdf.RotateX(0)); got != want {
		t.Errorf("RotationMatrix(0,0,0) = %v, want %v", got, want)
	}
}
