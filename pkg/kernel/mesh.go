package kernel

import "math"

// Mesh is a flat triangle mesh: 3 floats per vertex in Vertices and Normals,
// 3 indices per triangle in Indices.
type Mesh struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Bounds returns the axis-aligned bounds of the vertices. An empty mesh has
// zero bounds.
func (m *Mesh) Bounds() (min, max [3]float32) {
	if m.IsEmpty() {
		return min, max
	}
	for i := range 3 {
		min[i] = math.MaxFloat32
		max[i] = -math.MaxFloat32
	}
	for v := 0; v+2 < len(m.Vertices); v += 3 {
		for i := range 3 {
			c := m.Vertices[v+i]
			if c < min[i] {
				min[i] = c
			}
			if c > max[i] {
				max[i] = c
			}
		}
	}
	return min, max
}

// SmoothNormals replaces Normals with per-vertex normals averaged from the
// faces incident on each vertex. Vertices on no triangle get a zero normal.
func (m *Mesh) SmoothNormals() {
	normals := make([]float32, len(m.Vertices))
	n := uint32(m.VertexCount())
	for t := 0; t+2 < len(m.Indices); t += 3 {
		i0, i1, i2 := m.Indices[t], m.Indices[t+1], m.Indices[t+2]
		if i0 >= n || i1 >= n || i2 >= n {
			continue
		}
		a, b, c := m.vertex(i0), m.vertex(i1), m.vertex(i2)
		e1 := [3]float64{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
		e2 := [3]float64{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
		face := [3]float32{
			float32(e1[1]*e2[2] - e1[2]*e2[1]),
			float32(e1[2]*e2[0] - e1[0]*e2[2]),
			float32(e1[0]*e2[1] - e1[1]*e2[0]),
		}
		for _, idx := range [3]uint32{i0, i1, i2} {
			for k := range 3 {
				normals[idx*3+uint32(k)] += face[k]
			}
		}
	}
	for v := 0; v+2 < len(normals); v += 3 {
		x, y, z := float64(normals[v]), float64(normals[v+1]), float64(normals[v+2])
		if l := math.Sqrt(x*x + y*y + z*z); l > 1e-12 {
			normals[v] = float32(x / l)
			normals[v+1] = float32(y / l)
			normals[v+2] = float32(z / l)
		}
	}
	m.Normals = normals
}

func (m *Mesh) vertex(i uint32) [3]float64 {
	return [3]float64{float64(m.Vertices[i*3]), float64(m.Vertices[i*3+1]), float64(m.Vertices[i*3+2])}
}
