package kernel

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices   []float32 `json:"vertices"`   // [x0,y0,z0, x1,y1,z1, ...]
	Normals    []float32 `json:"normals"`    // [nx0,ny0,nz0, ...]
	Indices    []uint32  `json:"indices"`    // [i0,i1,i2, ...] triangles, CCW from outside
	Name       string    `json:"name"`       // which scene entity this came from
	Resolution int       `json:"resolution"` // resolution the mesh was generated at
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

// Position returns vertex i as a vector.
func (m *Mesh) Position(i int) v3.Vec {
	return vecAt(m.Vertices, i)
}

// Normal returns the normal of vertex i.
func (m *Mesh) Normal(i int) v3.Vec {
	return vecAt(m.Normals, i)
}

// Triangle returns the three vertex indices of triangle i.
func (m *Mesh) Triangle(i int) [3]uint32 {
	return [3]uint32{m.Indices[3*i], m.Indices[3*i+1], m.Indices[3*i+2]}
}

// Triangles resolves the index buffer into positioned triangles.
func (m *Mesh) Triangles() []*sdf.Triangle3 {
	out := make([]*sdf.Triangle3, 0, m.TriangleCount())
	for i := 0; i < m.TriangleCount(); i++ {
		tri := m.Triangle(i)
		out = append(out, &sdf.Triangle3{
			m.Position(int(tri[0])),
			m.Position(int(tri[1])),
			m.Position(int(tri[2])),
		})
	}
	return out
}

// BoundingBox returns the axis-aligned bounding box of the vertices.
// An empty mesh yields the zero box.
func (m *Mesh) BoundingBox() sdf.Box3 {
	if m.IsEmpty() {
		return sdf.Box3{}
	}
	bb := sdf.Box3{Min: m.Position(0), Max: m.Position(0)}
	for i := 1; i < m.VertexCount(); i++ {
		p := m.Position(i)
		bb.Min = v3.Vec{X: min(bb.Min.X, p.X), Y: min(bb.Min.Y, p.Y), Z: min(bb.Min.Z, p.Z)}
		bb.Max = v3.Vec{X: max(bb.Max.X, p.X), Y: max(bb.Max.Y, p.Y), Z: max(bb.Max.Z, p.Z)}
	}
	return bb
}

func vecAt(buf []float32, i int) v3.Vec {
	return v3.Vec{
		X: float64(buf[3*i]),
		Y: float64(buf[3*i+1]),
		Z: float64(buf[3*i+2]),
	}
}
