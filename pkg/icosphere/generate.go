// Package icosphere generates geodesic unit-sphere meshes by subdividing the
// edges and faces of a six-vertex diamond and projecting every new point onto
// the sphere with spherical interpolation.
//
// Generation is a pure function of the resolution: each call owns its scratch
// state, so concurrent calls are safe and repeated calls return identical
// meshes.
package icosphere

import (
	"github.com/chazu/geode/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// VertexCount returns the number of vertices Generate produces.
func VertexCount(resolution int) int {
	r := max(resolution, 0)
	return 8*verticesPerFace(r) - 12*(r+2) + 6
}

// TriangleCount returns the number of triangles Generate produces.
func TriangleCount(resolution int) int {
	r := max(resolution, 0)
	return 8 * (r + 1) * (r + 1)
}

// verticesPerFace counts the vertices of one face including its boundary.
func verticesPerFace(r int) int {
	n := r + 3
	return (n*n - n) / 2
}

// edge holds the vertex ids along one base edge, endpoints included.
type edge []int

// builder is the scratch state of a single generation pass.
type builder struct {
	divisions int
	positions []v3.Vec
	indices   []uint32
	edges     [len(vertexPairs)]edge
}

// Generate builds a geodesic unit sphere with resolution extra vertices along
// every base edge. Resolution 0 yields the bare diamond; negative values are
// treated as 0. Normals equal positions.
func Generate(resolution int) *kernel.Mesh {
	b := &builder{divisions: max(resolution, 0)}
	b.positions = make([]v3.Vec, 0, VertexCount(b.divisions))
	b.indices = make([]uint32, 0, 3*TriangleCount(b.divisions))

	b.positions = append(b.positions, baseVertices[:]...)
	b.buildEdges()
	for i, f := range faces {
		b.buildFace(f, reversed(i))
	}
	return b.mesh()
}

// add appends a position and returns its vertex id.
func (b *builder) add(p v3.Vec) int {
	b.positions = append(b.positions, p)
	return len(b.positions) - 1
}

// buildEdges subdivides the 12 base edges. Endpoints reuse the base vertex
// ids so faces meeting along an edge share its vertices.
func (b *builder) buildEdges() {
	for i, pair := range vertexPairs {
		start, end := baseVertices[pair[0]], baseVertices[pair[1]]

		e := make(edge, b.divisions+2)
		e[0] = pair[0]
		for d := 0; d < b.divisions; d++ {
			t := float64(d+1) / float64(b.divisions+1)
			e[d+1] = b.add(Slerp(start, end, t))
		}
		e[b.divisions+1] = pair[1]
		b.edges[i] = e
	}
}

// buildFace fills the interior of one face and triangulates it.
func (b *builder) buildFace(f face, reverse bool) {
	vertexMap := b.faceVertexMap(b.edges[f.sideA], b.edges[f.sideB], b.edges[f.bottom])

	for row := 0; row <= b.divisions; row++ {
		top := ((row+1)*(row+1) - row - 1) / 2
		bottom := ((row+2)*(row+2) - row - 2) / 2

		for column := 0; column < 2*row+1; column++ {
			var v0, v1, v2 int
			if column%2 == 0 {
				// apex-up triangle
				v0, v1, v2 = top, bottom+1, bottom
				top++
				bottom++
			} else {
				v0, v1, v2 = top, bottom, top-1
			}

			if reverse {
				v1, v2 = v2, v1
			}
			b.indices = append(b.indices,
				uint32(vertexMap[v0]),
				uint32(vertexMap[v1]),
				uint32(vertexMap[v2]))
		}
	}
}

// faceVertexMap lists every vertex of a face row by row from the apex down.
// Row i holds side A's i-th vertex, i-1 new interior points, then side B's
// i-th vertex; the last row is the bottom edge itself.
func (b *builder) faceVertexMap(sideA, sideB, bottom edge) []int {
	vertexMap := make([]int, 0, verticesPerFace(b.divisions))
	vertexMap = append(vertexMap, sideA[0])

	for i := 1; i < len(sideA)-1; i++ {
		vertexMap = append(vertexMap, sideA[i])

		from, to := b.positions[sideA[i]], b.positions[sideB[i]]
		inner := i - 1
		for j := 0; j < inner; j++ {
			t := float64(j+1) / float64(inner+1)
			vertexMap = append(vertexMap, b.add(Slerp(from, to, t)))
		}

		vertexMap = append(vertexMap, sideB[i])
	}

	return append(vertexMap, bottom...)
}

// mesh packs the scratch buffers into the renderer format.
func (b *builder) mesh() *kernel.Mesh {
	verts := make([]float32, 0, 3*len(b.positions))
	for _, p := range b.positions {
		verts = append(verts, float32(p.X), float32(p.Y), float32(p.Z))
	}
	normals := make([]float32, len(verts))
	copy(normals, verts)

	return &kernel.Mesh{
		Vertices:   verts,
		Normals:    normals,
		Indices:    b.indices,
		Resolution: b.divisions,
	}
}
