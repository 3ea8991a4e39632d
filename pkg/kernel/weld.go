package kernel

import (
	"math"

	"github.com/chewxy/math32"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// weldKey buckets a position onto a grid of the weld tolerance.
type weldKey [3]int64

func keyOf(p v3.Vec, tolerance float64) weldKey {
	return weldKey{
		int64(math.Floor(p.X / tolerance)),
		int64(math.Floor(p.Y / tolerance)),
		int64(math.Floor(p.Z / tolerance)),
	}
}

// weldGrid finds earlier points within tolerance of a position. A match can
// sit in any of the 27 cells around the position's own cell.
type weldGrid struct {
	tolerance float64
	cells     map[weldKey][]uint32
	points    []v3.Vec
}

func newWeldGrid(tolerance float64, size int) *weldGrid {
	return &weldGrid{
		tolerance: tolerance,
		cells:     make(map[weldKey][]uint32, size),
		points:    make([]v3.Vec, 0, size),
	}
}

// find returns the first inserted point within tolerance of p.
func (g *weldGrid) find(p v3.Vec) (uint32, bool) {
	k := keyOf(p, g.tolerance)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for _, id := range g.cells[weldKey{k[0] + dx, k[1] + dy, k[2] + dz}] {
					if g.points[id].Sub(p).Length() <= g.tolerance {
						return id, true
					}
				}
			}
		}
	}
	return 0, false
}

// insert adds p and returns its id.
func (g *weldGrid) insert(p v3.Vec) uint32 {
	id := uint32(len(g.points))
	k := keyOf(p, g.tolerance)
	g.points = append(g.points, p)
	g.cells[k] = append(g.cells[k], id)
	return id
}

// Weld merges vertices lying within tolerance of an earlier kept vertex and
// rewrites the index buffer to match. Normals of merged vertices are
// averaged and renormalized; triangles that collapse to a line are dropped.
// A mesh without coincident vertices comes back with identical buffers.
func Weld(m *Mesh, tolerance float64) *Mesh {
	out := &Mesh{
		Name:       m.Name,
		Resolution: m.Resolution,
		Vertices:   make([]float32, 0, len(m.Vertices)),
		Normals:    make([]float32, 0, len(m.Normals)),
		Indices:    make([]uint32, 0, len(m.Indices)),
	}

	remap := make([]uint32, m.VertexCount())
	merged := make([]int, 0, m.VertexCount())
	grid := newWeldGrid(tolerance, m.VertexCount())

	for i := 0; i < m.VertexCount(); i++ {
		p := m.Position(i)
		if id, ok := grid.find(p); ok {
			remap[i] = id
			merged[id]++
			out.Normals[3*id] += m.Normals[3*i]
			out.Normals[3*id+1] += m.Normals[3*i+1]
			out.Normals[3*id+2] += m.Normals[3*i+2]
			continue
		}
		id := grid.insert(p)
		remap[i] = id
		merged = append(merged, 1)
		out.Vertices = append(out.Vertices, m.Vertices[3*i:3*i+3]...)
		out.Normals = append(out.Normals, m.Normals[3*i:3*i+3]...)
	}

	for id, n := range merged {
		if n == 1 {
			continue
		}
		nx, ny, nz := out.Normals[3*id], out.Normals[3*id+1], out.Normals[3*id+2]
		l := math32.Sqrt(nx*nx + ny*ny + nz*nz)
		if l == 0 {
			continue
		}
		out.Normals[3*id], out.Normals[3*id+1], out.Normals[3*id+2] = nx/l, ny/l, nz/l
	}

	for i := 0; i < m.TriangleCount(); i++ {
		t := m.Triangle(i)
		a, b, c := remap[t[0]], remap[t[1]], remap[t[2]]
		if a == b || b == c || c == a {
			continue
		}
		out.Indices = append(out.Indices, a, b, c)
	}
	return out
}
