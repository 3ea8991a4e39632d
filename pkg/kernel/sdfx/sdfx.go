// Package sdfx implements kernel.Kernel with marching cubes over a signed
// distance field from the github.com/deadsy/sdfx CAD library. Its meshes are
// an independent reference for the geodesic generator: same unit sphere, a
// completely different tessellation.
package sdfx

import (
	"fmt"

	"github.com/chazu/geode/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// minMeshCells is the coarsest marching cubes grid used at resolution 0.
const minMeshCells = 8

// cellsPerDivision adds grid cells per unit of resolution so the reference
// tracks the geodesic mesh's density.
const cellsPerDivision = 4

// weldTolerance merges the duplicated corners marching cubes emits per
// triangle. It is far below the grid spacing.
const weldTolerance = 1e-6

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct{}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{}
}

// Name returns "sdfx".
func (k *SdfxKernel) Name() string {
	return "sdfx"
}

// Cells returns the marching cubes grid size used for a resolution.
func Cells(resolution int) int {
	return minMeshCells + cellsPerDivision*max(resolution, 0)
}

// Sphere tessellates the unit sphere SDF and welds the resulting triangle
// soup into an indexed mesh. Vertices lie near, not on, the sphere; normals
// are the averaged face normals of the triangles meeting at a vertex.
func (k *SdfxKernel) Sphere(resolution int) (*kernel.Mesh, error) {
	s, err := sdf.Sphere3D(1)
	if err != nil {
		return nil, fmt.Errorf("sdfx: Sphere3D: %w", err)
	}

	renderer := render.NewMarchingCubesUniform(Cells(resolution))
	triangles := render.ToTriangles(s, renderer)
	if len(triangles) == 0 {
		return nil, fmt.Errorf("sdfx: marching cubes produced no triangles at %d cells", Cells(resolution))
	}

	numVerts := len(triangles) * 3
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		// Compute face normal.
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	m := kernel.Weld(&kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, weldTolerance)
	m.Resolution = max(resolution, 0)
	return m, nil
}
