package icosphere

import (
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/chazu/geode/pkg/kernel"
)

var testResolutions = []int{0, 1, 2, 3, 4, 5, 7, 10, 16}

func TestCountFormulas(t *testing.T) {
	tests := []struct {
		resolution int
		verts      int
		tris       int
	}{
		{0, 6, 8},
		{1, 18, 32},
		{2, 38, 72},
		{3, 66, 128},
		{4, 102, 200},
	}
	for _, tt := range tests {
		if got := VertexCount(tt.resolution); got != tt.verts {
			t.Errorf("VertexCount(%d) = %d, want %d", tt.resolution, got, tt.verts)
		}
		if got := TriangleCount(tt.resolution); got != tt.tris {
			t.Errorf("TriangleCount(%d) = %d, want %d", tt.resolution, got, tt.tris)
		}
	}
}

func TestGenerateCounts(t *testing.T) {
	for _, r := range testResolutions {
		m := Generate(r)
		if got, want := m.VertexCount(), VertexCount(r); got != want {
			t.Errorf("resolution %d: VertexCount() = %d, want %d", r, got, want)
		}
		if got, want := m.TriangleCount(), TriangleCount(r); got != want {
			t.Errorf("resolution %d: TriangleCount() = %d, want %d", r, got, want)
		}
		if len(m.Normals) != len(m.Vertices) {
			t.Errorf("resolution %d: %d normals for %d vertex floats", r, len(m.Normals), len(m.Vertices))
		}
		if m.Resolution != r {
			t.Errorf("resolution %d: mesh.Resolution = %d", r, m.Resolution)
		}
	}
}

func TestGenerateResolutionZero(t *testing.T) {
	m := Generate(0)

	for i, want := range baseVertices {
		if got := m.Position(i); got != want {
			t.Errorf("vertex %d = %v, want base vertex %v", i, got, want)
		}
	}
	want := []uint32{
		0, 2, 1, 0, 3, 2, 0, 4, 3, 0, 1, 4,
		5, 1, 2, 5, 2, 3, 5, 3, 4, 5, 4, 1,
	}
	if !reflect.DeepEqual(m.Indices, want) {
		t.Errorf("indices = %v, want %v", m.Indices, want)
	}
}

func TestGenerateResolutionOne(t *testing.T) {
	m := Generate(1)
	if m.VertexCount() != 18 {
		t.Errorf("VertexCount() = %d, want 18", m.VertexCount())
	}
	if m.TriangleCount() != 32 {
		t.Errorf("TriangleCount() = %d, want 32", m.TriangleCount())
	}

	// Edge 0 runs from +Y to -X; its only interior vertex is the arc midpoint.
	mid := m.Position(6)
	h := math.Sqrt2 / 2
	if math.Abs(mid.X+h) > 1e-6 || math.Abs(mid.Y-h) > 1e-6 || math.Abs(mid.Z) > 1e-6 {
		t.Errorf("vertex 6 = %v, want (-%g, %g, 0)", mid, h, h)
	}
}

func TestGenerateNegativeResolution(t *testing.T) {
	m := Generate(-3)
	if m.VertexCount() != 6 || m.TriangleCount() != 8 {
		t.Errorf("Generate(-3) = %d verts / %d tris, want 6 / 8", m.VertexCount(), m.TriangleCount())
	}
	if m.Resolution != 0 {
		t.Errorf("Resolution = %d, want 0", m.Resolution)
	}
	if VertexCount(-3) != 6 || TriangleCount(-3) != 8 {
		t.Error("count formulas should clamp negative resolution to 0")
	}
}

func TestGenerateValidates(t *testing.T) {
	for _, r := range testResolutions {
		result := kernel.Validate(Generate(r))
		if !result.OK() {
			t.Errorf("resolution %d: validation errors %v", r, result.Errors)
		}
		if len(result.Warnings) != 0 {
			t.Errorf("resolution %d: validation warnings %v", r, result.Warnings)
		}
	}
}

func TestGenerateUnitLength(t *testing.T) {
	for _, r := range testResolutions {
		m := Generate(r)
		for i := 0; i < m.VertexCount(); i++ {
			if l := m.Position(i).Length(); math.Abs(l-1) >= 1e-5 {
				t.Fatalf("resolution %d: |vertex %d| = %g", r, i, l)
			}
			if m.Normal(i) != m.Position(i) {
				t.Fatalf("resolution %d: normal %d differs from position", r, i)
			}
		}
	}
}

func TestGenerateIndicesInRangeAndAllUsed(t *testing.T) {
	for _, r := range testResolutions {
		m := Generate(r)
		used := make(map[uint32]bool, m.VertexCount())
		for _, idx := range m.Indices {
			if int(idx) >= m.VertexCount() {
				t.Fatalf("resolution %d: index %d out of range", r, idx)
			}
			used[idx] = true
		}
		if len(used) != VertexCount(r) {
			t.Errorf("resolution %d: %d distinct vertex ids, want %d", r, len(used), VertexCount(r))
		}
	}
}

func TestGenerateWatertight(t *testing.T) {
	type undirected struct{ lo, hi uint32 }

	for _, r := range testResolutions {
		m := Generate(r)
		counts := make(map[undirected]int)
		for i := 0; i < m.TriangleCount(); i++ {
			tri := m.Triangle(i)
			for k := 0; k < 3; k++ {
				a, b := tri[k], tri[(k+1)%3]
				counts[undirected{min(a, b), max(a, b)}]++
			}
		}
		for e, n := range counts {
			if n != 2 {
				t.Fatalf("resolution %d: edge %v used by %d triangles, want 2", r, e, n)
			}
		}

		// Closed genus-0 surface: V - E + F = 2.
		if chi := m.VertexCount() - len(counts) + m.TriangleCount(); chi != 2 {
			t.Errorf("resolution %d: Euler characteristic = %d, want 2", r, chi)
		}
	}
}

func TestGenerateWindingOutward(t *testing.T) {
	for _, r := range testResolutions {
		m := Generate(r)
		for i := 0; i < m.TriangleCount(); i++ {
			if v := kernel.SignedVolume(m, i); v <= 0 {
				t.Fatalf("resolution %d: triangle %d has signed volume %g", r, i, v)
			}
		}
	}
}

func TestGenerateNoDuplicatePositions(t *testing.T) {
	for _, r := range testResolutions {
		m := Generate(r)
		w := kernel.Weld(m, kernel.SurfaceTolerance)
		if w.VertexCount() != m.VertexCount() {
			t.Errorf("resolution %d: welding merged %d vertices", r, m.VertexCount()-w.VertexCount())
		}
	}
}

func TestGenerateIdempotent(t *testing.T) {
	for _, r := range []int{0, 3, 9} {
		a, b := Generate(r), Generate(r)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("resolution %d: repeated generation differs", r)
		}
	}
}

func TestGenerateConcurrent(t *testing.T) {
	want := Generate(6)

	var wg sync.WaitGroup
	results := make([]*kernel.Mesh, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Generate(6)
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if !reflect.DeepEqual(got, want) {
			t.Errorf("goroutine %d produced a different mesh", i)
		}
	}
}

func TestEdgesShareBaseVertices(t *testing.T) {
	b := &builder{divisions: 3}
	b.positions = append(b.positions, baseVertices[:]...)
	b.buildEdges()

	for i, e := range b.edges {
		if len(e) != 5 {
			t.Errorf("edge %d has %d vertices, want 5", i, len(e))
		}
		if e[0] != vertexPairs[i][0] || e[len(e)-1] != vertexPairs[i][1] {
			t.Errorf("edge %d endpoints = %d..%d, want %v", i, e[0], e[len(e)-1], vertexPairs[i])
		}
	}
	if got, want := len(b.positions), 6+12*3; got != want {
		t.Errorf("after edges: %d positions, want %d", got, want)
	}
}

func TestFaceVertexMapLayout(t *testing.T) {
	b := &builder{divisions: 2}
	b.positions = append(b.positions, baseVertices[:]...)
	b.buildEdges()

	f := faces[0]
	sideA, sideB, bottom := b.edges[f.sideA], b.edges[f.sideB], b.edges[f.bottom]
	vm := b.faceVertexMap(sideA, sideB, bottom)

	if len(vm) != verticesPerFace(2) {
		t.Fatalf("vertex map has %d entries, want %d", len(vm), verticesPerFace(2))
	}
	// Rows: [apex] [a1 b1] [a2 inner b2] [bottom...]
	if vm[0] != sideA[0] || vm[1] != sideA[1] || vm[2] != sideB[1] {
		t.Errorf("first rows = %v, want apex then side vertices", vm[:3])
	}
	if vm[3] != sideA[2] || vm[5] != sideB[2] {
		t.Errorf("row 2 = %v, want side A and side B at the ends", vm[3:6])
	}
	if !reflect.DeepEqual(vm[6:], []int(bottom)) {
		t.Errorf("last row = %v, want bottom edge %v", vm[6:], bottom)
	}
}

func TestKernelAdapter(t *testing.T) {
	var k kernel.Kernel = Kernel{}
	if k.Name() != "icosphere" {
		t.Errorf("Name() = %q, want icosphere", k.Name())
	}
	m, err := k.Sphere(2)
	if err != nil {
		t.Fatalf("Sphere() error = %v", err)
	}
	if !reflect.DeepEqual(m, Generate(2)) {
		t.Error("Sphere() differs from Generate()")
	}
}
