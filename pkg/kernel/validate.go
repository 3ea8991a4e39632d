package kernel

import (
	"fmt"
	"math"

	"github.com/chewxy/math32"
	"github.com/deadsy/sdfx/sdf"
	"github.com/samber/lo"
)

// SurfaceTolerance is the maximum distance a vertex may sit from the unit
// sphere, and the maximum deviation of a normal from unit length.
const SurfaceTolerance = 1e-5

// Severity indicates whether a validation finding means the mesh is broken
// or merely unusual.
type Severity int

const (
	SeverityError   Severity = iota // mesh violates the renderer contract
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Check    string   // which check produced the finding
	Message  string   // human-readable description
	Severity Severity // error or warning
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Check, e.Message)
}

// ValidationResult bundles errors (blocking) and warnings (advisory).
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether the mesh produced no errors.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) add(findings []ValidationError) {
	for _, f := range findings {
		if f.Severity == SeverityWarning {
			r.Warnings = append(r.Warnings, f)
		} else {
			r.Errors = append(r.Errors, f)
		}
	}
}

// Validate runs every mesh check and returns the combined findings. Buffer
// shape and index range problems stop validation early because the remaining
// checks would read out of bounds. Validate never mutates the mesh.
func Validate(m *Mesh) ValidationResult {
	var result ValidationResult

	result.add(CheckShape(m))
	if !result.OK() {
		return result
	}
	result.add(CheckIndexRange(m))
	if !result.OK() {
		return result
	}

	result.add(CheckUnused(m))
	result.add(CheckUnitSphere(m, SurfaceTolerance))
	result.add(CheckNormals(m, SurfaceTolerance))
	result.add(CheckClosed(m))
	result.add(CheckWinding(m))
	result.add(CheckDuplicates(m, SurfaceTolerance))
	return result
}

// ---------------------------------------------------------------------------
// Buffer structure
// ---------------------------------------------------------------------------

// CheckShape verifies the flat buffers hold whole vectors and triangles and
// that every vertex has a normal.
func CheckShape(m *Mesh) []ValidationError {
	var errs []ValidationError
	if len(m.Vertices)%3 != 0 {
		errs = append(errs, newError("shape", "vertex buffer length %d is not a multiple of 3", len(m.Vertices)))
	}
	if len(m.Normals) != len(m.Vertices) {
		errs = append(errs, newError("shape", "normal buffer length %d does not match vertex buffer length %d",
			len(m.Normals), len(m.Vertices)))
	}
	if len(m.Indices)%3 != 0 {
		errs = append(errs, newError("shape", "index buffer length %d is not a multiple of 3", len(m.Indices)))
	}
	return errs
}

// CheckIndexRange verifies every index names an existing vertex.
func CheckIndexRange(m *Mesh) []ValidationError {
	n := uint32(m.VertexCount())
	bad := lo.Filter(m.Indices, func(idx uint32, _ int) bool { return idx >= n })
	if len(bad) == 0 {
		return nil
	}
	return []ValidationError{newError("index-range",
		"%d indices out of range (first: %d, vertex count %d)", len(bad), bad[0], n)}
}

// CheckUnused verifies every vertex is referenced by at least one triangle,
// i.e. the number of distinct indices equals the vertex count.
func CheckUnused(m *Mesh) []ValidationError {
	distinct := len(lo.Uniq(m.Indices))
	if distinct == m.VertexCount() {
		return nil
	}
	return []ValidationError{newError("unused",
		"%d distinct vertex ids referenced, want %d", distinct, m.VertexCount())}
}

// ---------------------------------------------------------------------------
// Surface
// ---------------------------------------------------------------------------

// CheckUnitSphere verifies every vertex lies on the unit sphere centered at
// the origin, measured with the sphere's signed distance field.
func CheckUnitSphere(m *Mesh, tolerance float64) []ValidationError {
	sphere, err := sdf.Sphere3D(1)
	if err != nil {
		return []ValidationError{newError("unit-sphere", "building reference sphere: %v", err)}
	}

	count, first, worst := 0, -1, 0.0
	for i := 0; i < m.VertexCount(); i++ {
		d := math.Abs(sphere.Evaluate(m.Position(i)))
		if d > tolerance || math.IsNaN(d) {
			if first < 0 {
				first = i
			}
			count++
			worst = math.Max(worst, d)
		}
	}
	if count == 0 {
		return nil
	}
	return []ValidationError{newError("unit-sphere",
		"%d vertices off the unit sphere (first: vertex %d, worst distance %g)", count, first, worst)}
}

// CheckNormals verifies every normal has unit length.
func CheckNormals(m *Mesh, tolerance float32) []ValidationError {
	count, first := 0, -1
	for i := 0; i < len(m.Normals)/3; i++ {
		nx, ny, nz := m.Normals[3*i], m.Normals[3*i+1], m.Normals[3*i+2]
		l := math32.Sqrt(nx*nx + ny*ny + nz*nz)
		if math32.Abs(l-1) > tolerance || math32.IsNaN(l) {
			if first < 0 {
				first = i
			}
			count++
		}
	}
	if count == 0 {
		return nil
	}
	return []ValidationError{newError("normals", "%d normals are not unit length (first: vertex %d)", count, first)}
}

// ---------------------------------------------------------------------------
// Topology
// ---------------------------------------------------------------------------

// directedEdge is an ordered vertex pair taken from a triangle's winding.
type directedEdge struct {
	from, to uint32
}

// CheckClosed verifies the mesh is a closed, consistently oriented 2-manifold:
// every directed edge appears exactly once and its reverse appears exactly
// once, so every undirected edge is shared by exactly two triangles.
func CheckClosed(m *Mesh) []ValidationError {
	var errs []ValidationError
	edges := make(map[directedEdge]int, len(m.Indices))
	degenerate := 0

	for i := 0; i < m.TriangleCount(); i++ {
		t := m.Triangle(i)
		if t[0] == t[1] || t[1] == t[2] || t[2] == t[0] {
			degenerate++
			continue
		}
		edges[directedEdge{t[0], t[1]}]++
		edges[directedEdge{t[1], t[2]}]++
		edges[directedEdge{t[2], t[0]}]++
	}
	if degenerate > 0 {
		errs = append(errs, newError("closed", "%d degenerate triangles", degenerate))
	}

	repeated, open := 0, 0
	for e, n := range edges {
		if n > 1 {
			repeated++
		}
		if edges[directedEdge{e.to, e.from}] != 1 {
			open++
		}
	}
	if repeated > 0 {
		errs = append(errs, newError("closed", "%d directed edges used by more than one triangle", repeated))
	}
	if open > 0 {
		errs = append(errs, newError("closed", "%d directed edges without a matching opposite edge", open))
	}
	return errs
}

// CheckWinding verifies every triangle faces away from the origin: the signed
// volume v0·(v1×v2) of the tetrahedron it forms with the origin is positive.
func CheckWinding(m *Mesh) []ValidationError {
	count, first := 0, -1
	for i := 0; i < m.TriangleCount(); i++ {
		if SignedVolume(m, i) <= 0 {
			if first < 0 {
				first = i
			}
			count++
		}
	}
	if count == 0 {
		return nil
	}
	return []ValidationError{newError("winding", "%d triangles face inward (first: triangle %d)", count, first)}
}

// SignedVolume returns v0·(v1×v2) for triangle i.
func SignedVolume(m *Mesh, i int) float64 {
	t := m.Triangle(i)
	v0 := m.Position(int(t[0]))
	v1 := m.Position(int(t[1]))
	v2 := m.Position(int(t[2]))
	return v0.Dot(v1.Cross(v2))
}

// CheckDuplicates warns about distinct vertices sharing a position. A mesh
// with duplicates renders, but seams along them are not watertight.
func CheckDuplicates(m *Mesh, tolerance float64) []ValidationError {
	grid := newWeldGrid(tolerance, m.VertexCount())
	dups := 0
	for i := 0; i < m.VertexCount(); i++ {
		p := m.Position(i)
		if _, ok := grid.find(p); ok {
			dups++
			continue
		}
		grid.insert(p)
	}
	if dups == 0 {
		return nil
	}
	return []ValidationError{{
		Check:    "duplicates",
		Message:  fmt.Sprintf("%d vertices duplicate an earlier position", dups),
		Severity: SeverityWarning,
	}}
}

func newError(check, format string, args ...any) ValidationError {
	return ValidationError{
		Check:    check,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityError,
	}
}
