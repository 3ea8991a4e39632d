package icosphere

import v3 "github.com/deadsy/sdfx/vec/v3"

// baseVertices are the six corners of the diamond the sphere is grown from.
// Their order fixes the ids 0..5 of every generated mesh.
var baseVertices = [6]v3.Vec{
	{X: 0, Y: 1, Z: 0},  // 0 top
	{X: -1, Y: 0, Z: 0}, // 1
	{X: 0, Y: 0, Z: -1}, // 2
	{X: 1, Y: 0, Z: 0},  // 3
	{X: 0, Y: 0, Z: 1},  // 4
	{X: 0, Y: -1, Z: 0}, // 5 bottom
}

// vertexPairs lists the base vertices joined by each of the 12 edges.
// No pair is antipodal, so edge slerps never hit the degenerate case.
var vertexPairs = [12][2]int{
	{0, 1}, {0, 2}, {0, 3}, {0, 4}, // upper ribs
	{1, 2}, {2, 3}, {3, 4}, {4, 1}, // equator
	{5, 1}, {5, 2}, {5, 3}, {5, 4}, // lower ribs
}

// face names its two side edges, which share their start vertex (the apex),
// and the bottom edge joining the far ends of the sides.
type face struct {
	sideA, sideB, bottom int
}

// faces lists the eight triangles of the diamond. The lower four are mirrored
// through the equator and emit their triangles in reverse order.
var faces = [8]face{
	{0, 1, 4}, {1, 2, 5}, {2, 3, 6}, {3, 0, 7},
	{8, 9, 4}, {9, 10, 5}, {10, 11, 6}, {11, 8, 7},
}

// reversed reports whether face f lies on the lower hemisphere.
func reversed(f int) bool {
	return f >= 4
}
