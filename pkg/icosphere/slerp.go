package icosphere

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// degenerateLength is the length below which the component of b orthogonal
// to a is treated as zero.
const degenerateLength = 1e-12

// Slerp interpolates along the great-circle arc from unit vector a to unit
// vector b. t=0 yields a, t=1 yields b, and every result has unit length.
//
// When a and b coincide the arc is a point and a is returned. When they are
// antipodal every great circle through them qualifies; a fixed vector
// orthogonal to a selects one so the result stays deterministic and finite.
func Slerp(a, b v3.Vec, t float64) v3.Vec {
	dot := math.Max(-1, math.Min(1, a.Dot(b)))
	theta := math.Acos(dot) * t

	rel := b.Sub(a.MulScalar(dot))
	if rel.Length() < degenerateLength {
		if dot > 0 {
			return a
		}
		rel = orthogonal(a)
	}
	rel = rel.Normalize()

	return a.MulScalar(math.Cos(theta)).Add(rel.MulScalar(math.Sin(theta)))
}

// orthogonal returns a unit vector perpendicular to a, built from the axis
// least aligned with a.
func orthogonal(a v3.Vec) v3.Vec {
	axis := v3.Vec{X: 1}
	ax, ay, az := math.Abs(a.X), math.Abs(a.Y), math.Abs(a.Z)
	switch {
	case ay <= ax && ay <= az:
		axis = v3.Vec{Y: 1}
	case az <= ax && az <= ay:
		axis = v3.Vec{Z: 1}
	}
	return a.Cross(axis).Normalize()
}
