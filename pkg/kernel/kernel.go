// Package kernel defines the mesh type handed to renderers and the abstract
// sphere kernel interface. Implementations (the geodesic generator, the sdfx
// marching-cubes reference) sit behind this interface so callers can swap
// backends without changing the rest of the system.
package kernel

// Kernel produces a closed unit-sphere mesh at a given resolution.
type Kernel interface {
	// Name identifies the backend in logs and configuration.
	Name() string

	// Sphere builds a unit sphere centered at the origin.
	Sphere(resolution int) (*Mesh, error)
}
