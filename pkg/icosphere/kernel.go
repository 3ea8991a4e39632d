package icosphere

import "github.com/chazu/geode/pkg/kernel"

// Compile-time interface check.
var _ kernel.Kernel = Kernel{}

// Kernel exposes Generate through the kernel.Kernel interface.
type Kernel struct{}

// Name returns "icosphere".
func (Kernel) Name() string {
	return "icosphere"
}

// Sphere returns Generate(resolution). It never fails.
func (Kernel) Sphere(resolution int) (*kernel.Mesh, error) {
	return Generate(resolution), nil
}
