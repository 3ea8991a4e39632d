// Package tessellate turns scene entities into triangle meshes using a
// geometry kernel. One mesh is produced per entity.
package tessellate

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/alitto/pond/v2"

	"github.com/chazu/geode/pkg/kernel"
	"github.com/chazu/geode/pkg/scene"
)

// Entities meshes each entity on a pool of at most workers goroutines
// (NumCPU when workers <= 0). Output slot i holds the mesh of entities[i].
// Entities are never mutated.
// When several entities fail, the error of the lowest index is returned.
func Entities(entities []*scene.Entity, k kernel.Kernel, workers int) ([]*kernel.Mesh, error) {
	if len(entities) == 0 {
		return nil, nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(entities))

	meshes := make([]*kernel.Mesh, len(entities))
	errs := make([]error, len(entities))

	pool := pond.NewPool(workers)
	defer pool.StopAndWait()

	var wg sync.WaitGroup
	for i, e := range entities {
		wg.Add(1)
		pool.Submit(func() {
			defer wg.Done()
			meshes[i], errs[i] = entity(k, e)
		})
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return meshes, nil
}

// entity meshes a single entity, labelling the mesh with the entity name or,
// failing that, its short ID.
func entity(k kernel.Kernel, e *scene.Entity) (*kernel.Mesh, error) {
	label := e.Name
	if label == "" {
		label = e.ID.Short()
	}

	mesh, err := k.Sphere(e.Sphere.Resolution)
	if err != nil {
		return nil, fmt.Errorf("tessellate: entity %q: %w", label, err)
	}
	if mesh == nil {
		return nil, fmt.Errorf("tessellate: entity %q: kernel %s returned no mesh", label, k.Name())
	}
	mesh.Name = label
	return mesh, nil
}
