// Package regen keeps published sphere meshes in step with scene
// resolutions. A mesh is regenerated only when its entity's resolution
// differs from the one it was generated at; new meshes are published by
// swapping an immutable Snapshot, so readers never observe a partial update.
package regen

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"

	"github.com/chazu/geode/pkg/kernel"
	"github.com/chazu/geode/pkg/scene"
	"github.com/chazu/geode/pkg/tessellate"
)

// Snapshot is one published set of meshes. It is never modified after
// publication.
type Snapshot struct {
	Version uint64
	Order   []scene.EntityID
	meshes  map[scene.EntityID]*kernel.Mesh
}

var emptySnapshot = &Snapshot{meshes: map[scene.EntityID]*kernel.Mesh{}}

// Mesh returns the published mesh of id, or nil.
func (s *Snapshot) Mesh(id scene.EntityID) *kernel.Mesh {
	return s.meshes[id]
}

// Meshes returns the published meshes in entity order.
func (s *Snapshot) Meshes() []*kernel.Mesh {
	return lo.Map(s.Order, func(id scene.EntityID, _ int) *kernel.Mesh {
		return s.meshes[id]
	})
}

// Len returns the number of published meshes.
func (s *Snapshot) Len() int {
	return len(s.Order)
}

// Regenerator owns the published meshes. Sync and Update are serialised;
// Snapshot may be called from any goroutine at any time.
type Regenerator struct {
	kernel        kernel.Kernel
	workers       int
	maxResolution int

	mu        sync.Mutex
	published atomic.Pointer[Snapshot]
}

// New creates a Regenerator. Resolutions above maxResolution are clamped
// (0 disables the limit); workers bounds the tessellation pool.
func New(k kernel.Kernel, workers, maxResolution int) *Regenerator {
	r := &Regenerator{kernel: k, workers: workers, maxResolution: maxResolution}
	r.published.Store(emptySnapshot)
	return r
}

// Snapshot returns the currently published meshes.
func (r *Regenerator) Snapshot() *Snapshot {
	return r.published.Load()
}

// Sync makes the published meshes match s. Entities whose clamped resolution
// equals their published mesh's resolution keep that mesh; new and changed
// entities are regenerated; entities no longer in s are dropped. It returns
// the IDs it regenerated, in scene order. On error nothing is published.
func (r *Regenerator) Sync(s *scene.Scene) ([]scene.EntityID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.published.Load()
	entities := s.All()
	ids := lo.Map(entities, func(e *scene.Entity, _ int) scene.EntityID { return e.ID })

	stale := lo.Filter(entities, func(e *scene.Entity, _ int) bool {
		return !r.current(prev, e.ID, e.Sphere.Resolution)
	})
	if len(stale) == 0 && slices.Equal(ids, prev.Order) {
		return nil, nil
	}

	fresh, err := r.generate(stale)
	if err != nil {
		return nil, err
	}

	next := &Snapshot{
		Version: prev.Version + 1,
		Order:   ids,
		meshes:  make(map[scene.EntityID]*kernel.Mesh, len(entities)),
	}
	for _, e := range entities {
		if m, ok := fresh[e.ID]; ok {
			next.meshes[e.ID] = m
		} else {
			next.meshes[e.ID] = prev.meshes[e.ID]
		}
	}
	r.published.Store(next)

	return lo.Map(stale, func(e *scene.Entity, _ int) scene.EntityID { return e.ID }), nil
}

// Update applies a resolution change to a single entity, appending it if it
// is not yet published. It reports whether a new mesh was published.
func (r *Regenerator) Update(id scene.EntityID, name string, resolution int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.published.Load()
	if r.current(prev, id, resolution) {
		return false, nil
	}

	fresh, err := r.generate([]*scene.Entity{{ID: id, Name: name, Sphere: scene.SphereMeshComponent{Resolution: resolution}}})
	if err != nil {
		return false, err
	}

	next := &Snapshot{
		Version: prev.Version + 1,
		Order:   append([]scene.EntityID(nil), prev.Order...),
		meshes:  make(map[scene.EntityID]*kernel.Mesh, len(prev.meshes)+1),
	}
	for k, m := range prev.meshes {
		next.meshes[k] = m
	}
	if _, ok := prev.meshes[id]; !ok {
		next.Order = append(next.Order, id)
	}
	next.meshes[id] = fresh[id]
	r.published.Store(next)
	return true, nil
}

// Reset drops every published mesh.
func (r *Regenerator) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.published.Load()
	r.published.Store(&Snapshot{Version: prev.Version + 1, meshes: map[scene.EntityID]*kernel.Mesh{}})
}

// current reports whether snap already holds a mesh for id generated at the
// clamped resolution.
func (r *Regenerator) current(snap *Snapshot, id scene.EntityID, resolution int) bool {
	m := snap.meshes[id]
	return m != nil && m.Resolution == scene.ClampResolution(resolution, r.maxResolution)
}

// generate meshes entities at their clamped resolutions.
func (r *Regenerator) generate(entities []*scene.Entity) (map[scene.EntityID]*kernel.Mesh, error) {
	clamped := lo.Map(entities, func(e *scene.Entity, _ int) *scene.Entity {
		c := *e
		c.Sphere.Resolution = scene.ClampResolution(e.Sphere.Resolution, r.maxResolution)
		return &c
	})

	meshes, err := tessellate.Entities(clamped, r.kernel, r.workers)
	if err != nil {
		return nil, fmt.Errorf("regen: %w", err)
	}

	out := make(map[scene.EntityID]*kernel.Mesh, len(meshes))
	for i, m := range meshes {
		// Kernels that ignore the resolution still need it recorded for diffing.
		m.Resolution = clamped[i].Sphere.Resolution
		out[clamped[i].ID] = m
	}
	return out, nil
}
