// Package scene holds the entities whose sphere meshes the application keeps
// up to date. A scene is produced fresh by every script evaluation and is
// never shared between evaluations.
package scene

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// DefaultResolution is the resolution of a sphere nobody configured.
const DefaultResolution = 4

// ErrDuplicateName is returned when two entities share a name.
var ErrDuplicateName = errors.New("duplicate entity name")

// entityNamespace scopes name-derived entity IDs to this application.
var entityNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/chazu/geode/entity"))

// EntityID identifies an entity. IDs are derived from the entity name, so
// re-evaluating a script yields the same IDs and meshes can be matched across
// evaluations.
type EntityID string

// ZeroID is the empty entity ID.
const ZeroID EntityID = ""

// NewEntityID returns the deterministic ID for an entity name.
func NewEntityID(name string) EntityID {
	return EntityID(uuid.NewSHA1(entityNamespace, []byte(name)).String())
}

// String returns the full ID.
func (id EntityID) String() string {
	return string(id)
}

// Short returns the first 8 characters, for logs and error messages.
func (id EntityID) Short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

// IsZero reports whether the ID is empty.
func (id EntityID) IsZero() bool {
	return id == ZeroID
}

// SphereMeshComponent configures the sphere mesh of one entity. Changing
// Resolution is the only thing that triggers regeneration.
type SphereMeshComponent struct {
	Resolution int `json:"resolution" yaml:"resolution"`
}

// DefaultSphereMesh returns a component at DefaultResolution.
func DefaultSphereMesh() SphereMeshComponent {
	return SphereMeshComponent{Resolution: DefaultResolution}
}

// Entity is a named thing carrying a sphere mesh.
type Entity struct {
	ID     EntityID            `json:"id"`
	Name   string              `json:"name"`
	Sphere SphereMeshComponent `json:"sphere"`
}

// NewEntity returns an entity with an ID derived from name.
func NewEntity(name string, sphere SphereMeshComponent) *Entity {
	return &Entity{ID: NewEntityID(name), Name: name, Sphere: sphere}
}

// Scene is an ordered set of entities.
type Scene struct {
	Entities  map[EntityID]*Entity `json:"entities"`
	Order     []EntityID           `json:"order"`
	NameIndex map[string]EntityID  `json:"name_index"`
}

// New creates an empty Scene.
func New() *Scene {
	return &Scene{
		Entities:  make(map[EntityID]*Entity),
		NameIndex: make(map[string]EntityID),
	}
}

// Add appends an entity. Names must be unique within a scene.
func (s *Scene) Add(e *Entity) error {
	if _, exists := s.NameIndex[e.Name]; exists {
		return fmt.Errorf("scene: %w: %q", ErrDuplicateName, e.Name)
	}
	s.Entities[e.ID] = e
	s.Order = append(s.Order, e.ID)
	s.NameIndex[e.Name] = e.ID
	return nil
}

// Lookup returns the entity with the given name, or nil.
func (s *Scene) Lookup(name string) *Entity {
	id, ok := s.NameIndex[name]
	if !ok {
		return nil
	}
	return s.Entities[id]
}

// Get returns the entity with the given ID, or nil.
func (s *Scene) Get(id EntityID) *Entity {
	return s.Entities[id]
}

// All returns the entities in insertion order.
func (s *Scene) All() []*Entity {
	out := make([]*Entity, 0, len(s.Order))
	for _, id := range s.Order {
		if e := s.Entities[id]; e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of entities.
func (s *Scene) Len() int {
	return len(s.Order)
}

// ClampResolution limits a resolution to [0, max]. A non-positive max
// disables the upper bound.
func ClampResolution(resolution, max int) int {
	if resolution < 0 {
		return 0
	}
	if max > 0 && resolution > max {
		return max
	}
	return resolution
}
