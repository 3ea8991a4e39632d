// Package export writes meshes to files other tools can read.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/deadsy/sdfx/render"

	"github.com/chazu/geode/pkg/kernel"
)

// ErrEmptyMesh is returned when asked to export a mesh with no triangles.
var ErrEmptyMesh = errors.New("export: mesh is empty")

// WriteSTL writes m as a binary STL file at path.
func WriteSTL(path string, m *kernel.Mesh) error {
	if m == nil || m.IsEmpty() {
		return ErrEmptyMesh
	}
	if err := render.SaveSTL(path, m.Triangles()); err != nil {
		return fmt.Errorf("export: stl %s: %w", path, err)
	}
	return nil
}

// jsonMesh fixes the field order of the JSON dump.
type jsonMesh struct {
	Name       string    `json:"name"`
	Resolution int       `json:"resolution"`
	Vertices   []float32 `json:"vertices"`
	Normals    []float32 `json:"normals"`
	Indices    []uint32  `json:"indices"`
}

// WriteJSON writes m as an indented JSON object with name, resolution,
// vertices, normals and indices. Empty buffers encode as [].
func WriteJSON(w io.Writer, m *kernel.Mesh) error {
	if m == nil {
		return ErrEmptyMesh
	}
	out := jsonMesh{
		Name:       m.Name,
		Resolution: m.Resolution,
		Vertices:   nonNil(m.Vertices),
		Normals:    nonNil(m.Normals),
		Indices:    nonNil(m.Indices),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("export: json: %w", err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
