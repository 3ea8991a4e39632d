// Package editor holds the state behind the sphere-mesh editor panel: the
// open/closed toggle and the text field for the resolution.
package editor

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/chazu/geode/pkg/scene"
)

// ErrInvalidResolution is returned for text that is not a base-10
// non-negative integer.
var ErrInvalidResolution = errors.New("editor: invalid resolution")

// ParseResolution parses the resolution field. Surrounding whitespace, signs
// and non-decimal forms are rejected.
func ParseResolution(text string) (int, error) {
	n, err := strconv.ParseUint(text, 10, strconv.IntSize-1)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidResolution, text)
	}
	return int(n), nil
}

// ApplyText sets c.Resolution from text when text parses and differs from
// the current value. It reports whether the component changed; invalid text
// leaves the previous resolution in place.
func ApplyText(c *scene.SphereMeshComponent, text string) bool {
	r, err := ParseResolution(text)
	if err != nil || r == c.Resolution {
		return false
	}
	c.Resolution = r
	return true
}

// Panel is the editor window's toggle state. The zero value is closed.
type Panel struct {
	open bool
}

// Toggle flips the panel and returns the new state.
func (p *Panel) Toggle() bool {
	p.open = !p.open
	return p.open
}

// Open reports whether the panel is shown.
func (p *Panel) Open() bool {
	return p.open
}
