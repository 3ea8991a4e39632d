package regen

import (
	"log"
	"sync"
	"time"

	"github.com/bep/debounce"

	"github.com/chazu/geode/pkg/scene"
)

// PublishFunc receives the entities a debounced flush regenerated, or the
// first error it hit.
type PublishFunc func(updated []scene.EntityID, err error)

// ApplyFunc applies one edit and reports whether a new mesh was published.
// Regenerator.Update is the plain one; owners of a scene wrap it to drop
// edits that no longer match.
type ApplyFunc func(id scene.EntityID, name string, resolution int) (bool, error)

type edit struct {
	name       string
	resolution int
}

// Debouncer coalesces rapid resolution edits. Only the latest edit per
// entity survives, and it is applied once no edit has arrived for the quiet
// period.
type Debouncer struct {
	apply     ApplyFunc
	onPublish PublishFunc
	debounced func(func())

	mu      sync.Mutex
	order   []scene.EntityID
	pending map[scene.EntityID]edit
}

// NewDebouncer creates a Debouncer applying edits to r after quiet has passed
// without a new edit. onPublish may be nil.
func NewDebouncer(r *Regenerator, quiet time.Duration, onPublish PublishFunc) *Debouncer {
	return NewDebouncerFunc(r.Update, quiet, onPublish)
}

// NewDebouncerFunc is NewDebouncer with a custom apply step.
func NewDebouncerFunc(apply ApplyFunc, quiet time.Duration, onPublish PublishFunc) *Debouncer {
	return &Debouncer{
		apply:     apply,
		onPublish: onPublish,
		debounced: debounce.New(quiet),
		pending:   make(map[scene.EntityID]edit),
	}
}

// Submit records a resolution edit and restarts the quiet period.
func (d *Debouncer) Submit(id scene.EntityID, name string, resolution int) {
	d.mu.Lock()
	if _, ok := d.pending[id]; !ok {
		d.order = append(d.order, id)
	}
	d.pending[id] = edit{name: name, resolution: resolution}
	d.mu.Unlock()

	d.debounced(d.Flush)
}

// Pending returns the number of entities with an unapplied edit.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.order)
}

// Discard drops every pending edit without applying it.
func (d *Debouncer) Discard() {
	d.mu.Lock()
	d.order, d.pending = nil, make(map[scene.EntityID]edit)
	d.mu.Unlock()
}

// Flush applies every pending edit now and calls the publish callback.
// Flushing with nothing pending does nothing.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	order, pending := d.order, d.pending
	d.order, d.pending = nil, make(map[scene.EntityID]edit)
	d.mu.Unlock()

	if len(order) == 0 {
		return
	}

	var updated []scene.EntityID
	var firstErr error
	for _, id := range order {
		e := pending[id]
		changed, err := d.apply(id, e.name, e.resolution)
		if err != nil {
			log.Printf("regen: %s: %v", e.name, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if changed {
			updated = append(updated, id)
		}
	}

	if len(updated) > 0 {
		log.Printf("regen: published %d mesh(es)", len(updated))
	}
	if d.onPublish != nil {
		d.onPublish(updated, firstErr)
	}
}
