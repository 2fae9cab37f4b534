package store

import (
	"context"
	"sync"
)

// DetailSnapshot is a point-in-time copy of a detail slot.
type DetailSnapshot[T any] struct {
	Selected *T
	Loading  bool
	Err      string
}

// Detail holds the currently-inspected entity, decoupled from the list slice
// so opening a detail view never clobbers the list. Loads are keyed by the
// requested id and by generation, so a response arriving after the modal
// moved on (different id, or Clear) is discarded instead of overwriting
// newer state.
type Detail[T Entity] struct {
	mu       sync.Mutex
	remote   Resource[T]
	selected *T
	id       int64
	loading  bool
	err      string
	gen      uint64
}

// NewDetail builds a detail slot over the same collection port as the list
// store.
func NewDetail[T Entity](remote Resource[T]) *Detail[T] {
	return &Detail[T]{remote: remote}
}

// Snapshot copies the current detail state. The selected value is copied so
// renderers never alias store internals.
func (d *Detail[T]) Snapshot() DetailSnapshot[T] {
	d.mu.Lock()
	defer d.mu.Unlock()
	var sel *T
	if d.selected != nil {
		v := *d.selected
		sel = &v
	}
	return DetailSnapshot[T]{Selected: sel, Loading: d.loading, Err: d.err}
}

// Fetch loads one entity into the slot. id must be a previously-issued
// server identifier; an unknown id surfaces the server's not-found message
// in the error slot.
func (d *Detail[T]) Fetch(ctx context.Context, id int64) (T, error) {
	d.mu.Lock()
	d.loading = true
	d.err = ""
	d.id = id
	d.gen++
	gen := d.gen
	d.mu.Unlock()

	item, err := d.remote.Get(ctx, id)

	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.gen || id != d.id {
		// Stale completion: the slot was cleared or re-targeted while this
		// load was in flight.
		return item, err
	}
	d.loading = false
	if err != nil {
		d.err = errMessage(err)
		return item, err
	}
	d.selected = &item
	return item, nil
}

// Clear resets the slot to empty/idle, used when the detail view closes so
// the next open never shows stale data. Bumping the generation also voids
// any load still in flight.
func (d *Detail[T]) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selected = nil
	d.loading = false
	d.err = ""
	d.id = 0
	d.gen++
}
