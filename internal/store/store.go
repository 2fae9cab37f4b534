// Package store mirrors the remote collections into UI state. Each store
// owns one slice of {items, loading, error}; every operation is one
// independent request/response cycle against the remote accessor, and the
// remote server stays the only source of truth; stores never invent
// identifiers or derive status.
package store

import (
	"context"
	"errors"
	"sync"

	"sopdash/internal/api"
)

// Entity is anything carrying a server-assigned identifier.
type Entity interface {
	EntityID() int64
}

// Resource is the port over one remote REST collection, satisfied by
// api.Resource[T]. Defined here so tests can fake the remote.
type Resource[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id int64) (T, error)
	Create(ctx context.Context, payload any) (T, error)
	Update(ctx context.Context, id int64, payload any) (T, error)
	Delete(ctx context.Context, id int64) error
}

// Snapshot is a point-in-time copy of a list slice, safe to render.
type Snapshot[T any] struct {
	// Items is nil until the first successful fetch, then always the full
	// server order.
	Items   []T
	Loading bool
	Err     string
}

// Store mirrors one remote collection.
type Store[T Entity] struct {
	mu      sync.Mutex
	remote  Resource[T]
	items   []T
	loading bool
	err     string
	// gen counts list fetches; a completion whose generation is stale lost
	// to a newer dispatch and must not write.
	gen uint64
}

// New builds a store over the given collection.
func New[T Entity](remote Resource[T]) *Store[T] {
	return &Store[T]{remote: remote}
}

// Snapshot copies the current slice state.
func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []T
	if s.items != nil {
		items = make([]T, len(s.items))
		copy(items, s.items)
	}
	return Snapshot[T]{Items: items, Loading: s.loading, Err: s.err}
}

// Seed pre-populates the list from a local snapshot, only while no fetch has
// succeeded yet. Seeded data is stale by definition and never wins over
// server responses.
func (s *Store[T]) Seed(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items == nil && s.gen == 0 {
		s.items = items
	}
}

// FetchAll replaces the list wholesale with the server's array, preserving
// server order. The error slot is cleared at dispatch; on failure the
// last-known items stay and the extracted message fills the slot. Never
// retried automatically.
func (s *Store[T]) FetchAll(ctx context.Context) ([]T, error) {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	items, err := s.remote.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		// A newer fetch was dispatched while this one was in flight; its
		// outcome owns the slice, this one is discarded.
		return items, err
	}
	s.loading = false
	if err != nil {
		s.err = errMessage(err)
		return nil, err
	}
	s.items = items
	return items, nil
}

// Create posts the payload. Failures are the caller's error channel (the
// form renders the server's message verbatim) and leave both the list and
// the store error slot untouched. On success the item is appended as an
// optimistic interim; callers still refetch the affected collections.
func (s *Store[T]) Create(ctx context.Context, payload any) (T, error) {
	s.setLoading(true)
	item, err := s.remote.Create(ctx, payload)
	s.setLoading(false)
	if err != nil {
		return item, err
	}

	s.mu.Lock()
	if s.items != nil {
		s.items = append(s.items, item)
	}
	s.mu.Unlock()
	return item, nil
}

// Update puts the partial payload against id. On success the server's item
// is spliced into the list in place, preserving positions; on failure the
// stale item stays and the error slot is set; the caller refetches to
// reconcile.
func (s *Store[T]) Update(ctx context.Context, id int64, payload any) (T, error) {
	s.setLoading(true)
	item, err := s.remote.Update(ctx, id, payload)
	s.setLoading(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.err = errMessage(err)
		return item, err
	}
	for i := range s.items {
		if s.items[i].EntityID() == id {
			s.items[i] = item
			break
		}
	}
	return item, nil
}

// Delete removes id remotely and filters it out of the list on success; on
// failure the list is unchanged and the error slot set.
func (s *Store[T]) Delete(ctx context.Context, id int64) error {
	s.setLoading(true)
	err := s.remote.Delete(ctx, id)
	s.setLoading(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.err = errMessage(err)
		return err
	}
	if s.items == nil {
		return nil
	}
	kept := make([]T, 0, len(s.items))
	for _, item := range s.items {
		if item.EntityID() != id {
			kept = append(kept, item)
		}
	}
	s.items = kept
	return nil
}

func (s *Store[T]) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// errMessage unwraps the accessor's extracted message; other errors surface
// as-is. api.Client already applied the message fallback chain.
func errMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
