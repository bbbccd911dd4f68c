package registry

import (
	"sync"

	"github.com/arthur-debert/pagemod/pkg/errors"
)

// BuildFunc creates the entry stored under name on its first acquisition
type BuildFunc[T any] func(name string) (T, error)

// RefCounted keeps exactly one entry per name for as long as at least one
// reference to that name is held. The entry is built on the first Acquire and
// purged by the Release that drops the count to zero.
type RefCounted[T any] struct {
	mu    sync.Mutex
	items Registry[T]
	refs  map[string]int
}

// NewRefCounted creates an empty reference-counted registry
func NewRefCounted[T any]() *RefCounted[T] {
	return &RefCounted[T]{
		items: New[T](),
		refs:  make(map[string]int),
	}
}

// Acquire takes one reference to name. When name is not present yet, build
// is called once to create it; a build error leaves the registry unchanged.
func (r *RefCounted[T]) Acquire(name string, build BuildFunc[T]) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item, err := r.items.Get(name); err == nil {
		r.refs[name]++
		return item, nil
	}

	var zero T
	if build == nil {
		return zero, errors.Newf(errors.ErrInvalidInput, "no builder for '%s'", name)
	}
	item, err := build(name)
	if err != nil {
		return zero, err
	}
	if err := r.items.Register(name, item); err != nil {
		return zero, err
	}
	r.refs[name] = 1
	return item, nil
}

// Release drops one reference to name and reports whether the entry was
// purged as a result. Releasing an unknown name is a no-op.
func (r *RefCounted[T]) Release(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	count, ok := r.refs[name]
	if !ok {
		return false
	}
	if count > 1 {
		r.refs[name] = count - 1
		return false
	}
	delete(r.refs, name)
	_ = r.items.Remove(name)
	return true
}

// Get returns the entry for name without taking a reference
func (r *RefCounted[T]) Get(name string) (T, bool) {
	item, err := r.items.Get(name)
	return item, err == nil
}

// Refs returns the number of references currently held on name
func (r *RefCounted[T]) Refs(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refs[name]
}

// List returns all live names in sorted order
func (r *RefCounted[T]) List() []string {
	return r.items.List()
}

// Count returns the number of live entries
func (r *RefCounted[T]) Count() int {
	return r.items.Count()
}

// Clear drops every entry regardless of outstanding references
func (r *RefCounted[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items.Clear()
	r.refs = make(map[string]int)
}
