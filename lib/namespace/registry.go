package namespace

import (
	"github.com/ValentinKolb/nkv/lib/cache"
	"github.com/ValentinKolb/nkv/lib/tier"
)

// Store is the entry store backing a single namespace in the memory tier.
type Store = cache.Store[tier.Entry]

// Registry maps namespace names to their entry stores. It is itself an
// expiring entry store whose values never expire at the registry level; a
// namespace only disappears when the sweeper removes it after it emptied.
type Registry struct {
	namespaces *cache.Store[*Store]
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		namespaces: cache.New[*Store](),
	}
}

// GetOrCreate returns the entry store for a namespace, creating it on first
// use. Idempotent: two concurrent callers for a new namespace observe the
// same store instance.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (r *Registry) GetOrCreate(name string) *Store {
	return r.namespaces.GetOrCreate(name, 0, func() *Store {
		return cache.New[tier.Entry]()
	})
}

// Get returns the entry store for a namespace without creating it.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (r *Registry) Get(name string) (*Store, bool) {
	return r.namespaces.Get(name)
}

// Remove drops a namespace from the registry unconditionally.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (r *Registry) Remove(name string) bool {
	return r.namespaces.Delete(name)
}

// RemoveIfEmpty drops a namespace only if its store is still empty at the
// moment of removal, so an emptiness check and the removal cannot interleave
// with a concurrent write into the store. Only the sweeper calls this;
// namespaces are never removed on the request path.
//
// A writer that obtained the store reference before the removal can still
// write into the dropped store and lose that write; the window is a single
// Set call, and the next write to the namespace recreates it.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (r *Registry) RemoveIfEmpty(name string) bool {
	return r.namespaces.DeleteIf(name, func(s *Store) bool {
		return s.Len() == 0
	})
}

// Names returns a snapshot of all registered namespace names.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (r *Registry) Names() []string {
	return r.namespaces.Keys()
}

// Len returns the number of registered namespaces.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (r *Registry) Len() int {
	return r.namespaces.Len()
}
