package cache

import (
	"runtime"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Entry Type
// --------------------------------------------------------------------------

// item wraps a stored value with its absolute expiry deadline.
type item[V any] struct {
	value    V
	deadline int64 // unix nanoseconds, 0 = never expires
}

// expired returns whether the item has passed its deadline at the given instant.
func (i item[V]) expired(now int64) bool {
	return i.deadline != 0 && now >= i.deadline
}

// --------------------------------------------------------------------------
// Store Implementation
// --------------------------------------------------------------------------

// Store is a concurrent mapping from string keys to values with a per-entry
// time to live. Expiry is enforced lazily: an expired entry is removed the
// first time it is read after its deadline. Prune can be used to reclaim
// memory held by entries that are never read again.
type Store[V any] struct {
	entries *xsync.MapOf[string, item[V]]
}

// New creates an empty Store.
func New[V any]() *Store[V] {
	return &Store[V]{
		entries: xsync.NewMapOf[string, item[V]](),
	}
}

// Set inserts or overwrites the value for a key.
// A ttl <= 0 means the entry never expires.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Store[V]) Set(key string, value V, ttl time.Duration) {
	var deadline int64
	if ttl > 0 {
		deadline = time.Now().Add(ttl).UnixNano()
	}
	s.entries.Store(key, item[V]{value: value, deadline: deadline})
}

// Get returns the value for a key. The boolean return value indicates whether
// a live value was found. If the entry has expired, it is deleted as a side
// effect and reported as absent.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Store[V]) Get(key string) (V, bool) {
	var (
		value V
		ok    bool
	)

	now := time.Now().UnixNano()
	s.entries.Compute(key, func(e item[V], loaded bool) (item[V], bool) {
		// case the key doesn't exist
		if !loaded {
			return e, true // set delete to true because else the value will be created
		}

		// case expired -> lazy eviction
		if e.expired(now) {
			return e, true
		}

		value = e.value
		ok = true
		return e, false
	})

	return value, ok
}

// GetOrCreate returns the live value for a key, creating it with the factory
// if the key is absent or expired. Two concurrent callers for a missing key
// observe the same stored value.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
// The factory may be invoked while an internal bucket lock is held, so it
// must not touch this store.
func (s *Store[V]) GetOrCreate(key string, ttl time.Duration, factory func() V) V {
	var deadline int64
	if ttl > 0 {
		deadline = time.Now().Add(ttl).UnixNano()
	}

	now := time.Now().UnixNano()
	actual, _ := s.entries.Compute(key, func(e item[V], loaded bool) (item[V], bool) {
		if loaded && !e.expired(now) {
			return e, false
		}
		return item[V]{value: factory(), deadline: deadline}, false
	})
	return actual.value
}

// Has returns whether a live value exists for the key.
// Equivalent to Get(key) succeeding, including the lazy-eviction side effect.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Store[V]) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Delete removes a key. The return value indicates whether the key was present
// (live or expired-but-not-yet-purged).
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Store[V]) Delete(key string) bool {
	_, present := s.entries.LoadAndDelete(key)
	return present
}

// DeleteIf atomically removes a key when the condition holds for its current
// value. The return value indicates whether a removal happened.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
// The condition runs while an internal bucket lock is held, so it must be
// cheap and must not touch this store.
func (s *Store[V]) DeleteIf(key string, cond func(V) bool) bool {
	deleted := false
	s.entries.Compute(key, func(e item[V], loaded bool) (item[V], bool) {
		if !loaded {
			return e, true // set delete to true because else the value will be created
		}
		if cond(e.value) {
			deleted = true
			return e, true
		}
		return e, false
	})
	return deleted
}

// Keys returns a snapshot of all currently stored keys. The snapshot may
// include keys whose entries are expired but not yet purged; callers must
// re-check liveness via Get or Has.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Store[V]) Keys() []string {
	keys := make([]string, 0, s.entries.Size())
	s.entries.Range(func(key string, _ item[V]) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Len returns the number of stored entries, including expired entries that
// have not been purged yet.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Store[V]) Len() int {
	return s.entries.Size()
}

// Clear removes all entries.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Store[V]) Clear() {
	s.entries.Clear()
}

// Prune walks all keys and forces the lazy-expiry side effect on each,
// yielding the processor every chunk entries so a large walk never
// monopolizes a scheduler thread. A chunk <= 0 disables yielding.
//
// Prune is not required for correctness - lazy expiry on read suffices. It
// exists to reclaim memory held by expired entries that are never read again.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Store[V]) Prune(chunk int) {
	now := time.Now().UnixNano()
	walked := 0
	for _, key := range s.Keys() {
		s.entries.Compute(key, func(e item[V], loaded bool) (item[V], bool) {
			return e, !loaded || e.expired(now)
		})

		walked++
		if chunk > 0 && walked%chunk == 0 {
			runtime.Gosched()
		}
	}
}
