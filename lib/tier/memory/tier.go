package memory

import (
	"time"

	"github.com/ValentinKolb/nkv/lib/namespace"
	"github.com/ValentinKolb/nkv/lib/tier"
)

type tierImpl struct {
	registry *namespace.Registry
}

// NewTier creates the process-local memory tier on top of a namespace
// registry. The tier holds entries only as long as the process lives and is
// bounded only by TTL and process memory.
func NewTier(registry *namespace.Registry) tier.ITier {
	return &tierImpl{registry: registry}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see tier/interface.go)
// --------------------------------------------------------------------------

func (t *tierImpl) Write(ns, key string, payload map[string]any, ttlSeconds int64) (tier.Entry, error) {
	cursor := tier.NextWriteCursor()
	entry := tier.Entry{
		Key:         key,
		Payload:     payload,
		WriteCursor: cursor,
		ExpireAt:    tier.ExpireAt(cursor, ttlSeconds),
	}

	var ttl time.Duration
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}

	t.registry.GetOrCreate(ns).Set(key, entry, ttl)
	return entry, nil
}

func (t *tierImpl) Read(ns, key string) (tier.Entry, bool, error) {
	// a cache-miss lookup creates the namespace, same as a write
	entry, ok := t.registry.GetOrCreate(ns).Get(key)
	return entry, ok, nil
}

func (t *tierImpl) Delete(ns, key string) (bool, error) {
	return t.registry.GetOrCreate(ns).Delete(key), nil
}

func (t *tierImpl) Name() tier.Name {
	return tier.Memory
}
