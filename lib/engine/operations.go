package engine

import (
	"github.com/ValentinKolb/nkv/lib/auth"
	"github.com/ValentinKolb/nkv/lib/tier"
	"github.com/ValentinKolb/nkv/lib/tier/durable"
)

// --------------------------------------------------------------------------
// Single-Entry Operations
// --------------------------------------------------------------------------

// Write stores an entry in the tier selected by persist. With both persist
// and buffered set, the write goes through the write-behind batcher: it is
// applied at-most-once, some time later, and the returned entry carries no
// write cursor since none is assigned yet.
func (e *Engine) Write(perms auth.PermissionSet, ns, key string, payload map[string]any, ttlSeconds int64, persist, buffered bool) (tier.Entry, error) {
	if err := authorize(perms, ns); err != nil {
		return tier.Entry{}, err
	}

	impl, err := e.TierFor(persist)
	if err != nil {
		return tier.Entry{}, err
	}

	if persist && buffered {
		e.batcher.Enqueue(durable.UpsertOp{
			Namespace:  ns,
			Key:        key,
			Payload:    payload,
			TTLSeconds: ttlSeconds,
		})
		return tier.Entry{Key: key, Payload: payload}, nil
	}

	return impl.Write(ns, key, payload, ttlSeconds)
}

// Read returns an entry from the selected tier. The boolean is false when
// the entry does not exist or has expired.
func (e *Engine) Read(perms auth.PermissionSet, ns, key string, persist bool) (tier.Entry, bool, error) {
	if err := authorize(perms, ns); err != nil {
		return tier.Entry{}, false, err
	}

	impl, err := e.TierFor(persist)
	if err != nil {
		return tier.Entry{}, false, err
	}
	return impl.Read(ns, key)
}

// Delete removes an entry from the selected tier and reports whether it
// existed.
func (e *Engine) Delete(perms auth.PermissionSet, ns, key string, persist bool) (bool, error) {
	if err := authorize(perms, ns); err != nil {
		return false, err
	}

	impl, err := e.TierFor(persist)
	if err != nil {
		return false, err
	}
	return impl.Delete(ns, key)
}

// --------------------------------------------------------------------------
// Query Operations
// --------------------------------------------------------------------------

// ListByRecency pages a namespace from newest to oldest write.
func (e *Engine) ListByRecency(perms auth.PermissionSet, ns string, cursor int64, pageSize int, persist bool) (tier.Page, error) {
	if err := authorize(perms, ns); err != nil {
		return tier.Page{}, err
	}

	impl, err := e.TierFor(persist)
	if err != nil {
		return tier.Page{}, err
	}
	return impl.ListByRecency(ns, cursor, pageSize)
}

// ListBySorted pages a namespace ordered by a payload field.
func (e *Engine) ListBySorted(perms auth.PermissionSet, ns string, q tier.SortQuery, persist bool) (tier.Page, error) {
	if err := authorize(perms, ns); err != nil {
		return tier.Page{}, err
	}

	impl, err := e.TierFor(persist)
	if err != nil {
		return tier.Page{}, err
	}
	return impl.ListBySorted(ns, q)
}

// Rank returns the 1-based position of an entry within its namespace when
// ordered by a payload field.
func (e *Engine) Rank(perms auth.PermissionSet, ns, key string, q tier.RankQuery, persist bool) (int64, error) {
	if err := authorize(perms, ns); err != nil {
		return 0, err
	}

	impl, err := e.TierFor(persist)
	if err != nil {
		return 0, err
	}
	return impl.Rank(ns, key, q)
}

// --------------------------------------------------------------------------
// Batch Operations
// --------------------------------------------------------------------------

// BatchItem is one entry of a multi-namespace batch write.
type BatchItem struct {
	Namespace  string         `json:"namespace"`
	Key        string         `json:"key"`
	Payload    map[string]any `json:"payload"`
	TTLSeconds int64          `json:"ttl_seconds"`
}

// BatchWrite applies a batch of writes that may span namespaces. Every
// item's namespace is checked before anything is applied; a single
// disallowed namespace rejects the whole batch with nothing written.
func (e *Engine) BatchWrite(perms auth.PermissionSet, items []BatchItem, persist, buffered bool) error {
	for _, item := range items {
		if err := authorize(perms, item.Namespace); err != nil {
			return err
		}
	}

	impl, err := e.TierFor(persist)
	if err != nil {
		return err
	}

	if persist {
		ops := make([]durable.UpsertOp, 0, len(items))
		for _, item := range items {
			ops = append(ops, durable.UpsertOp{
				Namespace:  item.Namespace,
				Key:        item.Key,
				Payload:    item.Payload,
				TTLSeconds: item.TTLSeconds,
			})
		}
		if buffered {
			for _, op := range ops {
				e.batcher.Enqueue(op)
			}
			return nil
		}
		return e.durable.BulkUpsert(ops)
	}

	for _, item := range items {
		if _, err := impl.Write(item.Namespace, item.Key, item.Payload, item.TTLSeconds); err != nil {
			return err
		}
	}
	return nil
}

// FlushBatcher synchronously applies all queued buffered writes. No-op when
// running memory-only.
func (e *Engine) FlushBatcher() {
	if e.batcher != nil {
		e.batcher.Flush()
	}
}
