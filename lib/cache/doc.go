// Package cache provides a generic, concurrent entry store with per-entry
// time to live. It is the building block for both levels of the namespace
// hierarchy: the registry holds one cache of namespaces, and each namespace
// holds one cache of entries.
//
// The package focuses on:
//   - Lazy expiry: an entry past its deadline is removed by the read that
//     observes it, so a caller can never see stale data
//   - Cooperative reclamation: Prune walks the key space in chunks and
//     yields the processor between chunks, so background sweeps never
//     monopolize a scheduler thread
//   - Race-free creation: GetOrCreate guarantees that concurrent callers
//     for a missing key observe a single stored value
//
// Expiry semantics: a ttl <= 0 means the entry never expires. The deadline
// check on read is the correctness guarantee; Prune is purely a memory
// optimization and no caller may rely on it for visibility semantics.
package cache
