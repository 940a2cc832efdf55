// Package tier defines the capability interface shared by the two backing
// representations of the namespace store: the process-local memory tier and
// the durable document tier.
//
// The package focuses on:
//   - A unified interface (ITier) so write, read, delete, paginate and rank
//     operations run identically against either tier
//   - A uniform Page shape, so callers cannot tell the tiers apart by the
//     response format
//   - A structured error system using typed return codes, so callers can
//     distinguish absence (NotFound) from caller usage errors (FieldMissing)
//     and from the durable tier being unavailable
//
// Tier selection is always explicit: the caller chooses the tier per write
// via a persistence flag, and the system never merges, migrates or silently
// substitutes one tier for the other. The two tiers are independent,
// possibly-divergent views of "the same" (namespace, key) pair.
//
// Implementations:
//
//   - Memory Tier (github.com/ValentinKolb/nkv/lib/tier/memory): backed by
//     the namespace registry, lost on restart, expiry enforced lazily on
//     read.
//
//   - Durable Tier (github.com/ValentinKolb/nkv/lib/tier/durable): backed by
//     a SQL document table keyed by (namespace, key), survives restarts,
//     expired documents filtered from every read and reaped in the
//     background.
package tier
