// Package namespace provides the registry of per-namespace entry stores for
// the memory tier, together with the background sweeper that reclaims memory
// from expired entries and removes namespaces that emptied out.
//
// A namespace is created implicitly on first use (first write or first
// lookup) and lives at the registry level with infinite TTL; only the
// sweeper ever removes one, and only when it holds no live entries. The
// durable tier has no equivalent concept: it never auto-deletes a namespace,
// only individual expired documents.
package namespace
