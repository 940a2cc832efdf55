// Package memory implements the process-local tier on top of the namespace
// registry. Entries live in per-namespace expiring stores, expiry is
// enforced lazily on read, and all query operations (recency pagination,
// field-sorted pagination, rank) work on a point-in-time snapshot of the
// namespace since everything is already resident.
package memory
