package engine

import "time"

// Config bundles everything the engine needs at construction time. The zero
// value runs memory-only with all background intervals at their defaults.
type Config struct {
	// DSN is the SQLite database path for the durable tier. Empty disables
	// durable storage entirely; persistent operations then fail as
	// unavailable.
	DSN string

	// StaticTokens resolve to wildcard permissions without a database
	// lookup.
	StaticTokens []string

	// PermissionTTL bounds how long resolved permissions are cached.
	PermissionTTL time.Duration

	// BatchSize is the queue length that triggers an immediate batcher
	// flush; BatchInterval flushes partial batches.
	BatchSize     int
	BatchInterval time.Duration

	// SweepInterval and PruneChunkSize control the memory tier sweeper.
	SweepInterval  time.Duration
	PruneChunkSize int

	// ReapInterval controls how often expired durable rows are reclaimed.
	ReapInterval time.Duration
}

// DefaultConfig returns a memory-only configuration with default intervals.
func DefaultConfig() Config {
	return Config{}
}
