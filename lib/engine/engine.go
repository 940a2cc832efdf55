package engine

import (
	"github.com/ValentinKolb/nkv/lib/auth"
	"github.com/ValentinKolb/nkv/lib/namespace"
	"github.com/ValentinKolb/nkv/lib/tier"
	"github.com/ValentinKolb/nkv/lib/tier/durable"
	"github.com/ValentinKolb/nkv/lib/tier/memory"
	"github.com/glebarez/sqlite"
	"github.com/op/go-logging"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var engineLogger = logging.MustGetLogger("engine")

// Engine owns both tiers plus their background tasks and gates every
// operation behind a namespace permission check.
//
// Thread-safety: all methods are safe for concurrent use once the engine is
// constructed.
type Engine struct {
	db       *gorm.DB // nil when running memory-only
	registry *namespace.Registry
	memory   tier.ITier
	durable  *durable.Tier // nil when running memory-only
	batcher  *durable.Batcher
	sweeper  *namespace.Sweeper
	reaper   *durable.Reaper
	resolver *auth.Resolver
}

// New constructs the engine from its configuration. Background tasks are
// created but not started; call Start.
func New(cfg Config) (*Engine, error) {
	registry := namespace.NewRegistry()

	e := &Engine{
		registry: registry,
		memory:   memory.NewTier(registry),
		sweeper:  namespace.NewSweeper(registry, cfg.SweepInterval, cfg.PruneChunkSize),
	}

	if cfg.DSN != "" {
		db, err := gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err != nil {
			return nil, tier.NewErrorf(tier.RetCInternalError, "failed to open database: %v", err)
		}

		durableTier, err := durable.NewTier(db)
		if err != nil {
			return nil, err
		}

		e.db = db
		e.durable = durableTier
		e.batcher = durable.NewBatcher(durableTier, cfg.BatchSize, cfg.BatchInterval)
		e.reaper = durable.NewReaper(durableTier, cfg.ReapInterval)
	}

	resolver, err := auth.NewResolver(e.db, cfg.StaticTokens, cfg.PermissionTTL)
	if err != nil {
		return nil, err
	}
	e.resolver = resolver

	return e, nil
}

// Start launches the background tasks (sweeper, batcher, reaper).
func (e *Engine) Start() {
	e.sweeper.Start()
	if e.batcher != nil {
		e.batcher.Start()
	}
	if e.reaper != nil {
		e.reaper.Start()
	}
	engineLogger.Infof("engine started (durable=%v)", e.durable != nil)
}

// Close stops the background tasks, flushes outstanding buffered writes and
// closes the database.
func (e *Engine) Close() error {
	e.sweeper.Stop()
	if e.batcher != nil {
		e.batcher.Stop()
	}
	if e.reaper != nil {
		e.reaper.Stop()
	}
	if e.db != nil {
		if sqlDB, err := e.db.DB(); err == nil {
			return sqlDB.Close()
		}
	}
	return nil
}

// Resolver exposes the token resolver for the request layer.
func (e *Engine) Resolver() *auth.Resolver {
	return e.resolver
}

// DB exposes the database handle, nil when running memory-only. Used by the
// token administration commands.
func (e *Engine) DB() *gorm.DB {
	return e.db
}

// TierFor selects a tier from the caller's persistence flag. Asking for
// persistence without durable storage fails as unavailable; the engine
// never silently substitutes the memory tier.
func (e *Engine) TierFor(persist bool) (tier.ITier, error) {
	if !persist {
		return e.memory, nil
	}
	if e.durable == nil {
		return nil, tier.NewError(tier.RetCUnavailable, "durable tier is not configured")
	}
	return e.durable, nil
}

func authorize(perms auth.PermissionSet, ns string) error {
	if !perms.Allows(ns) {
		return tier.NewErrorf(tier.RetCForbidden, "namespace %q is not allowed for this token", ns)
	}
	return nil
}
