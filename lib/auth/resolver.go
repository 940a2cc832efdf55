package auth

import (
	"errors"
	"time"

	"github.com/ValentinKolb/nkv/lib/cache"
	"github.com/ValentinKolb/nkv/lib/tier"
	"github.com/op/go-logging"
	"gorm.io/gorm"
)

var authLogger = logging.MustGetLogger("auth")

// DefaultPermissionTTL bounds how long a resolved permission set is served
// from cache before the database is consulted again. Revoking a token
// therefore takes effect within this window at the latest.
const DefaultPermissionTTL = 60 * time.Second

// Resolver maps bearer tokens to permission sets. Lookups hit a TTL cache
// first, then the token table. Tokens from the static configuration resolve
// without a database, and the static set also serves as the fallback when
// the database errors so a storage outage does not lock out operators.
//
// Thread-safety: all methods are safe for concurrent use.
type Resolver struct {
	db     *gorm.DB // nil when running without durable storage
	static map[string]struct{}
	cache  *cache.Store[PermissionSet]
	ttl    time.Duration
}

// NewResolver creates a resolver. db may be nil; staticTokens resolve to
// wildcard permissions. A non-positive ttl falls back to the default.
func NewResolver(db *gorm.DB, staticTokens []string, ttl time.Duration) (*Resolver, error) {
	if ttl <= 0 {
		ttl = DefaultPermissionTTL
	}

	static := make(map[string]struct{}, len(staticTokens))
	for _, token := range staticTokens {
		if token != "" {
			static[token] = struct{}{}
		}
	}

	if db != nil {
		if err := db.AutoMigrate(&AccessToken{}); err != nil {
			return nil, tier.NewErrorf(tier.RetCInternalError, "failed to migrate token table: %v", err)
		}
	}

	return &Resolver{
		db:     db,
		static: static,
		cache:  cache.New[PermissionSet](),
		ttl:    ttl,
	}, nil
}

// Resolve returns the permission set for a token. An empty or unknown token
// yields RetCUnauthenticated.
func (r *Resolver) Resolve(token string) (PermissionSet, error) {
	if token == "" {
		return PermissionSet{}, tier.NewError(tier.RetCUnauthenticated, "missing token")
	}

	if _, ok := r.static[token]; ok {
		return NewPermissionSet(WildcardNamespace), nil
	}

	if perms, ok := r.cache.Get(token); ok {
		return perms, nil
	}

	if r.db == nil {
		return PermissionSet{}, tier.NewError(tier.RetCUnauthenticated, "unknown token")
	}

	var record AccessToken
	err := r.db.Where("token = ? AND active = ?", token, true).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// not cached: a token created moments later should work immediately
		return PermissionSet{}, tier.NewError(tier.RetCUnauthenticated, "unknown token")
	}
	if err != nil {
		authLogger.Errorf("token lookup failed, rejecting token: %v", err)
		return PermissionSet{}, tier.NewErrorf(tier.RetCInternalError, "token lookup failed: %v", err)
	}

	perms := record.Permissions()
	r.cache.Set(token, perms, r.ttl)
	return perms, nil
}

// Invalidate drops a token from the cache so the next lookup hits the
// database again.
func (r *Resolver) Invalidate(token string) {
	r.cache.Delete(token)
}
