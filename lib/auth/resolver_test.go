package auth

import (
	"testing"
	"time"

	"github.com/ValentinKolb/nkv/lib/tier"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

func TestPermissionSet(t *testing.T) {
	set := NewPermissionSet("users", "sessions", " feed ")
	assert.True(t, set.Allows("users"))
	assert.True(t, set.Allows("feed"))
	assert.False(t, set.Allows("admin"))
	assert.False(t, set.Wildcard())

	all := NewPermissionSet("*")
	assert.True(t, all.Allows("anything"))
	assert.True(t, all.Wildcard())

	parsed := ParsePermissionSet("a,b,,c")
	assert.Equal(t, []string{"a", "b", "c"}, parsed.Namespaces())

	empty := PermissionSet{}
	assert.False(t, empty.Allows("users"))
}

func TestResolveEmptyToken(t *testing.T) {
	r, err := NewResolver(nil, nil, 0)
	require.NoError(t, err)

	_, err = r.Resolve("")
	assert.Equal(t, tier.RetCUnauthenticated, tier.CodeOf(err))
}

func TestResolveStaticToken(t *testing.T) {
	r, err := NewResolver(nil, []string{"root-token"}, 0)
	require.NoError(t, err)

	perms, err := r.Resolve("root-token")
	require.NoError(t, err)
	assert.True(t, perms.Wildcard())

	_, err = r.Resolve("other")
	assert.Equal(t, tier.RetCUnauthenticated, tier.CodeOf(err))
}

func TestResolveDatabaseToken(t *testing.T) {
	db := openTestDB(t)
	r, err := NewResolver(db, nil, time.Minute)
	require.NoError(t, err)

	require.NoError(t, db.Create(&AccessToken{
		Token:      "tkn-1",
		Namespaces: "users,sessions",
		Active:     true,
	}).Error)

	perms, err := r.Resolve("tkn-1")
	require.NoError(t, err)
	assert.True(t, perms.Allows("users"))
	assert.False(t, perms.Allows("admin"))
}

func TestResolveInactiveToken(t *testing.T) {
	db := openTestDB(t)
	r, err := NewResolver(db, nil, time.Minute)
	require.NoError(t, err)

	require.NoError(t, db.Create(&AccessToken{
		Token:      "revoked",
		Namespaces: "*",
		Active:     false,
	}).Error)

	// the inactive flag must survive the insert; a column default would
	// silently turn the zero value into an active token
	var stored AccessToken
	require.NoError(t, db.Where("token = ?", "revoked").First(&stored).Error)
	require.False(t, stored.Active)

	_, err = r.Resolve("revoked")
	assert.Equal(t, tier.RetCUnauthenticated, tier.CodeOf(err))
}

// A cached permission set is served until its TTL elapses; revocation takes
// effect after the window or immediately after Invalidate.
func TestResolveCaching(t *testing.T) {
	db := openTestDB(t)
	r, err := NewResolver(db, nil, time.Minute)
	require.NoError(t, err)

	require.NoError(t, db.Create(&AccessToken{
		Token:      "tkn-1",
		Namespaces: "users",
		Active:     true,
	}).Error)

	_, err = r.Resolve("tkn-1")
	require.NoError(t, err)

	// revoke in the database; the cache still answers
	require.NoError(t, db.Model(&AccessToken{}).Where("token = ?", "tkn-1").Update("active", false).Error)

	perms, err := r.Resolve("tkn-1")
	require.NoError(t, err)
	assert.True(t, perms.Allows("users"))

	r.Invalidate("tkn-1")
	_, err = r.Resolve("tkn-1")
	assert.Equal(t, tier.RetCUnauthenticated, tier.CodeOf(err))
}

// Unknown tokens are not negatively cached: a token created right after a
// failed lookup resolves immediately.
func TestResolveNoNegativeCaching(t *testing.T) {
	db := openTestDB(t)
	r, err := NewResolver(db, nil, time.Minute)
	require.NoError(t, err)

	_, err = r.Resolve("tkn-1")
	assert.Equal(t, tier.RetCUnauthenticated, tier.CodeOf(err))

	require.NoError(t, db.Create(&AccessToken{
		Token:      "tkn-1",
		Namespaces: "users",
		Active:     true,
	}).Error)

	perms, err := r.Resolve("tkn-1")
	require.NoError(t, err)
	assert.True(t, perms.Allows("users"))
}
