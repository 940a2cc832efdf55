package durable

import (
	"testing"
	"time"

	"github.com/ValentinKolb/nkv/lib/tier"
	"github.com/ValentinKolb/nkv/lib/tier/tiertest"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB creates an isolated in-memory database. The pool is pinned to a
// single connection because every SQLite :memory: connection is its own
// database.
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

func openTestTier(t *testing.T) *Tier {
	t.Helper()
	impl, err := NewTier(openTestDB(t))
	require.NoError(t, err)
	return impl
}

func TestDurableTierConformance(t *testing.T) {
	tiertest.RunTierTests(t, "durable", func(t *testing.T) tier.ITier {
		return openTestTier(t)
	})
}

func TestBulkUpsert(t *testing.T) {
	impl := openTestTier(t)

	err := impl.BulkUpsert([]UpsertOp{
		{Namespace: "ns", Key: "a", Payload: map[string]any{"v": float64(1)}},
		{Namespace: "ns", Key: "b", Payload: map[string]any{"v": float64(2)}},
		{Namespace: "other", Key: "a", Payload: map[string]any{"v": float64(3)}},
	})
	require.NoError(t, err)

	entry, found, err := impl.Read("ns", "b")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, float64(2), entry.Payload["v"])

	page, err := impl.ListByRecency("ns", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalItems)
}

func TestBulkUpsertOverwrites(t *testing.T) {
	impl := openTestTier(t)

	_, err := impl.Write("ns", "a", map[string]any{"v": float64(1)}, 0)
	require.NoError(t, err)

	err = impl.BulkUpsert([]UpsertOp{
		{Namespace: "ns", Key: "a", Payload: map[string]any{"v": float64(2)}},
	})
	require.NoError(t, err)

	entry, found, err := impl.Read("ns", "a")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, float64(2), entry.Payload["v"])
}

func TestBulkUpsertEmpty(t *testing.T) {
	impl := openTestTier(t)
	require.NoError(t, impl.BulkUpsert(nil))
}

// Expired rows are filtered on read even before the reaper has run, and the
// reaper then physically removes them.
func TestReaper(t *testing.T) {
	impl := openTestTier(t)

	_, err := impl.Write("ns", "keep", map[string]any{"v": float64(1)}, 0)
	require.NoError(t, err)
	_, err = impl.Write("ns", "fleeting", map[string]any{"v": float64(2)}, 1)
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)

	_, found, err := impl.Read("ns", "fleeting")
	require.NoError(t, err)
	assert.False(t, found, "expired row must be invisible before the reaper runs")

	reaper := NewReaper(impl, time.Minute)
	removed, err := reaper.ReapOnce()
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	var count int64
	require.NoError(t, impl.db.Model(&Document{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "only the expired row is reclaimed")
}

func TestReaperStartStop(t *testing.T) {
	impl := openTestTier(t)

	reaper := NewReaper(impl, 10*time.Millisecond)
	reaper.Start()
	reaper.Start() // idempotent

	_, err := impl.Write("ns", "fleeting", map[string]any{"v": float64(1)}, 1)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		var count int64
		if impl.db.Model(&Document{}).Count(&count).Error != nil {
			return false
		}
		return count == 0
	}, 3*time.Second, 50*time.Millisecond)

	reaper.Stop()
	reaper.Stop() // idempotent
}

// The has-more probe must run as its own statement; a probe that inherits
// the page query's ORDER BY or LIMIT clauses references the sort_value alias
// outside the select that defines it and fails.
func TestSortedProbeIsIsolated(t *testing.T) {
	impl := openTestTier(t)

	for key, score := range map[string]float64{"a": 10, "b": 20, "c": 30} {
		_, err := impl.Write("ns", key, map[string]any{"score": score}, 0)
		require.NoError(t, err)
	}

	// non-empty page, so the probe runs
	page, err := impl.ListBySorted("ns", tier.SortQuery{
		Field:     "score",
		Direction: tier.Descending,
		PageSize:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(20), page.NextCursor)
	assert.True(t, page.HasMore)

	// with a default the probe goes through the COALESCE form
	page, err = impl.ListBySorted("ns", tier.SortQuery{
		Field:     "score",
		Direction: tier.Descending,
		Default:   float64(0),
		PageSize:  2,
	})
	require.NoError(t, err)
	assert.True(t, page.HasMore)

	// the same tier value keeps serving other queries afterwards
	rank, err := impl.Rank("ns", "b", tier.RankQuery{Field: "score", Direction: tier.Descending})
	require.NoError(t, err)
	assert.Equal(t, int64(2), rank)
}

// Sort values written by one tier must page correctly when mixed numeric and
// text values are present, numbers ordering before text.
func TestSortedMixedTypes(t *testing.T) {
	impl := openTestTier(t)

	_, err := impl.Write("ns", "num", map[string]any{"f": float64(5)}, 0)
	require.NoError(t, err)
	_, err = impl.Write("ns", "txt", map[string]any{"f": "apple"}, 0)
	require.NoError(t, err)

	page, err := impl.ListBySorted("ns", tier.SortQuery{
		Field:     "f",
		Direction: tier.Ascending,
		PageSize:  10,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "num", page.Items[0].Key)
	assert.Equal(t, "txt", page.Items[1].Key)
}
