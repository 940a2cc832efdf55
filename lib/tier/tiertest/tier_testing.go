package tiertest

import (
	"fmt"
	"testing"
	"time"

	"github.com/ValentinKolb/nkv/lib/tier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory creates a fresh, empty tier instance for one test.
type Factory func(t *testing.T) tier.ITier

// RunTierTests runs the conformance suite against a tier implementation.
// Both tiers must pass the identical suite so clients see the same
// semantics regardless of where an entry lives.
func RunTierTests(t *testing.T, name string, factory Factory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Write&Read", func(t *testing.T) {
			testWriteRead(t, factory(t))
		})

		t.Run("Overwrite", func(t *testing.T) {
			testOverwrite(t, factory(t))
		})

		t.Run("TTL", func(t *testing.T) {
			testTTL(t, factory(t))
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory(t))
		})

		t.Run("RecencyPagination", func(t *testing.T) {
			testRecencyPagination(t, factory(t))
		})

		t.Run("SortedPagination", func(t *testing.T) {
			testSortedPagination(t, factory(t))
		})

		t.Run("SortedDefaults", func(t *testing.T) {
			testSortedDefaults(t, factory(t))
		})

		t.Run("SortedTieBoundary", func(t *testing.T) {
			testSortedTieBoundary(t, factory(t))
		})

		t.Run("Rank", func(t *testing.T) {
			testRank(t, factory(t))
		})

		t.Run("NamespaceIsolation", func(t *testing.T) {
			testNamespaceIsolation(t, factory(t))
		})

		t.Run("Validation", func(t *testing.T) {
			testValidation(t, factory(t))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func payload(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i].(string)] = kv[i+1]
	}
	return m
}

// write stores one entry and fails the test on error.
func write(t *testing.T, impl tier.ITier, ns, key string, data map[string]any) tier.Entry {
	t.Helper()
	entry, err := impl.Write(ns, key, data, 0)
	require.NoError(t, err)
	return entry
}

func keys(page tier.Page) []string {
	out := make([]string, 0, len(page.Items))
	for _, item := range page.Items {
		out = append(out, item.Key)
	}
	return out
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testWriteRead(t *testing.T, impl tier.ITier) {
	data := payload("name", "alice", "score", float64(42))
	entry := write(t, impl, "users", "alice", data)
	assert.Equal(t, "alice", entry.Key)
	assert.Positive(t, entry.WriteCursor)
	assert.Zero(t, entry.ExpireAt)

	got, found, err := impl.Read("users", "alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, data, got.Payload)
	assert.Equal(t, entry.WriteCursor, got.WriteCursor)

	_, found, err = impl.Read("users", "nobody")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = impl.Read("empty-namespace", "alice")
	require.NoError(t, err)
	assert.False(t, found)
}

func testOverwrite(t *testing.T, impl tier.ITier) {
	first := write(t, impl, "users", "alice", payload("v", float64(1)))
	time.Sleep(2 * time.Millisecond)
	second := write(t, impl, "users", "alice", payload("v", float64(2)))
	assert.Greater(t, second.WriteCursor, first.WriteCursor)

	got, found, err := impl.Read("users", "alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, float64(2), got.Payload["v"])

	// overwriting must not duplicate the entry
	page, err := impl.ListByRecency("users", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalItems)
}

func testTTL(t *testing.T, impl tier.ITier) {
	entry, err := impl.Write("sessions", "short", payload("v", float64(1)), 1)
	require.NoError(t, err)
	assert.Equal(t, entry.WriteCursor+1000, entry.ExpireAt)

	_, found, err := impl.Read("sessions", "short")
	require.NoError(t, err)
	assert.True(t, found, "entry must be readable before its TTL elapses")

	time.Sleep(1100 * time.Millisecond)

	_, found, err = impl.Read("sessions", "short")
	require.NoError(t, err)
	assert.False(t, found, "entry must be gone after its TTL elapses")

	page, err := impl.ListByRecency("sessions", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, page.TotalItems, "expired entries must not be listed")
}

func testDelete(t *testing.T, impl tier.ITier) {
	write(t, impl, "users", "alice", payload("v", float64(1)))

	removed, err := impl.Delete("users", "alice")
	require.NoError(t, err)
	assert.True(t, removed)

	_, found, err := impl.Read("users", "alice")
	require.NoError(t, err)
	assert.False(t, found)

	removed, err = impl.Delete("users", "alice")
	require.NoError(t, err)
	assert.False(t, removed, "deleting a missing entry reports false, not an error")
}

func testRecencyPagination(t *testing.T, impl tier.ITier) {
	for i := 0; i < 5; i++ {
		write(t, impl, "feed", fmt.Sprintf("post-%d", i), payload("i", float64(i)))
		time.Sleep(2 * time.Millisecond) // distinct write cursors
	}

	page, err := impl.ListByRecency("feed", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"post-4", "post-3"}, keys(page))
	assert.Equal(t, int64(5), page.TotalItems)
	assert.True(t, page.HasMore)
	require.NotNil(t, page.NextCursor)

	cursor, ok := page.NextCursor.(int64)
	require.True(t, ok, "recency cursor must be the write cursor of the last item")

	page, err = impl.ListByRecency("feed", cursor, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"post-2", "post-1"}, keys(page))
	assert.True(t, page.HasMore)

	page, err = impl.ListByRecency("feed", page.NextCursor.(int64), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"post-0"}, keys(page))
	assert.False(t, page.HasMore)
}

func testSortedPagination(t *testing.T, impl tier.ITier) {
	scores := map[string]float64{"a": 10, "b": 30, "c": 20, "d": 40}
	for key, score := range scores {
		write(t, impl, "board", key, payload("score", score))
	}

	page, err := impl.ListBySorted("board", tier.SortQuery{
		Field:     "score",
		Direction: tier.Descending,
		PageSize:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "b"}, keys(page))
	assert.Equal(t, int64(4), page.TotalItems)
	assert.True(t, page.HasMore)
	assert.Equal(t, float64(30), page.NextCursor)

	page, err = impl.ListBySorted("board", tier.SortQuery{
		Field:     "score",
		Direction: tier.Descending,
		Cursor:    page.NextCursor,
		PageSize:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, keys(page))
	assert.False(t, page.HasMore)

	// ascending order walks the same data the other way
	page, err = impl.ListBySorted("board", tier.SortQuery{
		Field:     "score",
		Direction: tier.Ascending,
		PageSize:  4,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b", "d"}, keys(page))
	assert.False(t, page.HasMore)
}

func testSortedDefaults(t *testing.T, impl tier.ITier) {
	write(t, impl, "board", "scored", payload("score", float64(50)))
	write(t, impl, "board", "unscored", payload("name", "x"))

	// without a default the entry missing the field is excluded
	page, err := impl.ListBySorted("board", tier.SortQuery{
		Field:     "score",
		Direction: tier.Descending,
		PageSize:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"scored"}, keys(page))
	assert.Equal(t, int64(2), page.TotalItems, "totals count the namespace, not the filtered set")

	// with a default it participates at the default value
	page, err = impl.ListBySorted("board", tier.SortQuery{
		Field:     "score",
		Direction: tier.Descending,
		Default:   float64(0),
		PageSize:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"scored", "unscored"}, keys(page))
}

// The sort cursor carries only the last sort value, so entries tied with the
// page boundary are unreachable by continuation. HasMore must agree with
// that: a remainder consisting only of boundary ties is not a further page.
func testSortedTieBoundary(t *testing.T, impl tier.ITier) {
	write(t, impl, "board", "a", payload("score", float64(20)))
	write(t, impl, "board", "b", payload("score", float64(20)))
	write(t, impl, "board", "c", payload("score", float64(30)))

	page, err := impl.ListBySorted("board", tier.SortQuery{
		Field:     "score",
		Direction: tier.Descending,
		PageSize:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, keys(page))
	assert.Equal(t, float64(20), page.NextCursor)
	assert.False(t, page.HasMore, "a remainder tied with the boundary is not announced")

	// the cursor skips the tied entry, matching the HasMore answer
	page, err = impl.ListBySorted("board", tier.SortQuery{
		Field:     "score",
		Direction: tier.Descending,
		Cursor:    page.NextCursor,
		PageSize:  2,
	})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasMore)
}

func testRank(t *testing.T, impl tier.ITier) {
	write(t, impl, "board", "low", payload("score", float64(10)))
	write(t, impl, "board", "mid", payload("score", float64(20)))
	write(t, impl, "board", "high", payload("score", float64(30)))

	rank, err := impl.Rank("board", "mid", tier.RankQuery{Field: "score", Direction: tier.Descending})
	require.NoError(t, err)
	assert.Equal(t, int64(2), rank)

	rank, err = impl.Rank("board", "high", tier.RankQuery{Field: "score", Direction: tier.Descending})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rank)

	rank, err = impl.Rank("board", "low", tier.RankQuery{Field: "score", Direction: tier.Ascending})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rank)

	_, err = impl.Rank("board", "nobody", tier.RankQuery{Field: "score", Direction: tier.Descending})
	assert.Equal(t, tier.RetCNotFound, tier.CodeOf(err))

	write(t, impl, "board", "unscored", payload("name", "x"))
	_, err = impl.Rank("board", "unscored", tier.RankQuery{Field: "score", Direction: tier.Descending})
	assert.Equal(t, tier.RetCFieldMissing, tier.CodeOf(err))

	// with a default the unscored entry ranks at the default value
	rank, err = impl.Rank("board", "unscored", tier.RankQuery{Field: "score", Direction: tier.Descending, Default: float64(0)})
	require.NoError(t, err)
	assert.Equal(t, int64(4), rank)
}

func testNamespaceIsolation(t *testing.T, impl tier.ITier) {
	write(t, impl, "tenant-a", "key", payload("v", float64(1)))
	write(t, impl, "tenant-b", "key", payload("v", float64(2)))

	got, found, err := impl.Read("tenant-a", "key")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, float64(1), got.Payload["v"])

	removed, err := impl.Delete("tenant-a", "key")
	require.NoError(t, err)
	assert.True(t, removed)

	_, found, err = impl.Read("tenant-b", "key")
	require.NoError(t, err)
	assert.True(t, found, "deleting in one namespace must not affect another")
}

func testValidation(t *testing.T, impl tier.ITier) {
	_, err := impl.ListByRecency("ns", 0, 0)
	assert.Equal(t, tier.RetCInvalidOperation, tier.CodeOf(err))

	_, err = impl.ListBySorted("ns", tier.SortQuery{Field: "", Direction: tier.Ascending, PageSize: 1})
	assert.Equal(t, tier.RetCInvalidOperation, tier.CodeOf(err))

	_, err = impl.ListBySorted("ns", tier.SortQuery{Field: "f", Direction: "sideways", PageSize: 1})
	assert.Equal(t, tier.RetCInvalidOperation, tier.CodeOf(err))

	_, err = impl.Rank("ns", "k", tier.RankQuery{Field: "f", Direction: "sideways"})
	assert.Equal(t, tier.RetCInvalidOperation, tier.CodeOf(err))
}
