package engine

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/nkv/lib/auth"
	"github.com/ValentinKolb/nkv/lib/tier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func newDurableEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	cfg.DSN = filepath.Join(t.TempDir(), "nkv.db")
	e, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func wildcard() auth.PermissionSet {
	return auth.NewPermissionSet(auth.WildcardNamespace)
}

func TestPersistWithoutDurableTier(t *testing.T) {
	e := newMemoryEngine(t)

	_, err := e.Write(wildcard(), "ns", "k", map[string]any{"v": float64(1)}, 0, true, false)
	assert.Equal(t, tier.RetCUnavailable, tier.CodeOf(err))

	_, _, err = e.Read(wildcard(), "ns", "k", true)
	assert.Equal(t, tier.RetCUnavailable, tier.CodeOf(err))

	_, err = e.ListByRecency(wildcard(), "ns", 0, 10, true)
	assert.Equal(t, tier.RetCUnavailable, tier.CodeOf(err))
}

func TestForbiddenNamespace(t *testing.T) {
	e := newMemoryEngine(t)
	perms := auth.NewPermissionSet("allowed")

	_, err := e.Write(perms, "other", "k", map[string]any{"v": float64(1)}, 0, false, false)
	assert.Equal(t, tier.RetCForbidden, tier.CodeOf(err))

	_, _, err = e.Read(perms, "other", "k", false)
	assert.Equal(t, tier.RetCForbidden, tier.CodeOf(err))

	_, err = e.Write(perms, "allowed", "k", map[string]any{"v": float64(1)}, 0, false, false)
	assert.NoError(t, err)
}

// The two tiers are independent views of the same key: writing or deleting
// in one never touches the other.
func TestCrossTierIndependence(t *testing.T) {
	e := newDurableEngine(t, DefaultConfig())

	_, err := e.Write(wildcard(), "ns", "k", map[string]any{"where": "memory"}, 0, false, false)
	require.NoError(t, err)
	_, err = e.Write(wildcard(), "ns", "k", map[string]any{"where": "durable"}, 0, true, false)
	require.NoError(t, err)

	entry, found, err := e.Read(wildcard(), "ns", "k", false)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "memory", entry.Payload["where"])

	entry, found, err = e.Read(wildcard(), "ns", "k", true)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "durable", entry.Payload["where"])

	removed, err := e.Delete(wildcard(), "ns", "k", false)
	require.NoError(t, err)
	assert.True(t, removed)

	_, found, err = e.Read(wildcard(), "ns", "k", true)
	require.NoError(t, err)
	assert.True(t, found, "deleting from the memory tier must not touch the durable tier")
}

func TestBatchWriteAllOrNothing(t *testing.T) {
	e := newMemoryEngine(t)
	perms := auth.NewPermissionSet("allowed")

	err := e.BatchWrite(perms, []BatchItem{
		{Namespace: "allowed", Key: "a", Payload: map[string]any{"v": float64(1)}},
		{Namespace: "other", Key: "b", Payload: map[string]any{"v": float64(2)}},
	}, false, false)
	assert.Equal(t, tier.RetCForbidden, tier.CodeOf(err))

	// the allowed item must not have been applied either
	_, found, err := e.Read(perms, "allowed", "a", false)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBatchWriteDurable(t *testing.T) {
	e := newDurableEngine(t, DefaultConfig())

	err := e.BatchWrite(wildcard(), []BatchItem{
		{Namespace: "ns", Key: "a", Payload: map[string]any{"v": float64(1)}},
		{Namespace: "ns", Key: "b", Payload: map[string]any{"v": float64(2)}},
	}, true, false)
	require.NoError(t, err)

	page, err := e.ListByRecency(wildcard(), "ns", 0, 10, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalItems)
}

// Reaching the batch size flushes synchronously: a direct durable read
// observes the queued items before the interval timer ever fires.
func TestBufferedWriteThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BatchSize = 3
	cfg.BatchInterval = time.Hour
	e := newDurableEngine(t, cfg)

	for i := 0; i < 2; i++ {
		_, err := e.Write(wildcard(), "ns", fmt.Sprintf("k%d", i), map[string]any{"i": float64(i)}, 0, true, true)
		require.NoError(t, err)
	}
	_, found, err := e.Read(wildcard(), "ns", "k0", true)
	require.NoError(t, err)
	assert.False(t, found, "below the threshold the write is still queued")

	_, err = e.Write(wildcard(), "ns", "k2", map[string]any{"i": float64(2)}, 0, true, true)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, found, err := e.Read(wildcard(), "ns", fmt.Sprintf("k%d", i), true)
		require.NoError(t, err)
		assert.True(t, found, "threshold flush must make all queued writes visible")
	}
}

func TestBufferedBatchWriteFlush(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BatchSize = 1000
	cfg.BatchInterval = time.Hour
	e := newDurableEngine(t, cfg)

	err := e.BatchWrite(wildcard(), []BatchItem{
		{Namespace: "ns", Key: "a", Payload: map[string]any{"v": float64(1)}},
	}, true, true)
	require.NoError(t, err)

	_, found, err := e.Read(wildcard(), "ns", "a", true)
	require.NoError(t, err)
	assert.False(t, found)

	e.FlushBatcher()

	_, found, err = e.Read(wildcard(), "ns", "a", true)
	require.NoError(t, err)
	assert.True(t, found)
}

// After N concurrent writes with distinct values, exactly one of them is
// retrievable.
func TestConcurrentWritesSameKey(t *testing.T) {
	e := newMemoryEngine(t)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := e.Write(wildcard(), "ns", "contested", map[string]any{"i": float64(i)}, 0, false, false)
			if err != nil {
				t.Errorf("write %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	entry, found, err := e.Read(wildcard(), "ns", "contested", false)
	require.NoError(t, err)
	require.True(t, found)

	v, ok := entry.Payload["i"].(float64)
	require.True(t, ok)
	assert.GreaterOrEqual(t, v, float64(0))
	assert.Less(t, v, float64(32))
}

func TestEngineLifecycle(t *testing.T) {
	cfg := DefaultConfig()
	e := newDurableEngine(t, cfg)

	e.Start()

	_, err := e.Write(wildcard(), "ns", "k", map[string]any{"v": float64(1)}, 0, true, false)
	require.NoError(t, err)

	require.NoError(t, e.Close())
}
