package namespace

import (
	"sync"
	"testing"

	"github.com/ValentinKolb/nkv/lib/tier"
)

func TestGetOrCreateIdempotent(t *testing.T) {
	r := NewRegistry()

	a := r.GetOrCreate("leaderboard")
	b := r.GetOrCreate("leaderboard")

	if a != b {
		t.Fatal("expected the same store instance for repeated GetOrCreate")
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 namespace, got %d", r.Len())
	}
}

func TestGetWithoutCreate(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Get("absent"); ok {
		t.Error("Get must not create a namespace")
	}
	if r.Len() != 0 {
		t.Errorf("expected empty registry, got %d namespaces", r.Len())
	}
}

func TestGetOrCreateRace(t *testing.T) {
	r := NewRegistry()

	const goroutines = 32
	stores := make([]*Store, goroutines)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(g int) {
			defer wg.Done()
			stores[g] = r.GetOrCreate("contended")
		}(g)
	}
	wg.Wait()

	for g := 1; g < goroutines; g++ {
		if stores[g] != stores[0] {
			t.Fatal("concurrent GetOrCreate produced divergent stores")
		}
	}
}

func TestRemove(t *testing.T) {
	r := NewRegistry()

	store := r.GetOrCreate("sessions")
	store.Set("k", tier.Entry{Key: "k"}, 0)

	if !r.Remove("sessions") {
		t.Error("expected Remove to report the namespace as present")
	}
	if _, ok := r.Get("sessions"); ok {
		t.Error("expected namespace to be gone after Remove")
	}

	// re-creation yields a fresh, empty store
	fresh := r.GetOrCreate("sessions")
	if fresh.Len() != 0 {
		t.Error("expected a fresh store after re-creation")
	}
}

func TestRemoveIfEmptyKeepsRepopulatedNamespace(t *testing.T) {
	r := NewRegistry()

	store := r.GetOrCreate("sessions")
	store.Set("k", tier.Entry{Key: "k"}, 0)

	// a namespace that gained an entry between the sweep's snapshot and the
	// removal must survive
	if r.RemoveIfEmpty("sessions") {
		t.Error("expected RemoveIfEmpty to keep a non-empty namespace")
	}
	if _, ok := r.Get("sessions"); !ok {
		t.Fatal("expected namespace to still be registered")
	}

	store.Delete("k")
	if !r.RemoveIfEmpty("sessions") {
		t.Error("expected RemoveIfEmpty to drop the emptied namespace")
	}
	if _, ok := r.Get("sessions"); ok {
		t.Error("expected namespace to be gone after removal")
	}
}
