package namespace

import (
	"testing"
	"time"

	"github.com/ValentinKolb/nkv/lib/tier"
)

func TestSweepRemovesEmptyNamespace(t *testing.T) {
	r := NewRegistry()
	r.GetOrCreate("empty")

	s := NewSweeper(r, 0, 0)
	removed, _ := s.SweepOnce()

	if removed != 1 {
		t.Errorf("expected 1 removed namespace, got %d", removed)
	}
	if r.Len() != 0 {
		t.Errorf("expected empty registry after sweep, got %d namespaces", r.Len())
	}
}

func TestSweepPrunesExpiredEntries(t *testing.T) {
	r := NewRegistry()
	store := r.GetOrCreate("mixed")
	store.Set("live", tier.Entry{Key: "live"}, 0)
	store.Set("dead", tier.Entry{Key: "dead"}, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	s := NewSweeper(r, 0, 0)
	removed, pruned := s.SweepOnce()

	if removed != 0 {
		t.Errorf("namespace with live entries must not be removed, got %d removals", removed)
	}
	if pruned != 1 {
		t.Errorf("expected 1 pruned namespace, got %d", pruned)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 live entry after prune, got %d", store.Len())
	}
}

func TestSweepRemovesNamespaceThatEmptied(t *testing.T) {
	r := NewRegistry()
	store := r.GetOrCreate("draining")
	store.Set("dead", tier.Entry{Key: "dead"}, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	s := NewSweeper(r, 0, 0)
	removed, _ := s.SweepOnce()

	if removed != 1 {
		t.Errorf("expected the drained namespace to be removed, got %d removals", removed)
	}
}

func TestSweeperStartStop(t *testing.T) {
	r := NewRegistry()
	r.GetOrCreate("empty")

	s := NewSweeper(r, 10*time.Millisecond, 0)
	s.Start()
	s.Start() // second Start is a no-op

	// wait for at least one background sweep
	deadline := time.After(time.Second)
	for r.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("background sweep did not run in time")
		case <-time.After(5 * time.Millisecond):
		}
	}

	s.Stop()
}
