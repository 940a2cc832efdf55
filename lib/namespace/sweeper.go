package namespace

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/op/go-logging"
)

var sweepLogger = logging.MustGetLogger("sweeper")

// Sweeper default parameters.
const (
	DefaultSweepInterval  = 5 * time.Minute
	DefaultPruneChunkSize = 256
)

// Sweeper periodically walks all namespaces, prunes expired entries and
// removes namespaces that ended up empty. It is purely a memory-reclamation
// task: the read path's lazy expiry is the correctness guarantee, and no
// caller may depend on the sweeper for visibility semantics.
//
// The sweeper is self-rescheduling: the timer is re-armed only after a sweep
// completed, so a slow sweep can never overlap itself.
type Sweeper struct {
	registry *Registry
	interval time.Duration
	chunk    int

	running atomic.Bool
	stop    chan struct{}
	done    chan struct{}
}

// NewSweeper creates a Sweeper for the given registry. Non-positive interval
// or chunk values select the defaults.
func NewSweeper(registry *Registry, interval time.Duration, chunk int) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if chunk <= 0 {
		chunk = DefaultPruneChunkSize
	}
	return &Sweeper{
		registry: registry,
		interval: interval,
		chunk:    chunk,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background sweep loop. Calling Start twice is a no-op.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Sweeper) Start() {
	if s.running.CompareAndSwap(false, true) {
		go s.loop()
	}
}

// Stop terminates the background loop and waits for it to finish. A sweeper
// cannot be restarted after it has been stopped.
//
// Thread-safety: This method is thread-safe, but must only be called once.
func (s *Sweeper) Stop() {
	if s.running.CompareAndSwap(true, false) {
		close(s.stop)
		<-s.done
	}
}

// loop is the self-rescheduling sweep loop.
// WARNING: this method should never be called directly, use Start and Stop.
func (s *Sweeper) loop() {
	defer close(s.done)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-timer.C:
			s.sweep()
			// re-arm only after the sweep completed so runs never overlap
			timer.Reset(s.interval)
		}
	}
}

// sweep runs one guarded sweep. A failure is logged and must never stop
// future sweeps.
func (s *Sweeper) sweep() {
	defer func() {
		if r := recover(); r != nil {
			sweepLogger.Errorf("sweep failed, rescheduling: %v", r)
		}
	}()
	removed, pruned := s.SweepOnce()
	if removed > 0 || pruned > 0 {
		sweepLogger.Debugf("sweep pruned %d namespace(s), removed %d empty namespace(s)", pruned, removed)
	}
}

// SweepOnce performs a single synchronous sweep over all namespaces and
// returns how many namespaces were removed and how many were pruned. Exposed
// so tests and shutdown paths can trigger a sweep deterministically.
//
// Thread-safety: This method is thread-safe; concurrent request handling may
// proceed while a sweep is running.
func (s *Sweeper) SweepOnce() (removed, pruned int) {
	for _, name := range s.registry.Names() {
		store, ok := s.registry.Get(name)
		if !ok {
			continue
		}

		// an already empty namespace needs no prune walk; the conditional
		// removal re-checks emptiness so a write racing the sweep wins
		if s.registry.RemoveIfEmpty(name) {
			removed++
			continue
		}

		store.Prune(s.chunk)
		pruned++
		if s.registry.RemoveIfEmpty(name) {
			removed++
		}

		// yield between namespaces
		runtime.Gosched()
	}
	return removed, pruned
}
