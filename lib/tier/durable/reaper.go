package durable

import (
	"sync/atomic"
	"time"

	"github.com/op/go-logging"
)

var reaperLogger = logging.MustGetLogger("reaper")

// DefaultReapInterval is the fallback interval between reaper runs.
const DefaultReapInterval = 1 * time.Minute

// Reaper periodically deletes expired documents. Expiry itself is enforced
// by the live() filter on every query, so the reaper only reclaims space.
//
// Thread-safety: all methods are safe for concurrent use.
type Reaper struct {
	tier     *Tier
	interval time.Duration

	running atomic.Bool
	stop    chan struct{}
	done    chan struct{}
}

// NewReaper creates a stopped reaper. A non-positive interval falls back to
// the default.
func NewReaper(t *Tier, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	return &Reaper{tier: t, interval: interval}
}

// Start launches the background reap loop. Idempotent.
func (r *Reaper) Start() {
	if !r.running.CompareAndSwap(false, true) {
		return
	}
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go r.loop()
}

// Stop halts the background loop and waits for a running pass to finish.
// Idempotent.
func (r *Reaper) Stop() {
	if !r.running.CompareAndSwap(true, false) {
		return
	}
	close(r.stop)
	<-r.done
}

// ReapOnce deletes all documents past their expiry and returns how many rows
// were removed.
func (r *Reaper) ReapOnce() (int64, error) {
	res := r.tier.db.
		Where("expire_at > 0 AND expire_at <= ?", time.Now().UnixMilli()).
		Delete(&Document{})
	return res.RowsAffected, res.Error
}

func (r *Reaper) loop() {
	defer close(r.done)
	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-timer.C:
			if removed, err := r.ReapOnce(); err != nil {
				reaperLogger.Errorf("reap pass failed: %v", err)
			} else if removed > 0 {
				reaperLogger.Debugf("reaped %d expired documents", removed)
			}
			timer.Reset(r.interval)
		}
	}
}
