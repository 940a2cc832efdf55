package durable

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/op/go-logging"
)

var batcherLogger = logging.MustGetLogger("batcher")

var (
	batchedWrites  = metrics.NewCounter(`nkv_batcher_enqueued_total`)
	batchedFlushes = metrics.NewCounter(`nkv_batcher_flushes_total`)
	batchedDropped = metrics.NewCounter(`nkv_batcher_dropped_total`)
)

const (
	// DefaultBatchSize is the queue length that triggers an immediate flush.
	DefaultBatchSize = 500
	// DefaultBatchInterval is the periodic flush interval for partial batches.
	DefaultBatchInterval = 5 * time.Second
)

// BulkWriter is the sink side of the batcher, satisfied by *Tier.
type BulkWriter interface {
	BulkUpsert(ops []UpsertOp) error
}

// Batcher collects buffered durable writes and applies them in bulk, either
// when the queue reaches the batch size or when the flush interval elapses.
// Delivery is at-most-once: a batch that fails to apply is logged and
// dropped, not retried.
//
// Thread-safety: all methods are safe for concurrent use.
type Batcher struct {
	sink      BulkWriter
	batchSize int
	interval  time.Duration

	mu    sync.Mutex
	queue []UpsertOp

	running atomic.Bool
	stop    chan struct{}
	done    chan struct{}
}

// NewBatcher creates a stopped batcher. Non-positive parameters fall back to
// the defaults.
func NewBatcher(sink BulkWriter, batchSize int, interval time.Duration) *Batcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if interval <= 0 {
		interval = DefaultBatchInterval
	}
	return &Batcher{
		sink:      sink,
		batchSize: batchSize,
		interval:  interval,
	}
}

// Enqueue adds one write to the queue. Reaching the batch size flushes
// synchronously, so a caller returning from Enqueue after the threshold can
// rely on its write being applied (or dropped after a logged failure).
func (b *Batcher) Enqueue(op UpsertOp) {
	batchedWrites.Inc()

	b.mu.Lock()
	b.queue = append(b.queue, op)
	full := len(b.queue) >= b.batchSize
	b.mu.Unlock()

	if full {
		b.Flush()
	}
}

// Flush applies all currently queued writes as one bulk upsert.
func (b *Batcher) Flush() {
	b.mu.Lock()
	ops := b.queue
	b.queue = nil
	b.mu.Unlock()

	if len(ops) == 0 {
		return
	}

	batchedFlushes.Inc()
	if err := b.sink.BulkUpsert(ops); err != nil {
		batchedDropped.Add(len(ops))
		batcherLogger.Errorf("dropping batch of %d writes: %v", len(ops), err)
	}
}

// Len returns the number of queued writes.
func (b *Batcher) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Start launches the periodic flush loop. Idempotent.
func (b *Batcher) Start() {
	if !b.running.CompareAndSwap(false, true) {
		return
	}
	b.stop = make(chan struct{})
	b.done = make(chan struct{})
	go b.loop()
}

// Stop halts the flush loop and applies any remaining queued writes.
// Idempotent.
func (b *Batcher) Stop() {
	if !b.running.CompareAndSwap(true, false) {
		return
	}
	close(b.stop)
	<-b.done
	b.Flush()
}

// loop re-arms the timer after each flush completes, so a slow bulk upsert
// delays the next tick instead of overlapping with it.
func (b *Batcher) loop() {
	defer close(b.done)
	timer := time.NewTimer(b.interval)
	defer timer.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-timer.C:
			b.Flush()
			timer.Reset(b.interval)
		}
	}
}
