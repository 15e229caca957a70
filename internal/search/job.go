package search

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats summarises a finished (or cancelled) job.
type Stats struct {
	Visited   int64
	Matched   int64
	Skipped   int64
	Cancelled bool
	Elapsed   time.Duration
}

type counters struct {
	visited atomic.Int64
	matched atomic.Int64
	skipped atomic.Int64
}

// Job is a handle to a running search.
type Job struct {
	ID string

	batches   chan []Result
	done      chan struct{}
	settled   chan struct{}
	cancel    func()
	cancelled atomic.Bool
	counters  counters

	// deliverMu is held by deliver from the cancelled check until onBatch
	// returns. inBatch is set while onBatch runs so that a Cancel issued
	// from the callback itself does not wait on deliverMu.
	deliverMu sync.Mutex
	inBatch   atomic.Bool

	mu      sync.Mutex
	elapsed time.Duration
	stopped bool
}

// Batches streams result batches. The channel is closed when the job ends.
func (j *Job) Batches() <-chan []Result { return j.batches }

// Done is closed after the job ends and Batches has been closed.
func (j *Job) Done() <-chan struct{} { return j.done }

// Cancel stops the job. It is safe to call more than once and from any
// goroutine, including from inside an onBatch callback. Once Cancel returns
// no further onBatch call starts.
func (j *Job) Cancel() {
	j.markCancelled()
	if !j.inBatch.Load() {
		// wait out a delivery that passed its check before markCancelled
		j.deliverMu.Lock()
		j.deliverMu.Unlock() //nolint:staticcheck
	}
	j.cancel()
}

func (j *Job) deliver(batch []Result, onBatch func([]Result)) {
	j.deliverMu.Lock()
	defer j.deliverMu.Unlock()
	if j.cancelled.Load() || onBatch == nil {
		return
	}
	j.inBatch.Store(true)
	defer j.inBatch.Store(false)
	onBatch(batch)
}

func (j *Job) markCancelled() { j.cancelled.Store(true) }

func (j *Job) Cancelled() bool { return j.cancelled.Load() }

// Wait blocks until the job ends. With Start the caller must keep reading
// Batches; with Search, Wait also waits for onComplete to return.
func (j *Job) Wait() Stats {
	<-j.settled
	return j.Stats()
}

func (j *Job) Stats() Stats {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Stats{
		Visited:   j.counters.visited.Load(),
		Matched:   j.counters.matched.Load(),
		Skipped:   j.counters.skipped.Load(),
		Cancelled: j.stopped || j.cancelled.Load(),
		Elapsed:   j.elapsed,
	}
}

func (j *Job) finish(elapsed time.Duration, interrupted bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.elapsed = elapsed
	j.stopped = interrupted
}
