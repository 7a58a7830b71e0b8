package udpcore

import (
	"sync"
	"sync/atomic"
	"time"
)

// Worker is a long-lived execution context that drains one RequestGroup's
// queue and invokes the server's process callback for each packet. It never
// exits because user code failed; it exits only after it has been signaled
// to terminate cooperatively and its queue next hands it a nil (break)
// wake-up.
type Worker struct {
	id      int
	pool    *WorkerPool
	checker *StallChecker

	terminated atomic.Bool
	killed     atomic.Bool

	mu         sync.Mutex
	signaledAt time.Time
}

func newWorker(id int, pool *WorkerPool) *Worker {
	w := &Worker{id: id, pool: pool}
	w.checker = newStallChecker(w, pool.group.workerStallTimeout)
	return w
}

// IsIdle reports whether the worker is currently blocked waiting for work
// rather than inside a processing region.
func (w *Worker) IsIdle() bool {
	return !w.checker.Started()
}

// signalTerminate cooperatively asks the worker to exit at its next queue
// wake-up. Idempotent: only the first call records the signal time, which
// anchors the MAX_TERM_SECS forced-kill deadline. Reports whether this call
// was the one that transitioned the worker to terminated, so callers that
// also need to reserve a wake-up token do so exactly once.
func (w *Worker) signalTerminate() bool {
	if w.terminated.CompareAndSwap(false, true) {
		w.mu.Lock()
		w.signaledAt = time.Now()
		w.mu.Unlock()
		return true
	}
	return false
}

func (w *Worker) signaledSince() (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.signaledAt, !w.signaledAt.IsZero()
}

// run is the worker's main loop (spec §4.4 steps 1-6). It must be started as
// its own goroutine by WorkerPool.Grow.
func (w *Worker) run() {
	defer w.pool.unregister(w)

	for {
		pkt := w.pool.group.queue.Extract()
		if pkt == nil {
			if w.terminated.Load() {
				return
			}
			continue
		}

		release := w.checker.Acquire()
		w.invokeProcess(pkt)
		release()
	}
}

// invokeProcess calls the server's process callback, isolating both panics
// and returned errors to this one packet; the worker loop always continues.
func (w *Worker) invokeProcess(pkt *Packet) {
	group := w.pool.group
	server := group.srv
	defer func() {
		if r := recover(); r != nil {
			group.metrics.incProcessErrors()
			if server.logger != nil {
				server.logger.Error("worker: process panic", "group", group.index, "panic", r)
			}
		}
	}()

	if server.process == nil {
		return
	}
	if err := server.process(w, pkt); err != nil {
		group.metrics.incProcessErrors()
		if server.logger != nil {
			server.logger.Warn("worker: process error", "group", group.index, "err", err)
		}
	}
}
