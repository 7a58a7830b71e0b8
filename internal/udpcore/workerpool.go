package udpcore

import (
	"sync"
	"time"

	"github.com/jroosing/udpforge/internal/helpers"
)

const (
	// maxTermSecs is the deadline from a cooperative-stop signal to forced
	// kill: spec-mandated 3 minutes.
	maxTermSecs = 3 * time.Minute
	// maxWaitForSecs is the grace period WaitForAll gives the pool to drain
	// at shutdown before force-killing survivors: spec-mandated 2 seconds.
	maxWaitForSecs = 2 * time.Second
)

// WorkerPool owns the set of Workers for one RequestGroup and grows/shrinks
// that set to track load, detecting and escalating stalled workers.
type WorkerPool struct {
	group *RequestGroup

	minThreads int
	maxThreads int

	maxTermSecs    time.Duration
	maxWaitForSecs time.Duration

	mu      sync.Mutex
	workers []*Worker
	nextID  int
}

func newWorkerPool(group *RequestGroup, minThreads, maxThreads int) *WorkerPool {
	if minThreads < 0 {
		minThreads = 0
	}
	if maxThreads < minThreads {
		maxThreads = minThreads
	}
	return &WorkerPool{
		group:          group,
		minThreads:     minThreads,
		maxThreads:     maxThreads,
		maxTermSecs:    maxTermSecs,
		maxWaitForSecs: maxWaitForSecs,
	}
}

// ThreadCount returns the current number of registered workers.
func (p *WorkerPool) ThreadCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

func (p *WorkerPool) register(w *Worker) {
	p.mu.Lock()
	p.workers = append(p.workers, w)
	p.mu.Unlock()
}

func (p *WorkerPool) unregister(w *Worker) {
	p.mu.Lock()
	for i, cand := range p.workers {
		if cand == w {
			p.workers = append(p.workers[:i], p.workers[i+1:]...)
			break
		}
	}
	p.mu.Unlock()
}

func (p *WorkerPool) snapshot() []*Worker {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Worker, len(p.workers))
	copy(out, p.workers)
	return out
}

// Grow creates n Workers, registers each, and starts its execution context.
func (p *WorkerPool) Grow(n int) {
	for i := 0; i < n; i++ {
		p.mu.Lock()
		p.nextID++
		id := p.nextID
		p.mu.Unlock()

		w := newWorker(id, p)
		p.register(w)
		go w.run()
	}
}

// Shrink signals n workers to cooperatively terminate and wakes exactly that
// many blocked queue waiters. Workers are not removed from the list here;
// they unregister themselves when their goroutine actually exits.
func (p *WorkerPool) Shrink(n int) {
	if n <= 0 {
		return
	}
	picked := 0
	for _, w := range p.snapshot() {
		if picked >= n {
			break
		}
		if w.terminated.Load() {
			continue
		}
		w.signalTerminate()
		picked++
	}
	if picked > 0 {
		p.group.queue.BreakWaiting(picked)
	}
}

// checkStalls asks every worker's stall checker to evaluate itself; a
// stalled worker is signaled for cooperative termination as a side effect of
// StallChecker.Check.
func (p *WorkerPool) checkStalls() {
	for _, w := range p.snapshot() {
		w.checker.Check()
	}
}

// doKill is the forced-termination path: since Go goroutines cannot be
// killed from the outside, the worker is marked killed and unregistered
// immediately. Its goroutine is abandoned (leaked) until it eventually
// unblocks on its own; this is accounted for as a zombie, per spec §4.4's
// permitted substitution for runtimes without a forced-kill primitive.
func (p *WorkerPool) doKill(w *Worker) {
	if !w.killed.CompareAndSwap(false, true) {
		return
	}
	p.unregister(w)
	p.group.metrics.incZombies()
}

// killZombies force-kills any terminated-but-not-yet-exited worker that has
// overstayed maxTermSecs since being signaled.
func (p *WorkerPool) killZombies() {
	now := time.Now()
	for _, w := range p.snapshot() {
		if !w.terminated.Load() || w.killed.Load() {
			continue
		}
		signaledAt, ok := w.signaledSince()
		if ok && now.Sub(signaledAt) > p.maxTermSecs {
			p.doKill(w)
		}
	}
}

// Tick runs one pass of the adaptive-sizing algorithm: check for stalls,
// sweep zombies, then scale the pool up or down to track load.
func (p *WorkerPool) Tick() {
	p.checkStalls()
	p.killZombies()

	workers := p.snapshot()
	total := len(workers)
	idle := 0
	for _, w := range workers {
		if w.IsIdle() {
			idle++
		}
	}
	queued := p.group.queue.Count()

	growStep := helpers.AtLeast1(total / 4)
	idleTarget := helpers.AtLeast1(total / 8)

	switch {
	case queued > 0 && idle == 0 && total < p.maxThreads:
		n := helpers.ClampInt(growStep, 0, p.maxThreads-total)
		if n > 0 {
			p.Grow(n)
		}
	case idle > idleTarget && total > p.minThreads:
		n := helpers.ClampInt(idle-idleTarget, 0, total-p.minThreads)
		if n > 0 {
			p.Shrink(n)
		}
	}
}

// TerminateAll signals every worker to cooperatively terminate and wakes all
// of them so none remain blocked on the queue.
func (p *WorkerPool) TerminateAll() {
	workers := p.snapshot()
	for _, w := range workers {
		w.signalTerminate()
	}
	if len(workers) > 0 {
		p.group.queue.BreakWaiting(len(workers))
	}
}

// WaitForAll polls until the worker list is empty, up to maxWaitForSecs; any
// survivors past that deadline are force-killed.
func (p *WorkerPool) WaitForAll() {
	deadline := time.Now().Add(p.maxWaitForSecs)
	for time.Now().Before(deadline) {
		if p.ThreadCount() == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	for _, w := range p.snapshot() {
		p.doKill(w)
	}
}
