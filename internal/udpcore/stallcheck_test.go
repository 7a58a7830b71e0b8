package udpcore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStallChecker_NotStalledWhenIdle(t *testing.T) {
	g := newTestGroup(t, GroupConfig{Capacity: 10, EffectiveWait: time.Minute, MinThreads: 0, MaxThreads: 4})
	w := newWorker(1, g.pool)
	assert.False(t, w.checker.Check())
}

func TestStallChecker_DetectsStallAndSignals(t *testing.T) {
	g := newTestGroup(t, GroupConfig{Capacity: 10, EffectiveWait: time.Minute, MinThreads: 0, MaxThreads: 4, WorkerStallTimeout: 5 * time.Millisecond})
	w := newWorker(1, g.pool)

	release := w.checker.Acquire()
	defer release()

	time.Sleep(20 * time.Millisecond)
	assert.True(t, w.checker.Check())
	assert.True(t, w.terminated.Load())
}

func TestStallChecker_ZeroTimeoutNeverStalls(t *testing.T) {
	g := newTestGroup(t, GroupConfig{Capacity: 10, EffectiveWait: time.Minute, MinThreads: 0, MaxThreads: 4})
	w := newWorker(1, g.pool)

	release := w.checker.Acquire()
	defer release()

	time.Sleep(10 * time.Millisecond)
	assert.False(t, w.checker.Check())
}

func TestStallChecker_StartedTracksAcquireRelease(t *testing.T) {
	g := newTestGroup(t, GroupConfig{Capacity: 10, EffectiveWait: time.Minute, MinThreads: 0, MaxThreads: 4})
	w := newWorker(1, g.pool)
	assert.False(t, w.checker.Started())

	release := w.checker.Acquire()
	assert.True(t, w.checker.Started())

	release()
	assert.False(t, w.checker.Started())
}

func TestStallChecker_RepeatedChecksReserveOnlyOneWakeToken(t *testing.T) {
	g := newTestGroup(t, GroupConfig{Capacity: 10, EffectiveWait: time.Minute, MinThreads: 0, MaxThreads: 4, WorkerStallTimeout: 5 * time.Millisecond})
	w := newWorker(1, g.pool)

	release := w.checker.Acquire()
	defer release()
	time.Sleep(20 * time.Millisecond)

	assert.True(t, w.checker.Check())
	assert.True(t, w.checker.Check())
	assert.True(t, w.checker.Check())

	// Only one BreakWaiting token should have been reserved across all three
	// Check() calls: a blocked Extract should unblock exactly once.
	unblocked := 0
	done := make(chan struct{})
	go func() {
		g.queue.Extract()
		unblocked++
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(50 * time.Millisecond):
		t.Fatal("Extract never woke up after a single detected stall")
	}
	assert.Equal(t, 1, unblocked)

	g.queue.sem.mu.Lock()
	remaining := g.queue.sem.count
	g.queue.sem.mu.Unlock()
	assert.Equal(t, 0, remaining, "repeated Check() calls must not post extra wake tokens")
}

// TestStallChecker_StallThenRecoverStillWakesQueue exercises the "worker
// stalls, its slow process() call eventually returns on its own rather than
// blocking forever" path: the worker re-enters Extract with terminated
// already set, and must still be able to exit via the reserved BreakWaiting
// token rather than lingering as an unreachable zombie.
func TestStallChecker_StallThenRecoverStillWakesQueue(t *testing.T) {
	g := newTestGroup(t, GroupConfig{Capacity: 10, EffectiveWait: time.Minute, MinThreads: 0, MaxThreads: 4, WorkerStallTimeout: 5 * time.Millisecond})
	w := newWorker(1, g.pool)
	g.pool.register(w)

	done := make(chan struct{})
	go func() {
		w.run()
		close(done)
	}()

	release := w.checker.Acquire()
	time.Sleep(20 * time.Millisecond)
	require.True(t, w.checker.Check())
	release() // the slow process() call finally returns

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("worker never exited after stall detection recovered")
	}
}
