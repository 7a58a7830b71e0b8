package udpcore

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorker_IdleWhenNotProcessing(t *testing.T) {
	g := newTestGroup(t, GroupConfig{Capacity: 10, EffectiveWait: time.Minute, MinThreads: 0, MaxThreads: 4})
	w := newWorker(1, g.pool)
	assert.True(t, w.IsIdle())

	release := w.checker.Acquire()
	assert.False(t, w.IsIdle())
	release()
	assert.True(t, w.IsIdle())
}

func TestWorker_SignalTerminateIsIdempotent(t *testing.T) {
	g := newTestGroup(t, GroupConfig{Capacity: 10, EffectiveWait: time.Minute, MinThreads: 0, MaxThreads: 4})
	w := newWorker(1, g.pool)

	w.signalTerminate()
	first, _ := w.signaledSince()
	time.Sleep(5 * time.Millisecond)
	w.signalTerminate()
	second, _ := w.signaledSince()

	assert.Equal(t, first, second)
	assert.True(t, w.terminated.Load())
}

func TestWorker_RunProcessesThenExitsOnTerminate(t *testing.T) {
	g := newTestGroup(t, GroupConfig{Capacity: 10, EffectiveWait: time.Minute, MinThreads: 0, MaxThreads: 4})

	var processed atomic.Int32
	g.srv.process = func(w *Worker, p *Packet) error {
		processed.Add(1)
		return nil
	}

	w := newWorker(1, g.pool)
	g.pool.register(w)

	done := make(chan struct{})
	go func() {
		w.run()
		close(done)
	}()

	g.queue.Add(testPacket(t, "hi"))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), processed.Load())

	w.signalTerminate()
	g.queue.BreakWaiting(1)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not exit after signalTerminate")
	}
	assert.Equal(t, 0, g.pool.ThreadCount())
}

func TestWorker_InvokeProcessRecoversPanic(t *testing.T) {
	g := newTestGroup(t, GroupConfig{Capacity: 10, EffectiveWait: time.Minute, MinThreads: 0, MaxThreads: 4})
	g.srv.process = func(w *Worker, p *Packet) error {
		panic("boom")
	}

	w := newWorker(1, g.pool)
	require.NotPanics(t, func() {
		w.invokeProcess(testPacket(t, "x"))
	})
	assert.Equal(t, uint64(1), g.metrics.Snapshot().ProcessErrors)
}

func TestWorker_InvokeProcessCountsReturnedError(t *testing.T) {
	g := newTestGroup(t, GroupConfig{Capacity: 10, EffectiveWait: time.Minute, MinThreads: 0, MaxThreads: 4})
	g.srv.process = func(w *Worker, p *Packet) error {
		return errors.New("nope")
	}

	w := newWorker(1, g.pool)
	w.invokeProcess(testPacket(t, "x"))
	assert.Equal(t, uint64(1), g.metrics.Snapshot().ProcessErrors)
}
