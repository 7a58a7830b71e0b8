package udpcore

import (
	"fmt"
	"time"
)

// GroupConfig configures one RequestGroup.
type GroupConfig struct {
	// Name labels the group for metrics and admin reporting; optional.
	Name string
	// Capacity bounds the number of packets the group's queue may hold.
	Capacity int
	// EffectiveWait is the maximum age a packet may reach before it is
	// dropped at extraction time.
	EffectiveWait time.Duration
	// MinThreads/MaxThreads bound the group's worker pool size.
	MinThreads int
	MaxThreads int
	// WorkerStallTimeout is the per-worker processing budget; 0 disables
	// stall detection for this group.
	WorkerStallTimeout time.Duration
}

// RequestGroup pairs one RequestQueue with one WorkerPool and carries the
// group's index within its MainServer. It is a pure composite: dispatching a
// packet to a group is routing it to that group's queue.
type RequestGroup struct {
	srv   *MainServer
	index int

	cfg     GroupConfig
	queue   *RequestQueue
	pool    *WorkerPool
	metrics Metrics

	workerStallTimeout time.Duration
}

func newRequestGroup(srv *MainServer, index int, cfg GroupConfig) *RequestGroup {
	g := &RequestGroup{srv: srv, index: index, cfg: cfg, workerStallTimeout: cfg.WorkerStallTimeout}
	g.queue = newRequestQueue(g, cfg.Capacity, cfg.EffectiveWait)
	g.pool = newWorkerPool(g, cfg.MinThreads, cfg.MaxThreads)
	return g
}

// Index returns this group's zero-based position in its MainServer.
func (g *RequestGroup) Index() int { return g.index }

// Queue returns the group's bounded request queue.
func (g *RequestGroup) Queue() *RequestQueue { return g.queue }

// Pool returns the group's worker pool.
func (g *RequestGroup) Pool() *WorkerPool { return g.pool }

// Dispatch routes a packet to this group's queue.
func (g *RequestGroup) Dispatch(p *Packet) {
	g.queue.Add(p)
}

// Name returns this group's configured name, defaulting to "group-<index>".
func (g *RequestGroup) Name() string {
	if g.cfg.Name != "" {
		return g.cfg.Name
	}
	return fmt.Sprintf("group-%d", g.index)
}

// Metrics returns a snapshot of this group's own counters (evictions,
// age-drops, process errors, zombies). Server-level counters (classify
// drops, packets routed, listener errors) live on MainServer.Metrics.
func (g *RequestGroup) Metrics() MetricsSnapshot { return g.metrics.Snapshot() }

func (g *RequestGroup) server() *MainServer { return g.srv }
