package udpcore

import "sync/atomic"

// Metrics collects counters for the engine's non-fatal error taxonomy (spec
// §7): all of these are absorbed inside the pipeline and exposed only here
// and via logs, never returned to a caller. Safe for concurrent use.
type Metrics struct {
	evictions      atomic.Uint64
	ageDrops       atomic.Uint64
	classifyDrops  atomic.Uint64
	processErrors  atomic.Uint64
	zombies        atomic.Uint64
	packetsRouted  atomic.Uint64
	listenerErrors atomic.Uint64
}

func (m *Metrics) incEvictions()      { m.evictions.Add(1) }
func (m *Metrics) incAgeDrops()       { m.ageDrops.Add(1) }
func (m *Metrics) incClassifyDrops()  { m.classifyDrops.Add(1) }
func (m *Metrics) incProcessErrors()  { m.processErrors.Add(1) }
func (m *Metrics) incZombies()        { m.zombies.Add(1) }
func (m *Metrics) incPacketsRouted()  { m.packetsRouted.Add(1) }
func (m *Metrics) incListenerErrors() { m.listenerErrors.Add(1) }

// MetricsSnapshot is a point-in-time read of Metrics.
type MetricsSnapshot struct {
	Evictions      uint64
	AgeDrops       uint64
	ClassifyDrops  uint64
	ProcessErrors  uint64
	Zombies        uint64
	PacketsRouted  uint64
	ListenerErrors uint64
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Evictions:      m.evictions.Load(),
		AgeDrops:       m.ageDrops.Load(),
		ClassifyDrops:  m.classifyDrops.Load(),
		ProcessErrors:  m.processErrors.Load(),
		Zombies:        m.zombies.Load(),
		PacketsRouted:  m.packetsRouted.Load(),
		ListenerErrors: m.listenerErrors.Load(),
	}
}
