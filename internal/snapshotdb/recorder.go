package snapshotdb

import (
	"context"
	"log/slog"
	"time"

	"github.com/jroosing/udpforge/internal/udpcore"
)

// GroupSource is the subset of MainServer a Recorder needs: the live list of
// request groups to sample each tick.
type GroupSource interface {
	Groups() []*udpcore.RequestGroup
}

// Recorder periodically samples a server's request groups and persists one
// row per group to a DB. It is started and owned by the daemon entrypoint,
// not by udpcore itself, so the core engine stays free of any storage
// dependency.
type Recorder struct {
	db       *DB
	src      GroupSource
	interval time.Duration
	logger   *slog.Logger
}

// NewRecorder builds a Recorder that samples src every interval and writes
// into db.
func NewRecorder(db *DB, src GroupSource, interval time.Duration, logger *slog.Logger) *Recorder {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{db: db, src: src, interval: interval, logger: logger}
}

// Run blocks, sampling and recording on every tick, until ctx is canceled.
func (r *Recorder) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sampleOnce()
		}
	}
}

func (r *Recorder) sampleOnce() {
	for _, g := range r.src.Groups() {
		gs := g.Metrics()
		snap := Snapshot{
			GroupIndex:    g.Index(),
			GroupName:     g.Name(),
			ThreadCount:   g.Pool().ThreadCount(),
			QueueDepth:    g.Queue().Count(),
			Evictions:     gs.Evictions,
			AgeDrops:      gs.AgeDrops,
			ProcessErrors: gs.ProcessErrors,
			Zombies:       gs.Zombies,
		}
		if err := r.db.Record(snap); err != nil {
			r.logger.Warn("snapshotdb: record failed", "group", g.Index(), "err", err)
		}
	}
}
