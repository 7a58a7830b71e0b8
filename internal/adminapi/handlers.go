// Package adminapi implements the REST management API for udpforge: a
// read-only window onto a running server's health, resource usage, and
// per-group engine counters, optionally gated behind an API key.
package adminapi

import (
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/jroosing/udpforge/internal/snapshotdb"
	"github.com/jroosing/udpforge/internal/udpcore"
)

// Handler contains dependencies for admin API endpoints.
type Handler struct {
	logger    *slog.Logger
	startTime time.Time
	server    *udpcore.MainServer
	history   *snapshotdb.DB // nil if no database.path is configured
}

// NewHandler creates a Handler bound to a running server. history may be nil.
func NewHandler(server *udpcore.MainServer, history *snapshotdb.DB, logger *slog.Logger) *Handler {
	return &Handler{server: server, history: history, logger: logger, startTime: time.Now()}
}

// Health reports liveness; it never depends on the engine's internal state.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

// Stats returns system-wide CPU/memory usage plus per-group engine counters.
func (h *Handler) Stats(c *gin.Context) {
	uptime := time.Since(h.startTime)

	memStats := MemoryStats{}
	if vmStat, err := mem.VirtualMemory(); err == nil {
		memStats.TotalMB = float64(vmStat.Total) / 1024 / 1024
		memStats.FreeMB = float64(vmStat.Available) / 1024 / 1024
		memStats.UsedMB = float64(vmStat.Used) / 1024 / 1024
		memStats.UsedPercent = vmStat.UsedPercent
	}

	cpuStats := CPUStats{NumCPU: runtime.NumCPU()}
	if cpuPercent, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		cpuStats.UsedPercent = cpuPercent[0]
		cpuStats.IdlePercent = 100.0 - cpuPercent[0]
	}

	engineSnap := h.server.Metrics()
	groups := make([]GroupStatsResponse, 0, len(h.server.Groups()))
	for _, g := range h.server.Groups() {
		gs := g.Metrics()
		groups = append(groups, GroupStatsResponse{
			Index:         g.Index(),
			Name:          g.Name(),
			ThreadCount:   g.Pool().ThreadCount(),
			QueueDepth:    g.Queue().Count(),
			QueueCapacity: g.Queue().Capacity(),
			Evictions:     gs.Evictions,
			AgeDrops:      gs.AgeDrops,
			ProcessErrors: gs.ProcessErrors,
			Zombies:       gs.Zombies,
		})
	}

	c.JSON(http.StatusOK, ServerStatsResponse{
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: int64(uptime.Seconds()),
		StartTime:     h.startTime,
		CPU:           cpuStats,
		Memory:        memStats,
		Engine: EngineStatsResponse{
			PacketsRouted:  engineSnap.PacketsRouted,
			ClassifyDrops:  engineSnap.ClassifyDrops,
			ListenerErrors: engineSnap.ListenerErrors,
		},
		Groups: groups,
	})
}

// History returns the most recent recorded tick snapshots, newest first.
// Responds 503 if no history database was configured.
func (h *Handler) History(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "history database not configured"})
		return
	}

	rows, err := h.history.RecentHistory(200)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("adminapi: history query failed", "err", err)
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to read history"})
		return
	}

	out := make([]HistoryRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, HistoryRow{
			TakenAt:       r.TakenAt,
			GroupIndex:    r.GroupIndex,
			GroupName:     r.GroupName,
			ThreadCount:   r.ThreadCount,
			QueueDepth:    r.QueueDepth,
			Evictions:     r.Evictions,
			AgeDrops:      r.AgeDrops,
			ProcessErrors: r.ProcessErrors,
			Zombies:       r.Zombies,
		})
	}
	c.JSON(http.StatusOK, out)
}
