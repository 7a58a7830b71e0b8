package adminapi

import "time"

// StatusResponse is the /healthz response body.
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is returned for any 4xx/5xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MemoryStats mirrors a point-in-time read of system memory.
type MemoryStats struct {
	TotalMB     float64 `json:"total_mb"`
	FreeMB      float64 `json:"free_mb"`
	UsedMB      float64 `json:"used_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// CPUStats mirrors a point-in-time read of system CPU usage.
type CPUStats struct {
	NumCPU      int     `json:"num_cpu"`
	UsedPercent float64 `json:"used_percent"`
	IdlePercent float64 `json:"idle_percent"`
}

// GroupStatsResponse reports one request group's live state.
type GroupStatsResponse struct {
	Index         int    `json:"index"`
	Name          string `json:"name"`
	ThreadCount   int    `json:"thread_count"`
	QueueDepth    int    `json:"queue_depth"`
	QueueCapacity int    `json:"queue_capacity"`
	Evictions     uint64 `json:"evictions"`
	AgeDrops      uint64 `json:"age_drops"`
	ProcessErrors uint64 `json:"process_errors"`
	Zombies       uint64 `json:"zombies"`
}

// EngineStatsResponse reports the server-wide counters.
type EngineStatsResponse struct {
	PacketsRouted  uint64 `json:"packets_routed"`
	ClassifyDrops  uint64 `json:"classify_drops"`
	ListenerErrors uint64 `json:"listener_errors"`
}

// ServerStatsResponse is the /stats response body.
type ServerStatsResponse struct {
	Uptime        string               `json:"uptime"`
	UptimeSeconds int64                `json:"uptime_seconds"`
	StartTime     time.Time            `json:"start_time"`
	CPU           CPUStats             `json:"cpu"`
	Memory        MemoryStats          `json:"memory"`
	Engine        EngineStatsResponse  `json:"engine"`
	Groups        []GroupStatsResponse `json:"groups"`
}

// HistoryRow is one persisted tick snapshot, as returned by /history.
type HistoryRow struct {
	TakenAt       time.Time `json:"taken_at"`
	GroupIndex    int       `json:"group_index"`
	GroupName     string    `json:"group_name"`
	ThreadCount   int       `json:"thread_count"`
	QueueDepth    int       `json:"queue_depth"`
	Evictions     uint64    `json:"evictions"`
	AgeDrops      uint64    `json:"age_drops"`
	ProcessErrors uint64    `json:"process_errors"`
	Zombies       uint64    `json:"zombies"`
}
