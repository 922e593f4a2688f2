package handlers

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/magda-harmony/internal/metrics"
)

// MetricsHandler serves a JSON summary of the process and of solve traffic.
// The Prometheus exposition lives on /metrics.
type MetricsHandler struct {
	startTime time.Time
	version   string
	api       map[string]interface{}
	collector *metrics.Collector
}

func NewMetricsHandler(version string, api map[string]interface{}, collector *metrics.Collector) *MetricsHandler {
	return &MetricsHandler{
		startTime: time.Now(),
		version:   version,
		api:       api,
		collector: collector,
	}
}

const (
	secondsPerMinute = 60
	secondsPerHour   = 3600
	bytesToMB        = 1024 * 1024
)

// formatUptime formats the uptime duration with seconds rounded to 2 decimal places
func formatUptime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % secondsPerMinute
	seconds := d.Seconds() - float64(hours*secondsPerHour) - float64(minutes*secondsPerMinute)

	if hours > 0 {
		return fmt.Sprintf("%dh%dm%.2fs", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm%.2fs", minutes, seconds)
	}
	return fmt.Sprintf("%.2fs", seconds)
}

type MetricsResponse struct {
	Status    string                 `json:"status"`
	Uptime    string                 `json:"uptime"`
	Timestamp string                 `json:"timestamp"`
	Version   string                 `json:"version"`
	StartTime string                 `json:"start_time"`
	System    SystemMetrics          `json:"system"`
	Solves    SolveMetrics           `json:"solves"`
	API       map[string]interface{} `json:"api"`
}

type SystemMetrics struct {
	GoVersion    string `json:"go_version"`
	NumCPU       int    `json:"num_cpu"`
	NumGoroutine int    `json:"num_goroutine"`
	MemAllocMB   uint64 `json:"mem_alloc_mb"`
	MemTotalMB   uint64 `json:"mem_total_mb"`
	NumGC        uint32 `json:"num_gc"`
}

// SolveMetrics counts calls per kind ("harmonize", "voicelead", "arrange")
// and outcome ("ok", "invalid", "error").
type SolveMetrics struct {
	Total  float64                       `json:"total"`
	ByKind map[string]map[string]float64 `json:"by_kind"`
}

func (h *MetricsHandler) solveMetrics() SolveMetrics {
	out := SolveMetrics{ByKind: map[string]map[string]float64{}}
	if h.collector == nil {
		return out
	}
	totals, err := h.collector.Totals()
	if err != nil {
		return out
	}
	for _, outcomes := range totals {
		for _, n := range outcomes {
			out.Total += n
		}
	}
	out.ByKind = totals
	return out
}

func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	c.JSON(http.StatusOK, MetricsResponse{
		Status:    "healthy",
		Uptime:    formatUptime(time.Since(h.startTime)),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
		StartTime: h.startTime.UTC().Format(time.RFC3339),
		System: SystemMetrics{
			GoVersion:    runtime.Version(),
			NumCPU:       runtime.NumCPU(),
			NumGoroutine: runtime.NumGoroutine(),
			MemAllocMB:   m.Alloc / bytesToMB,
			MemTotalMB:   m.TotalAlloc / bytesToMB,
			NumGC:        m.NumGC,
		},
		Solves: h.solveMetrics(),
		API:    h.api,
	})
}
