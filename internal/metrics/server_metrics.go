// Package metrics collects server health and performance counters exposed
// through the get_info built-in: uptime, memory, goroutines, request and
// failure totals, per-command latency averages, and recent errors.
// file: internal/metrics/server_metrics.go
package metrics

import (
	"runtime"
	"sync"
	"time"
)

// ServerMetrics is a point-in-time snapshot of a dispatcher's health.
type ServerMetrics struct {
	StartTime     time.Time     `json:"start_time"`
	Uptime        time.Duration `json:"uptime"`
	GoVersion     string        `json:"go_version"`
	NumGoroutines int           `json:"num_goroutines"`

	MemoryAllocated   uint64 `json:"memory_allocated"`
	MemoryTotalAlloc  uint64 `json:"memory_total_alloc"`
	MemorySystemTotal uint64 `json:"memory_system_total"`
	MemoryGCCount     uint32 `json:"memory_gc_count"`

	ActivePeers int `json:"active_peers"`
	TotalPeers  int `json:"total_peers"`

	TotalRequests    int            `json:"total_requests"`
	FailedRequests   int            `json:"failed_requests"`
	RequestLatencies map[string]int `json:"request_latencies_ms"`

	LastErrors []ErrorInfo `json:"last_errors,omitempty"`
}

// ErrorInfo records one handler-surfaced error for the LastErrors ring buffer.
type ErrorInfo struct {
	Timestamp time.Time `json:"timestamp"`
	Command   string    `json:"command"`
	Message   string    `json:"message"`
}

// Collector accumulates ServerMetrics under a single mutex. One per Dispatcher.
type Collector struct {
	mu          sync.RWMutex
	metrics     ServerMetrics
	startTime   time.Time
	errorBuffer []ErrorInfo
	bufferSize  int
	seenPeers   map[string]bool
	activePeers map[string]bool
}

// NewCollector builds a Collector retaining up to errorBufferSize recent errors.
func NewCollector(errorBufferSize int) *Collector {
	if errorBufferSize <= 0 {
		errorBufferSize = 32
	}
	startTime := time.Now()
	return &Collector{
		metrics: ServerMetrics{
			StartTime:        startTime,
			GoVersion:        runtime.Version(),
			RequestLatencies: make(map[string]int),
		},
		startTime:   startTime,
		errorBuffer: make([]ErrorInfo, 0, errorBufferSize),
		bufferSize:  errorBufferSize,
		seenPeers:   make(map[string]bool),
		activePeers: make(map[string]bool),
	}
}

// Snapshot returns a copy of the current metrics with live fields refreshed.
func (c *Collector) Snapshot() ServerMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := c.metrics
	snap.Uptime = time.Since(c.startTime)
	snap.NumGoroutines = runtime.NumGoroutine()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	snap.MemoryAllocated = mem.Alloc
	snap.MemoryTotalAlloc = mem.TotalAlloc
	snap.MemorySystemTotal = mem.Sys
	snap.MemoryGCCount = mem.NumGC

	snap.RequestLatencies = make(map[string]int, len(c.metrics.RequestLatencies))
	for k, v := range c.metrics.RequestLatencies {
		snap.RequestLatencies[k] = v
	}
	if len(c.errorBuffer) > 0 {
		snap.LastErrors = make([]ErrorInfo, len(c.errorBuffer))
		copy(snap.LastErrors, c.errorBuffer)
	}
	return snap
}

// RecordRequest tallies one dispatched command invocation and its latency,
// keeping a running average per command name in which each new sample
// weighs half: (previous + latest) / 2.
func (c *Collector) RecordRequest(command string, latency time.Duration, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metrics.TotalRequests++
	if !success {
		c.metrics.FailedRequests++
	}
	ms := int(latency.Milliseconds())
	if existing, ok := c.metrics.RequestLatencies[command]; ok {
		c.metrics.RequestLatencies[command] = (existing + ms) / 2
	} else {
		c.metrics.RequestLatencies[command] = ms
	}
}

// RecordPeer marks peer as having been seen, counting it toward TotalPeers
// exactly once for the collector's lifetime; active tracks whether it
// currently has a request outstanding, feeding the ActivePeers gauge.
func (c *Collector) RecordPeer(peer string, active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.seenPeers[peer] {
		c.seenPeers[peer] = true
		c.metrics.TotalPeers++
	}
	if active {
		c.activePeers[peer] = true
	} else {
		delete(c.activePeers, peer)
	}
	c.metrics.ActivePeers = len(c.activePeers)
}

// RecordError appends an error to the bounded ring buffer, evicting the
// oldest entry once bufferSize is reached.
func (c *Collector) RecordError(command, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.errorBuffer) >= c.bufferSize {
		c.errorBuffer = c.errorBuffer[1:]
	}
	c.errorBuffer = append(c.errorBuffer, ErrorInfo{
		Timestamp: time.Now(),
		Command:   command,
		Message:   message,
	})
}
