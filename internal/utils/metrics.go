package utils

import (
	"sync"
	"time"
)

// Tracks performance metrics across the system
type MetricsCollector struct {
	mu           sync.RWMutex
	requestCount uint64
	errorCount   uint64

	// Maps operation name to list of latencies in nanoseconds
	operationTimes map[string][]int64

	systemStartTime time.Time
}

// OperationStats is an aggregated view of one operation's latencies.
type OperationStats struct {
	Count      int           `json:"count"`
	AverageLat time.Duration `json:"averageLatency"`
	MaxLat     time.Duration `json:"maxLatency"`
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		operationTimes:  make(map[string][]int64),
		systemStartTime: time.Now(),
	}
}

func (mc *MetricsCollector) IncrementRequests() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.requestCount++
}

func (mc *MetricsCollector) IncrementErrors() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.errorCount++
}

func (mc *MetricsCollector) AddOperationLatency(operationName string, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, exists := mc.operationTimes[operationName]; !exists {
		mc.operationTimes[operationName] = make([]int64, 0)
	}
	mc.operationTimes[operationName] = append(
		mc.operationTimes[operationName],
		duration.Nanoseconds(),
	)
}

// Snapshot aggregates the recorded latencies per operation, for the health
// endpoint and the simulator's final report.
func (mc *MetricsCollector) Snapshot() map[string]OperationStats {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	stats := make(map[string]OperationStats, len(mc.operationTimes))
	for op, latencies := range mc.operationTimes {
		if len(latencies) == 0 {
			continue
		}
		var sum, max int64
		for _, l := range latencies {
			sum += l
			if l > max {
				max = l
			}
		}
		stats[op] = OperationStats{
			Count:      len(latencies),
			AverageLat: time.Duration(sum / int64(len(latencies))),
			MaxLat:     time.Duration(max),
		}
	}
	return stats
}

// Uptime reports how long the collector has been alive.
func (mc *MetricsCollector) Uptime() time.Duration {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return time.Since(mc.systemStartTime)
}
