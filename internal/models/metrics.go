package models

import "time"

// SystemMetrics is a lightweight snapshot of runtime instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64                 `json:"cache_hit_ratio"`
	CacheHits                uint64                  `json:"cache_hits"`
	CacheMisses              uint64                  `json:"cache_misses"`
	RequestsTotal            uint64                  `json:"requests_total"`
	AverageRequestDurationMs float64                 `json:"average_request_duration_ms"`
	LeaveTransitions         uint64                  `json:"leave_transitions"`
	NotificationsSent        uint64                  `json:"notifications_sent"`
	NotificationsFailed      uint64                  `json:"notifications_failed"`
	Queues                   map[string]QueueMetrics `json:"queues"`
	Goroutines               int                     `json:"goroutines"`
	GeneratedAt              time.Time               `json:"generated_at"`
}

// QueueMetrics reports the counters of one background worker queue.
type QueueMetrics struct {
	Processed uint64 `json:"processed"`
	Failed    uint64 `json:"failed"`
	GaveUp    uint64 `json:"gave_up"`
	Pending   int    `json:"pending"`
}
