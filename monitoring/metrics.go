// Package monitoring tracks service counters and streams them to
// connected dashboards.
package monitoring

import (
	"sync"
	"time"
)

// Stats is one point-in-time snapshot of the service counters.
type Stats struct {
	Requests          int64         `json:"requests"`
	Predictions       int64         `json:"predictions"`
	ValidationRejects int64         `json:"validation_rejects"`
	ModelErrors       int64         `json:"model_errors"`
	CacheHits         int64         `json:"cache_hits"`
	AvgLatencyMs      float64       `json:"avg_latency_ms"`
	Uptime            time.Duration `json:"uptime"`
	Timestamp         time.Time     `json:"timestamp"`
}

// Collector accumulates counters under a single lock. Latency history is
// bounded so the collector never grows with traffic.
type Collector struct {
	mu sync.RWMutex

	requests          int64
	predictions       int64
	validationRejects int64
	modelErrors       int64
	cacheHits         int64
	latencies         []time.Duration
	startTime         time.Time
}

const maxLatencySamples = 1000

func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

var (
	defaultCollector *Collector
	defaultOnce      sync.Once
)

// Default returns the process-wide collector.
func Default() *Collector {
	defaultOnce.Do(func() {
		defaultCollector = NewCollector()
	})
	return defaultCollector
}

func (c *Collector) RecordRequest(latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests++
	c.latencies = append(c.latencies, latency)
	if len(c.latencies) > maxLatencySamples {
		c.latencies = c.latencies[len(c.latencies)-maxLatencySamples:]
	}
}

func (c *Collector) RecordPredictions(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.predictions += int64(n)
}

func (c *Collector) RecordValidationReject() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.validationRejects++
}

func (c *Collector) RecordModelError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modelErrors++
}

func (c *Collector) RecordCacheHit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheHits++
}

// Snapshot copies the current counters.
func (c *Collector) Snapshot() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var avgMs float64
	if len(c.latencies) > 0 {
		var total time.Duration
		for _, l := range c.latencies {
			total += l
		}
		avgMs = float64(total.Milliseconds()) / float64(len(c.latencies))
	}

	return Stats{
		Requests:          c.requests,
		Predictions:       c.predictions,
		ValidationRejects: c.validationRejects,
		ModelErrors:       c.modelErrors,
		CacheHits:         c.cacheHits,
		AvgLatencyMs:      avgMs,
		Uptime:            time.Since(c.startTime),
		Timestamp:         time.Now(),
	}
}
