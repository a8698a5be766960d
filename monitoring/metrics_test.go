package monitoring

import (
	"testing"
	"time"
)

func TestCollectorSnapshot(t *testing.T) {
	c := NewCollector()
	c.RecordRequest(10 * time.Millisecond)
	c.RecordRequest(20 * time.Millisecond)
	c.RecordPredictions(3)
	c.RecordValidationReject()
	c.RecordModelError()
	c.RecordCacheHit()

	stats := c.Snapshot()
	if stats.Requests != 2 {
		t.Fatalf("expected 2 requests, got %d", stats.Requests)
	}
	if stats.Predictions != 3 {
		t.Fatalf("expected 3 predictions, got %d", stats.Predictions)
	}
	if stats.ValidationRejects != 1 || stats.ModelErrors != 1 || stats.CacheHits != 1 {
		t.Fatalf("unexpected counters: %+v", stats)
	}
	if stats.AvgLatencyMs < 10 || stats.AvgLatencyMs > 20 {
		t.Fatalf("unexpected latency: %v", stats.AvgLatencyMs)
	}
}

func TestCollectorBoundedHistory(t *testing.T) {
	c := NewCollector()
	for i := 0; i < maxLatencySamples+100; i++ {
		c.RecordRequest(time.Millisecond)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.latencies) != maxLatencySamples {
		t.Fatalf("expected bounded history, got %d", len(c.latencies))
	}
}
