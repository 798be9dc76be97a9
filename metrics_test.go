package goSeal

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledRecordsNothing(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricLoginSuccess)
	m.Observe(MetricVerifyLatency, time.Millisecond)
	if m.Value(MetricLoginSuccess) != 0 {
		t.Fatal("disabled metrics must not count")
	}
	if s := m.Snapshot(); len(s.Counters) != 0 || len(s.Histograms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", s)
	}

	var nilMetrics *Metrics
	nilMetrics.Inc(MetricLoginSuccess)
	nilMetrics.Observe(MetricVerifyLatency, time.Second)
}

func TestMetricsConcurrentInc(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.Inc(MetricBearerAccepted)
			}
		}()
	}
	wg.Wait()
	if got := m.Value(MetricBearerAccepted); got != 8000 {
		t.Fatalf("expected 8000, got %d", got)
	}
}

func TestBucketIndex(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want int
	}{
		{0, 0},
		{50 * time.Microsecond, 0},
		{51 * time.Microsecond, 1},
		{300 * time.Microsecond, 3},
		{time.Millisecond, 4},
		{2 * time.Millisecond, 5},
		{25 * time.Millisecond, 6},
		{time.Second, 7},
	}
	for _, tt := range tests {
		if got := bucketIndex(tt.d); got != tt.want {
			t.Fatalf("bucketIndex(%v) = %d, want %d", tt.d, got, tt.want)
		}
	}
}

func TestVerifyLatencyHistogram(t *testing.T) {
	te := newTestEngine(t, func(c *Config, _ *Builder) {
		c.Metrics.EnableLatencyHistograms = true
	})
	token := te.registerAndLogin(t, "alice")

	for i := 0; i < 3; i++ {
		if _, err := te.Authenticate(context.Background(), token); err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
	}

	buckets := te.MetricsSnapshot().Histograms[MetricVerifyLatency]
	if len(buckets) != histBucketCount {
		t.Fatalf("expected %d buckets, got %d", histBucketCount, len(buckets))
	}
	var total uint64
	for _, b := range buckets {
		total += b
	}
	if total != 3 {
		t.Fatalf("expected 3 observations, got %d", total)
	}
	if _, ok := te.MetricsSnapshot().Counters[MetricVerifyLatency]; ok {
		t.Fatal("histogram id must not appear as a counter")
	}
}
