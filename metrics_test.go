package goMFA

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledIsNoOp(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})

	m.Inc(MetricIssueSuccess)
	m.Observe(MetricValidateLatency, time.Millisecond)

	if m.Enabled() {
		t.Fatal("metrics should report disabled")
	}
	if m.Value(MetricIssueSuccess) != 0 {
		t.Fatal("disabled metrics must not count")
	}

	s := m.Snapshot()
	if len(s.Counters) != 0 || len(s.Histograms) != 0 {
		t.Fatal("disabled snapshot must be empty")
	}
}

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricIssueSuccess)
	m.Inc(MetricIssueSuccess)
	m.Inc(MetricValidateInvalid)
	m.Inc(metricIDCount + 1) // out of range, ignored

	if got := m.Value(MetricIssueSuccess); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if got := m.Value(MetricValidateInvalid); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}

	s := m.Snapshot()
	if s.Counters[MetricIssueSuccess] != 2 {
		t.Fatalf("snapshot mismatch: %+v", s.Counters)
	}
	if len(s.Histograms) != 0 {
		t.Fatal("latency disabled, snapshot should have no histograms")
	}
}

func TestMetricsLatencyHistogram(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	m.Observe(MetricValidateLatency, 2*time.Millisecond)
	m.Observe(MetricValidateLatency, 30*time.Millisecond)
	m.Observe(MetricValidateLatency, time.Second)
	m.Observe(MetricIssueSuccess, time.Millisecond) // only validate latency is tracked

	s := m.Snapshot()
	buckets, ok := s.Histograms[MetricValidateLatency]
	if !ok {
		t.Fatal("expected validate latency histogram")
	}
	if buckets[0] != 1 || buckets[2] != 1 || buckets[7] != 1 {
		t.Fatalf("unexpected bucket layout: %v", buckets)
	}

	var total uint64
	for _, b := range buckets {
		total += b
	}
	if total != 3 {
		t.Fatalf("expected 3 observations, got %d", total)
	}
}

func TestBucketIndexBoundaries(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want int
	}{
		{0, 0},
		{5 * time.Millisecond, 0},
		{6 * time.Millisecond, 1},
		{10 * time.Millisecond, 1},
		{25 * time.Millisecond, 2},
		{50 * time.Millisecond, 3},
		{100 * time.Millisecond, 4},
		{250 * time.Millisecond, 5},
		{500 * time.Millisecond, 6},
		{501 * time.Millisecond, 7},
		{time.Minute, 7},
	}
	for _, tc := range cases {
		if got := bucketIndex(tc.d); got != tc.want {
			t.Fatalf("bucketIndex(%v) = %d, want %d", tc.d, got, tc.want)
		}
	}
}

func TestMetricsConcurrentInc(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const workers, perWorker = 8, 1000

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				m.Inc(MetricValidateSuccess)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricValidateSuccess); got != workers*perWorker {
		t.Fatalf("expected %d, got %d", workers*perWorker, got)
	}
}

func TestEngineCountsOutcomes(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	delivery := &mockDelivery{}

	cfg := defaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	engine := newTestEngine(t, rdb, delivery, newFakeClock(), cfg)

	if _, err := engine.Issue(ctx, "m1", "alice@example.com"); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if err := engine.Validate(ctx, "m1", wrongCode); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
	if err := engine.Validate(ctx, "m1", delivery.lastCode(t)); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if err := engine.Validate(ctx, "m1", wrongCode); !errors.Is(err, ErrNoActiveCode) {
		t.Fatalf("expected ErrNoActiveCode, got %v", err)
	}

	s := engine.MetricsSnapshot()
	if s.Counters[MetricIssueSuccess] != 1 {
		t.Fatalf("issue success = %d", s.Counters[MetricIssueSuccess])
	}
	if s.Counters[MetricValidateInvalid] != 1 {
		t.Fatalf("validate invalid = %d", s.Counters[MetricValidateInvalid])
	}
	if s.Counters[MetricValidateSuccess] != 1 {
		t.Fatalf("validate success = %d", s.Counters[MetricValidateSuccess])
	}
	if s.Counters[MetricValidateNoCode] != 1 {
		t.Fatalf("validate no-code = %d", s.Counters[MetricValidateNoCode])
	}

	var observed uint64
	for _, b := range s.Histograms[MetricValidateLatency] {
		observed += b
	}
	if observed != 3 {
		t.Fatalf("expected 3 latency observations, got %d", observed)
	}
}
