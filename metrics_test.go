package accountlink

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricLinkInitiated)

	if got := m.Value(MetricLinkInitiated); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricLinkInitiated)
	m.Inc(MetricLinkInitiated)
	m.Inc(MetricLinkInitiated)

	if got := m.Value(MetricLinkInitiated); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricApprovalLinked)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricApprovalLinked); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		100 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		20 * time.Second,
		time.Minute,
	}

	for _, d := range observations {
		m.Observe(MetricInitiateLatency, d)
	}

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricInitiateLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}

	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
}

func TestMetricsObserveIgnoresCounterIDs(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	m.Observe(MetricLinkInitiated, time.Second)

	snap := m.Snapshot()
	if _, ok := snap.Histograms[MetricLinkInitiated]; ok {
		t.Fatal("counter ids must not grow histograms")
	}
	for _, buckets := range snap.Histograms {
		for i, v := range buckets {
			if v != 0 {
				t.Fatalf("bucket %d unexpectedly %d", i, v)
			}
		}
	}
}

func TestMetricsSnapshotConsistency(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})
	m.Inc(MetricLinkInitiated)
	m.Inc(MetricLinkFailure)
	m.Inc(MetricLinkFailure)
	m.Observe(MetricApprovalLatency, 100*time.Millisecond)

	snap := m.Snapshot()

	if snap.Counters[MetricLinkInitiated] != 1 {
		t.Fatalf("expected MetricLinkInitiated=1 got %d", snap.Counters[MetricLinkInitiated])
	}
	if snap.Counters[MetricLinkFailure] != 2 {
		t.Fatalf("expected MetricLinkFailure=2 got %d", snap.Counters[MetricLinkFailure])
	}
	if len(snap.Histograms[MetricApprovalLatency]) != 8 {
		t.Fatalf("expected histogram length 8")
	}
	if snap.Histograms[MetricApprovalLatency][0] != 1 {
		t.Fatalf("expected first histogram bucket=1 got %d", snap.Histograms[MetricApprovalLatency][0])
	}
}
