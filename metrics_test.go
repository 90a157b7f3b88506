package goSession

import (
	"sync"
	"testing"
)

func TestMetricsCountAndSnapshot(t *testing.T) {
	m := newMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricRefreshSuccess)
	m.Inc(MetricRefreshSuccess)
	m.Inc(MetricTokenServed)

	snapshot := m.Snapshot()
	if snapshot.Counters[MetricRefreshSuccess] != 2 {
		t.Fatalf("expected 2 successes, got %d", snapshot.Counters[MetricRefreshSuccess])
	}
	if snapshot.Counters[MetricTokenServed] != 1 {
		t.Fatalf("expected 1 served, got %d", snapshot.Counters[MetricTokenServed])
	}
	if len(snapshot.Counters) != int(metricCount) {
		t.Fatalf("snapshot should cover every metric, got %d entries", len(snapshot.Counters))
	}

	// Snapshot is a copy: mutating it does not touch the live counters.
	snapshot.Counters[MetricRefreshSuccess] = 999
	if m.Snapshot().Counters[MetricRefreshSuccess] != 2 {
		t.Fatal("snapshot mutation leaked into the live counters")
	}
}

func TestMetricsDisabled(t *testing.T) {
	m := newMetrics(MetricsConfig{Enabled: false})

	m.Inc(MetricRefreshSuccess)

	if got := m.Snapshot().Counters[MetricRefreshSuccess]; got != 0 {
		t.Fatalf("disabled metrics should stay zero, got %d", got)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricRefreshSuccess)

	snapshot := m.Snapshot()
	if snapshot.Counters == nil {
		t.Fatal("nil metrics should return an empty snapshot")
	}
}

func TestMetricsConcurrentIncrements(t *testing.T) {
	m := newMetrics(MetricsConfig{Enabled: true})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.Inc(MetricTokenServed)
			}
		}()
	}
	wg.Wait()

	if got := m.Snapshot().Counters[MetricTokenServed]; got != 8000 {
		t.Fatalf("expected 8000 increments, got %d", got)
	}
}

func TestMetricsIgnoresOutOfRangeID(t *testing.T) {
	m := newMetrics(MetricsConfig{Enabled: true})

	m.Inc(metricCount)
	m.Inc(MetricID(255))
}
