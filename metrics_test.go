package authcore

import (
	"sync"
	"testing"
)

func TestMetricsIncAndSnapshot(t *testing.T) {
	metrics := NewMetrics(MetricsConfig{Enabled: true})

	metrics.Inc(MetricLoginSuccess)
	metrics.Inc(MetricLoginSuccess)
	metrics.Inc(MetricLogout)

	snap := metrics.Snapshot()
	if snap.Counters[MetricLoginSuccess] != 2 {
		t.Fatalf("login counter = %d", snap.Counters[MetricLoginSuccess])
	}
	if snap.Counters[MetricLogout] != 1 {
		t.Fatalf("logout counter = %d", snap.Counters[MetricLogout])
	}
	if snap.Counters[MetricRefreshSuccess] != 0 {
		t.Fatal("untouched counter must be zero")
	}
}

func TestMetricsDisabledIsInert(t *testing.T) {
	metrics := NewMetrics(MetricsConfig{Enabled: false})
	metrics.Inc(MetricLoginSuccess)

	snap := metrics.Snapshot()
	if len(snap.Counters) != 0 && snap.Counters[MetricLoginSuccess] != 0 {
		t.Fatalf("disabled metrics recorded: %+v", snap)
	}
}

func TestMetricsConcurrentInc(t *testing.T) {
	metrics := NewMetrics(MetricsConfig{Enabled: true})

	const workers = 16
	const perWorker = 100

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				metrics.Inc(MetricRefreshSuccess)
			}
		}()
	}
	wg.Wait()

	if got := metrics.Snapshot().Counters[MetricRefreshSuccess]; got != workers*perWorker {
		t.Fatalf("counter = %d, want %d", got, workers*perWorker)
	}
}
