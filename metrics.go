package goSession

import "sync/atomic"

// MetricID indexes one counter in the metrics set.
type MetricID uint16

const (
	// MetricTokenStored counts installed session records.
	MetricTokenStored MetricID = iota
	// MetricTokenServed counts access tokens returned from the validity
	// window without a refresh.
	MetricTokenServed
	// MetricTokensCleared counts store wipes.
	MetricTokensCleared
	// MetricRefreshSuccess counts successful refresh cycles.
	MetricRefreshSuccess
	// MetricRefreshFailure counts fatal refresh cycles.
	MetricRefreshFailure
	// MetricRefreshRetry counts individual retried network attempts.
	MetricRefreshRetry
	// MetricRefreshRateLimited counts refreshes rejected inside the
	// minimum interval.
	MetricRefreshRateLimited
	// MetricRefreshJoined counts callers that joined an in-flight cycle.
	MetricRefreshJoined
	// MetricQueueTimeout counts queued callers released by their own
	// timeout.
	MetricQueueTimeout
	// MetricFingerprintMismatch counts fingerprint mismatches.
	MetricFingerprintMismatch
	// MetricBreachDeclared counts breach declarations.
	MetricBreachDeclared
	// MetricLoginFailure counts recorded login failures.
	MetricLoginFailure
	// MetricLoginSuccess counts recorded login successes.
	MetricLoginSuccess
	// MetricLoginLockout counts identifiers entering the locked state.
	MetricLoginLockout
	// MetricStorageError counts downgraded persistent-store faults.
	MetricStorageError
	// MetricValidateSweep counts periodic validation runs.
	MetricValidateSweep

	metricCount
)

// Metrics is a fixed set of atomic counters. A disabled Metrics keeps all
// operations as cheap no-ops.
type Metrics struct {
	enabled  bool
	counters [metricCount]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

func newMetrics(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	return &Metrics{enabled: true}
}

// Inc increments one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// Snapshot copies all counters. Safe to call concurrently with Inc.
func (m *Metrics) Snapshot() MetricsSnapshot {
	out := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricCount)}
	if m == nil || !m.enabled {
		return out
	}
	for id := MetricID(0); id < metricCount; id++ {
		out.Counters[id] = m.counters[id].Load()
	}
	return out
}
