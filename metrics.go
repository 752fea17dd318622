package authcore

import "sync/atomic"

// MetricID identifies one in-process counter.
type MetricID uint16

const (
	MetricRegistrationSuccess MetricID = iota
	MetricRegistrationDuplicate
	MetricVerificationRequest
	MetricVerificationSuccess
	MetricVerificationFailure
	MetricLoginSuccess
	MetricLoginFailure
	MetricMFARequired
	MetricMFASuccess
	MetricMFAFailure
	MetricPasswordResetRequest
	MetricPasswordResetSuccess
	MetricPasswordResetFailure
	MetricPasswordChangeSuccess
	MetricPasswordChangeFailure
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricLogout
	MetricFederatedLogin
	MetricFederatedSignup
	MetricMailDispatchFailure

	metricCount // keep last
)

// Metrics is a fixed set of lock-free counters. All methods are safe for
// concurrent use; a nil or disabled Metrics is inert.
type Metrics struct {
	enabled  bool
	counters [metricCount]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	return &Metrics{enabled: true}
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricCount)}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < metricCount; id++ {
		if v := m.counters[id].Load(); v > 0 {
			snap.Counters[id] = v
		}
	}
	return snap
}
