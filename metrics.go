package accountlink

import (
	"sync/atomic"
	"time"
)

// MetricID defines a public type used by accountlink APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricLinkInitiated is an exported constant or variable used by the linking engine.
	MetricLinkInitiated MetricID = iota
	// MetricLinkedDirect is an exported constant or variable used by the linking engine.
	MetricLinkedDirect
	// MetricChallengeIssued is an exported constant or variable used by the linking engine.
	MetricChallengeIssued
	// MetricLinkFailure is an exported constant or variable used by the linking engine.
	MetricLinkFailure
	// MetricLinkError is an exported constant or variable used by the linking engine.
	MetricLinkError
	// MetricApprovalLinked is an exported constant or variable used by the linking engine.
	MetricApprovalLinked
	// MetricApprovalWaiting is an exported constant or variable used by the linking engine.
	MetricApprovalWaiting
	// MetricApprovalDenied is an exported constant or variable used by the linking engine.
	MetricApprovalDenied
	// MetricRestartRequired is an exported constant or variable used by the linking engine.
	MetricRestartRequired
	// MetricOwnershipViolation is an exported constant or variable used by the linking engine.
	MetricOwnershipViolation
	// MetricSessionExpired is an exported constant or variable used by the linking engine.
	MetricSessionExpired
	// MetricUnlink is an exported constant or variable used by the linking engine.
	MetricUnlink
	// MetricVaultError is an exported constant or variable used by the linking engine.
	MetricVaultError
	// MetricInitiateLatency is an exported constant or variable used by the linking engine.
	MetricInitiateLatency
	// MetricApprovalLatency is an exported constant or variable used by the linking engine.
	MetricApprovalLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics defines a public type used by accountlink APIs.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot defines a public type used by accountlink APIs.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics describes the newmetrics operation and its observable behavior.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled describes the enabled operation and its observable behavior.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled describes the latencyenabled operation and its observable behavior.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc describes the inc operation and its observable behavior.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe describes the observe operation and its observable behavior.
//
// Only the latency metric ids accept observations; counter ids are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricInitiateLatency && id != MetricApprovalLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value describes the value operation and its observable behavior.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot describes the snapshot operation and its observable behavior.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 2),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		for _, id := range []MetricID{MetricInitiateLatency, MetricApprovalLatency} {
			buckets := make([]uint64, histBucketCount)
			for i := 0; i < histBucketCount; i++ {
				buckets[i] = atomic.LoadUint64(&m.histograms[id].buckets[i])
			}
			s.Histograms[id] = buckets
		}
	}

	return s
}

// bucketIndex maps a latency to its histogram bucket. Bounds are seconds
// scale because both operations wait on a real browser.
func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 250:
		return 0
	case ms <= 500:
		return 1
	case ms <= 1000:
		return 2
	case ms <= 2500:
		return 3
	case ms <= 5000:
		return 4
	case ms <= 10000:
		return 5
	case ms <= 30000:
		return 6
	default:
		return 7
	}
}
