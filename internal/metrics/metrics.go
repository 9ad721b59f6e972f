package metrics

import "sync/atomic"

// MetricID identifies one counter in the in-process metrics set.
type MetricID uint16

const (
	// MetricRegisterSuccess counts confirmed registrations.
	MetricRegisterSuccess MetricID = iota
	// MetricRegisterDuplicate counts registrations rejected on uniqueness.
	MetricRegisterDuplicate
	// MetricRegisterFailure counts all other registration rejections.
	MetricRegisterFailure
	// MetricLoginSuccess counts successful logins.
	MetricLoginSuccess
	// MetricLoginFailure counts rejected logins.
	MetricLoginFailure
	// MetricRefreshSuccess counts completed rotations.
	MetricRefreshSuccess
	// MetricRefreshFailure counts rejected rotations.
	MetricRefreshFailure
	// MetricRefreshReuseDetected counts rotation-mismatch rejections, the
	// signal for a superseded token being replayed.
	MetricRefreshReuseDetected
	// MetricLogout counts logouts.
	MetricLogout
	// MetricGateAllowed counts requests admitted by the auth gate.
	MetricGateAllowed
	// MetricGateDenied counts requests rejected by the auth gate.
	MetricGateDenied

	// MetricIDCount is the number of defined metric IDs.
	MetricIDCount
)

// Names maps each MetricID to its exposition name.
var Names = [MetricIDCount]string{
	MetricRegisterSuccess:      "register_success",
	MetricRegisterDuplicate:    "register_duplicate",
	MetricRegisterFailure:      "register_failure",
	MetricLoginSuccess:         "login_success",
	MetricLoginFailure:         "login_failure",
	MetricRefreshSuccess:       "refresh_success",
	MetricRefreshFailure:       "refresh_failure",
	MetricRefreshReuseDetected: "refresh_reuse_detected",
	MetricLogout:               "logout",
	MetricGateAllowed:          "gate_allowed",
	MetricGateDenied:           "gate_denied",
}

// Metrics holds atomic counters. A disabled instance makes every operation
// a no-op so call sites never branch.
type Metrics struct {
	enabled  bool
	counters [MetricIDCount]atomic.Uint64
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Counters [MetricIDCount]uint64
}

// New creates a Metrics instance.
func New(enabled bool) *Metrics {
	return &Metrics{enabled: enabled}
}

// Inc increments one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Snapshot copies all counters.
func (m *Metrics) Snapshot() Snapshot {
	var snap Snapshot
	if m == nil || !m.enabled {
		return snap
	}
	for i := range m.counters {
		snap.Counters[i] = m.counters[i].Load()
	}
	return snap
}
