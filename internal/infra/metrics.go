package infra

import (
	"sync/atomic"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	pollsTotal            atomic.Uint64
	pollFailures          atomic.Uint64
	mutationsTotal        atomic.Uint64
	remoteRejections      atomic.Uint64
	clampsTotal           atomic.Uint64
	tombstoneSuppressions atomic.Uint64
	probeMisses           atomic.Uint64
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordPoll records a completed market poll.
func (m *Metrics) RecordPoll() {
	m.pollsTotal.Add(1)
}

// RecordPollFailure records a failed market poll.
func (m *Metrics) RecordPollFailure() {
	m.pollFailures.Add(1)
}

// RecordMutation records a successful remote mutation.
func (m *Metrics) RecordMutation() {
	m.mutationsTotal.Add(1)
}

// RecordRemoteRejection records a server-side mutation rejection.
func (m *Metrics) RecordRemoteRejection() {
	m.remoteRejections.Add(1)
}

// RecordClamp records a sanity-ceiling clamp of a remote money value.
// A rising counter here means the upstream is feeding corrupt data.
func (m *Metrics) RecordClamp() {
	m.clampsTotal.Add(1)
}

// RecordTombstoneSuppression records a stale remote offer suppressed by a
// tombstone during reconciliation.
func (m *Metrics) RecordTombstoneSuppression() {
	m.tombstoneSuppressions.Add(1)
}

// RecordProbeMiss records an empty or refused per-listing offer lookup.
func (m *Metrics) RecordProbeMiss() {
	m.probeMisses.Add(1)
}

// Snapshot returns current counter values for display or logging.
func (m *Metrics) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"polls_total":            m.pollsTotal.Load(),
		"poll_failures":          m.pollFailures.Load(),
		"mutations_total":        m.mutationsTotal.Load(),
		"remote_rejections":      m.remoteRejections.Load(),
		"clamps_total":           m.clampsTotal.Load(),
		"tombstone_suppressions": m.tombstoneSuppressions.Load(),
		"probe_misses":           m.probeMisses.Load(),
	}
}
