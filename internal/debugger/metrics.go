package debugger

import (
	"sync/atomic"
	"time"
)

// Metrics tracks debugger activity. It is safe for concurrent use and may be
// shared by every registry in a process.
type Metrics struct {
	// Frame inspection
	inspectCount   atomic.Uint64
	inspectTotalNs atomic.Int64
	inspectMaxNs   atomic.Int64

	// Evaluation
	evalCount      atomic.Uint64
	evalTotalNs    atomic.Int64
	evalMaxNs      atomic.Int64
	unavailable    atomic.Uint64
	providerErrors atomic.Uint64

	// Sessions and captures
	sessionsCreated atomic.Uint64
	indexErrors     atomic.Uint64
	capturesStored  atomic.Uint64
	capturesEvicted atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordInspect records a frame inspection.
func (m *Metrics) RecordInspect(d time.Duration) {
	m.inspectCount.Add(1)
	m.inspectTotalNs.Add(d.Nanoseconds())
	storeMax(&m.inspectMaxNs, d.Nanoseconds())
}

// RecordEval records an evaluation that reached a session.
func (m *Metrics) RecordEval(d time.Duration) {
	m.evalCount.Add(1)
	m.evalTotalNs.Add(d.Nanoseconds())
	storeMax(&m.evalMaxNs, d.Nanoseconds())
}

// RecordUnavailable records an evaluation against a frame without a
// binding.
func (m *Metrics) RecordUnavailable() {
	m.unavailable.Add(1)
}

// RecordProviderError records a failed session creation.
func (m *Metrics) RecordProviderError() {
	m.providerErrors.Add(1)
}

// RecordSessionCreated records a new REPL session.
func (m *Metrics) RecordSessionCreated() {
	m.sessionsCreated.Add(1)
}

// RecordIndexError records a request for a frame outside the backtrace.
func (m *Metrics) RecordIndexError() {
	m.indexErrors.Add(1)
}

// RecordStored records a capture added to a store.
func (m *Metrics) RecordStored() {
	m.capturesStored.Add(1)
}

// RecordEvicted records a capture evicted from a store.
func (m *Metrics) RecordEvicted() {
	m.capturesEvicted.Add(1)
}

// storeMax raises v to ns with a compare-and-swap loop.
func storeMax(v *atomic.Int64, ns int64) {
	for {
		old := v.Load()
		if ns <= old {
			return
		}
		if v.CompareAndSwap(old, ns) {
			return
		}
	}
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	inspectCount := m.inspectCount.Load()
	evalCount := m.evalCount.Load()

	var avgInspectNs int64
	if inspectCount > 0 {
		avgInspectNs = m.inspectTotalNs.Load() / int64(inspectCount)
	}

	var avgEvalNs int64
	if evalCount > 0 {
		avgEvalNs = m.evalTotalNs.Load() / int64(evalCount)
	}

	return MetricsSnapshot{
		Uptime:          time.Since(m.startTime),
		Inspects:        inspectCount,
		AvgInspectNs:    avgInspectNs,
		MaxInspectNs:    m.inspectMaxNs.Load(),
		Evals:           evalCount,
		AvgEvalNs:       avgEvalNs,
		MaxEvalNs:       m.evalMaxNs.Load(),
		Unavailable:     m.unavailable.Load(),
		ProviderErrors:  m.providerErrors.Load(),
		SessionsCreated: m.sessionsCreated.Load(),
		IndexErrors:     m.indexErrors.Load(),
		CapturesStored:  m.capturesStored.Load(),
		CapturesEvicted: m.capturesEvicted.Load(),
	}
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime          time.Duration `json:"uptime_ns"`
	Inspects        uint64        `json:"inspects"`
	AvgInspectNs    int64         `json:"avg_inspect_ns"`
	MaxInspectNs    int64         `json:"max_inspect_ns"`
	Evals           uint64        `json:"evals"`
	AvgEvalNs       int64         `json:"avg_eval_ns"`
	MaxEvalNs       int64         `json:"max_eval_ns"`
	Unavailable     uint64        `json:"unavailable"`
	ProviderErrors  uint64        `json:"provider_errors"`
	SessionsCreated uint64        `json:"sessions_created"`
	IndexErrors     uint64        `json:"index_errors"`
	CapturesStored  uint64        `json:"captures_stored"`
	CapturesEvicted uint64        `json:"captures_evicted"`
}

// Timer measures elapsed time.
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer.
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Started returns when the timer started.
func (t *Timer) Started() time.Time {
	return t.start
}

// Elapsed returns the elapsed time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
