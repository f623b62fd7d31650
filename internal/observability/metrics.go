package observability

import (
	"strconv"
	"sync"
	"time"
)

// Intake outcomes tracked by RecordIntake.
const (
	IntakeCreated     = "created"
	IntakeMerged      = "merged"
	IntakeThrottled   = "throttled"
	IntakeGateBlocked = "gate_blocked"
	IntakeRejected    = "rejected"
)

// Metrics provides basic in-memory counters for requests, errors, intake
// outcomes and health sweeps.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	intakeCount  map[string]int64
	sweepRuns    int64
	sweepUpdated int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		intakeCount:  make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordIntake tracks one report submission outcome.
func (m *Metrics) RecordIntake(outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intakeCount[outcome]++
}

// RecordSweep tracks one completed health sweep.
func (m *Metrics) RecordSweep(updated int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepRuns++
	m.sweepUpdated += int64(updated)
}

// IntakeSnapshot returns a copy of the intake outcome counters.
func (m *Metrics) IntakeSnapshot() map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := make(map[string]int64, len(m.intakeCount))
	for k, v := range m.intakeCount {
		snap[k] = v
	}
	return snap
}
