// Package api exposes a minimal read-only status surface for a worker
// process. It is not the teacher's operator dashboard API — the dashboard
// itself is out of scope — but every worker can optionally serve this on
// SERVER_PORT so ops tooling and the external dashboard collaborator have
// something to poll for liveness and cycle health.
package api

import (
	"sync"
	"time"
)

// Reporter tracks the liveness facts a worker's status endpoint reports:
// when it started, when its last cycle ran, how many cycles it has run,
// and (for the Executor only) whether its circuit breaker is tripped.
type Reporter struct {
	mu             sync.RWMutex
	service        string
	startTime      time.Time
	lastCycle      time.Time
	cyclesRun      int64
	breakerTripped func() bool
}

// NewReporter constructs a Reporter for service. breakerTripped may be nil
// for workers with no circuit breaker (every worker but the Executor).
func NewReporter(service string, breakerTripped func() bool) *Reporter {
	return &Reporter{
		service:        service,
		startTime:      time.Now(),
		breakerTripped: breakerTripped,
	}
}

// RecordCycle marks that a worker cycle just completed.
func (r *Reporter) RecordCycle() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastCycle = time.Now()
	r.cyclesRun++
}

type snapshot struct {
	Service        string     `json:"service"`
	UptimeSeconds  float64    `json:"uptime_seconds"`
	CyclesRun      int64      `json:"cycles_run"`
	LastCycle      *time.Time `json:"last_cycle,omitempty"`
	BreakerTripped *bool      `json:"breaker_tripped,omitempty"`
}

func (r *Reporter) snapshot() snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := snapshot{
		Service:       r.service,
		UptimeSeconds: time.Since(r.startTime).Seconds(),
		CyclesRun:     r.cyclesRun,
	}
	if !r.lastCycle.IsZero() {
		lc := r.lastCycle
		s.LastCycle = &lc
	}
	if r.breakerTripped != nil {
		tripped := r.breakerTripped()
		s.BreakerTripped = &tripped
	}
	return s
}
