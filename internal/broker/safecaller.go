package broker

import (
	"errors"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrCircuitOpen is returned by Call when the breaker has already tripped;
// the wrapped function is never invoked.
var ErrCircuitOpen = errors.New("broker circuit breaker tripped")

// HTTPError is the minimal shape SafeCaller needs to classify a broker
// error: any error a live broker integration returns that carries an HTTP
// status code should implement this.
type HTTPError interface {
	StatusCode() int
}

// criticalStatusCodes are the HTTP codes spec treats as critical: auth
// failures and server-side errors. Anything else (e.g. 400 bad request) is
// non-critical and never arms the breaker.
var criticalStatusCodes = map[int]bool{
	http.StatusUnauthorized:        true, // 401
	http.StatusForbidden:           true, // 403
	http.StatusInternalServerError: true, // 500
	http.StatusBadGateway:          true, // 502
	http.StatusServiceUnavailable:  true, // 503
	http.StatusGatewayTimeout:      true, // 504
}

// isCritical is a pure function of the error's status code, matching
// spec's requirement that classification never depend on message text.
func isCritical(err error) bool {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return criticalStatusCodes[httpErr.StatusCode()]
	}
	return false
}

// SafeCaller wraps every Executor broker call: on a critical error it
// increments a consecutive-failure counter, and once that counter reaches
// 3 the breaker trips and stays tripped for the process lifetime — a
// manual restart is required to clear it (spec §4.7). A successful call
// resets the counter to zero but can never un-trip an already-tripped
// breaker (P6: monotonicity).
type SafeCaller struct {
	mu         sync.Mutex
	failures   int
	tripped    bool
	failureCap int
}

// NewSafeCaller constructs a SafeCaller that trips after failureCap
// consecutive critical errors (3 per spec §4.7).
func NewSafeCaller(failureCap int) *SafeCaller {
	if failureCap <= 0 {
		failureCap = 3
	}
	return &SafeCaller{failureCap: failureCap}
}

// Tripped reports whether the breaker has latched open.
func (s *SafeCaller) Tripped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tripped
}

// Call invokes fn unless the breaker is already tripped. A critical error
// increments the failure counter and may trip the breaker; a non-critical
// error is returned unmodified without touching the counter; success
// resets the counter to zero.
func (s *SafeCaller) Call(fn func() error) error {
	s.mu.Lock()
	if s.tripped {
		s.mu.Unlock()
		return ErrCircuitOpen
	}
	s.mu.Unlock()

	err := fn()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		if s.failures > 0 {
			log.Info().Int("previous_failures", s.failures).Msg("broker call recovered, resetting failure counter")
			s.failures = 0
		}
		return nil
	}
	if isCritical(err) {
		s.failures++
		if s.failures >= s.failureCap {
			s.tripped = true
		}
	}
	return err
}
