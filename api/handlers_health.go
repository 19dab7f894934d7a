package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Handler serves the status surface for a single worker's Reporter.
type Handler struct {
	reporter *Reporter
}

// NewHandler constructs a Handler.
func NewHandler(r *Reporter) *Handler {
	return &Handler{reporter: r}
}

// HealthHandler answers liveness checks: if the process can respond at
// all, it is healthy. Cycle staleness is surfaced via /status, not here.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StatusHandler reports cycle counts, last-cycle timestamp, and circuit
// breaker state (Executor only) for operators and the dashboard.
func (h *Handler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.reporter.snapshot())
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}
