package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Headhunte-121/trading-bot/tracing"
)

// NewRouter builds the status surface router: request tracing and panic
// recovery, then /healthz and /status. There is no rate limiting, CORS, or
// auth middleware here — this endpoint is meant for localhost/ops polling
// of a single worker process, not the public dashboard API the teacher's
// router.go protects.
func NewRouter(reporter *Reporter) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(TraceMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(zerologLogger)

	h := NewHandler(reporter)
	r.Get("/healthz", h.HealthHandler)
	r.Get("/status", h.StatusHandler)

	return r
}

func zerologLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger := tracing.Logger(r.Context())
		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("status request completed")
	})
}
