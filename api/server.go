package api

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Serve starts the status router on port in a background goroutine if port
// is non-zero. It does not block; a failure after startup is logged but
// does not take down the worker, since the status surface is a convenience,
// not load-bearing for the trading pipeline.
func Serve(port int, reporter *Reporter) {
	if port == 0 {
		return
	}
	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{Addr: addr, Handler: NewRouter(reporter)}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Str("addr", addr).Msg("status server stopped")
		}
	}()
	log.Info().Str("addr", addr).Msg("status server listening")
}
