package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/nkiryanov/aquanexus/internal/logger"
)

const healthTimeout = 2 * time.Second

func handleHealth(health HealthChecker, logger logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		if err := health.Ping(ctx); err != nil {
			logger.Warn("health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("unavailable"))
			return
		}

		_, _ = w.Write([]byte("ok"))
	}
}
