package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// serviceName appears in the /health payload.
const serviceName = "SwimBench AI"

// readinessPingTimeout bounds the database ping in /ready.
const readinessPingTimeout = 2 * time.Second

// health handles GET /health. It always returns 200 and never touches a
// dependency, so schedulers do not restart the service when a downstream
// is slow.
func health(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":    "healthy",
			"service":   serviceName,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}, logger)
	}
}

// readiness handles GET /ready. Returns 200 when the database answers a
// ping, 503 when it does not. A nil pool skips the database check.
func readiness(pool *pgxpool.Pool, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readinessPingTimeout)
			defer cancel()

			if err := pool.Ping(ctx); err != nil {
				logger.Warn("readiness check failed", "error", err)
				WriteError(w, http.StatusServiceUnavailable, "not_ready", "database unreachable", logger)
				return
			}
		}

		WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"}, logger)
	}
}
