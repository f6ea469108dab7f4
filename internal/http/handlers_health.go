package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"
)

const healthResponse = `{"status":"ok"}`

// readyTimeout bounds each dependency check in /readyz.
const readyTimeout = 2 * time.Second

// HealthCheck probes one backing dependency.
type HealthCheck func(ctx context.Context) error

// healthHandler returns a simple 200 OK status for liveness checks.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.WriteString(w, healthResponse); err != nil {
		// Nothing more to do if the client connection is gone.
		return
	}
}

// readyHandler runs every check and reports 503 if any fails.
func readyHandler(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for n := range checks {
		names = append(names, n)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		results := make(map[string]string, len(names))
		for _, name := range names {
			ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
			err := checks[name](ctx)
			cancel()
			if err != nil {
				logger.WarnContext(r.Context(), "readiness check failed", "check", name, "error", err)
				results[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		overall := "ok"
		if status != http.StatusOK {
			overall = "unavailable"
		}
		WriteJSON(w, status, map[string]any{"status": overall, "checks": results})
	}
}
