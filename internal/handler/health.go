package handler

import (
	"net/http"

	"github.com/pokerledger/platform/internal/infra"
)

// HealthHandler reports whether the database answers a ping. cache may be nil;
// a failing cache degrades the status without failing the check.
func HealthHandler(db infra.Pinger, cache infra.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := infra.HealthCheck(r.Context(), db); err != nil {
			RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  "database unavailable",
			})
			return
		}
		status := map[string]string{"status": "healthy"}
		if cache != nil {
			if err := infra.HealthCheck(r.Context(), cache); err != nil {
				status["status"] = "degraded"
				status["cache"] = "unavailable"
			}
		}
		RespondJSON(w, http.StatusOK, status)
	}
}
