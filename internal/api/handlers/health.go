package handlers

import (
	"net/http"
	"time"

	"github.com/pysugar/post-scheduler/internal/version"
)

// HealthHandler reports liveness and the server time.
// GET /health
func HealthHandler(now func() time.Time) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   now().UTC().Format(time.RFC3339Nano),
		})
	}
}

// VersionHandler returns version information as JSON
// GET /version
func VersionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version":    version.Version,
			"commit":     version.Commit,
			"build_time": version.BuildTime,
		})
	}
}
