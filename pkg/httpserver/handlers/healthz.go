package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"diynow/pkg/httpserver/deps"
	"diynow/pkg/logger"
)

type healthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Version       string `json:"version"`
	Error         string `json:"error,omitempty"`
}

func Healthz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:        "ok",
			UptimeSeconds: int64(time.Since(d.StartTime).Seconds()),
			Version:       d.Version,
		}
		status := http.StatusOK
		if d.Health != nil {
			if err := d.Health(r.Context()); err != nil {
				d.Logger.Warn("health check failed", logger.Error(err))
				resp.Status = "degraded"
				resp.Error = err.Error()
				status = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
