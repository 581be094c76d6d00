package handler

import (
	"encoding/json"
	"net/http"
	"os"
	"time"
)

// Health returns basic health check
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// HealthCheckResult represents the result of a single readiness check
type HealthCheckResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Ready reports whether the bot's file-backed state is usable. The token file
// may legitimately not exist before the first authorization, so only an
// unreadable file counts as down.
func Ready(tokenFile, repliedLogFile string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]HealthCheckResult{
			"token_file":  checkFile(tokenFile),
			"replied_log": checkFile(repliedLogFile),
		}

		allHealthy := true
		for _, c := range checks {
			if c.Status != "up" {
				allHealthy = false
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if !allHealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"timestamp": time.Now().Format(time.RFC3339),
			"checks":    checks,
		})
	}
}

func checkFile(path string) HealthCheckResult {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return HealthCheckResult{Status: "up"}
		}
		return HealthCheckResult{Status: "down", Error: err.Error()}
	}
	f.Close()
	return HealthCheckResult{Status: "up"}
}
