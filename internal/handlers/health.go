package handlers

import (
	"encoding/json"
	"net/http"
)

// Version проставляется через ldflags при сборке.
var Version = "dev"

// HealthCheck — GET /health_check
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"healthy": "true",
		"version": Version,
	})
}
