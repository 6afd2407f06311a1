package api

import (
	"encoding/json"
	"net/http"
)

// Handler methods for routerHandlers.
// These are used by both the standalone router (for testing) and the
// full Server.

func (h *routerHandlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	payload := h.world.GetStateJSON()
	if payload == nil {
		writeError(w, "world unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"world":     h.world.GetStats(),
		"rateLimit": h.rateLimiter.GetStats(),
	}
	if h.hub != nil {
		stats["connections"] = h.hub.ClientCount()
		stats["wsRejected"] = h.hub.wsLimiter.GetStats()
	}
	writeJSON(w, stats)
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
