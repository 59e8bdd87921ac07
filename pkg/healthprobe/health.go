// Package healthprobe provides Kubernetes-style liveness and readiness
// HTTP handlers.
package healthprobe

import (
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// HealthChecker provides health and readiness checks.
type HealthChecker struct {
	startTime time.Time

	mu     sync.RWMutex
	checks map[string]bool
}

// New creates a new HealthChecker. The application is not ready until at
// least one component reports ready.
func New() *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
		checks:    make(map[string]bool),
	}
}

// SetReady records the readiness of one named component. Overall
// readiness requires every registered component to be ready.
func (h *HealthChecker) SetReady(component string, ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[component] = ready
}

func (h *HealthChecker) ready() (bool, map[string]bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	snapshot := make(map[string]bool, len(h.checks))
	ready := len(h.checks) > 0
	for name, ok := range h.checks {
		snapshot[name] = ok
		ready = ready && ok
	}
	return ready, snapshot
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string          `json:"status"`
	Uptime string          `json:"uptime"`
	Checks map[string]bool `json:"checks,omitempty"`
}

// Health returns an HTTP handler for liveness checks.
// Always returns 200 OK if the application is running.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status: "healthy",
			Uptime: time.Since(h.startTime).String(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// Ready returns an HTTP handler for readiness checks.
// Returns 200 OK when every component is ready, 503 otherwise.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ready, checks := h.ready()

		resp := HealthResponse{
			Status: "ready",
			Uptime: time.Since(h.startTime).String(),
			Checks: checks,
		}

		status := http.StatusOK
		if !ready {
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
