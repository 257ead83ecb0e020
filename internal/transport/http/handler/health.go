package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
)

// Check probes one backing service.
type Check func(ctx context.Context) error

// ReadinessEnvelope lists the backing services that failed their probe.
type ReadinessEnvelope struct {
	Message string   `json:"message"`
	Failed  []string `json:"failed,omitempty"`
}

// HealthHandler handles health-check endpoints. "ping" is liveness only;
// "ready" runs every registered check.
type HealthHandler struct {
	checks  map[string]Check
	timeout time.Duration
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{checks: map[string]Check{}, timeout: 2 * time.Second}
}

// WithCheck registers a named readiness probe.
func (h *HealthHandler) WithCheck(name string, c Check) *HealthHandler {
	h.checks[name] = c
	return h
}

func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "ping":
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "pong"})
	case "ready":
		h.ready(w, r)
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}

func (h *HealthHandler) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var failed []string
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failed = append(failed, name)
		}
	}
	if len(failed) > 0 {
		sort.Strings(failed)
		writeJSON(w, http.StatusServiceUnavailable, ReadinessEnvelope{Message: "not ready", Failed: failed})
		return
	}
	writeJSON(w, http.StatusOK, ReadinessEnvelope{Message: "ready"})
}
