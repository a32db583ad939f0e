// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/taskdeck/taskdeck/internal/handler/dto"
)

// serviceVersion is reported by the root endpoint.
const serviceVersion = "0.1.0"

// Handler serves the root service descriptor and the router fallbacks.
type Handler struct {
	environment string
	started     time.Time
}

// New creates a Handler. The environment appears in the root payload
// so operators can tell which deployment they hit.
func New(environment string) *Handler {
	return &Handler{
		environment: environment,
		started:     time.Now().UTC(),
	}
}

// ServiceInfo describes the running service.
type ServiceInfo struct {
	Service       string `json:"service"`
	Version       string `json:"version"`
	Environment   string `json:"environment"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// Info handles GET /.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ServiceInfo{
		Service:       "taskdeck",
		Version:       serviceVersion,
		Environment:   h.environment,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	})
}

// NotFound handles unmatched routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, dto.ErrorResponse{
		Error: "Resource not found",
		Code:  "NOT_FOUND",
	})
}

// MethodNotAllowed handles wrong-verb requests on known routes.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, dto.ErrorResponse{
		Error: "Method not allowed",
		Code:  "METHOD_NOT_ALLOWED",
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; nothing useful left to do.
		_ = err
	}
}
