package handler

import (
	"fmt"
	"net/http"

	"github.com/taskdeck/taskdeck/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns counters in Prometheus exposition format.
//
// GET /metrics
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "taskdeck_users_registered_total %d\n", snap.UsersRegistered)
	writeMetric(w, "taskdeck_logins_total{status=\"success\"} %d\n", snap.LoginSuccesses)
	writeMetric(w, "taskdeck_logins_total{status=\"failure\"} %d\n", snap.LoginFailures)

	writeMetric(w, "taskdeck_todos_created_total %d\n", snap.TodosCreated)
	writeMetric(w, "taskdeck_todos_updated_total %d\n", snap.TodosUpdated)
	writeMetric(w, "taskdeck_todos_deleted_total %d\n", snap.TodosDeleted)

	for _, status := range []string{"success", "dropped"} {
		writeMetric(w, "taskdeck_activity_events_published_total{status=%q} %d\n", status, snap.ActivityPublished[status])
	}
	for _, status := range []string{"success", "failed"} {
		writeMetric(w, "taskdeck_activity_events_processed_total{status=%q} %d\n", status, snap.ActivityProcessed[status])
	}
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
