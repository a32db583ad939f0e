package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/taskdeck/taskdeck/internal/metrics"
)

func TestMetricsHandler(t *testing.T) {
	rec := metrics.NewInMemory()
	rec.IncUserRegistered()
	rec.IncTodoCreated()
	rec.IncActivityEventPublished("success")

	h := NewMetricsHandler(rec)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	res := httptest.NewRecorder()

	h.Metrics(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.Code)
	}

	body := res.Body.String()
	for _, want := range []string{
		"taskdeck_users_registered_total 1",
		"taskdeck_todos_created_total 1",
		`taskdeck_activity_events_published_total{status="success"} 1`,
		`taskdeck_logins_total{status="failure"} 0`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q:\n%s", want, body)
		}
	}
}

func TestMetricsHandler_NoSnapshotter(t *testing.T) {
	h := NewMetricsHandler(nil)

	res := httptest.NewRecorder()
	h.Metrics(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if res.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", res.Code)
	}
}
