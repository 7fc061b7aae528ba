package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lidarpt/config"
)

func TestHandleStatusReturnsSnapshot(t *testing.T) {
	s := New(func() Status {
		return Status{Phase: "solving", PhaseTimings: map[string]string{"preprocess": "1.2s"}, Telemetry: config.NewTelemetry()}
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "solving") {
		t.Fatalf("expected phase in body, got %s", rec.Body.String())
	}
}

func TestHandleRunsWithoutHistoryReturnsEmptyList(t *testing.T) {
	s := New(func() Status { return Status{} }, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %s", rec.Body.String())
	}
}

func TestHandleRunReportWithoutHistoryReturns404(t *testing.T) {
	s := New(func() Status { return Status{} }, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/abc/report", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
