package opsserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/samvad-hq/imgur-harvester/internal/metrics"
)

func TestRouterHealthEndpoints(t *testing.T) {
	var readyErr error
	h := NewRouter("test", nil, func() error { return readyErr })

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("X-Harvester-Env") != "test" {
		t.Fatalf("live: code=%d headers=%v", rec.Code, rec.Header())
	}

	readyErr = errors.New("no pass completed")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready before pass: code=%d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "not_ready" || body["reason"] != "no pass completed" {
		t.Fatalf("unexpected body %v", body)
	}

	readyErr = nil
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("ready: code=%d", rec.Code)
	}
}

func TestRouterServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewHarvestMetrics(reg).AddFetched("cats", 4)

	rec := httptest.NewRecorder()
	NewRouter("test", reg, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: code=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `imgur_harvester_images_fetched_total{source="cats"} 4`) {
		t.Fatalf("metrics body missing counter:\n%s", rec.Body.String())
	}
}

func TestRouterWithoutGathererHasNoMetrics(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRouter("test", nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestServerServeStopsOnCancel(t *testing.T) {
	srv, err := Listen("127.0.0.1:0", NewRouter("test", nil, nil), nil)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	resp, err := http.Get("http://" + srv.Addr() + "/health/live")
	if err != nil {
		t.Fatalf("GET live: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("live status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Serve did not return after cancel")
	}
}
