package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"civicport/api/internal/store"
)

func TestHealthEndpoint(t *testing.T) {
	server := NewHTTPServer(newTestService(store.NewSeededMemStore()), "*")

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if payload["ok"] != true {
		t.Fatalf("expected ok true, got %v", payload)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected request id header")
	}
}

func TestReadyEndpointReportsStoreFailure(t *testing.T) {
	ready := NewHTTPServer(newTestService(store.NewSeededMemStore()), "*")
	req := httptest.NewRequest(http.MethodGet, "/api/ready", nil)
	rr := httptest.NewRecorder()
	ready.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	broken := NewHTTPServer(newTestService(&failingPingStore{fakeStore: &fakeStore{}}), "*")
	req = httptest.NewRequest(http.MethodGet, "/api/ready", nil)
	rr = httptest.NewRecorder()
	broken.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if payload["status"] != "not_ready" {
		t.Fatalf("expected not_ready, got %v", payload)
	}
}

func TestOptionsRequestGetsCORSHeaders(t *testing.T) {
	server := NewHTTPServer(newTestService(store.NewSeededMemStore()), "https://portal.example.com")

	req := httptest.NewRequest(http.MethodOptions, "/api/issues", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://portal.example.com" {
		t.Errorf("unexpected CORS origin %q", got)
	}
}

type failingPingStore struct {
	*fakeStore
}

func (f *failingPingStore) Ping(context.Context) error {
	return errors.New("connection refused")
}
