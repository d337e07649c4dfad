package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pterm/pterm"

	"docklog/internal/ingestion"
)

type fakeProvider struct {
	status ingestion.Status
}

func (f *fakeProvider) Status() ingestion.Status { return f.status }

func statusServer(status ingestion.Status) *Server {
	logger := pterm.DefaultLogger.WithLevel(pterm.LogLevelFatal)
	return NewServer(&Config{Host: "127.0.0.1", Port: 0}, &fakeProvider{status: status}, logger)
}

func TestHealthEndpointRunning(t *testing.T) {
	srv := statusServer(ingestion.Status{
		Running:     true,
		LastTick:    time.Now(),
		SourceNames: []string{"app"},
	})

	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", body["status"])
	}
}

func TestHealthEndpointStopped(t *testing.T) {
	srv := statusServer(ingestion.Status{Running: false})

	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestStatusEndpointReturnsSnapshot(t *testing.T) {
	srv := statusServer(ingestion.Status{
		Running:     true,
		SourceNames: []string{"traefik", "syslog"},
		TrackedFiles: []ingestion.TrackedFileStatus{
			{Path: "/var/log/traefik/access.log", Offset: 1234, Dev: 1, Ino: 42},
		},
	})

	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got ingestion.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got.TrackedFiles) != 1 || got.TrackedFiles[0].Offset != 1234 {
		t.Errorf("unexpected snapshot %+v", got)
	}
	if len(got.SourceNames) != 2 {
		t.Errorf("unexpected source names %v", got.SourceNames)
	}
}
