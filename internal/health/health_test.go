package health

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriteProducesExpectedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forwarder.health")
	w := NewWriter(path, 60*time.Second, []string{"traefik", "syslog"})
	w.now = func() time.Time { return time.Unix(1700000000, 0) }

	if err := w.Write(); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading heartbeat: %v", err)
	}

	var hb Heartbeat
	if err := json.Unmarshal(data, &hb); err != nil {
		t.Fatalf("heartbeat not valid JSON: %v", err)
	}

	if hb.Status != "ok" {
		t.Errorf("status = %q, want ok", hb.Status)
	}
	if hb.Timestamp != 1700000000 {
		t.Errorf("timestamp = %d, want 1700000000", hb.Timestamp)
	}
	if hb.UpdateIntervalSeconds != 60 {
		t.Errorf("update_interval_seconds = %d, want 60", hb.UpdateIntervalSeconds)
	}
	if len(hb.SourceNames) != 2 || hb.SourceNames[0] != "traefik" || hb.SourceNames[1] != "syslog" {
		t.Errorf("unexpected source_names %v", hb.SourceNames)
	}
}

func TestWriteOverwritesPreviousHeartbeat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forwarder.health")
	w := NewWriter(path, time.Second, []string{"a"})

	w.now = func() time.Time { return time.Unix(100, 0) }
	if err := w.Write(); err != nil {
		t.Fatal(err)
	}
	w.now = func() time.Time { return time.Unix(200, 0) }
	if err := w.Write(); err != nil {
		t.Fatal(err)
	}

	hb, err := Check(path, time.Hour, time.Unix(210, 0))
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if hb.Timestamp != 200 {
		t.Errorf("timestamp = %d, want 200 (latest write)", hb.Timestamp)
	}
}

func TestCheckFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forwarder.health")
	w := NewWriter(path, 30*time.Second, []string{"app"})
	w.now = func() time.Time { return time.Unix(1000, 0) }
	if err := w.Write(); err != nil {
		t.Fatal(err)
	}

	if _, err := Check(path, 180*time.Second, time.Unix(1100, 0)); err != nil {
		t.Errorf("expected fresh heartbeat to pass, got %v", err)
	}
}

func TestCheckStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forwarder.health")
	w := NewWriter(path, 30*time.Second, []string{"app"})
	w.now = func() time.Time { return time.Unix(1000, 0) }
	if err := w.Write(); err != nil {
		t.Fatal(err)
	}

	if _, err := Check(path, 180*time.Second, time.Unix(1500, 0)); err == nil {
		t.Error("expected stale heartbeat to fail")
	}
}

func TestCheckMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.health")
	if _, err := Check(path, time.Minute, time.Now()); err == nil {
		t.Error("expected missing heartbeat to fail")
	}
}

func TestCheckMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forwarder.health")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Check(path, time.Minute, time.Now()); err == nil {
		t.Error("expected malformed heartbeat to fail")
	}
}

func TestCheckInvalidTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forwarder.health")
	if err := os.WriteFile(path, []byte(`{"status":"ok","timestamp":0}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Check(path, time.Minute, time.Now()); err == nil {
		t.Error("expected zero timestamp to fail")
	}
}
