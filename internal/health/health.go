// Package health writes and validates the heartbeat file the external
// watchdog uses to decide whether the forwarder is alive.
package health

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Heartbeat is the artifact overwritten at the end of every tick.
type Heartbeat struct {
	Status                string   `json:"status"`
	Timestamp             int64    `json:"timestamp"`
	UpdateIntervalSeconds int      `json:"update_interval_seconds"`
	SourceNames           []string `json:"source_names"`
}

// Writer overwrites the heartbeat file each tick.
type Writer struct {
	path        string
	interval    time.Duration
	sourceNames []string
	now         func() time.Time
}

// NewWriter creates a heartbeat writer for the given file path.
func NewWriter(path string, interval time.Duration, sourceNames []string) *Writer {
	return &Writer{
		path:        path,
		interval:    interval,
		sourceNames: sourceNames,
		now:         time.Now,
	}
}

// Write replaces the heartbeat file with a fresh payload.
func (w *Writer) Write() error {
	hb := Heartbeat{
		Status:                "ok",
		Timestamp:             w.now().Unix(),
		UpdateIntervalSeconds: int(w.interval / time.Second),
		SourceNames:           w.sourceNames,
	}

	data, err := json.Marshal(hb)
	if err != nil {
		return fmt.Errorf("marshal heartbeat: %w", err)
	}

	if err := os.WriteFile(w.path, data, 0644); err != nil {
		return fmt.Errorf("write heartbeat file: %w", err)
	}
	return nil
}

// Check reads the heartbeat file and verifies it is present, well formed,
// and no older than maxAge. It returns the parsed heartbeat on success.
func Check(path string, maxAge time.Duration, now time.Time) (*Heartbeat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("heartbeat file missing: %s", path)
		}
		return nil, fmt.Errorf("read heartbeat file: %w", err)
	}

	var hb Heartbeat
	if err := json.Unmarshal(data, &hb); err != nil {
		return nil, fmt.Errorf("malformed heartbeat file: %w", err)
	}
	if hb.Timestamp <= 0 {
		return nil, fmt.Errorf("heartbeat has invalid timestamp %d", hb.Timestamp)
	}

	age := now.Sub(time.Unix(hb.Timestamp, 0))
	if age > maxAge {
		return nil, fmt.Errorf("stale heartbeat: %.1fs old (max %s)", age.Seconds(), maxAge)
	}

	return &hb, nil
}
