// Package notify delivers classified events to an ntfy-compatible webhook.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"docklog/internal/classify"
)

// dispatchTimeout bounds every webhook call; a hung endpoint delays the
// polling loop by at most this long.
const dispatchTimeout = 10 * time.Second

// diagSource is the source name delivery failures are logged under.
const diagSource = "notification"

// Settings holds the global webhook configuration. Whether notifications
// are on at all is decided per source (the global switch is only the
// config-time default for sources that don't say otherwise).
type Settings struct {
	URL         string
	TitlePrefix string
	AuthToken   string
	AppName     string
}

// DiagLogger receives delivery diagnostics in the console line format.
type DiagLogger interface {
	Diag(severity classify.Severity, source, format string, args ...interface{})
}

// payload is the JSON body of a webhook call.
type payload struct {
	App       string `json:"app"`
	Source    string `json:"source"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Dispatcher sends qualifying events to the webhook, one synchronous POST
// per event. Failures are logged and swallowed; there is no retry or queue.
type Dispatcher struct {
	settings Settings
	client   *http.Client
	diag     DiagLogger
	now      func() time.Time
}

// NewDispatcher creates a webhook dispatcher with the fixed call timeout.
func NewDispatcher(settings Settings, diag DiagLogger) *Dispatcher {
	return &Dispatcher{
		settings: settings,
		client:   &http.Client{Timeout: dispatchTimeout},
		diag:     diag,
		now:      time.Now,
	}
}

// Dispatch sends the event if every gate holds: a configured URL,
// notifications enabled for the owning source, and the event severity in
// the source's trigger set. A missing gate suppresses the call silently.
// Returns whether a call was attempted.
func (d *Dispatcher) Dispatch(ev classify.Event, sourceEnabled bool, triggers classify.SeveritySet) bool {
	if d.settings.URL == "" {
		return false
	}
	if !sourceEnabled || !triggers.Contains(ev.Severity) {
		return false
	}

	d.send(ev)
	return true
}

func (d *Dispatcher) send(ev classify.Event) {
	level := ev.Severity.String()

	body, err := json.Marshal(payload{
		App:       d.settings.AppName,
		Source:    ev.Source,
		Level:     level,
		Message:   ev.Message,
		Timestamp: d.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		d.diag.Diag(classify.SeverityError, diagSource, "failed to marshal notification payload: %v", err)
		return
	}

	req, err := http.NewRequest(http.MethodPost, d.settings.URL, bytes.NewReader(body))
	if err != nil {
		d.diag.Diag(classify.SeverityError, diagSource, "failed to build notification request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Title", fmt.Sprintf("%s %s [%s]", d.settings.TitlePrefix, level, ev.Source))
	req.Header.Set("Tags", strings.ToLower(level))
	if d.settings.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+d.settings.AuthToken)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		d.diag.Diag(classify.SeverityError, diagSource, "failed to deliver notification: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		d.diag.Diag(classify.SeverityError, diagSource, "notification endpoint returned status %d", resp.StatusCode)
	}
}
