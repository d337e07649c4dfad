package console

import (
	"fmt"
	"io"
	"sync"
	"time"

	"docklog/internal/classify"
)

// ISO-8601 with second precision and a numeric UTC offset, matching the
// format the downstream log collector expects.
const timestampLayout = "2006-01-02T15:04:05-07:00"

// Sink writes classified events and loop diagnostics as single console
// lines: "<timestamp> [<LEVEL>] [<source>] <message>".
//
// The location is threaded in explicitly so that timestamp rendering never
// depends on process-wide timezone state.
type Sink struct {
	mu  sync.Mutex
	w   io.Writer
	loc *time.Location
	now func() time.Time
}

// NewSink creates a console sink writing to w with timestamps in loc.
// A nil loc falls back to UTC.
func NewSink(w io.Writer, loc *time.Location) *Sink {
	if loc == nil {
		loc = time.UTC
	}
	return &Sink{w: w, loc: loc, now: time.Now}
}

// Event emits a classified log event.
func (s *Sink) Event(ev classify.Event) {
	s.write(ev.Timestamp, ev.Severity.String(), ev.Source, ev.Message)
}

// Diag emits an internal diagnostic in the same line format as events.
func (s *Sink) Diag(severity classify.Severity, source, format string, args ...interface{}) {
	s.write(s.now(), severity.String(), source, fmt.Sprintf(format, args...))
}

func (s *Sink) write(ts time.Time, level, source, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "%s [%s] [%s] %s\n", ts.In(s.loc).Format(timestampLayout), level, source, message)
}
