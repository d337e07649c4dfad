package ingestion

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/pterm/pterm"

	"docklog/internal/classify"
	"docklog/internal/console"
	"docklog/internal/health"
	"docklog/internal/notify"
)

// minSleep is the floor on the inter-tick sleep.
const minSleep = time.Second

// generalSource is the source name used for loop-level diagnostics.
const generalSource = "general"

// Status is the snapshot the scheduler publishes at the end of each tick,
// read by the optional status API.
type Status struct {
	Running      bool                `json:"running"`
	LastTick     time.Time           `json:"last_tick"`
	SourceNames  []string            `json:"source_names"`
	TrackedFiles []TrackedFileStatus `json:"tracked_files"`
}

// Scheduler drives the polling loop: each tick it runs the tracker over
// every source in order, prunes untouched identities, writes the heartbeat,
// and sleeps the remainder of the interval. Ticks never overlap and the
// in-progress tick always completes before shutdown.
type Scheduler struct {
	sources    []*Source
	tracker    *Tracker
	console    *console.Sink
	dispatcher *notify.Dispatcher
	heartbeat  *health.Writer
	interval   time.Duration
	logger     *pterm.Logger
	now        func() time.Time
	names      []string

	mu     sync.RWMutex
	status Status
}

// NewScheduler wires the tick loop. The interval is floored at one second.
func NewScheduler(
	sources []*Source,
	tracker *Tracker,
	sink *console.Sink,
	dispatcher *notify.Dispatcher,
	heartbeat *health.Writer,
	interval time.Duration,
	logger *pterm.Logger,
) *Scheduler {
	if interval < minSleep {
		interval = minSleep
	}
	names := make([]string, len(sources))
	for i, src := range sources {
		names[i] = src.Name
	}
	return &Scheduler{
		sources:    sources,
		tracker:    tracker,
		console:    sink,
		dispatcher: dispatcher,
		heartbeat:  heartbeat,
		interval:   interval,
		logger:     logger,
		now:        time.Now,
		names:      names,
		status:     Status{SourceNames: names},
	}
}

// Run executes ticks until ctx is cancelled. Cancellation is observed at
// tick boundaries (and during the inter-tick sleep), so the active tick
// always runs to completion.
func (s *Scheduler) Run(ctx context.Context) {
	s.logStartupSummary()

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return
		default:
		}

		start := s.now()
		s.Tick()

		delay := s.interval - time.Since(start)
		if delay < minSleep {
			delay = minSleep
		}
		timer.Reset(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.shutdown()
			return
		case <-timer.C:
		}
	}
}

// Tick runs one full polling pass over all sources.
func (s *Scheduler) Tick() {
	s.tracker.BeginTick()
	for _, src := range s.sources {
		s.tracker.ProcessSource(src, s.emit)
	}
	pruned := s.tracker.Prune()

	if err := s.heartbeat.Write(); err != nil {
		s.console.Diag(classify.SeverityError, generalSource, "failed to write heartbeat: %v", err)
	}

	s.publish(true)
	s.logger.Debug("tick complete",
		s.logger.Args("tracked_files", len(s.tracker.files), "pruned", pruned))
}

// emit runs one raw line through the classifier and forwards the result to
// the console sink and, under the gating rules, the webhook dispatcher.
func (s *Scheduler) emit(src *Source, line string) {
	message, severity, ok := src.Classifier.Classify(line)
	if !ok {
		return
	}

	ev := classify.Event{
		Source:    src.Name,
		Severity:  severity,
		Message:   message,
		Timestamp: s.now(),
	}
	s.console.Event(ev)
	s.dispatcher.Dispatch(ev, src.Notify, src.Triggers)
}

// Status returns the snapshot published at the last tick boundary.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Scheduler) publish(running bool) {
	snapshot := Status{
		Running:      running,
		LastTick:     s.now(),
		SourceNames:  s.names,
		TrackedFiles: s.tracker.Snapshot(),
	}
	s.mu.Lock()
	s.status = snapshot
	s.mu.Unlock()
}

func (s *Scheduler) shutdown() {
	s.mu.Lock()
	s.status.Running = false
	s.mu.Unlock()
	s.console.Diag(classify.SeverityInfo, generalSource, "Shutdown requested, exiting cleanly")
}

// logStartupSummary reports the effective configuration and which files
// each source currently matches, warning when a pattern matches nothing.
func (s *Scheduler) logStartupSummary() {
	s.console.Diag(classify.SeverityInfo, generalSource,
		"update interval %s, %d source(s) configured", s.interval, len(s.sources))

	for _, src := range s.sources {
		paths, err := filepath.Glob(src.Pattern)
		if err != nil {
			s.console.Diag(classify.SeverityError, src.Name, "invalid glob pattern %q: %v", src.Pattern, err)
			continue
		}
		if len(paths) == 0 {
			s.console.Diag(classify.SeverityWarn, src.Name, "No files currently match pattern: %s", src.Pattern)
			continue
		}
		for _, path := range paths {
			s.console.Diag(classify.SeverityInfo, src.Name, "Tracking file: %s", path)
		}
	}
}
