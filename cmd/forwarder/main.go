package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pterm/pterm"

	"docklog/internal/api"
	"docklog/internal/banner"
	"docklog/internal/classify"
	"docklog/internal/config"
	"docklog/internal/console"
	"docklog/internal/health"
	"docklog/internal/ingestion"
	"docklog/internal/notify"
)

const (
	exitFatal  = 1
	exitConfig = 2
)

func main() {
	logger := pterm.DefaultLogger.WithLevel(pterm.LogLevelInfo)

	banner.Print()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", logger.Args("error", err))
		os.Exit(exitConfig)
	}

	logger = pterm.DefaultLogger.WithLevel(logLevel(cfg.LogLevel))
	logger.Debug("Configuration loaded",
		logger.Args(
			"update_interval", cfg.General.UpdateInterval.String(),
			"sources", len(cfg.Sources),
			"notifications_enabled", cfg.Notification.Enabled,
		))

	sink := console.NewSink(os.Stdout, cfg.Location)

	dispatcher := notify.NewDispatcher(notify.Settings{
		URL:         cfg.Notification.URL,
		TitlePrefix: cfg.Notification.TitlePrefix,
		AuthToken:   cfg.Notification.AuthToken,
		AppName:     config.AppName,
	}, sink)

	sources := make([]*ingestion.Source, len(cfg.Sources))
	names := make([]string, len(cfg.Sources))
	for i, sc := range cfg.Sources {
		sources[i] = &ingestion.Source{
			Name:    sc.Name,
			Pattern: sc.Pattern,
			Classifier: classify.NewClassifier(classify.Rules{
				Filter:            sc.FilterRegexp,
				StripSyslogHeader: sc.StripSyslogHeader,
			}),
			Notify:   sc.NotifyEnabled,
			Triggers: sc.TriggerSet,
		}
		names[i] = sc.Name
	}

	tracker := ingestion.NewTracker(sink)
	heartbeat := health.NewWriter(cfg.Health.File, cfg.General.UpdateInterval, names)
	scheduler := ingestion.NewScheduler(
		sources, tracker, sink, dispatcher, heartbeat,
		cfg.General.UpdateInterval, logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var statusServer *api.Server
	if cfg.StatusAPI.Enabled {
		statusServer = api.NewServer(&api.Config{
			Host: cfg.StatusAPI.Host,
			Port: cfg.StatusAPI.Port,
		}, scheduler, logger)
		go func() {
			if err := statusServer.Run(); err != nil {
				logger.Error("Status server error", logger.Args("error", err))
			}
		}()
	}

	if err := run(ctx, scheduler); err != nil {
		logger.Error("Fatal error", logger.Args("error", err))
		os.Exit(exitFatal)
	}

	if statusServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := statusServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Status server shutdown error", logger.Args("error", err))
		}
	}

	logger.Info("DockLog Forwarder stopped gracefully")
}

// run executes the polling loop, converting any panic escaping the loop
// into an error so the process exits with a generic failure code and a
// supervisor can restart it with fresh offset state.
func run(ctx context.Context, scheduler *ingestion.Scheduler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()
	scheduler.Run(ctx)
	return nil
}

func logLevel(level string) pterm.LogLevel {
	switch strings.ToLower(level) {
	case "trace":
		return pterm.LogLevelTrace
	case "debug":
		return pterm.LogLevelDebug
	case "warn", "warning":
		return pterm.LogLevelWarn
	case "error":
		return pterm.LogLevelError
	case "fatal":
		return pterm.LogLevelFatal
	default:
		return pterm.LogLevelInfo
	}
}
