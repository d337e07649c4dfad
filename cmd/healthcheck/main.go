// Command healthcheck is the watchdog companion to the forwarder: it exits
// 0 when the heartbeat file is present, well formed, and fresh, and 1
// otherwise. Intended as a container HEALTHCHECK or cron probe.
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"docklog/internal/health"
)

const (
	defaultHealthFile = "/tmp/docklog-forwarder.health"
	defaultMaxAge     = 180 * time.Second
)

func main() {
	path := envOr("DOCKLOG_HEALTH_FILE", defaultHealthFile)

	maxAge := defaultMaxAge
	if raw := os.Getenv("HEALTH_MAX_AGE_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			fmt.Fprintf(os.Stderr, "invalid HEALTH_MAX_AGE_SECONDS: %q\n", raw)
			os.Exit(1)
		}
		maxAge = time.Duration(seconds) * time.Second
	}

	if _, err := health.Check(path, maxAge, time.Now()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	fmt.Println("ok")
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
