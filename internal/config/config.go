// Package config loads and validates the forwarder configuration from a
// yaml file, with a small set of environment overrides bootstrapped from an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"docklog/internal/classify"
)

// AppName identifies the forwarder in notifications and default paths.
const AppName = "docklog-forwarder"

const (
	defaultConfigPath = "/etc/docklog-forwarder/docklog-forwarder.yaml"
	defaultHealthFile = "/tmp/docklog-forwarder.health"
	minUpdateInterval = time.Second
)

// Config holds the full application configuration.
type Config struct {
	General      GeneralConfig      `mapstructure:"general"`
	Notification NotificationConfig `mapstructure:"notification"`
	Sources      []SourceConfig     `mapstructure:"sources"`
	Health       HealthConfig       `mapstructure:"health"`
	StatusAPI    StatusAPIConfig    `mapstructure:"status_api"`

	// LogLevel comes from the environment, not the config file.
	LogLevel string `mapstructure:"-"`
	// Location is the resolved general.tz, threaded into timestamp
	// formatting instead of mutating process-wide timezone state.
	Location *time.Location `mapstructure:"-"`
}

// GeneralConfig contains loop-wide settings.
type GeneralConfig struct {
	TZ             string        `mapstructure:"tz"`
	UpdateInterval time.Duration `mapstructure:"update_interval"`
}

// NotificationConfig contains the global webhook settings and the defaults
// sources inherit when they define none of their own. Enabled is only a
// default: a source carrying its own notify flag wins either way.
type NotificationConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	URL         string   `mapstructure:"url"`
	Levels      []string `mapstructure:"levels"`
	TitlePrefix string   `mapstructure:"title_prefix"`
	AuthToken   string   `mapstructure:"auth_token"`

	TriggerSet classify.SeveritySet `mapstructure:"-"`
}

// SourceConfig describes one named log stream.
type SourceConfig struct {
	Name              string   `mapstructure:"name"`
	Pattern           string   `mapstructure:"pattern"`
	Filter            string   `mapstructure:"filter"`
	StripSyslogHeader bool     `mapstructure:"strip_syslog_header"`
	Notify            *bool    `mapstructure:"notify"`
	NotifyLevels      []string `mapstructure:"notify_levels"`

	// Derived during validation.
	FilterRegexp  *regexp.Regexp       `mapstructure:"-"`
	NotifyEnabled bool                 `mapstructure:"-"`
	TriggerSet    classify.SeveritySet `mapstructure:"-"`
}

// HealthConfig configures the heartbeat artifact.
type HealthConfig struct {
	File string `mapstructure:"file"`
}

// StatusAPIConfig configures the optional HTTP status server.
type StatusAPIConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// Load reads the config file named by DOCKLOG_CONFIG (falling back to the
// default path), applies defaults, and validates the result. A .env file in
// the working directory is honored for the environment overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFile(getEnv("DOCKLOG_CONFIG", defaultConfigPath))
}

// LoadFile loads and validates the configuration at the given path.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("general.tz", "UTC")
	v.SetDefault("general.update_interval", "1m")
	v.SetDefault("notification.levels", []string{"ERROR", "CRITICAL"})
	v.SetDefault("notification.title_prefix", AppName)
	v.SetDefault("health.file", defaultHealthFile)
	v.SetDefault("status_api.host", "0.0.0.0")
	v.SetDefault("status_api.port", 8080)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	if token := os.Getenv("DOCKLOG_AUTH_TOKEN"); token != "" {
		cfg.Notification.AuthToken = token
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	loc, err := time.LoadLocation(c.General.TZ)
	if err != nil {
		return fmt.Errorf("unknown timezone %q: %w", c.General.TZ, err)
	}
	c.Location = loc

	if c.General.UpdateInterval < minUpdateInterval {
		c.General.UpdateInterval = minUpdateInterval
	}

	c.Notification.TriggerSet, err = parseLevels(c.Notification.Levels)
	if err != nil {
		return fmt.Errorf("notification levels: %w", err)
	}

	if len(c.Sources) == 0 {
		return fmt.Errorf("no log sources found in config; add at least one entry under sources with a pattern")
	}

	seen := make(map[string]struct{}, len(c.Sources))
	for i := range c.Sources {
		src := &c.Sources[i]
		if src.Name == "" {
			return fmt.Errorf("source %d has no name", i)
		}
		if _, dup := seen[src.Name]; dup {
			return fmt.Errorf("duplicate source name %q", src.Name)
		}
		seen[src.Name] = struct{}{}

		if src.Pattern == "" {
			return fmt.Errorf("source %q has no pattern", src.Name)
		}

		if src.Filter != "" {
			src.FilterRegexp, err = regexp.Compile(src.Filter)
			if err != nil {
				return fmt.Errorf("source %q filter: %w", src.Name, err)
			}
		}

		// A source-level notify flag overrides the global switch; the
		// global trigger levels apply unless the source names its own.
		src.NotifyEnabled = c.Notification.Enabled
		if src.Notify != nil {
			src.NotifyEnabled = *src.Notify
		}
		if len(src.NotifyLevels) > 0 {
			src.TriggerSet, err = parseLevels(src.NotifyLevels)
			if err != nil {
				return fmt.Errorf("source %q notify_levels: %w", src.Name, err)
			}
		} else {
			src.TriggerSet = c.Notification.TriggerSet
		}
	}

	return nil
}

func parseLevels(names []string) (classify.SeveritySet, error) {
	set := make(classify.SeveritySet, len(names))
	for _, name := range names {
		sev, ok := classify.ParseSeverity(name)
		if !ok {
			return nil, fmt.Errorf("unknown severity %q", name)
		}
		set[sev] = struct{}{}
	}
	return set, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
