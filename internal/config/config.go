// Package config loads layered configuration for MediTrack: built-in
// defaults, then an optional YAML file, then MEDITRACK_ environment
// variables, each layer overriding the previous one.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// AppName is the application name used for data and config directories.
const AppName = "meditrack"

type Config struct {
	Client    ClientConfig    `koanf:"client"`
	Server    ServerConfig    `koanf:"server"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Storage   StorageConfig   `koanf:"storage"`
	Notify    NotifyConfig    `koanf:"notify"`
	Log       LogConfig       `koanf:"log"`
}

// ClientConfig configures the connection to the sync service.
type ClientConfig struct {
	// BaseURL is the sync service root, e.g. "http://localhost:8480".
	// Empty disables remote mode entirely.
	BaseURL string `koanf:"base_url"`
	// AppID scopes all owner namespaces, mirrored by the service.
	AppID string `koanf:"app_id"`
	// Timeout bounds each request, in seconds.
	Timeout int `koanf:"timeout"`
}

// ServerConfig configures the embedded sync service.
type ServerConfig struct {
	Listen string `koanf:"listen"`
	AppID  string `koanf:"app_id"`
}

// SchedulerConfig configures the due-reminder poll loop.
type SchedulerConfig struct {
	// PollInterval is the fixed period between due checks, in seconds.
	PollInterval int `koanf:"poll_interval"`
	// AlertTimeout is how long an unacknowledged alert stays up, in seconds.
	AlertTimeout int `koanf:"alert_timeout"`
}

// StorageConfig configures the local store.
type StorageConfig struct {
	// Path is the badger directory. Empty uses the xdg default,
	// ":memory:" forces in-memory mode.
	Path string `koanf:"path"`
}

// NotifyConfig configures side-channel notifications.
type NotifyConfig struct {
	// SMSGatewayURL receives POSTed dose notifications for reminders that
	// opted into SMS. Empty disables the side channel.
	SMSGatewayURL string `koanf:"sms_gateway_url"`
	// WebhookURL receives every dose notification as JSON. Optional.
	WebhookURL string `koanf:"webhook_url"`
	// Desktop selects the terminal popup surface when running `watch`
	// interactively.
	Desktop bool `koanf:"desktop"`
}

// LogConfig configures logging.
type LogConfig struct {
	Debug bool `koanf:"debug"`
	JSON  bool `koanf:"json"`
}

// DefaultFilePath returns the default config file location.
func DefaultFilePath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// DefaultStoragePath returns the default badger directory.
func DefaultStoragePath() string {
	return filepath.Join(xdg.DataHome, AppName, "db")
}

// Load builds the configuration from defaults, the given file (or the
// default location when empty) and the environment.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath == "" {
		configPath = DefaultFilePath()
	}
	if _, err := os.Stat(configPath); err == nil {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("MEDITRACK_", ".", func(s string) string {
		// MEDITRACK_SERVER is a shorthand handled by the runtime, not a
		// config key; mapping it here would shadow the server section.
		if s == "MEDITRACK_SERVER" {
			return ""
		}
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "MEDITRACK_")), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath()
	}
	if cfg.Client.AppID == "" {
		cfg.Client.AppID = AppName
	}
	if cfg.Server.AppID == "" {
		cfg.Server.AppID = cfg.Client.AppID
	}

	return &cfg, nil
}

// PollInterval returns the poll period as a duration.
func (c SchedulerConfig) PollIntervalDuration() time.Duration {
	return time.Duration(c.PollInterval) * time.Second
}

// AlertTimeoutDuration returns the alert timeout as a duration.
func (c SchedulerConfig) AlertTimeoutDuration() time.Duration {
	return time.Duration(c.AlertTimeout) * time.Second
}

// ClientTimeout returns the HTTP client timeout as a duration.
func (c ClientConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}
