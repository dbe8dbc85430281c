package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/supacortex/desktop/internal/paths"
)

// Defaults applied before decoding, so a missing key keeps its default.
const (
	DefaultReconnectDelayMS  = 1000
	DefaultBadStatusDelayMS  = 2000
	DefaultMaxFrameBytes     = 4 << 20
	DefaultProxyTimeoutMS    = 30000
	DefaultUpdateDelayMS     = 5000
	DefaultRetentionDays     = 30
	DefaultMirrorTopic       = "supacortex/events"
	DefaultMirrorClientID    = "supacortex-desktop"
	DefaultUpdateManifestURL = "https://releases.supacortex.ai/desktop/latest.json"
)

// Listener tunes the event stream reconnect loop.
type Listener struct {
	ReconnectDelayMS int `json:"reconnect_delay_ms,omitempty"`
	BadStatusDelayMS int `json:"bad_status_delay_ms,omitempty"`
	MaxFrameBytes    int `json:"max_frame_bytes,omitempty"`
}

// ReconnectDelay is the wait between a dropped connection and the next attempt.
func (l Listener) ReconnectDelay() time.Duration {
	return time.Duration(l.ReconnectDelayMS) * time.Millisecond
}

// BadStatusDelay is the extra wait after a non-2xx response.
func (l Listener) BadStatusDelay() time.Duration {
	return time.Duration(l.BadStatusDelayMS) * time.Millisecond
}

// Proxy configures proxied fetches from embedded content.
type Proxy struct {
	TimeoutMS int `json:"timeout_ms,omitempty"`
}

func (p Proxy) Timeout() time.Duration {
	return time.Duration(p.TimeoutMS) * time.Millisecond
}

// Updates configures the startup update check. Enabled is tri-state:
// nil follows the build type (production only), otherwise it forces the
// check on or off.
type Updates struct {
	Enabled        *bool  `json:"enabled,omitempty"`
	ManifestURL    string `json:"manifest_url,omitempty"`
	StartupDelayMS int    `json:"startup_delay_ms,omitempty"`
}

func (u Updates) StartupDelay() time.Duration {
	return time.Duration(u.StartupDelayMS) * time.Millisecond
}

// ShouldRun reports whether the update check runs for the given Wails
// build type ("production", "dev" or "debug").
func (u Updates) ShouldRun(buildType string) bool {
	if u.Enabled != nil {
		return *u.Enabled
	}
	return buildType == "production"
}

// Mirror republishes UI events to an MQTT broker. Empty Broker disables it.
type Mirror struct {
	Broker   string `json:"broker,omitempty"`
	Topic    string `json:"topic,omitempty"`
	ClientID string `json:"client_id,omitempty"`
	QoS      byte   `json:"qos,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// Journal configures the SQLite activity journal.
type Journal struct {
	Enabled             bool   `json:"enabled"`
	Path                string `json:"path,omitempty"`
	RetentionDays       int    `json:"retention_days,omitempty"`
	IncludeStreamEvents bool   `json:"include_stream_events,omitempty"`
}

// UI configures the main window.
type UI struct {
	URL string `json:"url,omitempty"` // navigate here on startup; empty keeps the bundled page
}

// Config holds the top-level configuration.
type Config struct {
	Listener Listener `json:"listener"`
	Proxy    Proxy    `json:"proxy"`
	Updates  Updates  `json:"updates"`
	Mirror   Mirror   `json:"mirror"`
	Journal  Journal  `json:"journal"`
	UI       UI       `json:"ui"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Listener: Listener{
			ReconnectDelayMS: DefaultReconnectDelayMS,
			BadStatusDelayMS: DefaultBadStatusDelayMS,
			MaxFrameBytes:    DefaultMaxFrameBytes,
		},
		Proxy: Proxy{TimeoutMS: DefaultProxyTimeoutMS},
		Updates: Updates{
			ManifestURL:    DefaultUpdateManifestURL,
			StartupDelayMS: DefaultUpdateDelayMS,
		},
		Mirror: Mirror{
			Topic:    DefaultMirrorTopic,
			ClientID: DefaultMirrorClientID,
		},
		Journal: Journal{
			Enabled:       true,
			RetentionDays: DefaultRetentionDays,
		},
	}
}

// UnmarshalJSON sets defaults then decodes the JSON structure.
// Go's json.Unmarshal merges into existing struct fields, so only
// values present in JSON override the defaults.
func (c *Config) UnmarshalJSON(data []byte) error {
	*c = Default()
	type Alias Config
	return json.Unmarshal(data, (*Alias)(c))
}

// Validate checks values that would otherwise fail later at runtime.
func Validate(cfg Config) error {
	l := cfg.Listener
	if l.ReconnectDelayMS < 0 || l.BadStatusDelayMS < 0 {
		return fmt.Errorf("listener: delays must not be negative")
	}
	if l.MaxFrameBytes < 0 {
		return fmt.Errorf("listener: max_frame_bytes must not be negative")
	}
	if cfg.Proxy.TimeoutMS < 0 {
		return fmt.Errorf("proxy: timeout_ms must not be negative")
	}
	if cfg.Updates.StartupDelayMS < 0 {
		return fmt.Errorf("updates: startup_delay_ms must not be negative")
	}
	if cfg.Updates.ManifestURL != "" {
		if err := checkURL(cfg.Updates.ManifestURL, "http", "https"); err != nil {
			return fmt.Errorf("updates: manifest_url: %w", err)
		}
	}
	if cfg.Mirror.Broker != "" {
		if err := checkURL(cfg.Mirror.Broker, "tcp", "ssl", "tls", "ws", "wss", "mqtt", "mqtts"); err != nil {
			return fmt.Errorf("mirror: broker: %w", err)
		}
		if cfg.Mirror.Topic == "" {
			return fmt.Errorf("mirror: topic is required when broker is set")
		}
		if cfg.Mirror.QoS > 2 {
			return fmt.Errorf("mirror: qos must be 0, 1 or 2")
		}
	}
	if cfg.Journal.RetentionDays < 0 {
		return fmt.Errorf("journal: retention_days must not be negative")
	}
	if cfg.UI.URL != "" {
		if err := checkURL(cfg.UI.URL, "http", "https"); err != nil {
			return fmt.Errorf("ui: url: %w", err)
		}
	}
	return nil
}

func checkURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("%q: unsupported scheme %q", raw, u.Scheme)
}

// FindPath returns the config file Load would read. It tries, in order:
//  1. explicitPath (if non-empty)
//  2. supacortex-config.json next to the running binary
//  3. supacortex-config.json in paths.DataDir()
func FindPath(explicitPath string) (string, error) {
	if explicitPath != "" {
		return explicitPath, nil
	}

	// Next to binary
	exe, err := os.Executable()
	if err == nil {
		p := filepath.Join(filepath.Dir(exe), paths.ConfigFileName)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	// User config directory
	p := filepath.Join(paths.DataDir(), paths.ConfigFileName)
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}

	return "", os.ErrNotExist
}

// Load reads and parses the config file found by FindPath. Without an
// explicit path a missing file is not an error: the defaults are returned.
func Load(explicitPath string) (Config, error) {
	p, err := FindPath(explicitPath)
	if err != nil {
		return Default(), nil
	}
	return readConfig(p)
}

func readConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
