// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

package config

import (
	"time"
)

// Config is the complete runtime configuration, assembled from defaults, an
// optional YAML file, and environment variables in that order of precedence.
type Config struct {
	TV          TVConfig          `koanf:"tv"`
	SmartThings SmartThingsConfig `koanf:"smartthings"`
	Cache       CacheConfig       `koanf:"cache"`
	Sync        SyncConfig        `koanf:"sync"`
	Server      ServerConfig      `koanf:"server"`
	State       StateConfig       `koanf:"state"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// TVConfig addresses the Frame TV's art-app WebSocket channel.
type TVConfig struct {
	// Host is the TV's IP address or hostname on the local network.
	Host string `koanf:"host" validate:"required"`

	// Port is the WebSocket port: 8002 (TLS, token-paired) or 8001 (plain).
	Port int `koanf:"port" validate:"oneof=8001 8002"`

	// ClientName is shown on the TV's pairing prompt.
	ClientName string `koanf:"client_name"`

	// Token is the pairing token granted after the first connect on the
	// secure port. Persisted automatically once the TV issues one.
	Token string `koanf:"token"`

	RequestTimeout time.Duration `koanf:"request_timeout" validate:"min=1s"`
	ReconnectDelay time.Duration `koanf:"reconnect_delay" validate:"min=100ms"`
}

// SmartThingsConfig enables the cloud power-control path. Optional; the
// bridge works fully locally without it.
type SmartThingsConfig struct {
	Enabled      bool   `koanf:"enabled"`
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`

	// DeviceID is the SmartThings device ID of the TV.
	DeviceID string `koanf:"device_id"`

	// RefreshToken seeds the OAuth credential on first start. Subsequent
	// tokens are persisted in the state store.
	RefreshToken string `koanf:"refresh_token"`
}

// CacheConfig locates the thumbnail cache.
type CacheConfig struct {
	Dir string `koanf:"dir" validate:"required"`

	// Throttle is the minimum gap between thumbnail transfers during a
	// sync run. Zero disables throttling.
	Throttle time.Duration `koanf:"throttle" validate:"min=0"`
}

// SyncConfig schedules the background reconciliation runs.
type SyncConfig struct {
	// Interval between scheduled runs. Zero disables the scheduler;
	// syncs then happen only on demand through the API.
	Interval time.Duration `koanf:"interval" validate:"min=0"`

	// OnStartup triggers a run as soon as the TV connection is ready.
	OnStartup bool `koanf:"on_startup"`

	// Selector scopes scheduled runs: all, favorites, or personal.
	Selector string `koanf:"selector" validate:"oneof=all favorites personal"`

	// CleanupOrphans removes cached thumbnails for deleted artwork.
	CleanupOrphans bool `koanf:"cleanup_orphans"`
}

// ServerConfig is the HTTP API listener.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout" validate:"min=1s"`

	RateLimitReqs   int           `koanf:"rate_limit_requests" validate:"min=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"min=1s"`
}

// StateConfig locates the persistent state store.
type StateConfig struct {
	Dir string `koanf:"dir" validate:"required"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns the built-in defaults, applied before the config
// file and environment layers.
func defaultConfig() *Config {
	return &Config{
		TV: TVConfig{
			Host:           "",
			Port:           8002,
			ClientName:     "Framebridge",
			RequestTimeout: 5 * time.Second,
			ReconnectDelay: 1 * time.Second,
		},
		SmartThings: SmartThingsConfig{
			Enabled: false,
		},
		Cache: CacheConfig{
			Dir:      "/data/thumbnails",
			Throttle: 250 * time.Millisecond,
		},
		Sync: SyncConfig{
			Interval:       6 * time.Hour,
			OnStartup:      true,
			Selector:       "all",
			CleanupOrphans: true,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8090,
			Timeout:         60 * time.Second,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		State: StateConfig{
			Dir: "/data/state",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
