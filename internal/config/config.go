// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := hevy.NewClient(hevy.Config{BaseURL: cfg.Hevy.BaseURL, APIKey: cfg.Hevy.APIKey})
type Config struct {
	Hevy     HevyConfig     `koanf:"hevy"`
	Backfill BackfillConfig `koanf:"backfill"`
	Cache    CacheConfig    `koanf:"cache"`
	Store    StoreConfig    `koanf:"store"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Events   EventsConfig   `koanf:"events"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// HevyConfig configures the upstream workout API client.
type HevyConfig struct {
	BaseURL           string        `koanf:"base_url" validate:"required"`
	APIKey            string        `koanf:"api_key"`
	Timeout           time.Duration `koanf:"timeout" validate:"gt=0"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gt=0"`
	Burst             int           `koanf:"burst" validate:"min=1"`
	MaxRetries        int           `koanf:"max_retries" validate:"min=0,max=10"`
	RetryBaseDelay    time.Duration `koanf:"retry_base_delay" validate:"gte=0"`
}

// BackfillConfig controls the synchronizer.
type BackfillConfig struct {
	PageSize      int           `koanf:"page_size" validate:"min=1,max=10"`
	RequestDelay  time.Duration `koanf:"request_delay" validate:"gte=0"`
	StopThreshold int           `koanf:"stop_threshold" validate:"min=1"`
	RunTimeout    time.Duration `koanf:"run_timeout" validate:"gt=0"`

	// Interval of the periodic run; 0 disables it.
	Interval      time.Duration `koanf:"interval" validate:"gte=0"`
	SyncOnStartup bool          `koanf:"sync_on_startup"`
	SyncOnMiss    bool          `koanf:"sync_on_miss"`
}

// CacheConfig holds the TTL presets of the API cache.
type CacheConfig struct {
	GeneralTTL      time.Duration `koanf:"general_ttl" validate:"gt=0"`
	StatsTTL        time.Duration `koanf:"stats_ttl" validate:"gt=0"`
	VolatileTTL     time.Duration `koanf:"volatile_ttl" validate:"gt=0"`
	CleanupInterval time.Duration `koanf:"cleanup_interval" validate:"gte=0"`
}

// StoreConfig selects the durable store.
type StoreConfig struct {
	Backend string `koanf:"backend" validate:"oneof=badger duckdb memory"`

	// Path is the badger directory or the duckdb file. Empty runs in memory.
	Path string `koanf:"path"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// SecurityConfig holds admin authentication and request limiting.
type SecurityConfig struct {
	AdminSecret       string        `koanf:"admin_secret"`
	AllowLocalhost    bool          `koanf:"allow_localhost"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// EventsConfig selects the event transport. An empty NATSURL keeps events
// in process.
type EventsConfig struct {
	NATSURL       string        `koanf:"nats_url"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait" validate:"gte=0"`
	BufferSize    int           `koanf:"buffer_size" validate:"min=1"`
}

// LoggingConfig holds logging settings for zerolog.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, the optional config file and the
// environment, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
