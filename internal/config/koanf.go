// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/liftsync/config.yaml",
	"/etc/liftsync/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Hevy: HevyConfig{
			BaseURL:           "https://api.hevyapp.com",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 5,
			Burst:             2,
			MaxRetries:        3,
			RetryBaseDelay:    time.Second,
		},
		Backfill: BackfillConfig{
			PageSize:      10,
			RequestDelay:  150 * time.Millisecond,
			StopThreshold: 10,
			RunTimeout:    10 * time.Minute,
			Interval:      0,
			SyncOnStartup: false,
			SyncOnMiss:    true,
		},
		Cache: CacheConfig{
			GeneralTTL:      4 * time.Hour,
			StatsTTL:        6 * time.Hour,
			VolatileTTL:     5 * time.Minute,
			CleanupInterval: 5 * time.Minute,
		},
		Store: StoreConfig{
			Backend: "badger",
			Path:    "/data/liftsync",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3857,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Security: SecurityConfig{
			AllowLocalhost:  true,
			CORSOrigins:     []string{},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Events: EventsConfig{
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
			BufferSize:    64,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration with precedence ENV > file > defaults
// and validates the result.
func LoadWithKoanf() (*Config, error) {
	return loadFrom(findConfigFile())
}

// LoadFile is LoadWithKoanf with an explicit config file path.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	return loadFrom(path)
}

func loadFrom(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as strings (env vars).
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to config paths.
var envMappings = map[string]string{
	"hevy_api_key":             "hevy.api_key",
	"hevy_base_url":            "hevy.base_url",
	"hevy_timeout":             "hevy.timeout",
	"hevy_requests_per_second": "hevy.requests_per_second",
	"hevy_burst":               "hevy.burst",
	"hevy_max_retries":         "hevy.max_retries",
	"hevy_retry_delay":         "hevy.retry_base_delay",

	"backfill_page_size":      "backfill.page_size",
	"backfill_delay":          "backfill.request_delay",
	"backfill_stop_threshold": "backfill.stop_threshold",
	"backfill_timeout":        "backfill.run_timeout",
	"sync_interval":           "backfill.interval",
	"sync_on_startup":         "backfill.sync_on_startup",
	"sync_on_cache_miss":      "backfill.sync_on_miss",

	"cache_ttl_general":      "cache.general_ttl",
	"cache_ttl_stats":        "cache.stats_ttl",
	"cache_ttl_volatile":     "cache.volatile_ttl",
	"cache_cleanup_interval": "cache.cleanup_interval",

	"store_backend": "store.backend",
	"store_path":    "store.path",

	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	"admin_secret":          "security.admin_secret",
	"admin_allow_localhost": "security.allow_localhost",
	"cors_origins":          "security.cors_origins",
	"rate_limit_requests":   "security.rate_limit_reqs",
	"rate_limit_window":     "security.rate_limit_window",
	"disable_rate_limit":    "security.rate_limit_disabled",

	"nats_url":            "events.nats_url",
	"nats_max_reconnects": "events.max_reconnects",
	"nats_reconnect_wait": "events.reconnect_wait",
	"events_buffer_size":  "events.buffer_size",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc returns the config path for an environment variable, or
// "" so that unrelated variables never leak into the config.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
