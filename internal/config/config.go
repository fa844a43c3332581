// Package config loads pipeline settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Database settings
	DatabaseURL string // Postgres DSN, required
	ServiceKey  string // elevated service credential for the ingest writer

	// HTTP trigger settings
	Port           string
	AllowedOrigins []string // CORS allowlist, first entry is the safe default

	// Scheduler settings
	BatchSize      int           // sources per run (default 10, hard cap 20)
	GroupSize      int           // sources fetched concurrently per group
	StaleThreshold time.Duration // minimum idle time before a source is due
	MaxErrorCount  int           // sources at or above this are excluded

	// Fetch settings
	FeedTimeout time.Duration // per feed fetch
	PageTimeout time.Duration // per webpage fetch
	HostDelay   time.Duration // politeness delay between fetches to one host

	// Sources seed file (YAML), optional
	SourcesConfigPath string

	// App settings
	Debug   bool
	RunOnce bool // run a single ingestion pass and exit
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		Port:              "8080",
		AllowedOrigins:    []string{"http://localhost:3000"},
		BatchSize:         10,
		GroupSize:         3,
		StaleThreshold:    30 * time.Minute,
		MaxErrorCount:     5,
		FeedTimeout:       30 * time.Second,
		PageTimeout:       25 * time.Second,
		HostDelay:         500 * time.Millisecond,
		SourcesConfigPath: "configs/sources.yaml",
	}

	// Load from environment
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.ServiceKey = os.Getenv("SERVICE_ROLE_KEY")

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = cfg.AllowedOrigins[:0]
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	if path := os.Getenv("SOURCES_CONFIG_PATH"); path != "" {
		cfg.SourcesConfigPath = path
	}

	cfg.BatchSize = getEnvIntOrDefault("BATCH_SIZE", cfg.BatchSize)
	cfg.GroupSize = getEnvIntOrDefault("GROUP_SIZE", cfg.GroupSize)

	if v := os.Getenv("STALE_THRESHOLD_MINUTES"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.StaleThreshold = time.Duration(val) * time.Minute
		}
	}

	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}
	if once := os.Getenv("RUN_ONCE"); once == "true" {
		cfg.RunOnce = true
	}

	cfg.clamp()

	return cfg, cfg.Validate()
}

// clamp keeps caller-supplied knobs inside safe bounds.
func (c *Config) clamp() {
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.BatchSize > 20 {
		c.BatchSize = 20
	}
	if c.GroupSize <= 0 {
		c.GroupSize = 3
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"http://localhost:3000"}
	}
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}
