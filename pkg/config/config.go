package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/unklstewy/fleettrack/pkg/flights"
)

// Config represents the complete application configuration.
type Config struct {
	Database  DatabaseConfig  `json:"database"`
	Trace     TraceConfig     `json:"trace"`
	Data      DataConfig      `json:"data"`
	Segmenter SegmenterConfig `json:"segmenter"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	// Driver is the database driver (postgres)
	Driver string `json:"driver"`

	// Host is the database server hostname
	Host string `json:"host"`

	// Port is the database server port
	Port int `json:"port"`

	// Database is the database name
	Database string `json:"database"`

	// Username for database authentication
	Username string `json:"username"`

	// Password for database authentication (should be loaded from environment)
	Password string `json:"password"`

	// SSLMode for PostgreSQL connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode"`

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int `json:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int `json:"max_idle_conns"`
}

// TraceConfig contains trace archive fetcher settings.
type TraceConfig struct {
	// BaseURL is the globe_history archive root
	BaseURL string `json:"base_url"`

	// UserAgent and Referer are sent with every archive request.
	// The archive rejects requests without browser-looking headers.
	UserAgent string `json:"user_agent"`
	Referer   string `json:"referer"`

	// RateLimitSeconds is the minimum time between archive calls in seconds
	RateLimitSeconds float64 `json:"rate_limit_seconds"`

	// StartDate and EndDate bound the fetch window, "YYYY-MM-DD" (UTC)
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// DataConfig contains reference data file paths.
type DataConfig struct {
	// AirportsCSV is the path to the ourairports-style airports table
	AirportsCSV string `json:"airports_csv"`

	// FleetCSV is the path to the aircraft roster
	FleetCSV string `json:"fleet_csv"`
}

// SegmenterConfig contains flight segmentation settings.
type SegmenterConfig struct {
	// MaxGapHours is the quiet period that splits two flights
	MaxGapHours float64 `json:"max_gap_hours"`
}

// MaxGap returns the configured gap as a duration. A config file without a
// segmenter section decodes to zero hours, which would split a flight at
// every report; non-positive values fall back to the segmenter default.
func (cfg SegmenterConfig) MaxGap() time.Duration {
	if cfg.MaxGapHours <= 0 {
		return flights.DefaultMaxGap
	}
	return time.Duration(cfg.MaxGapHours * float64(time.Hour))
}

// Window parses the configured fetch window.
func (cfg TraceConfig) Window() (start, end time.Time, err error) {
	start, err = time.ParseInLocation("2006-01-02", cfg.StartDate, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date %q: %w", cfg.StartDate, err)
	}
	end, err = time.ParseInLocation("2006-01-02", cfg.EndDate, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date %q: %w", cfg.EndDate, err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date %q before start_date %q", cfg.EndDate, cfg.StartDate)
	}
	return start, end, nil
}

// Load reads configuration from a JSON file.
// If the file doesn't exist, returns a default configuration.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	return &cfg, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:       "postgres",
			Host:         "localhost",
			Port:         5432,
			Database:     "fleettrack",
			Username:     "fleettrack",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Trace: TraceConfig{
			BaseURL:          "https://globe.adsbexchange.com/globe_history",
			UserAgent:        "Mozilla/5.0",
			Referer:          "https://globe.adsbexchange.com/",
			RateLimitSeconds: 1.0,
			StartDate:        "2025-01-01",
			EndDate:          "2025-08-26",
		},
		Data: DataConfig{
			AirportsCSV: "data/airports.csv",
			FleetCSV:    "data/fleet.csv",
		},
		Segmenter: SegmenterConfig{
			MaxGapHours: 4.0,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the
// config. This allows sensitive data like passwords to be kept out of
// config files.
func (c *Config) applyEnvironmentOverrides() {
	if host := os.Getenv("FLEETTRACK_DB_HOST"); host != "" {
		c.Database.Host = host
	}
	if password := os.Getenv("FLEETTRACK_DB_PASSWORD"); password != "" {
		c.Database.Password = password
	}
	if baseURL := os.Getenv("FLEETTRACK_TRACE_BASE_URL"); baseURL != "" {
		c.Trace.BaseURL = baseURL
	}
	if airports := os.Getenv("FLEETTRACK_AIRPORTS_CSV"); airports != "" {
		c.Data.AirportsCSV = airports
	}
	if fleetCSV := os.Getenv("FLEETTRACK_FLEET_CSV"); fleetCSV != "" {
		c.Data.FleetCSV = fleetCSV
	}
}
