package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfig tests the default configuration values.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Database.Driver != "postgres" {
		t.Errorf("Expected driver postgres, got %s", cfg.Database.Driver)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Expected port 5432, got %d", cfg.Database.Port)
	}
	if cfg.Trace.BaseURL != "https://globe.adsbexchange.com/globe_history" {
		t.Errorf("Unexpected archive base URL: %s", cfg.Trace.BaseURL)
	}
	if cfg.Trace.RateLimitSeconds != 1.0 {
		t.Errorf("Expected 1.0 rate limit seconds, got %v", cfg.Trace.RateLimitSeconds)
	}
	if cfg.Segmenter.MaxGapHours != 4.0 {
		t.Errorf("Expected 4.0 max gap hours, got %v", cfg.Segmenter.MaxGapHours)
	}

	if _, _, err := cfg.Trace.Window(); err != nil {
		t.Errorf("Default fetch window should parse: %v", err)
	}
}

// TestLoadMissingFile tests that a missing config file yields defaults.
func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Database != "fleettrack" {
		t.Errorf("Expected default database name, got %s", cfg.Database.Database)
	}
}

// TestSaveAndLoad tests the config round trip.
func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.json")

	cfg := DefaultConfig()
	cfg.Database.Host = "db.example.test"
	cfg.Trace.StartDate = "2025-02-01"
	cfg.Segmenter.MaxGapHours = 6.0

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Database.Host != "db.example.test" {
		t.Errorf("Expected host db.example.test, got %s", loaded.Database.Host)
	}
	if loaded.Trace.StartDate != "2025-02-01" {
		t.Errorf("Expected start date 2025-02-01, got %s", loaded.Trace.StartDate)
	}
	if loaded.Segmenter.MaxGapHours != 6.0 {
		t.Errorf("Expected 6.0 max gap hours, got %v", loaded.Segmenter.MaxGapHours)
	}
}

// TestEnvironmentOverrides tests environment variable precedence.
func TestEnvironmentOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	os.Setenv("FLEETTRACK_DB_HOST", "envhost")
	os.Setenv("FLEETTRACK_DB_PASSWORD", "secret")
	os.Setenv("FLEETTRACK_AIRPORTS_CSV", "/tmp/airports.csv")
	defer func() {
		os.Unsetenv("FLEETTRACK_DB_HOST")
		os.Unsetenv("FLEETTRACK_DB_PASSWORD")
		os.Unsetenv("FLEETTRACK_AIRPORTS_CSV")
	}()

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Host != "envhost" {
		t.Errorf("Expected env host override, got %s", cfg.Database.Host)
	}
	if cfg.Database.Password != "secret" {
		t.Errorf("Expected env password override, got %s", cfg.Database.Password)
	}
	if cfg.Data.AirportsCSV != "/tmp/airports.csv" {
		t.Errorf("Expected env airports path override, got %s", cfg.Data.AirportsCSV)
	}
}

// TestTraceWindow tests fetch window parsing.
func TestTraceWindow(t *testing.T) {
	t.Run("Valid window", func(t *testing.T) {
		cfg := TraceConfig{StartDate: "2025-01-01", EndDate: "2025-08-26"}
		start, end, err := cfg.Window()
		if err != nil {
			t.Fatalf("Window failed: %v", err)
		}
		if !start.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("Unexpected start: %v", start)
		}
		if !end.Equal(time.Date(2025, 8, 26, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("Unexpected end: %v", end)
		}
	})

	t.Run("Malformed date", func(t *testing.T) {
		cfg := TraceConfig{StartDate: "01/01/2025", EndDate: "2025-08-26"}
		if _, _, err := cfg.Window(); err == nil {
			t.Error("Expected error for malformed start date")
		}
	})

	t.Run("End before start", func(t *testing.T) {
		cfg := TraceConfig{StartDate: "2025-08-26", EndDate: "2025-01-01"}
		if _, _, err := cfg.Window(); err == nil {
			t.Error("Expected error for inverted window")
		}
	})
}

// TestMaxGap tests the gap duration conversion.
func TestMaxGap(t *testing.T) {
	cfg := SegmenterConfig{MaxGapHours: 4.0}
	if got := cfg.MaxGap(); got != 4*time.Hour {
		t.Errorf("Expected 4h, got %v", got)
	}

	cfg = SegmenterConfig{MaxGapHours: 1.5}
	if got := cfg.MaxGap(); got != 90*time.Minute {
		t.Errorf("Expected 90m, got %v", got)
	}

	// A config file without a segmenter section decodes to zero hours;
	// that must not mean "split at every report".
	cfg = SegmenterConfig{}
	if got := cfg.MaxGap(); got != 4*time.Hour {
		t.Errorf("Expected 4h fallback for zero gap, got %v", got)
	}

	cfg = SegmenterConfig{MaxGapHours: -1.0}
	if got := cfg.MaxGap(); got != 4*time.Hour {
		t.Errorf("Expected 4h fallback for negative gap, got %v", got)
	}
}

// TestMaxGapOmittedSection tests that loading a config file with no
// segmenter section still yields a usable gap.
func TestMaxGapOmittedSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"database": {"host": "localhost"}}`), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := cfg.Segmenter.MaxGap(); got != 4*time.Hour {
		t.Errorf("Expected 4h fallback, got %v", got)
	}
}
