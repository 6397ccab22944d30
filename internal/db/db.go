package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/unklstewy/fleettrack/pkg/config"
)

//go:embed schema.sql
var schemaSQL embed.FS

// DB wraps a database connection with helper methods.
type DB struct {
	*sql.DB
	config config.DatabaseConfig
}

// Connect establishes a connection to the PostgreSQL database.
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
		cfg.SSLMode,
	)

	sqlDB, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{
		DB:     sqlDB,
		config: cfg,
	}

	return db, nil
}

// InitSchema creates or updates the database schema.
// This should be called once at application startup.
func (db *DB) InitSchema(ctx context.Context) error {
	schemaBytes, err := schemaSQL.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	if _, err := db.ExecContext(ctx, string(schemaBytes)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// CleanupOldTraces removes cached trace payloads older than the retention
// window. Should be called periodically to prevent unbounded growth; the
// upstream archive is immutable, so pruned days are simply re-fetched.
func (db *DB) CleanupOldTraces(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().UTC().Add(-maxAge)

	_, err := db.ExecContext(ctx,
		`DELETE FROM trace_days WHERE fetched_at < $1`,
		cutoff,
	)
	if err != nil {
		return fmt.Errorf("failed to delete old trace payloads: %w", err)
	}

	return nil
}

// GetStats returns database statistics.
func (db *DB) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var cachedDays int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trace_days`,
	).Scan(&cachedDays)
	if err != nil {
		return nil, err
	}
	stats["cached_days"] = cachedDays

	var emptyDays int64
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trace_days WHERE empty = TRUE`,
	).Scan(&emptyDays)
	if err != nil {
		return nil, err
	}
	stats["empty_days"] = emptyDays

	var flightRows int64
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM flights`,
	).Scan(&flightRows)
	if err != nil {
		return nil, err
	}
	stats["flight_rows"] = flightRows

	var aircraftTracked int64
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT icao) FROM flights`,
	).Scan(&aircraftTracked)
	if err != nil {
		return nil, err
	}
	stats["aircraft_tracked"] = aircraftTracked

	return stats, nil
}
