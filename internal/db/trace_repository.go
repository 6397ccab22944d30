package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/unklstewy/fleettrack/pkg/trace"
)

// TraceRepository caches raw daily trace payloads per (aircraft, day).
// Empty days are cached too, as a marker row with no payload, so quiet
// days don't get re-fetched on every pass.
type TraceRepository struct {
	db *DB
}

// NewTraceRepository creates a new trace cache repository.
func NewTraceRepository(db *DB) *TraceRepository {
	return &TraceRepository{db: db}
}

// GetDay returns the cached payload for one aircraft-day.
// found is false on a cache miss; a cached empty day returns
// (nil, true, nil).
func (r *TraceRepository) GetDay(ctx context.Context, icao string, day time.Time) (payload []byte, found bool, err error) {
	var (
		stored []byte
		empty  bool
	)
	err = r.db.QueryRowContext(ctx,
		`SELECT payload, empty FROM trace_days WHERE icao = $1 AND day = $2`,
		icao, day.UTC().Format("2006-01-02"),
	).Scan(&stored, &empty)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query cached trace day: %w", err)
	}

	if empty {
		return nil, true, nil
	}
	return stored, true, nil
}

// PutDay stores one aircraft-day payload. A nil payload marks the day as
// empty (no trace file in the archive).
func (r *TraceRepository) PutDay(ctx context.Context, icao string, day time.Time, payload []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO trace_days (icao, day, payload, empty, fetched_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (icao, day) DO UPDATE SET
			payload = EXCLUDED.payload,
			empty = EXCLUDED.empty,
			fetched_at = EXCLUDED.fetched_at`,
		icao, day.UTC().Format("2006-01-02"), payload, payload == nil, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert trace day: %w", err)
	}
	return nil
}

// CachedDayCount returns how many days are cached for an aircraft.
func (r *TraceRepository) CachedDayCount(ctx context.Context, icao string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trace_days WHERE icao = $1`,
		icao,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cached days: %w", err)
	}
	return count, nil
}

// CachedSource is a trace.Source that serves from the cache and falls
// through to an underlying source on misses, storing what it fetched.
type CachedSource struct {
	repo *TraceRepository
	src  *trace.Client
}

// NewCachedSource wraps an archive client with the payload cache.
func NewCachedSource(repo *TraceRepository, src *trace.Client) *CachedSource {
	return &CachedSource{repo: repo, src: src}
}

// FetchDay returns the reports for one aircraft-day, consulting the cache
// first. Fetch errors are returned without poisoning the cache.
func (s *CachedSource) FetchDay(ctx context.Context, icaoHex string, day time.Time) ([]trace.Report, error) {
	payload, _, err := s.FetchDayRaw(ctx, icaoHex, day)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}
	return trace.ParseTrace(payload)
}

// FetchDayRaw returns the raw payload for one aircraft-day and whether it
// was served from the cache.
func (s *CachedSource) FetchDayRaw(ctx context.Context, icaoHex string, day time.Time) (payload []byte, fromCache bool, err error) {
	payload, found, err := s.repo.GetDay(ctx, icaoHex, day)
	if err != nil {
		return nil, false, err
	}
	if found {
		return payload, true, nil
	}

	payload, err = s.src.FetchDayRaw(ctx, icaoHex, day)
	if err != nil {
		return nil, false, err
	}

	if err := s.repo.PutDay(ctx, icaoHex, day, payload); err != nil {
		return nil, false, err
	}
	return payload, false, nil
}

// Close shuts down the underlying archive client.
func (s *CachedSource) Close() error {
	return s.src.Close()
}
