package db

import (
	"context"
	"fmt"
	"time"

	"github.com/unklstewy/fleettrack/pkg/flights"
)

// FlightRepository persists reconstructed flight summaries per aircraft.
type FlightRepository struct {
	db *DB
}

// NewFlightRepository creates a new flight repository.
func NewFlightRepository(db *DB) *FlightRepository {
	return &FlightRepository{db: db}
}

// ReplaceFlights swaps the stored summary rows for one aircraft with a
// freshly computed set. Segmentation is recomputed from the full history,
// so partial updates would leave stale segment ids behind; replace is the
// only safe write.
func (r *FlightRepository) ReplaceFlights(ctx context.Context, icao, registration string, summaries []flights.Summary) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM flights WHERE icao = $1`, icao,
	); err != nil {
		return fmt.Errorf("failed to clear old flights: %w", err)
	}

	now := time.Now().UTC()
	for _, s := range summaries {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO flights (
				icao, registration, segment_id, callsign,
				departure_label, arrival_label, departure_time,
				report_count, computed_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			icao, registration, s.FlightID, s.Callsign,
			s.DepartureLabel, s.ArrivalLabel, s.DepartureTime.UTC(),
			s.ReportCount, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert flight %d: %w", s.FlightID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit flights: %w", err)
	}
	return nil
}

// ListFlights returns the stored summaries for one aircraft in departure
// time order.
func (r *FlightRepository) ListFlights(ctx context.Context, icao string) ([]flights.Summary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT segment_id, callsign, departure_label, arrival_label,
		        departure_time, report_count
		 FROM flights
		 WHERE icao = $1
		 ORDER BY departure_time`,
		icao,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query flights: %w", err)
	}
	defer rows.Close()

	var summaries []flights.Summary
	for rows.Next() {
		var s flights.Summary
		if err := rows.Scan(
			&s.FlightID, &s.Callsign, &s.DepartureLabel, &s.ArrivalLabel,
			&s.DepartureTime, &s.ReportCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan flight row: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate flight rows: %w", err)
	}

	return summaries, nil
}
