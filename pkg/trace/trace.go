// Package trace provides timestamped aircraft position reports and a client
// for the adsbexchange globe_history archive.
//
// The archive publishes one JSON trace file per aircraft per day. A yearly
// history is therefore a few hundred small HTTP fetches; days with no
// activity simply have no file. Callers are expected to tolerate missing
// days and work with whatever reports survive.
package trace

import (
	"context"
	"time"
)

// Report is one position observation for a single aircraft.
type Report struct {
	// Timestamp is the absolute time of the observation (UTC).
	Timestamp time.Time

	// Latitude in decimal degrees (-90 to +90)
	Latitude float64

	// Longitude in decimal degrees (-180 to +180)
	Longitude float64

	// Callsign is the flight identification carried by the trace record.
	// Most position records carry none; blank means "no new information",
	// not "no flight".
	Callsign string
}

// Source is the interface position-report providers implement.
// The production implementation is Client; tests and the cache layer
// provide their own.
type Source interface {
	// FetchDay returns all reports for one aircraft on one UTC day.
	// A day with no recorded activity returns (nil, nil).
	FetchDay(ctx context.Context, icaoHex string, day time.Time) ([]Report, error)

	// Close cleanly shuts down the source.
	Close() error
}

// RangeStats summarises a FetchRange pass.
type RangeStats struct {
	DaysFetched int // days that produced at least one report
	DaysEmpty   int // days with no trace file (quiet days)
	DaysFailed  int // days that errored after retries and were skipped
}

// ProgressFunc is called after each day of a FetchRange pass.
// reports is the number of reports the day produced; err is non-nil for
// days that were skipped.
type ProgressFunc func(day time.Time, reports int, err error)

// FetchRange fetches every day in [start, end] inclusive and concatenates
// the reports in date order. Individual day failures are counted and
// skipped rather than aborting the range; the upstream archive is patchy
// and a shorter-than-expected sequence is legitimate input downstream.
func FetchRange(ctx context.Context, src Source, icaoHex string, start, end time.Time, progress ProgressFunc) ([]Report, RangeStats, error) {
	var (
		reports []Report
		stats   RangeStats
	)

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return reports, stats, err
		}

		dayReports, err := src.FetchDay(ctx, icaoHex, day)
		switch {
		case err != nil:
			stats.DaysFailed++
		case len(dayReports) == 0:
			stats.DaysEmpty++
		default:
			stats.DaysFetched++
			reports = append(reports, dayReports...)
		}

		if progress != nil {
			progress(day, len(dayReports), err)
		}
	}

	return reports, stats, nil
}
