// Package flights reconstructs discrete flights from a raw position-report
// stream and summarises them against an airport reference table.
//
// The input is a year of timestamped position reports for one aircraft,
// as produced by pkg/trace. Segmentation is a pure batch computation with
// no shared state; calls are independent and safe to run concurrently for
// different aircraft.
package flights

import (
	"sort"
	"strings"
	"time"

	"github.com/unklstewy/fleettrack/pkg/trace"
)

// DefaultMaxGap is the quiet period that splits two flights. A gap longer
// than this between consecutive reports means the aircraft sat on the
// ground in between.
const DefaultMaxGap = 4 * time.Hour

// Flight is a maximal contiguous run of reports attributed to one
// continuous flight. IDs count up from 0 in chronological order.
type Flight struct {
	// ID is the segment number, non-decreasing along the report stream.
	ID int

	// Callsign is the forward-filled flight identification in effect for
	// the whole flight. Blank when no callsign was ever observed up to
	// and including this flight's reports.
	Callsign string

	// Reports in ascending timestamp order.
	Reports []trace.Report
}

// Segment partitions reports into flights using the default gap threshold.
//
// A new flight starts when the time since the previous report exceeds the
// gap, or when the forward-filled callsign changes. Blank callsigns are
// forward-filled from the most recent non-blank one first: positional
// telemetry usually carries no flight identification, and that absence is
// continuation, not a break.
func Segment(reports []trace.Report) []Flight {
	return SegmentWithGap(reports, DefaultMaxGap)
}

// SegmentWithGap is Segment with a caller-chosen gap threshold.
//
// The input is stable-sorted by timestamp first (ties keep their relative
// order), so the result is identical on every run. Every report lands in
// exactly one flight and flights never interleave.
func SegmentWithGap(reports []trace.Report, maxGap time.Duration) []Flight {
	if len(reports) == 0 {
		return nil
	}

	sorted := make([]trace.Report, len(reports))
	copy(sorted, reports)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var (
		result     []Flight
		carried    string // last non-blank callsign seen so far
		prevFilled string // forward-filled callsign of the previous report
	)
	for i, r := range sorted {
		filled := strings.TrimSpace(r.Callsign)
		if filled == "" {
			filled = carried
		} else {
			carried = filled
		}

		boundary := i == 0 ||
			sorted[i].Timestamp.Sub(sorted[i-1].Timestamp) > maxGap ||
			filled != prevFilled
		if boundary {
			result = append(result, Flight{ID: len(result), Callsign: filled})
		}

		f := &result[len(result)-1]
		f.Reports = append(f.Reports, r)
		prevFilled = filled
	}

	return result
}
