package flights

import (
	"fmt"
	"time"

	"github.com/unklstewy/fleettrack/pkg/airports"
)

// Summary is one row of the per-flight table the presentation layer
// consumes. It is derived entirely from the first and last report of a
// qualifying flight.
type Summary struct {
	// FlightID is the segment number the row was built from.
	FlightID int

	// Callsign is the flight's forward-filled callsign.
	Callsign string

	// DepartureLabel and ArrivalLabel are resolved airport labels, or
	// airports.UnknownLocation for a confident no-match.
	DepartureLabel string
	ArrivalLabel   string

	// DepartureTime is the timestamp of the flight's first report.
	DepartureTime time.Time

	// ReportCount is the number of position reports in the flight.
	ReportCount int
}

// Summarize builds one summary row per qualifying flight, in flight-id
// (chronological) order.
//
// A flight qualifies when it has at least two reports (a single report has
// no distinct departure and arrival) and a non-blank callsign. Flights
// whose callsign stayed blank for their whole duration cannot be reliably
// attributed to a flight and are dropped; keeping them would surface
// pre-departure taxiing noise as phantom flights.
func Summarize(all []Flight, idx *airports.Index) ([]Summary, error) {
	var summaries []Summary
	for _, f := range all {
		if len(f.Reports) < 2 || f.Callsign == "" {
			continue
		}

		first := f.Reports[0]
		last := f.Reports[len(f.Reports)-1]

		departure, err := idx.Resolve(first.Latitude, first.Longitude)
		if err != nil {
			return nil, fmt.Errorf("resolve departure of flight %d: %w", f.ID, err)
		}
		arrival, err := idx.Resolve(last.Latitude, last.Longitude)
		if err != nil {
			return nil, fmt.Errorf("resolve arrival of flight %d: %w", f.ID, err)
		}

		summaries = append(summaries, Summary{
			FlightID:       f.ID,
			Callsign:       f.Callsign,
			DepartureLabel: departure,
			ArrivalLabel:   arrival,
			DepartureTime:  first.Timestamp,
			ReportCount:    len(f.Reports),
		})
	}
	return summaries, nil
}
