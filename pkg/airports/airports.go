// Package airports resolves raw coordinates against a reference table of
// airports.
//
// Distance is measured as squared Euclidean distance in degree space, not
// great-circle distance. That is a deliberate approximation: the match
// cutoff (0.5 degrees, roughly 55 km at the equator and less at higher
// latitudes) is generous relative to position noise near airports, so the
// error in the metric never changes which side of the cutoff a real landing
// falls on. Switching to geodesic distance would silently change the
// meaning of the threshold, so don't.
package airports

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/jszwec/csvutil"
)

// UnknownLocation is returned when no airport is within the match cutoff.
// It is a confident "no match", distinct from a resolution failure.
const UnknownLocation = "Unknown Airfield or Location"

// maxMatchDistSq is the squared degree-distance cutoff (0.5 degrees squared).
// Beyond this radius the nearest airport is not a meaningful match.
const maxMatchDistSq = 0.25

var (
	// ErrNoAirports is returned when resolving against an empty reference
	// table. The minimum distance is undefined; this is a caller error,
	// not a real gap to the nearest airport.
	ErrNoAirports = errors.New("airports: no reference records")

	// ErrMissingField is returned when a record lacking a name,
	// municipality, or coordinate reaches the resolver. Such records must
	// be filtered upstream; computing a distance to them is nonsense.
	ErrMissingField = errors.New("airports: record missing required field")
)

// Airport is one reference record.
type Airport struct {
	// Name is the airport name (e.g., "Teterboro Airport")
	Name string

	// Municipality is the served city or town
	Municipality string

	// Latitude in decimal degrees (-90 to +90)
	Latitude float64

	// Longitude in decimal degrees (-180 to +180)
	Longitude float64
}

// Label formats the record as the human-readable location string.
func (a Airport) Label() string {
	return a.Name + ", " + a.Municipality
}

// valid reports whether the record has all four required fields.
func (a Airport) valid() bool {
	return a.Name != "" && a.Municipality != "" &&
		!math.IsNaN(a.Latitude) && !math.IsNaN(a.Longitude)
}

// csvAirport mirrors the ourairports airports.csv column layout.
// Coordinates are pointers so rows with blank cells decode to nil instead
// of a spurious zero position.
type csvAirport struct {
	Name         string   `csv:"name"`
	Municipality string   `csv:"municipality"`
	Latitude     *float64 `csv:"latitude_deg"`
	Longitude    *float64 `csv:"longitude_deg"`
}

// LoadCSV reads an ourairports-style airports.csv and returns the records
// that carry all four required fields, plus the number of rows skipped for
// missing data. Rows that fail to parse at all abort the load.
func LoadCSV(r io.Reader) ([]Airport, int, error) {
	csvReader := csv.NewReader(r)
	csvReader.LazyQuotes = true

	dec, err := csvutil.NewDecoder(csvReader)
	if err != nil {
		return nil, 0, fmt.Errorf("create airports CSV decoder: %w", err)
	}

	var (
		records []Airport
		skipped int
	)
	for {
		var row csvAirport
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return nil, 0, fmt.Errorf("decode airports CSV row: %w", err)
		}

		name := strings.TrimSpace(row.Name)
		municipality := strings.TrimSpace(row.Municipality)
		if name == "" || municipality == "" || row.Latitude == nil || row.Longitude == nil {
			skipped++
			continue
		}

		records = append(records, Airport{
			Name:         name,
			Municipality: municipality,
			Latitude:     *row.Latitude,
			Longitude:    *row.Longitude,
		})
	}

	return records, skipped, nil
}
