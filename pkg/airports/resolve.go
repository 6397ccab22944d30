package airports

import (
	"fmt"
	"math"
)

// gridCellSize is the spatial index cell size in degrees. With a 1 degree
// cell and a 0.5 degree match cutoff, every candidate within the cutoff of
// a query point lies in the 3x3 cell neighborhood around it, so the grid
// scan sees the same winner the full linear scan would.
const gridCellSize = 1.0

type cellKey struct {
	latCell int
	lonCell int
}

// Index answers nearest-airport queries over a validated reference table.
// It is immutable after construction and safe for concurrent use.
type Index struct {
	records []Airport
	cells   map[cellKey][]int
}

// NewIndex builds a resolver index. Every record must carry all four
// required fields; the loader filters incomplete rows, so one arriving
// here is a programming defect surfaced as ErrMissingField.
func NewIndex(records []Airport) (*Index, error) {
	for i, a := range records {
		if !a.valid() {
			return nil, fmt.Errorf("%w: record %d (%q)", ErrMissingField, i, a.Name)
		}
	}

	idx := &Index{
		records: records,
		cells:   make(map[cellKey][]int, len(records)),
	}
	for i, a := range records {
		key := cellOf(a.Latitude, a.Longitude)
		idx.cells[key] = append(idx.cells[key], i)
	}
	return idx, nil
}

// Len returns the number of reference records.
func (idx *Index) Len() int {
	return len(idx.records)
}

// Resolve maps a coordinate to the nearest airport's label, or
// UnknownLocation when no airport is within the 0.5 degree cutoff.
// Resolving against an empty index returns ErrNoAirports: "no reference
// data" must not masquerade as "real gap to the nearest airport".
func (idx *Index) Resolve(lat, lon float64) (string, error) {
	if len(idx.records) == 0 {
		return "", ErrNoAirports
	}

	best, bestSq := idx.nearestGrid(lat, lon)
	if best < 0 || bestSq > maxMatchDistSq {
		return UnknownLocation, nil
	}
	return idx.records[best].Label(), nil
}

// Nearest returns the nearest record and its squared degree-distance,
// with no cutoff applied. Ties go to the earlier table position.
func (idx *Index) Nearest(lat, lon float64) (Airport, float64, error) {
	if len(idx.records) == 0 {
		return Airport{}, 0, ErrNoAirports
	}
	best, bestSq := idx.nearestLinear(lat, lon)
	return idx.records[best], bestSq, nil
}

// nearestGrid scans the 3x3 cell neighborhood around the query point.
// Any record outside the neighborhood is separated by at least one full
// cell on some axis, i.e. more than the cutoff, so missing it never
// changes the resolved label.
func (idx *Index) nearestGrid(lat, lon float64) (int, float64) {
	center := cellOf(lat, lon)

	best := -1
	bestSq := math.Inf(1)
	for dLat := -1; dLat <= 1; dLat++ {
		for dLon := -1; dLon <= 1; dLon++ {
			key := cellKey{center.latCell + dLat, center.lonCell + dLon}
			for _, i := range idx.cells[key] {
				sq := distSq(idx.records[i], lat, lon)
				if sq < bestSq || (sq == bestSq && i < best) {
					best = i
					bestSq = sq
				}
			}
		}
	}
	return best, bestSq
}

// nearestLinear is the reference implementation: a plain scan over the
// whole table. The grid index is validated against it in tests.
func (idx *Index) nearestLinear(lat, lon float64) (int, float64) {
	best := -1
	bestSq := math.Inf(1)
	for i, a := range idx.records {
		sq := distSq(a, lat, lon)
		if sq < bestSq {
			best = i
			bestSq = sq
		}
	}
	return best, bestSq
}

func distSq(a Airport, lat, lon float64) float64 {
	dLat := a.Latitude - lat
	dLon := a.Longitude - lon
	return dLat*dLat + dLon*dLon
}

func cellOf(lat, lon float64) cellKey {
	return cellKey{
		latCell: int(math.Floor(lat / gridCellSize)),
		lonCell: int(math.Floor(lon / gridCellSize)),
	}
}
