package flights

import (
	"sort"
	"time"

	"github.com/unklstewy/fleettrack/pkg/airports"
)

// DestinationCount pairs an arrival label with how often it was visited.
type DestinationCount struct {
	Label string
	Count int
}

// TopDestinations returns the n most visited known arrival labels in
// descending count order. Unknown-location rows are excluded; ties keep
// the order in which the destinations first appeared, so the result is
// deterministic for a given summary sequence.
func TopDestinations(summaries []Summary, n int) []DestinationCount {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, s := range summaries {
		if s.ArrivalLabel == airports.UnknownLocation {
			continue
		}
		if _, ok := counts[s.ArrivalLabel]; !ok {
			firstSeen[s.ArrivalLabel] = i
		}
		counts[s.ArrivalLabel]++
	}

	ranked := make([]DestinationCount, 0, len(counts))
	for label, count := range counts {
		ranked = append(ranked, DestinationCount{Label: label, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return firstSeen[ranked[i].Label] < firstSeen[ranked[j].Label]
	})

	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// LastUniqueDestinations returns the last n distinct known arrival labels.
// Labels are deduplicated keeping their first appearance, then the tail of
// that sequence is returned, oldest first.
func LastUniqueDestinations(summaries []Summary, n int) []string {
	seen := make(map[string]bool)
	var unique []string
	for _, s := range summaries {
		if s.ArrivalLabel == airports.UnknownLocation || seen[s.ArrivalLabel] {
			continue
		}
		seen[s.ArrivalLabel] = true
		unique = append(unique, s.ArrivalLabel)
	}

	if n > 0 && len(unique) > n {
		unique = unique[len(unique)-n:]
	}
	return unique
}

// MonthlyCounts returns the number of flights departing in each calendar
// month, indexed January=0 through December=11.
func MonthlyCounts(summaries []Summary) [12]int {
	var counts [12]int
	for _, s := range summaries {
		counts[int(s.DepartureTime.Month())-int(time.January)]++
	}
	return counts
}
