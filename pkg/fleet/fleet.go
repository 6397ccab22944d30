// Package fleet loads the aircraft roster that maps registrations to ICAO
// hex addresses and airframe details.
package fleet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
)

// Aircraft is one roster entry.
type Aircraft struct {
	// Registration is the tail number (e.g., "N621VA")
	Registration string `csv:"registration"`

	// ICAO is the 24-bit Mode S hex address (e.g., "a7e5d1")
	ICAO string `csv:"icao"`

	// Model is the airframe model (e.g., "Airbus A320-214")
	Model string `csv:"aircraft"`

	// Type is the ICAO type designator (e.g., "A320")
	Type string `csv:"type"`

	// MSN is the manufacturer serial number
	MSN string `csv:"msn"`

	// DeliveryDate is the airframe delivery date as recorded in the roster
	DeliveryDate string `csv:"delivery_date"`

	// Remark carries free-form roster notes
	Remark string `csv:"remark"`
}

// LoadCSV reads the roster. Rows without a registration or ICAO address
// cannot be fetched against the archive and are skipped.
func LoadCSV(r io.Reader) ([]Aircraft, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("create roster CSV decoder: %w", err)
	}

	var roster []Aircraft
	for {
		var row Aircraft
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("decode roster CSV row: %w", err)
		}

		row.Registration = strings.TrimSpace(row.Registration)
		row.ICAO = strings.ToLower(strings.TrimSpace(row.ICAO))
		if row.Registration == "" || row.ICAO == "" {
			continue
		}
		roster = append(roster, row)
	}

	return roster, nil
}

// Find returns the roster entry for a registration, case-insensitively.
func Find(roster []Aircraft, registration string) (Aircraft, bool) {
	for _, a := range roster {
		if strings.EqualFold(a.Registration, registration) {
			return a, true
		}
	}
	return Aircraft{}, false
}

// Registrations lists the roster's tail numbers in roster order.
func Registrations(roster []Aircraft) []string {
	regs := make([]string, len(roster))
	for i, a := range roster {
		regs[i] = a.Registration
	}
	return regs
}
