package db

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/unklstewy/fleettrack/pkg/config"
	"github.com/unklstewy/fleettrack/pkg/flights"
)

// testDatabase connects to the locally configured database, skipping the
// test when none is running. Schema setup is idempotent.
func testDatabase(t *testing.T) *DB {
	t.Helper()

	cfg := config.DefaultConfig().Database
	database, err := Connect(cfg)
	if err != nil {
		t.Skipf("Database not available: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.InitSchema(context.Background()); err != nil {
		t.Fatalf("Failed to initialize schema: %v", err)
	}
	return database
}

// TestNewTraceRepository tests repository construction.
func TestNewTraceRepository(t *testing.T) {
	repo := NewTraceRepository(nil)

	if repo == nil {
		t.Fatal("Expected non-nil repository")
	}
	if repo.db != nil {
		t.Error("Expected nil db (not initialized)")
	}
}

// TestNewFlightRepository tests repository construction.
func TestNewFlightRepository(t *testing.T) {
	repo := NewFlightRepository(nil)

	if repo == nil {
		t.Fatal("Expected non-nil repository")
	}
	if repo.db != nil {
		t.Error("Expected nil db (not initialized)")
	}
}

// TestTraceRepositoryRoundTrip tests the payload cache against a running
// database.
func TestTraceRepositoryRoundTrip(t *testing.T) {
	database := testDatabase(t)
	repo := NewTraceRepository(database)

	ctx := context.Background()
	icao := "tsttrc"
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	if _, err := database.ExecContext(ctx,
		`DELETE FROM trace_days WHERE icao = $1`, icao); err != nil {
		t.Fatalf("Failed to clear test rows: %v", err)
	}

	t.Run("Miss before put", func(t *testing.T) {
		_, found, err := repo.GetDay(ctx, icao, day)
		if err != nil {
			t.Fatalf("GetDay failed: %v", err)
		}
		if found {
			t.Error("Expected cache miss before PutDay")
		}
	})

	t.Run("Payload round trip", func(t *testing.T) {
		payload := []byte(`{"icao":"tsttrc","trace":[]}`)
		if err := repo.PutDay(ctx, icao, day, payload); err != nil {
			t.Fatalf("PutDay failed: %v", err)
		}

		got, found, err := repo.GetDay(ctx, icao, day)
		if err != nil {
			t.Fatalf("GetDay failed: %v", err)
		}
		if !found {
			t.Fatal("Expected cache hit after PutDay")
		}
		if !bytes.Equal(got, payload) {
			t.Errorf("Expected payload %q, got %q", payload, got)
		}
	})

	t.Run("Upsert replaces the payload", func(t *testing.T) {
		updated := []byte(`{"icao":"tsttrc","trace":[[0,10.0,10.0]]}`)
		if err := repo.PutDay(ctx, icao, day, updated); err != nil {
			t.Fatalf("PutDay failed: %v", err)
		}

		got, found, err := repo.GetDay(ctx, icao, day)
		if err != nil || !found {
			t.Fatalf("GetDay failed: found=%v err=%v", found, err)
		}
		if !bytes.Equal(got, updated) {
			t.Errorf("Expected updated payload, got %q", got)
		}
	})

	t.Run("Nil payload marks an empty day", func(t *testing.T) {
		emptyDay := day.AddDate(0, 0, 1)
		if err := repo.PutDay(ctx, icao, emptyDay, nil); err != nil {
			t.Fatalf("PutDay failed: %v", err)
		}

		got, found, err := repo.GetDay(ctx, icao, emptyDay)
		if err != nil {
			t.Fatalf("GetDay failed: %v", err)
		}
		if !found {
			t.Error("Expected a cached empty-day marker, got a miss")
		}
		if got != nil {
			t.Errorf("Expected nil payload for empty day, got %q", got)
		}
	})

	t.Run("CachedDayCount sees both days", func(t *testing.T) {
		count, err := repo.CachedDayCount(ctx, icao)
		if err != nil {
			t.Fatalf("CachedDayCount failed: %v", err)
		}
		if count != 2 {
			t.Errorf("Expected 2 cached days, got %d", count)
		}
	})
}

// TestFlightRepositoryReplaceAndList tests flight summary persistence
// against a running database.
func TestFlightRepositoryReplaceAndList(t *testing.T) {
	database := testDatabase(t)
	repo := NewFlightRepository(database)

	ctx := context.Background()
	icao := "tstflt"
	base := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)

	summaries := []flights.Summary{
		{
			FlightID:       0,
			Callsign:       "AB1",
			DepartureLabel: "Alpha Field, Alphaville",
			ArrivalLabel:   "Bravo Field, Bravotown",
			DepartureTime:  base,
			ReportCount:    12,
		},
		{
			FlightID:       1,
			Callsign:       "AB2",
			DepartureLabel: "Bravo Field, Bravotown",
			ArrivalLabel:   "Alpha Field, Alphaville",
			DepartureTime:  base.Add(8 * time.Hour),
			ReportCount:    9,
		},
	}

	if err := repo.ReplaceFlights(ctx, icao, "N999TT", summaries); err != nil {
		t.Fatalf("ReplaceFlights failed: %v", err)
	}

	t.Run("Lists in departure time order", func(t *testing.T) {
		got, err := repo.ListFlights(ctx, icao)
		if err != nil {
			t.Fatalf("ListFlights failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("Expected 2 flights, got %d", len(got))
		}
		if got[0].Callsign != "AB1" || got[1].Callsign != "AB2" {
			t.Errorf("Unexpected order: %q then %q", got[0].Callsign, got[1].Callsign)
		}
		if got[0].DepartureLabel != "Alpha Field, Alphaville" {
			t.Errorf("Unexpected departure label: %q", got[0].DepartureLabel)
		}
		if !got[1].DepartureTime.After(got[0].DepartureTime) {
			t.Error("Flights not in departure time order")
		}
	})

	t.Run("Replace drops stale rows", func(t *testing.T) {
		if err := repo.ReplaceFlights(ctx, icao, "N999TT", summaries[:1]); err != nil {
			t.Fatalf("ReplaceFlights failed: %v", err)
		}

		got, err := repo.ListFlights(ctx, icao)
		if err != nil {
			t.Fatalf("ListFlights failed: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("Expected 1 flight after replace, got %d", len(got))
		}
	})

	t.Run("Unknown aircraft lists nothing", func(t *testing.T) {
		got, err := repo.ListFlights(ctx, "nosuch")
		if err != nil {
			t.Fatalf("ListFlights failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Expected no flights, got %d", len(got))
		}
	})
}

// TestDatabaseMaintenance tests the stats and retention helpers against a
// running database.
func TestDatabaseMaintenance(t *testing.T) {
	database := testDatabase(t)
	repo := NewTraceRepository(database)

	ctx := context.Background()
	icao := "tstmnt"
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	if err := repo.PutDay(ctx, icao, day, []byte(`{}`)); err != nil {
		t.Fatalf("PutDay failed: %v", err)
	}

	t.Run("GetStats reports the expected keys", func(t *testing.T) {
		stats, err := database.GetStats(ctx)
		if err != nil {
			t.Fatalf("GetStats failed: %v", err)
		}
		for _, key := range []string{"cached_days", "empty_days", "flight_rows", "aircraft_tracked"} {
			if _, ok := stats[key]; !ok {
				t.Errorf("Expected stats key %q", key)
			}
		}
		if stats["cached_days"].(int64) < 1 {
			t.Error("Expected at least one cached day")
		}
	})

	t.Run("Cleanup spares fresh rows", func(t *testing.T) {
		if err := database.CleanupOldTraces(ctx, 365*24*time.Hour); err != nil {
			t.Fatalf("CleanupOldTraces failed: %v", err)
		}

		_, found, err := repo.GetDay(ctx, icao, day)
		if err != nil {
			t.Fatalf("GetDay failed: %v", err)
		}
		if !found {
			t.Error("Expected a just-fetched day to survive retention cleanup")
		}
	})
}
