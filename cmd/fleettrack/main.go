package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/unklstewy/fleettrack/internal/db"
	"github.com/unklstewy/fleettrack/pkg/config"
	"github.com/unklstewy/fleettrack/pkg/fleet"
)

func main() {
	godotenv.Load()

	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	f, err := os.Open(cfg.Data.FleetCSV)
	if err != nil {
		log.Fatalf("Failed to open fleet roster: %v", err)
	}
	roster, err := fleet.LoadCSV(f)
	f.Close()
	if err != nil {
		log.Fatalf("Failed to load fleet roster: %v", err)
	}
	if len(roster) == 0 {
		log.Fatalf("Fleet roster %s is empty", cfg.Data.FleetCSV)
	}

	database, err := db.ReconnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.InitSchema(context.Background()); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	app := NewApp(&AppConfig{
		Config:           cfg,
		Roster:           roster,
		Database:         database,
		FlightRepository: db.NewFlightRepository(database),
	})

	if err := app.Run(); err != nil {
		log.Fatalf("Dashboard failed: %v", err)
	}
}
