package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/unklstewy/fleettrack/internal/db"
	"github.com/unklstewy/fleettrack/pkg/airports"
	"github.com/unklstewy/fleettrack/pkg/config"
	"github.com/unklstewy/fleettrack/pkg/fleet"
	"github.com/unklstewy/fleettrack/pkg/flights"
	"github.com/unklstewy/fleettrack/pkg/trace"
)

const progressBarWidth = 40

// traceRetention bounds the payload cache. The archive is immutable, so a
// pruned day is simply re-fetched on the next pass.
const traceRetention = 180 * 24 * time.Hour

// dayMsg reports one finished day of the fetch pass.
type dayMsg struct {
	day     time.Time
	reports int
	err     error
}

// doneMsg carries the final result of the fetch pass.
type doneMsg struct {
	reports []trace.Report
	stats   trace.RangeStats
	err     error
}

type model struct {
	registration string
	icao         string
	start        time.Time
	end          time.Time
	totalDays    int

	daysDone int
	fetched  int
	empty    int
	failed   int
	reports  int
	lastDay  string

	done bool
	err  error
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case dayMsg:
		m.daysDone++
		m.lastDay = msg.day.Format("2006-01-02")
		switch {
		case msg.err != nil:
			m.failed++
		case msg.reports == 0:
			m.empty++
		default:
			m.fetched++
			m.reports += msg.reports
		}
		return m, nil

	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

func (m model) View() string {
	var s strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)
	s.WriteString(titleStyle.Render("FLEETTRACK TRACE FETCH"))
	s.WriteString("\n\n")

	infoStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	s.WriteString(infoStyle.Render(fmt.Sprintf("Aircraft: %s (%s)", m.registration, m.icao)))
	s.WriteString("\n")
	s.WriteString(infoStyle.Render(fmt.Sprintf("Window:   %s .. %s",
		m.start.Format("2006-01-02"), m.end.Format("2006-01-02"))))
	s.WriteString("\n\n")

	// Progress bar
	filled := 0
	if m.totalDays > 0 {
		filled = m.daysDone * progressBarWidth / m.totalDays
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", progressBarWidth-filled)
	barStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	s.WriteString(barStyle.Render(bar))
	s.WriteString(fmt.Sprintf("  %d/%d days", m.daysDone, m.totalDays))
	if m.lastDay != "" {
		s.WriteString(fmt.Sprintf("  (%s)", m.lastDay))
	}
	s.WriteString("\n\n")

	countStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	s.WriteString(countStyle.Render(fmt.Sprintf(
		"Active days: %d   Quiet days: %d   Failed: %d   Reports: %d",
		m.fetched, m.empty, m.failed, m.reports)))
	s.WriteString("\n\n")

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	s.WriteString(helpStyle.Render("Q: Abort"))
	s.WriteString("\n")

	return s.String()
}

func main() {
	// Local .env keeps database credentials out of the config file
	godotenv.Load()

	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	registration := flag.String("reg", "", "Aircraft registration to fetch (required)")
	plain := flag.Bool("plain", false, "Plain log output instead of the progress UI")
	flag.Parse()

	if *registration == "" {
		fmt.Fprintln(os.Stderr, "Usage: fetch-traces -reg N621VA [-config path] [-plain]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	roster, err := loadRoster(cfg.Data.FleetCSV)
	if err != nil {
		log.Fatalf("Failed to load fleet roster: %v", err)
	}
	aircraft, ok := fleet.Find(roster, *registration)
	if !ok {
		log.Fatalf("Registration %s not in roster %s", *registration, cfg.Data.FleetCSV)
	}

	idx, err := loadAirports(cfg.Data.AirportsCSV)
	if err != nil {
		log.Fatalf("Failed to load airports table: %v", err)
	}

	start, end, err := cfg.Trace.Window()
	if err != nil {
		log.Fatalf("Invalid fetch window: %v", err)
	}

	client := trace.NewClient(archiveConfig(cfg.Trace))

	// The cache is best effort: without a database every day is fetched
	// from the archive again.
	var (
		source   trace.Source = client
		database *db.DB
	)
	database, err = db.Connect(cfg.Database)
	if err != nil {
		log.Printf("Database unavailable, fetching without cache: %v", err)
	} else {
		defer func() { database.Close() }()
		if err := database.InitSchema(context.Background()); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		source = db.NewCachedSource(db.NewTraceRepository(database), client)
	}
	defer source.Close()

	ctx := context.Background()

	var (
		reports []trace.Report
		stats   trace.RangeStats
	)
	if *plain {
		reports, stats, err = fetchPlain(ctx, source, aircraft.ICAO, start, end)
	} else {
		reports, stats, err = fetchWithUI(ctx, source, aircraft, start, end)
	}
	if err != nil {
		log.Fatalf("Fetch failed: %v", err)
	}

	log.Printf("Fetched %d reports (%d active days, %d quiet, %d failed)",
		len(reports), stats.DaysFetched, stats.DaysEmpty, stats.DaysFailed)

	all := flights.SegmentWithGap(reports, cfg.Segmenter.MaxGap())
	summaries, err := flights.Summarize(all, idx)
	if err != nil {
		log.Fatalf("Failed to summarize flights: %v", err)
	}

	printSummaries(aircraft, summaries)

	if database != nil {
		// A window-sized fetch pass can outlive the connection.
		database, err = db.EnsureConnection(database, cfg.Database)
		if err != nil {
			log.Fatalf("Database connection lost: %v", err)
		}

		flightRepo := db.NewFlightRepository(database)
		if err := flightRepo.ReplaceFlights(ctx, aircraft.ICAO, aircraft.Registration, summaries); err != nil {
			log.Fatalf("Failed to store flights: %v", err)
		}
		log.Printf("Stored %d flights for %s", len(summaries), aircraft.Registration)

		traceRepo := db.NewTraceRepository(database)
		if cached, err := traceRepo.CachedDayCount(ctx, aircraft.ICAO); err != nil {
			log.Printf("Failed to count cached days: %v", err)
		} else {
			log.Printf("Cache holds %d days for %s", cached, aircraft.ICAO)
		}

		if err := database.CleanupOldTraces(ctx, traceRetention); err != nil {
			log.Printf("Cache cleanup failed: %v", err)
		}

		if stats, err := database.GetStats(ctx); err != nil {
			log.Printf("Failed to read database stats: %v", err)
		} else {
			log.Printf("Database: %v cached days (%v empty), %v flight rows, %v aircraft tracked",
				stats["cached_days"], stats["empty_days"], stats["flight_rows"], stats["aircraft_tracked"])
		}
	}
}

func fetchPlain(ctx context.Context, source trace.Source, icao string, start, end time.Time) ([]trace.Report, trace.RangeStats, error) {
	return trace.FetchRange(ctx, source, icao, start, end,
		func(day time.Time, reports int, err error) {
			switch {
			case err != nil:
				log.Printf("%s: skipped: %v", day.Format("2006-01-02"), err)
			case reports > 0:
				log.Printf("%s: %d reports", day.Format("2006-01-02"), reports)
			}
		})
}

func fetchWithUI(ctx context.Context, source trace.Source, aircraft fleet.Aircraft, start, end time.Time) ([]trace.Report, trace.RangeStats, error) {
	m := model{
		registration: aircraft.Registration,
		icao:         aircraft.ICAO,
		start:        start,
		end:          end,
		totalDays:    int(end.Sub(start).Hours()/24) + 1,
	}

	p := tea.NewProgram(m)

	var (
		reports []trace.Report
		stats   trace.RangeStats
	)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		var err error
		reports, stats, err = trace.FetchRange(ctx, source, aircraft.ICAO, start, end,
			func(day time.Time, dayReports int, dayErr error) {
				p.Send(dayMsg{day: day, reports: dayReports, err: dayErr})
			})
		p.Send(doneMsg{reports: reports, stats: stats, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, trace.RangeStats{}, fmt.Errorf("progress UI: %w", err)
	}

	// Quitting the UI early cancels the pass.
	fm := final.(model)
	if !fm.done {
		cancel()
		return nil, trace.RangeStats{}, fmt.Errorf("fetch aborted")
	}
	if fm.err != nil {
		return nil, trace.RangeStats{}, fm.err
	}
	return reports, stats, nil
}

func printSummaries(aircraft fleet.Aircraft, summaries []flights.Summary) {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	fmt.Println(header.Render(fmt.Sprintf("Flights for %s (%s):", aircraft.Registration, aircraft.ICAO)))

	if len(summaries) == 0 {
		fmt.Println("  No flights reconstructed in the window")
		return
	}

	for _, s := range summaries {
		fmt.Printf("  %s  %-8s  %-40s → %-40s  %d reports\n",
			s.DepartureTime.Format("2006-01-02 15:04"),
			s.Callsign, s.DepartureLabel, s.ArrivalLabel, s.ReportCount)
	}
}

func loadRoster(path string) ([]fleet.Aircraft, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return fleet.LoadCSV(f)
}

func loadAirports(path string) (*airports.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, skipped, err := airports.LoadCSV(f)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		log.Printf("Skipped %d incomplete airport rows", skipped)
	}
	return airports.NewIndex(records)
}

func archiveConfig(cfg config.TraceConfig) trace.Config {
	rps := 1.0
	if cfg.RateLimitSeconds > 0 {
		rps = 1.0 / cfg.RateLimitSeconds
	}
	return trace.Config{
		BaseURL:           cfg.BaseURL,
		UserAgent:         cfg.UserAgent,
		Referer:           cfg.Referer,
		RequestsPerSecond: rps,
		Retry:             trace.DefaultRetryConfig(),
	}
}
