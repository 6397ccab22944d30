package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/unklstewy/fleettrack/internal/db"
	"github.com/unklstewy/fleettrack/pkg/config"
	"github.com/unklstewy/fleettrack/pkg/fleet"
	"github.com/unklstewy/fleettrack/pkg/flights"
)

// AppConfig holds the application configuration
type AppConfig struct {
	Config           *config.Config
	Roster           []fleet.Aircraft
	Database         *db.DB
	FlightRepository *db.FlightRepository
}

// App represents the fleet dashboard application
type App struct {
	// Configuration
	config *config.Config
	roster []fleet.Aircraft

	// Data sources
	database   *db.DB
	flightRepo *db.FlightRepository

	// UI components
	tviewApp     *tview.Application
	rosterList   *tview.List
	flightsTable *tview.Table
	details      *tview.TextView
	destinations *tview.TextView
	activity     *tview.TextView
	logs         *tview.TextView
	rootLayout   *tview.Flex

	// State
	selectedIndex int
	summaries     []flights.Summary

	// Synchronization
	mu sync.RWMutex
}

// NewApp creates a new dashboard instance
func NewApp(cfg *AppConfig) *App {
	app := &App{
		config:     cfg.Config,
		roster:     cfg.Roster,
		database:   cfg.Database,
		flightRepo: cfg.FlightRepository,
	}

	app.setupUI()
	return app
}

// setupUI initializes the user interface
func (a *App) setupUI() {
	a.tviewApp = tview.NewApplication()

	a.createRosterPanel()
	a.createFlightsPanel()
	a.createDetailsPanel()
	a.createDestinationsPanel()
	a.createActivityPanel()
	a.createLogsPanel()

	a.createLayout()

	a.tviewApp.SetInputCapture(a.handleKeyboard)
}

// createRosterPanel creates the aircraft picker
func (a *App) createRosterPanel() {
	a.rosterList = tview.NewList().ShowSecondaryText(true)
	a.rosterList.SetBorder(true).SetTitle(" Fleet ")

	for _, ac := range a.roster {
		a.rosterList.AddItem(ac.Registration, ac.Model, 0, nil)
	}

	a.rosterList.SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		a.selectAircraft(index)
	})
}

// createFlightsPanel creates the flight history table
func (a *App) createFlightsPanel() {
	a.flightsTable = tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0)
	a.flightsTable.SetBorder(true).SetTitle(" Flights ")
}

// createDetailsPanel creates the airframe details panel
func (a *App) createDetailsPanel() {
	a.details = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	a.details.SetBorder(true).SetTitle(" Aircraft ")
}

// createDestinationsPanel creates the destination analytics panel
func (a *App) createDestinationsPanel() {
	a.destinations = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	a.destinations.SetBorder(true).SetTitle(" Destinations ")
}

// createActivityPanel creates the monthly activity panel
func (a *App) createActivityPanel() {
	a.activity = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	a.activity.SetBorder(true).SetTitle(" Monthly Activity ")
}

// createLogsPanel creates the log viewer panel
func (a *App) createLogsPanel() {
	a.logs = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetMaxLines(100)
	a.logs.SetBorder(true).SetTitle(" Logs ")

	a.addLog("INFO", "Dashboard started")
}

// createLayout creates the main layout
func (a *App) createLayout() {
	sidebar := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.details, 9, 0, false).
		AddItem(a.destinations, 0, 4, false).
		AddItem(a.activity, 0, 3, false).
		AddItem(a.logs, 0, 3, false)

	center := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.rosterList, 0, 2, true).
		AddItem(a.flightsTable, 0, 5, false)

	a.rootLayout = tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(center, 0, 7, true).
		AddItem(sidebar, 0, 3, false)

	a.tviewApp.SetRoot(a.rootLayout, true)
}

// addLog adds a log message to the log panel
func (a *App) addLog(level, message string) {
	timestamp := time.Now().Format("15:04:05")
	var color string
	switch level {
	case "ERROR":
		color = "red"
	case "WARN":
		color = "yellow"
	case "INFO":
		color = "white"
	default:
		color = "gray"
	}

	fmt.Fprintf(a.logs, "[gray]%s[-] [%s]%-5s[-] %s\n", timestamp, color, level, message)
}

// handleKeyboard handles global keyboard input
func (a *App) handleKeyboard(event *tcell.EventKey) *tcell.EventKey {
	switch {
	case event.Key() == tcell.KeyEscape || event.Rune() == 'q':
		a.Stop()
		return nil
	case event.Rune() == 'r':
		a.mu.RLock()
		index := a.selectedIndex
		a.mu.RUnlock()
		a.selectAircraft(index)
		return nil
	case event.Key() == tcell.KeyTab:
		if a.rosterList.HasFocus() {
			a.tviewApp.SetFocus(a.flightsTable)
		} else {
			a.tviewApp.SetFocus(a.rosterList)
		}
		return nil
	}
	return event
}

// selectAircraft loads the stored flights for one roster entry
func (a *App) selectAircraft(index int) {
	if index < 0 || index >= len(a.roster) {
		return
	}

	a.mu.Lock()
	a.selectedIndex = index
	a.mu.Unlock()

	aircraft := a.roster[index]

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		summaries, err := a.flightRepo.ListFlights(ctx, aircraft.ICAO)
		if err != nil {
			a.addLog("ERROR", fmt.Sprintf("Failed to load flights for %s: %v", aircraft.Registration, err))
			return
		}

		a.mu.Lock()
		a.summaries = summaries
		a.mu.Unlock()

		a.addLog("INFO", fmt.Sprintf("%s: %d flights", aircraft.Registration, len(summaries)))

		a.tviewApp.QueueUpdateDraw(func() {
			a.details.SetText(aircraftDetails(aircraft))
			a.updateFlightsTable(aircraft)
			a.updateDestinations()
			a.updateActivity()
		})
	}()
}

// aircraftDetails formats one roster entry for the airframe panel.
func aircraftDetails(ac fleet.Aircraft) string {
	var text strings.Builder

	fmt.Fprintf(&text, "[yellow]%s[-] [gray](%s)[-]\n", ac.Registration, ac.ICAO)
	fmt.Fprintf(&text, "[gray]Model:[-]     [white]%s[-]\n", ac.Model)
	fmt.Fprintf(&text, "[gray]Type:[-]      [white]%s[-]\n", ac.Type)
	fmt.Fprintf(&text, "[gray]MSN:[-]       [white]%s[-]\n", ac.MSN)
	fmt.Fprintf(&text, "[gray]Delivered:[-] [white]%s[-]\n", ac.DeliveryDate)
	if ac.Remark != "" {
		fmt.Fprintf(&text, "[gray]Remark:[-]    [white]%s[-]\n", ac.Remark)
	}

	return text.String()
}

// updateFlightsTable rebuilds the flight history table
func (a *App) updateFlightsTable(aircraft fleet.Aircraft) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	a.flightsTable.Clear()
	a.flightsTable.SetTitle(fmt.Sprintf(" Flights: %s (%s) ", aircraft.Registration, aircraft.ICAO))

	headers := []string{"Departure", "Callsign", "From", "To", "Reports"}
	for col, h := range headers {
		a.flightsTable.SetCell(0, col,
			tview.NewTableCell(h).
				SetTextColor(tcell.ColorYellow).
				SetSelectable(false).
				SetAttributes(tcell.AttrBold))
	}

	for row, s := range a.summaries {
		a.flightsTable.SetCell(row+1, 0,
			tview.NewTableCell(s.DepartureTime.Format("2006-01-02 15:04")))
		a.flightsTable.SetCell(row+1, 1, tview.NewTableCell(s.Callsign))
		a.flightsTable.SetCell(row+1, 2, tview.NewTableCell(s.DepartureLabel))
		a.flightsTable.SetCell(row+1, 3, tview.NewTableCell(s.ArrivalLabel))
		a.flightsTable.SetCell(row+1, 4,
			tview.NewTableCell(fmt.Sprintf("%d", s.ReportCount)).
				SetAlign(tview.AlignRight))
	}
}

// updateDestinations rebuilds the destination analytics panel
func (a *App) updateDestinations() {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var text strings.Builder

	text.WriteString("[yellow]TOP DESTINATIONS[-]\n")
	top := flights.TopDestinations(a.summaries, 5)
	if len(top) == 0 {
		text.WriteString("[gray]No known destinations[-]\n")
	}
	for i, d := range top {
		text.WriteString(fmt.Sprintf("[white]%d.[-] %s [gray](%d)[-]\n", i+1, d.Label, d.Count))
	}

	text.WriteString("\n[yellow]RECENT DESTINATIONS[-]\n")
	recent := flights.LastUniqueDestinations(a.summaries, 5)
	if len(recent) == 0 {
		text.WriteString("[gray]No known destinations[-]\n")
	}
	for _, label := range recent {
		text.WriteString(fmt.Sprintf("[white]•[-] %s\n", label))
	}

	a.destinations.SetText(text.String())
}

// updateActivity rebuilds the monthly activity bars
func (a *App) updateActivity() {
	a.mu.RLock()
	defer a.mu.RUnlock()

	counts := flights.MonthlyCounts(a.summaries)

	max := 0
	for _, c := range counts {
		if c > max {
			max = c
		}
	}

	var text strings.Builder
	for month := time.January; month <= time.December; month++ {
		count := counts[int(month)-1]
		barLen := 0
		if max > 0 {
			barLen = count * 20 / max
		}
		text.WriteString(fmt.Sprintf("[gray]%s[-] [green]%s[-] [white]%d[-]\n",
			month.String()[:3], strings.Repeat("▇", barLen), count))
	}

	a.activity.SetText(text.String())
}

// Run starts the application
func (a *App) Run() error {
	// Load the first roster entry's flights up front
	a.selectAircraft(0)

	return a.tviewApp.Run()
}

// Stop stops the application
func (a *App) Stop() {
	a.tviewApp.Stop()
}
