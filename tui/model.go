// Package tui renders a live dashboard for simulation runs: an event log,
// the episode memory, and keybindings to start, cancel, and replay runs.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/autorl-dev/autorl/internal/domain"
	"github.com/autorl-dev/autorl/internal/episodes"
	"github.com/autorl-dev/autorl/internal/sim"
)

// eventBuffer caps how many lifecycle events the log keeps on screen
const eventBuffer = 200

// EventMsg carries a lifecycle event into the update loop
type EventMsg domain.LifecycleEvent

// TickMsg refreshes relative timestamps
type TickMsg time.Time

// Model is the TUI application model
type Model struct {
	engine   *sim.Engine
	episodes *episodes.Log

	// Event delivery: the engine observer pushes here, waitForEvent pulls.
	events chan domain.LifecycleEvent

	// Data
	log      []domain.LifecycleEvent
	memory   []domain.Episode
	task     string
	device   string
	learning bool

	// Run state
	current    *sim.RunHandle
	runActive  bool
	runsTotal  int
	lastRunErr bool

	// UI state
	width  int
	height int
}

// NewModel creates a dashboard bound to an engine and its episode log
func NewModel(engine *sim.Engine, log *episodes.Log) Model {
	return Model{
		engine:   engine,
		episodes: log,
		events:   make(chan domain.LifecycleEvent, 64),
		task:     domain.DefaultTaskDescription,
		device:   domain.DefaultDeviceID,
		learning: true,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForEvent(m.events),
		tickCmd(),
	)
}

func waitForEvent(events chan domain.LifecycleEvent) tea.Cmd {
	return func() tea.Msg {
		return EventMsg(<-events)
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
