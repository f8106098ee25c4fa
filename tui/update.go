package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/autorl-dev/autorl/internal/domain"
)

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.current != nil {
				m.current.Cancel()
			}
			return m, tea.Quit
		case "n":
			return m.startRun(), nil
		case "c":
			if m.runActive && m.current != nil {
				m.current.Cancel()
				m.runActive = false
			}
		case "l":
			m.learning = !m.learning
		case "r":
			m.episodes.Reset()
			m.memory = nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TickMsg:
		return m, tickCmd()

	case EventMsg:
		m = m.recordEvent(domain.LifecycleEvent(msg))
		return m, waitForEvent(m.events)
	}

	return m, nil
}

func (m Model) startRun() Model {
	if m.runActive {
		return m
	}

	learning := m.learning
	req := domain.TaskRequest{
		TaskDescription: m.task,
		DeviceID:        m.device,
		Learning:        &learning,
	}

	events := m.events
	handle := m.engine.StartRun(req, func(ev domain.LifecycleEvent) {
		events <- ev
	})

	m.current = &handle
	m.runActive = true
	m.runsTotal++
	m.lastRunErr = false
	return m
}

func (m Model) recordEvent(ev domain.LifecycleEvent) Model {
	m.log = append(m.log, ev)
	if len(m.log) > eventBuffer {
		m.log = m.log[len(m.log)-eventBuffer:]
	}

	switch ev.Kind {
	case domain.KindError:
		m.lastRunErr = true
	case domain.KindCompleted:
		m.runActive = false
	case domain.KindMemorySaved:
		m.memory = m.episodes.List()
	}
	return m
}
