package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/autorl-dev/autorl/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	completedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	memoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("255"))
)

// View renders the dashboard
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	learningStr := "on"
	if !m.learning {
		learningStr = "off"
	}
	runStr := "idle"
	if m.runActive {
		runStr = "running"
	}
	header := fmt.Sprintf(" AutoRL │ Runs: %d │ Episodes: %d │ Learning: %s │ %s ",
		m.runsTotal, m.episodes.Len(), learningStr, runStr)
	b.WriteString(headerStyle.Width(m.width).Render(header))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Width(m.width - 2).Render(m.renderEvents()))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Width(m.width - 2).Render(m.renderMemory()))
	b.WriteString("\n")

	statusBar := " [n]ew run [c]ancel [l]earning toggle [r]eset memory [q]uit "
	b.WriteString(statusBarStyle.Width(m.width).Render(statusBar))

	return b.String()
}

func (m Model) renderEvents() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("EVENTS │ %s on %s", m.task, m.device)))
	b.WriteString("\n")

	if len(m.log) == 0 {
		b.WriteString(dimStyle.Render("  No events yet. Press [n] to start a run."))
		return b.String()
	}

	maxVisible := 12
	if m.height > 24 {
		maxVisible = m.height - 12
	}
	start := 0
	if len(m.log) > maxVisible {
		start = len(m.log) - maxVisible
	}

	for _, ev := range m.log[start:] {
		b.WriteString(formatEventLine(ev))
		b.WriteString("\n")
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func formatEventLine(ev domain.LifecycleEvent) string {
	stamp := ev.Timestamp.Format("15:04:05")
	prefix := fmt.Sprintf("  %s #%-3d", stamp, ev.RunID)

	switch ev.Kind {
	case domain.KindPerception, domain.KindPlanning:
		line := fmt.Sprintf("%s ◌ %s", prefix, ev.Text)
		if ev.Confidence > 0 {
			line += fmt.Sprintf(" (%.0f%%)", ev.Confidence*100)
		}
		return dimStyle.Render(line)
	case domain.KindExecutionStart, domain.KindRecoveryExecute:
		return runningStyle.Render(fmt.Sprintf("%s ● %s [%d%%]", prefix, ev.Text, ev.Progress))
	case domain.KindError:
		return warningStyle.Render(fmt.Sprintf("%s ⚠ %s", prefix, ev.Text))
	case domain.KindRecoveryAnalyze, domain.KindRecoveryPlan:
		return warningStyle.Render(fmt.Sprintf("%s ◌ %s", prefix, ev.Text))
	case domain.KindCompleted:
		return completedStyle.Render(fmt.Sprintf("%s ✓ %s (reward %.2f)", prefix, ev.Text, ev.Reward))
	case domain.KindMemorySaved:
		return memoryStyle.Render(fmt.Sprintf("%s ◆ %s", prefix, ev.Text))
	default:
		return dimStyle.Render(fmt.Sprintf("%s   %s", prefix, ev.Text))
	}
}

func (m Model) renderMemory() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("MEMORY (%d episodes)", len(m.memory))))
	b.WriteString("\n")

	if len(m.memory) == 0 {
		b.WriteString(dimStyle.Render("  No episodes recorded"))
		return b.String()
	}

	maxVisible := 5
	start := 0
	if len(m.memory) > maxVisible {
		start = len(m.memory) - maxVisible
	}

	for _, ep := range m.memory[start:] {
		line := fmt.Sprintf("  ◆ run %-4d %-30s %s  %s",
			ep.RunID, truncate(ep.TaskDescription, 30), ep.DeviceID,
			humanize.Time(ep.Timestamp))
		b.WriteString(memoryStyle.Render(line))
		b.WriteString("\n")
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
