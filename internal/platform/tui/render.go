package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Noelok/CFD/internal/driver"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	stateStyles = map[driver.State]lipgloss.Style{
		driver.StateInitializing: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		driver.StateStepping:     lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		driver.StatePaused:       lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		driver.StateTerminated:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
)

// View renders the monitor screen.
func (m Monitor) View() string {
	snap := m.snap()

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.scenario))
	sb.WriteString(labelStyle.Render("  " + m.grid))
	sb.WriteString("\n\n")

	pct := 0.0
	if snap.Steps > 0 {
		pct = float64(snap.T) / float64(snap.Steps)
	}
	sb.WriteString("  ")
	sb.WriteString(m.progress.ViewAs(pct))
	sb.WriteString("\n\n")

	state := snap.State
	stateText := state.String()
	if m.stopping && state != driver.StateTerminated {
		stateText = "stopping"
	}
	style, ok := stateStyles[state]
	if !ok {
		style = labelStyle
	}
	sb.WriteString(fmt.Sprintf("  %s  %s %d / %d  %s %d\n",
		style.Render(stateText),
		labelStyle.Render("step"), snap.T, snap.Steps,
		labelStyle.Render("exports"), snap.Exports,
	))

	if m.finished && m.runErr != nil {
		sb.WriteString("\n  " + errStyle.Render(m.runErr.Error()) + "\n")
	}

	sb.WriteString("\n" + m.help.View(m.keys) + "\n")
	return sb.String()
}
