// Package tui provides the Bubble Tea integration for the simulation
// driver. It renders live run progress and maps keys to the shared
// control signals.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// refreshInterval is how often the monitor re-reads run progress. The
// simulation advances independently; this only paces the display.
const refreshInterval = 250 * time.Millisecond

// TickMsg is sent to trigger a display refresh.
type TickMsg time.Time

// tickCmd returns a Bubble Tea command that sends refresh ticks.
func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
