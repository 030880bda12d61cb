package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Noelok/CFD/internal/driver"
)

// SnapshotFunc reads current run progress. It is polled on every
// refresh tick and must be safe to call concurrently with the run.
type SnapshotFunc func() driver.Snapshot

// doneMsg is delivered once when the run goroutine finishes.
type doneMsg struct{}

// Monitor is the Bubble Tea model showing one in-flight run. Several
// monitors may watch the same run: they share the control signals, so a
// pause or stop issued in any session applies to all of them.
type Monitor struct {
	sig  *driver.Signals
	snap SnapshotFunc
	done <-chan struct{}
	errf func() error

	scenario string
	grid     string

	keys     keyMap
	help     help.Model
	progress progress.Model

	width    int
	stopping bool
	finished bool
	runErr   error
}

// NewMonitor builds a monitor for a run. done must be closed when the
// run goroutine returns, and errf must then report its error, if any.
func NewMonitor(sig *driver.Signals, snap SnapshotFunc, done <-chan struct{}, errf func() error, scenario, grid string) Monitor {
	return Monitor{
		sig:      sig,
		snap:     snap,
		done:     done,
		errf:     errf,
		scenario: scenario,
		grid:     grid,
		keys:     defaultKeyMap(),
		help:     help.New(),
		progress: progress.New(progress.WithDefaultGradient()),
	}
}

// Init starts the refresh loop and the run-completion watcher.
func (m Monitor) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.waitDone())
}

// waitDone blocks until the run goroutine finishes.
func (m Monitor) waitDone() tea.Cmd {
	return func() tea.Msg {
		<-m.done
		return doneMsg{}
	}
}

// Update handles messages and updates the model state.
func (m Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = msg.Width - 8
		if m.progress.Width > 60 {
			m.progress.Width = 60
		}
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		return m, tickCmd()

	case doneMsg:
		m.finished = true
		m.runErr = m.errf()
		return m, tea.Quit
	}

	return m, nil
}

// handleKey maps keys onto the shared control signals. Quit requests a
// stop and keeps the monitor open until the run actually terminates, so
// the final state stays visible.
func (m Monitor) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.stopping = true
		m.sig.Stop()
		return m, nil

	case key.Matches(msg, m.keys.Pause):
		m.sig.TogglePause()
		return m, nil

	case key.Matches(msg, m.keys.Export):
		m.sig.RequestExport()
		return m, nil
	}
	return m, nil
}

// Err returns the run's error once the monitor has observed completion.
func (m Monitor) Err() error { return m.runErr }

// Run drives a monitor program to completion on the local terminal and
// returns the run's error.
func Run(m Monitor) error {
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if mon, ok := final.(Monitor); ok {
		return mon.Err()
	}
	return nil
}
