package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Noelok/CFD/internal/driver"
)

func testMonitor(sig *driver.Signals, done <-chan struct{}) Monitor {
	snap := func() driver.Snapshot {
		return driver.Snapshot{T: 40, Steps: 100, State: driver.StateStepping}
	}
	return NewMonitor(sig, snap, done, func() error { return nil }, "test", "8x8x8")
}

func TestKeysDriveSignals(t *testing.T) {
	sig := driver.NewSignals()
	m := testMonitor(sig, make(chan struct{}))

	press := func(r rune) tea.Msg {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
	}

	next, _ := m.Update(press('p'))
	m = next.(Monitor)
	if !sig.Paused() {
		t.Error("'p' did not pause the run")
	}

	next, _ = m.Update(press('e'))
	m = next.(Monitor)
	if !sig.ExportRequested() {
		t.Error("'e' did not arm the export trigger")
	}

	next, _ = m.Update(press('q'))
	m = next.(Monitor)
	if sig.Running() {
		t.Error("'q' did not request a stop")
	}
	if !m.stopping {
		t.Error("monitor should show the stopping state after 'q'")
	}
}

func TestDoneQuitsWithRunError(t *testing.T) {
	sig := driver.NewSignals()
	m := testMonitor(sig, make(chan struct{}))

	next, cmd := m.Update(doneMsg{})
	m = next.(Monitor)
	if !m.finished {
		t.Error("doneMsg did not mark the monitor finished")
	}
	if cmd == nil {
		t.Fatal("doneMsg should produce a quit command")
	}
	if msg := cmd(); msg != (tea.QuitMsg{}) {
		t.Errorf("doneMsg produced %T, want tea.QuitMsg", msg)
	}
}

func TestViewShowsProgress(t *testing.T) {
	sig := driver.NewSignals()
	m := testMonitor(sig, make(chan struct{}))

	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = next.(Monitor)

	view := m.View()
	if view == "" {
		t.Fatal("empty view")
	}
	for _, want := range []string{"test", "8x8x8", "40 / 100", "stepping"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
