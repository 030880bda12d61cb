// Package driver contains the scenario control logic: boundary
// initialization, the shared control signals, and the run controller that
// drives the simulation engine through its time-stepping loop.
package driver

import "sync/atomic"

// Signals is the control state shared between the run controller and an
// input-handling collaborator (terminal monitor, SSH session, OS signal
// handler). Each flag is an atomic; the controller only ever clears the
// export trigger it consumes and never writes the others.
//
// Every mutation also posts to a wake channel, so a paused controller can
// block until something changes instead of polling on a timer. An export
// requested while paused therefore still wakes the loop.
type Signals struct {
	running atomic.Bool
	paused  atomic.Bool
	export  atomic.Bool
	wake    chan struct{}
}

// NewSignals returns signals in the running, unpaused state.
func NewSignals() *Signals {
	s := &Signals{wake: make(chan struct{}, 1)}
	s.running.Store(true)
	return s
}

// Running reports whether the run is still allowed to proceed.
func (s *Signals) Running() bool { return s.running.Load() }

// Stop requests termination. The controller observes it at the next batch
// boundary; a batch in flight runs to completion first.
func (s *Signals) Stop() {
	s.running.Store(false)
	s.notify()
}

// Paused reports the level-held pause flag.
func (s *Signals) Paused() bool { return s.paused.Load() }

// SetPaused sets or clears the pause flag.
func (s *Signals) SetPaused(paused bool) {
	s.paused.Store(paused)
	s.notify()
}

// TogglePause flips the pause flag and returns the new value.
func (s *Signals) TogglePause() bool {
	paused := !s.paused.Load()
	s.paused.Store(paused)
	s.notify()
	return paused
}

// RequestExport arms the momentary snapshot trigger.
func (s *Signals) RequestExport() {
	s.export.Store(true)
	s.notify()
}

// ExportRequested reports whether the trigger is currently armed.
func (s *Signals) ExportRequested() bool { return s.export.Load() }

// ConsumeExport clears the trigger and reports whether it was armed.
func (s *Signals) ConsumeExport() bool { return s.export.Swap(false) }

// AwaitChange blocks until a signal has been mutated since the last wake.
// Callers re-evaluate all signals afterwards; a stale wake is harmless.
func (s *Signals) AwaitChange() { <-s.wake }

func (s *Signals) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
