package driver

import (
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
)

// fakeEngine counts warm-ups, stepping batches and exports so tests can
// assert the exact call sequence the controller issues.
type fakeEngine struct {
	t        atomic.Uint64
	warmups  atomic.Int32
	batches  atomic.Int32
	statuses atomic.Int32

	exportCh  chan string
	exportErr error

	faultAt int // stepping batch number that fails, 0 = never
	fault   error

	onBatch func(n int32)
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{exportCh: make(chan string, 64)}
}

func (f *fakeEngine) Run(steps uint64) error {
	if steps == 0 {
		f.warmups.Add(1)
		return nil
	}
	n := f.batches.Load() + 1
	if f.faultAt > 0 && int(n) == f.faultAt {
		return f.fault
	}
	f.batches.Store(n)
	f.t.Add(steps)
	if f.onBatch != nil {
		f.onBatch(n)
	}
	return nil
}

func (f *fakeEngine) T() uint64        { return f.t.Load() }
func (f *fakeEngine) Fields() []string { return []string{"u", "rho", "flags"} }

func (f *fakeEngine) ExportField(field, dir string) error {
	f.exportCh <- field
	return f.exportErr
}

func (f *fakeEngine) WriteStatus(io.Writer) error {
	f.statuses.Add(1)
	return nil
}

func quietOpts() []Option {
	return []Option{WithLogger(log.New(io.Discard)), WithStatusWriter(io.Discard)}
}

func TestLoopTerminationExactBatches(t *testing.T) {
	eng := newFakeEngine()
	sig := NewSignals()
	ctl := New(eng, sig, RunConfig{Steps: 100, Batch: 20}, quietOpts()...)

	if err := ctl.Run(); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if got := eng.batches.Load(); got != 5 {
		t.Errorf("issued %d stepping batches, want 5", got)
	}
	if eng.warmups.Load() != 1 {
		t.Errorf("warm-up called %d times, want 1", eng.warmups.Load())
	}
	if eng.statuses.Load() != 2 {
		t.Errorf("status written %d times, want start + termination", eng.statuses.Load())
	}
	if ctl.State() != StateTerminated {
		t.Errorf("state = %v, want terminated", ctl.State())
	}
	if snap := ctl.Snapshot(); snap.T != 100 || snap.Steps != 100 {
		t.Errorf("snapshot = %+v, want t=100 of 100", snap)
	}
}

func TestStopObservedAtBatchBoundary(t *testing.T) {
	eng := newFakeEngine()
	sig := NewSignals()
	eng.onBatch = func(n int32) {
		if n == 2 {
			sig.Stop()
		}
	}
	ctl := New(eng, sig, RunConfig{Steps: 1000, Batch: 20}, quietOpts()...)

	if err := ctl.Run(); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if got := eng.batches.Load(); got != 2 {
		t.Errorf("issued %d batches after stop, want 2", got)
	}
	if eng.T() != 40 {
		t.Errorf("t = %d, want 40", eng.T())
	}
}

func TestPauseBlocksTimeAndHonorsExport(t *testing.T) {
	eng := newFakeEngine()
	sig := NewSignals()
	sig.SetPaused(true)
	ctl := New(eng, sig, RunConfig{Steps: 100, Batch: 20}, quietOpts()...)

	done := make(chan error, 1)
	go func() { done <- ctl.Run() }()

	// Export requested while paused must still produce snapshots.
	sig.RequestExport()
	for range eng.Fields() {
		<-eng.exportCh
	}

	if eng.T() != 0 {
		t.Errorf("t advanced to %d while paused", eng.T())
	}
	if sig.ExportRequested() {
		t.Error("export trigger still armed after being consumed")
	}

	sig.SetPaused(false)
	if err := <-done; err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if eng.batches.Load() != 5 || eng.T() != 100 {
		t.Errorf("after resume: %d batches, t=%d, want 5 and 100", eng.batches.Load(), eng.T())
	}
}

func TestExportTriggerClearedOnFailure(t *testing.T) {
	eng := newFakeEngine()
	eng.exportErr = errors.New("disk full")
	sig := NewSignals()
	sig.RequestExport()
	ctl := New(eng, sig, RunConfig{Steps: 40, Batch: 20}, quietOpts()...)

	if err := ctl.Run(); err != nil {
		t.Fatalf("export failure must not abort the run: %v", err)
	}
	if sig.ExportRequested() {
		t.Error("trigger still armed after failed export")
	}
	if got := ctl.Snapshot().Exports; got != 1 {
		t.Errorf("export attempts = %d, want 1 (no retry)", got)
	}
}

func TestEngineFaultIsFatal(t *testing.T) {
	eng := newFakeEngine()
	eng.faultAt = 3
	eng.fault = errors.New("device lost")
	sig := NewSignals()
	ctl := New(eng, sig, RunConfig{Steps: 1000, Batch: 20}, quietOpts()...)

	err := ctl.Run()
	if err == nil {
		t.Fatal("expected an error from an engine fault")
	}
	if !strings.Contains(err.Error(), "engine fault") {
		t.Errorf("error %q does not identify the stepping phase", err)
	}
	if ctl.State() != StateTerminated {
		t.Errorf("state = %v, want terminated", ctl.State())
	}
	if eng.batches.Load() != 2 {
		t.Errorf("continued stepping after fault: %d batches", eng.batches.Load())
	}
}

func TestBatchDefault(t *testing.T) {
	eng := newFakeEngine()
	ctl := New(eng, NewSignals(), RunConfig{Steps: 40}, quietOpts()...)
	if err := ctl.Run(); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if eng.batches.Load() != 2 {
		t.Errorf("default batch: %d batches for 40 steps, want 2", eng.batches.Load())
	}
}
