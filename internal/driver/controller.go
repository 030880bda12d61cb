package driver

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/Noelok/CFD/internal/storage"
)

// DefaultBatch is the number of steps advanced per engine call. Batching
// amortizes per-call overhead; stop and pause are only observed between
// batches.
const DefaultBatch = 20

// RunConfig holds the immutable parameters of one run.
type RunConfig struct {
	Steps         uint64 // total step budget
	Batch         uint64 // steps per engine call; DefaultBatch when zero
	InletVelocity float32
	OutputDir     string // snapshot export target
}

func (c RunConfig) withDefaults() RunConfig {
	if c.Batch == 0 {
		c.Batch = DefaultBatch
	}
	return c
}

// Engine is the simulation collaborator driven by the controller. Run and
// ExportField block until the underlying work completes; T must be safe to
// call while a Run is in flight.
type Engine interface {
	// Run advances the simulation by the given number of steps. Run(0) is
	// the one-time warm-up that initializes internal state.
	Run(steps uint64) error
	// T returns the current discrete time step.
	T() uint64
	// Fields lists the exportable field names of this engine variant.
	Fields() []string
	// ExportField writes one field snapshot to the directory.
	ExportField(field, dir string) error
	// WriteStatus writes an engine-owned status summary.
	WriteStatus(w io.Writer) error
}

// State identifies the controller's position in its lifecycle.
type State int32

const (
	StateInitializing State = iota
	StateStepping
	StatePaused
	StateTerminated
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateStepping:
		return "stepping"
	case StatePaused:
		return "paused"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Snapshot is a point-in-time view of run progress for monitoring.
type Snapshot struct {
	T       uint64
	Steps   uint64
	State   State
	Exports uint64
}

// Controller drives the main simulation loop: it decides each iteration
// whether to advance a batch, wait while paused, or export a snapshot, and
// terminates when the step budget is exhausted or the stop signal is
// observed.
type Controller struct {
	eng     Engine
	sig     *Signals
	cfg     RunConfig
	logger  *log.Logger
	statusW io.Writer

	store *storage.Store // optional, best-effort export records
	runID int64

	state   atomic.Int32
	exports atomic.Uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger routes controller diagnostics to the given logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithStatusWriter redirects the engine's start/termination status lines.
func WithStatusWriter(w io.Writer) Option {
	return func(c *Controller) { c.statusW = w }
}

// WithStore records exports of this run in the run-history store.
func WithStore(st *storage.Store, runID int64) Option {
	return func(c *Controller) {
		c.store = st
		c.runID = runID
	}
}

// New builds a controller around an engine, shared control signals and a run
// configuration. The signals are read every iteration and may be mutated
// concurrently by their owners.
func New(eng Engine, sig *Signals, cfg RunConfig, opts ...Option) *Controller {
	c := &Controller{
		eng:     eng,
		sig:     sig,
		cfg:     cfg.withDefaults(),
		logger:  log.New(io.Discard),
		statusW: os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the controller's current lifecycle state.
func (c *Controller) State() State { return State(c.state.Load()) }

// Snapshot returns the current run progress. Safe for concurrent use.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		T:       c.eng.T(),
		Steps:   c.cfg.Steps,
		State:   c.State(),
		Exports: c.exports.Load(),
	}
}

// Run executes the loop until the step budget is exhausted, the stop signal
// is cleared, or the engine reports a fault. Engine faults are fatal for the
// run: simulation state is not checkpointed mid-batch, so no retry is
// attempted. Export failures are logged and swallowed.
func (c *Controller) Run() error {
	if err := c.eng.WriteStatus(c.statusW); err != nil {
		c.logger.Warn("status write failed", "err", err)
	}

	// One-time warm-up, distinct from the repeated stepping call.
	if err := c.eng.Run(0); err != nil {
		c.state.Store(int32(StateTerminated))
		return fmt.Errorf("driver: engine warm-up failed: %w", err)
	}
	c.state.Store(int32(StateStepping))

	for c.eng.T() < c.cfg.Steps && c.sig.Running() {
		if c.sig.ConsumeExport() {
			c.exportAll()
		}

		if c.sig.Paused() {
			c.state.Store(int32(StatePaused))
			c.sig.AwaitChange()
			continue
		}
		c.state.Store(int32(StateStepping))

		if err := c.eng.Run(c.cfg.Batch); err != nil {
			c.state.Store(int32(StateTerminated))
			return fmt.Errorf("driver: engine fault at step %d: %w", c.eng.T(), err)
		}
	}

	c.state.Store(int32(StateTerminated))
	if err := c.eng.WriteStatus(c.statusW); err != nil {
		c.logger.Warn("final status write failed", "err", err)
	}
	return nil
}

// exportAll snapshots every tracked field. The trigger was already cleared
// by the caller, so a failing export is reported once, not retried every
// iteration.
func (c *Controller) exportAll() {
	t := c.eng.T()
	for _, field := range c.eng.Fields() {
		if err := c.eng.ExportField(field, c.cfg.OutputDir); err != nil {
			c.logger.Warn("snapshot export failed", "field", field, "err", err)
		}
	}
	c.exports.Add(1)
	c.logger.Info("snapshot exported", "step", t, "dir", c.cfg.OutputDir)

	if c.store != nil {
		if _, err := c.store.RecordExport(c.runID, t, c.cfg.OutputDir); err != nil {
			c.logger.Warn("could not record export", "err", err)
		}
	}
}
