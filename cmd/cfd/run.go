package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Noelok/CFD/internal/config"
	"github.com/Noelok/CFD/internal/driver"
	"github.com/Noelok/CFD/internal/geometry"
	"github.com/Noelok/CFD/internal/lattice"
	"github.com/Noelok/CFD/internal/platform/tui"
	"github.com/Noelok/CFD/internal/storage"
)

var flagHeadless bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the configured scenario",
	Long: `Load the scenario, size the grid to its memory budget, voxelize the
geometry and run the simulation to its step budget.

With a terminal attached, a live monitor shows progress:
  P/Space    - Pause/resume
  E          - Export field snapshots (VTK)
  Q/Ctrl+C   - Stop the run

Without a terminal (or with --headless), progress goes to the log and
SIGINT/SIGTERM stop the run at the next batch boundary.

Examples:
  cfd run
  cfd run --scenario ./wing.yaml
  cfd run --headless`,
	Run: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&flagHeadless, "headless", false, "Disable the live monitor")
}

// preparedRun bundles everything a started scenario needs: the engine
// with geometry and boundaries applied, shared control signals, the
// controller and the optional run-history store.
type preparedRun struct {
	scenario config.Scenario
	shape    lattice.GridShape
	eng      *lattice.Engine
	sig      *driver.Signals
	ctl      *driver.Controller
	store    *storage.Store // nil when the database is unavailable
	runID    int64
	logger   *log.Logger
}

// prepareRun loads the scenario and builds the run up to the point
// where the controller can take over. statusW receives the engine's
// start and termination status lines.
func prepareRun(logger *log.Logger, statusW *os.File) (*preparedRun, error) {
	scenario, err := config.Load(flagScenario)
	if err != nil {
		return nil, err
	}

	shape := lattice.Resolution(scenario.Domain.Aspect, scenario.Domain.MemoryMB)
	required := lattice.MemoryRequirementMB(shape)
	if required > float64(scenario.Domain.MemoryMB) {
		return nil, fmt.Errorf("memory budget %d MB cannot fit a grid: even %s needs %.1f MB",
			scenario.Domain.MemoryMB, shape, required)
	}
	logger.Info("resolved grid", "grid", shape.String(), "memory_mb", fmt.Sprintf("%.1f", required))

	// Viscosity from the Reynolds number, with the box length and the
	// inlet speed as the characteristic scales.
	nu := lattice.NuFromRe(scenario.Physics.Reynolds, float64(shape.Nx), float64(scenario.Physics.InletVelocity))

	var opts []lattice.Option
	if scenario.Physics.ForceField {
		opts = append(opts, lattice.WithForceField())
	}
	if f := scenario.Physics.VolumeForce; f != [3]float32{} {
		opts = append(opts, lattice.WithVolumeForce(float64(f[0]), float64(f[1]), float64(f[2])))
	}
	eng := lattice.NewEngine(shape, nu, opts...)

	if scenario.Geometry.Mesh != "" {
		mesh, err := geometry.Load(scenario.Geometry.Mesh)
		if err != nil {
			return nil, err
		}
		center := geometry.Vec3{
			X: float64(shape.Nx-1)/2 + scenario.Geometry.Offset[0]*float64(shape.Nx),
			Y: float64(shape.Ny-1)/2 + scenario.Geometry.Offset[1]*float64(shape.Ny),
			Z: float64(shape.Nz-1)/2 + scenario.Geometry.Offset[2]*float64(shape.Nz),
		}
		r := scenario.Geometry.RotationDeg
		rot := geometry.EulerRotation(r[0], r[1], r[2])
		size := scenario.Geometry.Scale * float64(shape.Nx)
		geometry.Voxelize(eng, mesh, center, rot, size)
		logger.Info("voxelized mesh", "mesh", scenario.Geometry.Mesh, "size", size)
	}

	driver.InitializeBoundaries(eng, scenario.Physics.InletVelocity)

	dbPath := scenario.Output.DB
	if flagDBPath != "" {
		dbPath = flagDBPath
	}
	var store *storage.Store
	var runID int64
	if st, err := storage.Open(dbPath); err != nil {
		logger.Warn("run history unavailable", "err", err)
	} else if id, err := st.BeginRun(scenario.Name, shape.Nx, shape.Ny, shape.Nz, scenario.Physics.Steps); err != nil {
		logger.Warn("could not record run start", "err", err)
		st.Close()
	} else {
		store = st
		runID = id
	}

	ctlOpts := []driver.Option{
		driver.WithLogger(logger),
		driver.WithStatusWriter(statusW),
	}
	if store != nil {
		ctlOpts = append(ctlOpts, driver.WithStore(store, runID))
	}

	sig := driver.NewSignals()
	ctl := driver.New(eng, sig, driver.RunConfig{
		Steps:         scenario.Physics.Steps,
		Batch:         scenario.Physics.Batch,
		InletVelocity: scenario.Physics.InletVelocity,
		OutputDir:     scenario.Output.Dir,
	}, ctlOpts...)

	return &preparedRun{
		scenario: scenario,
		shape:    shape,
		eng:      eng,
		sig:      sig,
		ctl:      ctl,
		store:    store,
		runID:    runID,
		logger:   logger,
	}, nil
}

// finish records the run's outcome in the history store and releases it.
func (pr *preparedRun) finish(runErr error) {
	if pr.store == nil {
		return
	}
	status := storage.StatusCompleted
	switch {
	case runErr != nil:
		status = storage.StatusFailed
	case pr.eng.T() < pr.scenario.Physics.Steps:
		status = storage.StatusStopped
	}
	if err := pr.store.FinishRun(pr.runID, pr.eng.T(), status); err != nil {
		pr.logger.Warn("could not record run end", "err", err)
	}
	pr.store.Close()
}

func runRun(_ *cobra.Command, _ []string) {
	watch := !flagHeadless && term.IsTerminal(int(os.Stdout.Fd()))

	// With the monitor owning stdout, status lines go to stderr.
	statusW := os.Stdout
	if watch {
		statusW = os.Stderr
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "cfd",
	})

	pr, err := prepareRun(logger, statusW)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	done := make(chan struct{})
	var runErr error
	go func() {
		runErr = pr.ctl.Run()
		close(done)
	}()

	if watch {
		mon := tui.NewMonitor(pr.sig, pr.ctl.Snapshot, done,
			func() error { return runErr },
			pr.scenario.Name, pr.shape.String())
		if err := tui.Run(mon); err != nil && runErr == nil {
			runErr = err
		}
		// A monitor crash must not orphan the run.
		pr.sig.Stop()
	} else {
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
		select {
		case <-done:
		case <-interrupt:
			logger.Info("stopping at next batch boundary")
			pr.sig.Stop()
		}
		signal.Stop(interrupt)
	}
	<-done

	pr.finish(runErr)
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}
