package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Noelok/CFD/internal/config"
	"github.com/Noelok/CFD/internal/storage"
)

var flagRunsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List past runs and their exports",
	Long: `Without arguments, list the most recent runs. With a run ID, show
that run and every snapshot it exported.

Examples:
  cfd runs
  cfd runs --limit 50
  cfd runs 12`,
	Args: cobra.MaximumNArgs(1),
	Run:  runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&flagRunsLimit, "limit", 20, "Number of runs to list")
}

func runRuns(_ *cobra.Command, args []string) {
	dbPath := flagDBPath
	if dbPath == "" {
		scenario, err := config.Load(flagScenario)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		dbPath = scenario.Output.DB
	}

	store, err := storage.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening run database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: run ID must be a number, got %q\n", args[0])
			os.Exit(1)
		}
		showRun(store, id)
		return
	}

	runs, err := store.RecentRuns(flagRunsLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving runs: %v\n", err)
		os.Exit(1)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Println("Start one with 'cfd run'.")
		return
	}

	fmt.Printf("  %-4s  %-16s  %-15s  %-18s  %-10s  %s\n", "ID", "Scenario", "Grid", "Steps", "Status", "Started")
	fmt.Printf("  %-4s  %-16s  %-15s  %-18s  %-10s  %s\n", "--", "--------", "----", "-----", "------", "-------")
	for _, r := range runs {
		grid := fmt.Sprintf("%dx%dx%d", r.Nx, r.Ny, r.Nz)
		steps := fmt.Sprintf("%d / %d", r.CompletedSteps, r.TotalSteps)
		fmt.Printf("  %-4d  %-16s  %-15s  %-18s  %-10s  %s\n",
			r.ID, r.Scenario, grid, steps, r.Status, r.StartedAt.Format("2006-01-02 15:04"))
	}
}

func showRun(store *storage.Store, id int64) {
	run, err := store.RunByID(id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving run: %v\n", err)
		os.Exit(1)
	}
	if run == nil {
		fmt.Fprintf(os.Stderr, "Error: no run with ID %d\n", id)
		os.Exit(1)
	}

	fmt.Printf("Run %d - %s\n", run.ID, run.Scenario)
	fmt.Println()
	fmt.Printf("  grid:     %dx%dx%d\n", run.Nx, run.Ny, run.Nz)
	fmt.Printf("  steps:    %d / %d\n", run.CompletedSteps, run.TotalSteps)
	fmt.Printf("  status:   %s\n", run.Status)
	fmt.Printf("  started:  %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	if !run.FinishedAt.IsZero() {
		fmt.Printf("  finished: %s\n", run.FinishedAt.Format("2006-01-02 15:04:05"))
	}

	exports, err := store.RunExports(id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving exports: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	if len(exports) == 0 {
		fmt.Println("No snapshots exported.")
		return
	}
	fmt.Printf("  %-10s  %s\n", "Step", "Directory")
	fmt.Printf("  %-10s  %s\n", "----", "---------")
	for _, e := range exports {
		fmt.Printf("  %-10d  %s\n", e.Step, e.Dir)
	}
}
