// cfd is a lattice-Boltzmann scenario driver for the terminal.
//
// Usage:
//
//	cfd run               - Run the configured scenario
//	cfd resolve           - Show the grid a memory budget buys
//	cfd runs              - List past runs and their exports
//	cfd serve             - Run a scenario with an SSH monitor
//
// Global flags:
//
//	--scenario <path>  - Scenario YAML (default: search ~/.cfd, then built-in)
//	--db <path>        - Run-history database (default: from scenario)
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	flagScenario string
	flagDBPath   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cfd",
	Short: "Terminal driver for lattice-Boltzmann flow scenarios",
	Long: `cfd sizes a simulation grid to a memory budget, voxelizes an STL
mesh into it, and drives the run with live pause, export and stop
controls.

Available commands:
  run      - Run the configured scenario
  resolve  - Show the grid a memory budget buys, without running
  runs     - List past runs and their exports
  serve    - Run a scenario and expose the monitor over SSH

Examples:
  cfd run
  cfd run --scenario ./wing.yaml --headless
  cfd resolve --aspect 2,1,1 --memory 3000
  cfd runs
  cfd serve --ssh :2222`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagScenario, "scenario", "", "Path to scenario YAML")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to run-history database (overrides scenario)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(serveCmd)
}
