package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Noelok/CFD/internal/config"
	"github.com/Noelok/CFD/internal/lattice"
)

var (
	flagAspect []float64
	flagMemory uint64
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Show the grid a memory budget buys, without running",
	Long: `Compute the largest grid with the requested box proportions that
fits the memory budget, and report how much memory it actually needs.

The aspect and budget default to the loaded scenario; flags override it.

Examples:
  cfd resolve
  cfd resolve --aspect 2,1,1 --memory 3000
  cfd resolve --scenario ./wing.yaml --memory 8000`,
	Run: runResolve,
}

func init() {
	resolveCmd.Flags().Float64SliceVar(&flagAspect, "aspect", nil, "Box proportions x,y,z")
	resolveCmd.Flags().Uint64Var(&flagMemory, "memory", 0, "Memory budget in MB")
}

func runResolve(cmd *cobra.Command, _ []string) {
	scenario, err := config.Load(flagScenario)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	aspect := scenario.Domain.Aspect
	if cmd.Flags().Changed("aspect") {
		if len(flagAspect) != 3 {
			fmt.Fprintln(os.Stderr, "Error: --aspect needs exactly three values, e.g. 2,1,1")
			os.Exit(1)
		}
		aspect = [3]float64{flagAspect[0], flagAspect[1], flagAspect[2]}
		for i, a := range aspect {
			if a <= 0 {
				fmt.Fprintf(os.Stderr, "Error: aspect[%d] = %g, must be positive\n", i, a)
				os.Exit(1)
			}
		}
	}
	budget := scenario.Domain.MemoryMB
	if cmd.Flags().Changed("memory") {
		budget = flagMemory
	}

	shape := lattice.Resolution(aspect, budget)
	required := lattice.MemoryRequirementMB(shape)

	fmt.Printf("aspect:  %g : %g : %g\n", aspect[0], aspect[1], aspect[2])
	fmt.Printf("grid:    %s\n", shape)
	fmt.Printf("cells:   %d\n", shape.Cells())
	fmt.Printf("memory:  %.1f MB of %d MB budget\n", required, budget)

	if required > float64(budget) {
		fmt.Fprintf(os.Stderr, "\nError: budget too small, even the minimal grid needs %.1f MB\n", required)
		os.Exit(1)
	}
}
