package driver

import (
	"runtime"
	"sync"

	"github.com/Noelok/CFD/internal/lattice"
)

// Domain is the slice of engine state the boundary initializer writes
// directly. This is a privileged one-time write, not a stepped update.
type Domain interface {
	Shape() lattice.GridShape
	Flags() []lattice.Flag
	VelocityX() []float32
}

// InitializeBoundaries performs the single full-grid initialization pass:
// every non-solid cell gets the inlet velocity on its x-component, and every
// cell on the six outer faces is overwritten to the equilibrium-boundary
// flag. The overwrite is unconditional: domain edges become open boundaries
// even where the voxelized geometry marked them solid.
//
// The pass has no cross-cell dependencies and is split across the available
// CPUs. It must run after voxelization and complete before the engine's
// warm-up step; both are guaranteed here because the call blocks until every
// cell is done.
func InitializeBoundaries(d Domain, inletU float32) {
	shape := d.Shape()
	flags := d.Flags()
	ux := d.VelocityX()

	total := shape.Cells()
	workers := uint64(runtime.GOMAXPROCS(0))
	if workers > total {
		workers = total
	}
	if workers < 1 {
		workers = 1
	}
	chunk := (total + workers - 1) / workers

	var wg sync.WaitGroup
	for w := uint64(0); w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > total {
			hi = total
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi uint64) {
			defer wg.Done()
			for n := lo; n < hi; n++ {
				x, y, z := shape.Coordinates(n)
				if flags[n] != lattice.FlagSolid {
					ux[n] = inletU
				}
				if shape.OnBoundary(x, y, z) {
					flags[n] = lattice.FlagEquilibrium
				}
			}
		}(lo, hi)
	}
	wg.Wait()
}
