// Package lattice implements the computational grid for the fluid solver:
// domain sizing under a device memory budget, per-cell flags, and a CPU
// reference lattice-Boltzmann engine with per-field snapshot export.
package lattice

import "fmt"

// Flag classifies a single grid cell. Every cell carries exactly one flag.
type Flag uint8

const (
	// FlagFluid marks a bulk fluid cell advanced by the solver.
	FlagFluid Flag = iota
	// FlagSolid marks a solid obstacle cell; solid cells bounce flow back
	// and are never velocity-seeded.
	FlagSolid
	// FlagEquilibrium marks an open boundary cell held at local equilibrium
	// (inflow/outflow that does not reflect waves into the domain).
	FlagEquilibrium
)

// String returns a short human-readable tag for the flag.
func (f Flag) String() string {
	switch f {
	case FlagFluid:
		return "fluid"
	case FlagSolid:
		return "solid"
	case FlagEquilibrium:
		return "equilibrium"
	default:
		return fmt.Sprintf("flag(%d)", uint8(f))
	}
}

// GridShape is the integer resolution of the simulation domain.
type GridShape struct {
	Nx, Ny, Nz int
}

// Cells returns the total number of grid cells.
func (s GridShape) Cells() uint64 {
	return uint64(s.Nx) * uint64(s.Ny) * uint64(s.Nz)
}

// Index converts cell coordinates to a flat cell index.
// Cells are laid out x-fastest: n = x + (y + z*Ny)*Nx.
func (s GridShape) Index(x, y, z int) uint64 {
	return uint64(x) + (uint64(y)+uint64(z)*uint64(s.Ny))*uint64(s.Nx)
}

// Coordinates converts a flat cell index back to cell coordinates.
func (s GridShape) Coordinates(n uint64) (x, y, z int) {
	x = int(n % uint64(s.Nx))
	y = int(n / uint64(s.Nx) % uint64(s.Ny))
	z = int(n / (uint64(s.Nx) * uint64(s.Ny)))
	return x, y, z
}

// Contains reports whether the coordinates lie inside the domain.
func (s GridShape) Contains(x, y, z int) bool {
	return x >= 0 && x < s.Nx && y >= 0 && y < s.Ny && z >= 0 && z < s.Nz
}

// OnBoundary reports whether the cell lies on one of the six outer faces.
func (s GridShape) OnBoundary(x, y, z int) bool {
	return x == 0 || x == s.Nx-1 || y == 0 || y == s.Ny-1 || z == 0 || z == s.Nz-1
}

// String formats the shape as "NxxNyxNz".
func (s GridShape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.Nx, s.Ny, s.Nz)
}
