package lattice

import "math"

const (
	// BytesPerCell is the device memory cost of one grid cell: two copies of
	// the 19 distribution functions plus density, velocity and the flag.
	// The optional force field adds 12 bytes per cell on top of this, which
	// the resolution solver deliberately ignores so that domain sizing stays
	// independent of engine variants.
	BytesPerCell = 2*q*4 + 4 + 3*4 + 1

	megabyte = 1 << 20
)

// MemoryRequirementMB returns the engine memory consumption of a grid shape
// in megabytes.
func MemoryRequirementMB(s GridShape) float64 {
	return float64(s.Cells()) * BytesPerCell / megabyte
}

// Resolution computes the largest grid of the given aspect ratio whose cell
// storage fits within budgetMB megabytes of device memory. The aspect ratio
// does not need to be normalized. The result is monotonic in the budget: a
// larger budget never yields a smaller dimension.
//
// If the budget cannot hold even a 1x1x1 grid, the minimal shape is returned
// anyway; callers detect the condition by comparing MemoryRequirementMB
// against their budget and treat the run as infeasible.
func Resolution(aspect [3]float64, budgetMB uint64) GridShape {
	minimal := GridShape{Nx: 1, Ny: 1, Nz: 1}
	ax, ay, az := aspect[0], aspect[1], aspect[2]
	if ax <= 0 || ay <= 0 || az <= 0 {
		return minimal
	}

	budget := float64(budgetMB) * megabyte
	if MemoryRequirementMB(minimal)*megabyte > budget {
		return minimal
	}

	// Each dimension is a rounded multiple of a single scale factor, so the
	// cell count grows monotonically with the scale. Bisect for the largest
	// scale that still fits the budget.
	lo := 0.0
	hi := 2.0*math.Cbrt(budget/BytesPerCell/(ax*ay*az)) + 1.0
	for i := 0; i < 64; i++ {
		mid := 0.5 * (lo + hi)
		if float64(scaled(aspect, mid).Cells())*BytesPerCell <= budget {
			lo = mid
		} else {
			hi = mid
		}
	}
	return scaled(aspect, lo)
}

func scaled(aspect [3]float64, s float64) GridShape {
	return GridShape{
		Nx: dimension(aspect[0] * s),
		Ny: dimension(aspect[1] * s),
		Nz: dimension(aspect[2] * s),
	}
}

func dimension(v float64) int {
	n := int(math.Round(v))
	if n < 1 {
		n = 1
	}
	return n
}
