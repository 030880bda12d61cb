package lattice

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// q is the number of discrete velocities of the D3Q19 set.
const q = 19

// D3Q19 velocity set. Opposite directions are adjacent so that opp can
// simply swap pairs.
var directions = [q][3]int{
	{0, 0, 0},
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
	{1, 1, 0}, {-1, -1, 0},
	{1, -1, 0}, {-1, 1, 0},
	{1, 0, 1}, {-1, 0, -1},
	{1, 0, -1}, {-1, 0, 1},
	{0, 1, 1}, {0, -1, -1},
	{0, 1, -1}, {0, -1, 1},
}

var weights = [q]float32{
	1.0 / 3.0,
	1.0 / 18.0, 1.0 / 18.0, 1.0 / 18.0, 1.0 / 18.0, 1.0 / 18.0, 1.0 / 18.0,
	1.0 / 36.0, 1.0 / 36.0, 1.0 / 36.0, 1.0 / 36.0, 1.0 / 36.0, 1.0 / 36.0,
	1.0 / 36.0, 1.0 / 36.0, 1.0 / 36.0, 1.0 / 36.0, 1.0 / 36.0, 1.0 / 36.0,
}

var opposite = [q]int{0, 2, 1, 4, 3, 6, 5, 8, 7, 10, 9, 12, 11, 14, 13, 16, 15, 18, 17}

// Engine is a CPU reference implementation of the simulation collaborator:
// it owns the per-cell flags, velocity, density and optional force field and
// advances them with a BGK collision and streaming step. The first Run call
// performs equilibrium initialization from the current macroscopic fields
// before any stepping, so Run(0) acts as the one-time warm-up.
//
// Flags and velocity slices are exposed for privileged initialization-time
// writes (voxelization, boundary seeding); they must not be mutated while a
// Run call is in flight.
type Engine struct {
	shape GridShape
	nu    float64
	omega float32
	tau   float32

	volumeForce [3]float32

	flags      []Flag
	rho        []float32
	ux, uy, uz []float32
	fx, fy, fz []float32 // per-cell force field, nil unless enabled

	f, fnext []float32 // distribution functions, layout i*N + n

	t           atomic.Uint64
	initialized bool
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithForceField allocates a per-cell force field, tracked as an exportable
// field and applied on top of the global volume force.
func WithForceField() Option {
	return func(e *Engine) {
		n := e.shape.Cells()
		e.fx = make([]float32, n)
		e.fy = make([]float32, n)
		e.fz = make([]float32, n)
	}
}

// WithVolumeForce sets a global force per volume, equivalent to a pressure
// gradient along the force direction.
func WithVolumeForce(fx, fy, fz float64) Option {
	return func(e *Engine) {
		e.volumeForce = [3]float32{float32(fx), float32(fy), float32(fz)}
	}
}

// NewEngine allocates the simulation state for the given grid shape and
// kinematic viscosity. Density starts at 1, velocity at rest, all cells
// fluid.
func NewEngine(shape GridShape, nu float64, opts ...Option) *Engine {
	n := shape.Cells()
	tau := float32(3.0*nu + 0.5)
	e := &Engine{
		shape: shape,
		nu:    nu,
		tau:   tau,
		omega: 1.0 / tau,
		flags: make([]Flag, n),
		rho:   make([]float32, n),
		ux:    make([]float32, n),
		uy:    make([]float32, n),
		uz:    make([]float32, n),
		f:     make([]float32, q*n),
		fnext: make([]float32, q*n),
	}
	for i := range e.rho {
		e.rho[i] = 1.0
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Shape returns the grid resolution.
func (e *Engine) Shape() GridShape { return e.shape }

// Nu returns the kinematic viscosity.
func (e *Engine) Nu() float64 { return e.nu }

// T returns the current discrete time step. Safe for concurrent use with Run.
func (e *Engine) T() uint64 { return e.t.Load() }

// Flags returns the per-cell flag storage for direct initialization writes.
func (e *Engine) Flags() []Flag { return e.flags }

// Density returns the per-cell density field.
func (e *Engine) Density() []float32 { return e.rho }

// VelocityX returns the x-component of the per-cell velocity field.
func (e *Engine) VelocityX() []float32 { return e.ux }

// VelocityY returns the y-component of the per-cell velocity field.
func (e *Engine) VelocityY() []float32 { return e.uy }

// VelocityZ returns the z-component of the per-cell velocity field.
func (e *Engine) VelocityZ() []float32 { return e.uz }

// ForceField returns the per-cell force components, or nils when the force
// field is not enabled.
func (e *Engine) ForceField() (fx, fy, fz []float32) { return e.fx, e.fy, e.fz }

// Fields lists the exportable field names of this engine variant.
func (e *Engine) Fields() []string {
	fields := []string{"u", "rho", "flags"}
	if e.fx != nil {
		fields = append(fields, "F")
	}
	return fields
}

// Run advances the simulation by the requested number of steps, blocking
// until the work completes. The first call equilibrates the distribution
// functions from the current flags, density and velocity, so callers issue
// Run(0) once after initialization before stepping.
func (e *Engine) Run(steps uint64) error {
	if !e.initialized {
		e.equilibrate()
		e.initialized = true
	}
	for i := uint64(0); i < steps; i++ {
		e.step()
		e.t.Add(1)
	}
	return nil
}

// equilibrate sets every distribution function to the equilibrium of the
// cell's current density and velocity.
func (e *Engine) equilibrate() {
	n := e.shape.Cells()
	e.parallelCells(func(lo, hi uint64) {
		for c := lo; c < hi; c++ {
			feqCell(e.rho[c], e.ux[c], e.uy[c], e.uz[c], e.f, c, n)
		}
	})
}

// step performs one streaming (pull) and collision pass into fnext, then
// swaps the buffers.
func (e *Engine) step() {
	total := e.shape.Cells()
	e.parallelCells(func(lo, hi uint64) {
		var g [q]float32
		for c := lo; c < hi; c++ {
			if e.flags[c] == FlagSolid {
				for i := 0; i < q; i++ {
					e.fnext[uint64(i)*total+c] = e.f[uint64(i)*total+c]
				}
				continue
			}

			if e.flags[c] == FlagEquilibrium {
				// Open boundary: hold the cell at the equilibrium of its
				// prescribed density and velocity.
				for i := 0; i < q; i++ {
					e.fnext[uint64(i)*total+c] = feq(i, 1.0, e.ux[c], e.uy[c], e.uz[c])
				}
				continue
			}

			x, y, z := e.shape.Coordinates(c)
			e.gather(c, x, y, z, total, &g)

			rho := float32(0)
			var vx, vy, vz float32
			for i := 0; i < q; i++ {
				rho += g[i]
				vx += float32(directions[i][0]) * g[i]
				vy += float32(directions[i][1]) * g[i]
				vz += float32(directions[i][2]) * g[i]
			}
			vx /= rho
			vy /= rho
			vz /= rho

			ex, ey, ez := vx, vy, vz
			if fx, fy, fz, ok := e.cellForce(c); ok {
				// Velocity shift forcing: the force enters through the
				// equilibrium velocity only.
				ex += e.tau * fx / rho
				ey += e.tau * fy / rho
				ez += e.tau * fz / rho
			}

			for i := 0; i < q; i++ {
				e.fnext[uint64(i)*total+c] = g[i] - e.omega*(g[i]-feq(i, rho, ex, ey, ez))
			}
			e.rho[c] = rho
			e.ux[c] = vx
			e.uy[c] = vy
			e.uz[c] = vz
		}
	})
	e.f, e.fnext = e.fnext, e.f
}

// gather pulls the post-streaming populations for one cell, bouncing back at
// solid neighbors and at the domain edge.
func (e *Engine) gather(c uint64, x, y, z int, total uint64, g *[q]float32) {
	for i := 0; i < q; i++ {
		sx := x - directions[i][0]
		sy := y - directions[i][1]
		sz := z - directions[i][2]
		if !e.shape.Contains(sx, sy, sz) {
			g[i] = e.f[uint64(opposite[i])*total+c]
			continue
		}
		src := e.shape.Index(sx, sy, sz)
		if e.flags[src] == FlagSolid {
			g[i] = e.f[uint64(opposite[i])*total+c]
		} else {
			g[i] = e.f[uint64(i)*total+src]
		}
	}
}

func (e *Engine) cellForce(c uint64) (fx, fy, fz float32, ok bool) {
	fx, fy, fz = e.volumeForce[0], e.volumeForce[1], e.volumeForce[2]
	if e.fx != nil {
		fx += e.fx[c]
		fy += e.fy[c]
		fz += e.fz[c]
	}
	ok = fx != 0 || fy != 0 || fz != 0
	return fx, fy, fz, ok
}

// parallelCells splits the cell range across the available CPUs and blocks
// until all chunks complete. Each cell writes only its own slots, so the
// pass needs no locking.
func (e *Engine) parallelCells(fn func(lo, hi uint64)) {
	total := e.shape.Cells()
	workers := uint64(runtime.GOMAXPROCS(0))
	if workers > total {
		workers = total
	}
	if workers <= 1 {
		fn(0, total)
		return
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
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}

// feq is the second-order BGK equilibrium for direction i.
func feq(i int, rho, ux, uy, uz float32) float32 {
	cu := float32(directions[i][0])*ux + float32(directions[i][1])*uy + float32(directions[i][2])*uz
	u2 := ux*ux + uy*uy + uz*uz
	return weights[i] * rho * (1.0 + 3.0*cu + 4.5*cu*cu - 1.5*u2)
}

// feqCell writes the full equilibrium population of one cell into dst.
func feqCell(rho, ux, uy, uz float32, dst []float32, c, total uint64) {
	for i := 0; i < q; i++ {
		dst[uint64(i)*total+c] = feq(i, rho, ux, uy, uz)
	}
}
