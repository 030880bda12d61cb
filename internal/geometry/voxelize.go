package geometry

import (
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/Noelok/CFD/internal/lattice"
)

// Grid is the slice of engine state the voxelizer writes. Only cells
// inside the mesh are touched; everything else keeps its flag.
type Grid interface {
	Shape() lattice.GridShape
	Flags() []lattice.Flag
}

// Mat3 is a row-major 3x3 rotation matrix.
type Mat3 [3][3]float64

// Identity returns the identity rotation.
func Identity() Mat3 {
	return Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Apply returns m * v.
func (m Mat3) Apply(v Vec3) Vec3 {
	return Vec3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Mul returns m * n.
func (m Mat3) Mul(n Mat3) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				out[i][j] += m[i][k] * n[k][j]
			}
		}
	}
	return out
}

// EulerRotation builds a rotation from per-axis angles in degrees,
// applied in x, y, z order.
func EulerRotation(rxDeg, ryDeg, rzDeg float64) Mat3 {
	rx := rxDeg * math.Pi / 180
	ry := ryDeg * math.Pi / 180
	rz := rzDeg * math.Pi / 180

	sx, cx := math.Sincos(rx)
	sy, cy := math.Sincos(ry)
	sz, cz := math.Sincos(rz)

	mx := Mat3{{1, 0, 0}, {0, cx, -sx}, {0, sx, cx}}
	my := Mat3{{cy, 0, sy}, {0, 1, 0}, {-sy, 0, cy}}
	mz := Mat3{{cz, -sz, 0}, {sz, cz, 0}, {0, 0, 1}}

	return mz.Mul(my).Mul(mx)
}

// Voxelize marks every grid cell inside the mesh as solid. The mesh is
// rotated about its own bounding-box center, scaled so its longest
// extent equals size lattice units, and placed with its center at the
// given grid position.
//
// Interior classification casts one vertical ray per (x,y) column and
// parity-fills between surface crossings, so the mesh must be closed.
// Cells outside the grid are clipped, not an error; a mesh may hang
// over the domain edge.
func Voxelize(g Grid, mesh *Mesh, center Vec3, rot Mat3, size float64) {
	shape := g.Shape()
	flags := g.Flags()

	min, max := mesh.Bounds()
	extent := max.Sub(min)
	longest := math.Max(extent.X, math.Max(extent.Y, extent.Z))
	if longest <= 0 {
		return
	}
	scale := size / longest
	mid := min.Add(max).Scale(0.5)

	tris := make([]Triangle, len(mesh.Triangles))
	for i, tri := range mesh.Triangles {
		for v := 0; v < 3; v++ {
			tris[i][v] = rot.Apply(tri[v].Sub(mid)).Scale(scale).Add(center)
		}
	}

	// One crossing list per vertical column.
	columns := make([][]float64, shape.Nx*shape.Ny)
	for _, tri := range tris {
		rasterizeColumns(tri, shape, columns)
	}

	// Columns are independent; fill them across the available CPUs.
	var wg sync.WaitGroup
	workers := runtime.GOMAXPROCS(0)
	chunk := (len(columns) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(columns) {
			hi = len(columns)
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for c := lo; c < hi; c++ {
				fillColumn(shape, flags, c%shape.Nx, c/shape.Nx, columns[c])
			}
		}(lo, hi)
	}
	wg.Wait()
}

// rasterizeColumns appends the triangle's vertical-ray intersections to
// every column under its xy footprint.
func rasterizeColumns(tri Triangle, shape lattice.GridShape, columns [][]float64) {
	a, b, c := tri[0], tri[1], tri[2]

	// Vertical triangles have no footprint and contribute no crossings;
	// a neighboring facet covers the surface there.
	denom := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if math.Abs(denom) < 1e-12 {
		return
	}

	xmin := clampIndex(math.Ceil(math.Min(a.X, math.Min(b.X, c.X))), shape.Nx)
	xmax := clampIndex(math.Floor(math.Max(a.X, math.Max(b.X, c.X))), shape.Nx)
	ymin := clampIndex(math.Ceil(math.Min(a.Y, math.Min(b.Y, c.Y))), shape.Ny)
	ymax := clampIndex(math.Floor(math.Max(a.Y, math.Max(b.Y, c.Y))), shape.Ny)

	for y := ymin; y <= ymax; y++ {
		for x := xmin; x <= xmax; x++ {
			px, py := float64(x), float64(y)
			l1 := ((b.Y-c.Y)*(px-c.X) + (c.X-b.X)*(py-c.Y)) / denom
			l2 := ((c.Y-a.Y)*(px-c.X) + (a.X-c.X)*(py-c.Y)) / denom
			l3 := 1 - l1 - l2
			// Small tolerance so columns on facet edges are not lost to
			// rounding; the duplicate from the shared edge merges later.
			const eps = 1e-9
			if l1 < -eps || l2 < -eps || l3 < -eps {
				continue
			}
			z := l1*a.Z + l2*b.Z + l3*c.Z
			col := y*shape.Nx + x
			columns[col] = append(columns[col], z)
		}
	}
}

// fillColumn parity-fills one column: crossings are sorted, near-equal
// ones merged (shared mesh edges report twice), and each in/out pair
// solidifies the cells between them.
func fillColumn(shape lattice.GridShape, flags []lattice.Flag, x, y int, crossings []float64) {
	if len(crossings) < 2 {
		return
	}
	sort.Float64s(crossings)

	merged := crossings[:1]
	for _, z := range crossings[1:] {
		if z-merged[len(merged)-1] > 1e-6 {
			merged = append(merged, z)
		}
	}

	for i := 0; i+1 < len(merged); i += 2 {
		zlo := int(math.Ceil(merged[i]))
		zhi := int(math.Floor(merged[i+1]))
		if zlo < 0 {
			zlo = 0
		}
		if zhi >= shape.Nz {
			zhi = shape.Nz - 1
		}
		for z := zlo; z <= zhi; z++ {
			flags[shape.Index(x, y, z)] = lattice.FlagSolid
		}
	}
}

func clampIndex(v float64, n int) int {
	if v < 0 {
		return 0
	}
	if v > float64(n-1) {
		return n - 1
	}
	return int(v)
}
