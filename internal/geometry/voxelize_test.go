package geometry

import (
	"testing"

	"github.com/Noelok/CFD/internal/lattice"
)

// The reference engine must satisfy the voxelizer's view of the grid.
var _ Grid = (*lattice.Engine)(nil)

type fakeGrid struct {
	shape lattice.GridShape
	flags []lattice.Flag
}

func newFakeGrid(nx, ny, nz int) *fakeGrid {
	shape := lattice.GridShape{Nx: nx, Ny: ny, Nz: nz}
	return &fakeGrid{shape: shape, flags: make([]lattice.Flag, shape.Cells())}
}

func (g *fakeGrid) Shape() lattice.GridShape { return g.shape }
func (g *fakeGrid) Flags() []lattice.Flag    { return g.flags }

func (g *fakeGrid) solidCount() int {
	n := 0
	for _, f := range g.flags {
		if f == lattice.FlagSolid {
			n++
		}
	}
	return n
}

// cubeMesh builds a closed unit cube from 12 triangles.
func cubeMesh() *Mesh {
	v := func(x, y, z float64) Vec3 { return Vec3{x, y, z} }
	quads := [][4]Vec3{
		{v(0, 0, 0), v(1, 0, 0), v(1, 1, 0), v(0, 1, 0)}, // bottom
		{v(0, 0, 1), v(1, 0, 1), v(1, 1, 1), v(0, 1, 1)}, // top
		{v(0, 0, 0), v(1, 0, 0), v(1, 0, 1), v(0, 0, 1)}, // front
		{v(0, 1, 0), v(1, 1, 0), v(1, 1, 1), v(0, 1, 1)}, // back
		{v(0, 0, 0), v(0, 1, 0), v(0, 1, 1), v(0, 0, 1)}, // left
		{v(1, 0, 0), v(1, 1, 0), v(1, 1, 1), v(1, 0, 1)}, // right
	}
	mesh := &Mesh{}
	for _, q := range quads {
		mesh.Triangles = append(mesh.Triangles,
			Triangle{q[0], q[1], q[2]},
			Triangle{q[0], q[2], q[3]},
		)
	}
	return mesh
}

func TestVoxelizeCube(t *testing.T) {
	g := newFakeGrid(16, 16, 16)

	// Cube scaled to 8 units, centered off-lattice so no facet sits
	// exactly on a cell plane: occupies [4.25, 12.25] per axis.
	center := Vec3{8.25, 8.25, 8.25}
	Voxelize(g, cubeMesh(), center, Identity(), 8)

	for n := uint64(0); n < g.shape.Cells(); n++ {
		x, y, z := g.shape.Coordinates(n)
		inside := x >= 5 && x <= 12 && y >= 5 && y <= 12 && z >= 5 && z <= 12
		solid := g.flags[n] == lattice.FlagSolid
		if inside != solid {
			t.Fatalf("cell (%d,%d,%d): solid=%v, want %v", x, y, z, solid, inside)
		}
	}
	if got := g.solidCount(); got != 8*8*8 {
		t.Errorf("solid cells = %d, want 512", got)
	}
}

func TestVoxelizeClipsAtDomainEdge(t *testing.T) {
	g := newFakeGrid(8, 8, 8)

	// Half the cube hangs outside the -x face: occupies [-2,2]x[2,6]x[2,6].
	Voxelize(g, cubeMesh(), Vec3{0, 4, 4}, Identity(), 4)

	if got, want := g.solidCount(), 3*5*5; got != want {
		t.Errorf("solid cells = %d, want %d", got, want)
	}
	if g.flags[g.shape.Index(0, 4, 4)] != lattice.FlagSolid {
		t.Error("in-domain part of the mesh not solidified")
	}
	if g.flags[g.shape.Index(3, 4, 4)] == lattice.FlagSolid {
		t.Error("cell outside the mesh marked solid")
	}
}

func TestVoxelizeRotatedCubeStaysClosed(t *testing.T) {
	g := newFakeGrid(32, 32, 32)

	// 45-degree rotation about z turns the cube's footprint into a
	// diamond; parity filling must still produce a solid interior.
	Voxelize(g, cubeMesh(), Vec3{16.25, 16.25, 16.25}, EulerRotation(0, 0, 45), 10)

	if g.flags[g.shape.Index(16, 16, 16)] != lattice.FlagSolid {
		t.Error("cube center not solid after rotation")
	}
	if g.flags[g.shape.Index(2, 2, 16)] == lattice.FlagSolid {
		t.Error("far corner marked solid")
	}

	// Volume is rotation-invariant up to surface rasterization error.
	got := g.solidCount()
	if got < 800 || got > 1200 {
		t.Errorf("solid cells = %d, want roughly 10^3", got)
	}
}

func TestVoxelizeLeavesExistingFlagsOutsideMesh(t *testing.T) {
	g := newFakeGrid(16, 16, 16)
	marker := g.shape.Index(1, 1, 1)
	g.flags[marker] = lattice.FlagEquilibrium

	Voxelize(g, cubeMesh(), Vec3{8.25, 8.25, 8.25}, Identity(), 8)

	if g.flags[marker] != lattice.FlagEquilibrium {
		t.Error("voxelizer overwrote a flag outside the mesh")
	}
}
