package lattice

import "testing"

func TestIndexCoordinatesRoundTrip(t *testing.T) {
	shape := GridShape{Nx: 7, Ny: 5, Nz: 3}

	var n uint64
	for z := 0; z < shape.Nz; z++ {
		for y := 0; y < shape.Ny; y++ {
			for x := 0; x < shape.Nx; x++ {
				if got := shape.Index(x, y, z); got != n {
					t.Fatalf("Index(%d,%d,%d) = %d, want %d", x, y, z, got, n)
				}
				gx, gy, gz := shape.Coordinates(n)
				if gx != x || gy != y || gz != z {
					t.Fatalf("Coordinates(%d) = (%d,%d,%d), want (%d,%d,%d)", n, gx, gy, gz, x, y, z)
				}
				n++
			}
		}
	}
	if n != shape.Cells() {
		t.Errorf("visited %d cells, Cells() = %d", n, shape.Cells())
	}
}

func TestOnBoundary(t *testing.T) {
	shape := GridShape{Nx: 4, Ny: 4, Nz: 4}

	if !shape.OnBoundary(0, 2, 2) || !shape.OnBoundary(3, 2, 2) {
		t.Error("x faces not detected as boundary")
	}
	if !shape.OnBoundary(2, 0, 2) || !shape.OnBoundary(2, 2, 3) {
		t.Error("y/z faces not detected as boundary")
	}
	if shape.OnBoundary(1, 2, 2) {
		t.Error("interior cell reported as boundary")
	}
}

func TestNuFromRe(t *testing.T) {
	if got := NuFromRe(1000, 100, 0.1); got != 0.01 {
		t.Errorf("NuFromRe(1000, 100, 0.1) = %g, want 0.01", got)
	}
}
