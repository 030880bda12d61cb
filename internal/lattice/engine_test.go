package lattice

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWarmUpDoesNotAdvanceTime(t *testing.T) {
	eng := NewEngine(GridShape{Nx: 4, Ny: 4, Nz: 4}, 0.05)
	if err := eng.Run(0); err != nil {
		t.Fatalf("Run(0) failed: %v", err)
	}
	if eng.T() != 0 {
		t.Errorf("warm-up advanced t to %d", eng.T())
	}
}

func TestRunAdvancesStepCounter(t *testing.T) {
	eng := NewEngine(GridShape{Nx: 4, Ny: 4, Nz: 4}, 0.05)
	if err := eng.Run(20); err != nil {
		t.Fatalf("Run(20) failed: %v", err)
	}
	if eng.T() != 20 {
		t.Errorf("t = %d after one batch, want 20", eng.T())
	}
	if err := eng.Run(20); err != nil {
		t.Fatalf("second Run(20) failed: %v", err)
	}
	if eng.T() != 40 {
		t.Errorf("t = %d after two batches, want 40", eng.T())
	}
}

func TestUniformFluidAtRestStaysAtRest(t *testing.T) {
	eng := NewEngine(GridShape{Nx: 8, Ny: 8, Nz: 8}, 0.02)
	if err := eng.Run(0); err != nil {
		t.Fatalf("warm-up failed: %v", err)
	}
	if err := eng.Run(5); err != nil {
		t.Fatalf("Run(5) failed: %v", err)
	}

	for c := range eng.Density() {
		if math.Abs(float64(eng.Density()[c])-1.0) > 1e-4 {
			t.Fatalf("cell %d: density drifted to %g", c, eng.Density()[c])
		}
		if math.Abs(float64(eng.VelocityX()[c])) > 1e-5 ||
			math.Abs(float64(eng.VelocityY()[c])) > 1e-5 ||
			math.Abs(float64(eng.VelocityZ()[c])) > 1e-5 {
			t.Fatalf("cell %d: spontaneous velocity (%g,%g,%g)", c,
				eng.VelocityX()[c], eng.VelocityY()[c], eng.VelocityZ()[c])
		}
	}
}

func TestFieldsPerVariant(t *testing.T) {
	plain := NewEngine(GridShape{Nx: 2, Ny: 2, Nz: 2}, 0.05)
	if got := plain.Fields(); len(got) != 3 {
		t.Errorf("plain engine fields = %v, want u/rho/flags", got)
	}

	forced := NewEngine(GridShape{Nx: 2, Ny: 2, Nz: 2}, 0.05, WithForceField())
	got := forced.Fields()
	if len(got) != 4 || got[3] != "F" {
		t.Errorf("force-field engine fields = %v, want trailing F", got)
	}
}

func TestExportFieldWritesVTK(t *testing.T) {
	dir := t.TempDir()
	eng := NewEngine(GridShape{Nx: 3, Ny: 3, Nz: 3}, 0.05)

	for _, field := range eng.Fields() {
		if err := eng.ExportField(field, dir); err != nil {
			t.Fatalf("ExportField(%q) failed: %v", field, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "u_00000000.vtk"))
	if err != nil {
		t.Fatalf("snapshot file missing: %v", err)
	}
	if !strings.HasPrefix(string(data), "# vtk DataFile Version 3.0\n") {
		t.Error("snapshot does not start with a VTK header")
	}
	if !strings.Contains(string(data), "DIMENSIONS 3 3 3") {
		t.Error("snapshot header missing grid dimensions")
	}
}

func TestExportUnknownField(t *testing.T) {
	eng := NewEngine(GridShape{Nx: 2, Ny: 2, Nz: 2}, 0.05)
	if err := eng.ExportField("temperature", t.TempDir()); err == nil {
		t.Error("expected error for unknown field")
	}
	if err := eng.ExportField("F", t.TempDir()); err == nil {
		t.Error("expected error exporting F without force field")
	}
}
