package lattice

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ExportField writes a snapshot of one tracked field to dir as a legacy VTK
// structured-points file named <field>_<step>.vtk. Known fields are "u",
// "rho", "flags" and, when the force field is enabled, "F".
func (e *Engine) ExportField(field, dir string) error {
	known := false
	for _, f := range e.Fields() {
		if f == field {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("lattice: unknown field %q", field)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("lattice: cannot create export directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%08d.vtk", field, e.T()))
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("lattice: cannot create snapshot %s: %w", path, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	e.writeVTKHeader(w, field)

	n := e.shape.Cells()
	switch field {
	case "u":
		fmt.Fprintf(w, "VECTORS u float\n")
		for c := uint64(0); c < n; c++ {
			fmt.Fprintf(w, "%g %g %g\n", e.ux[c], e.uy[c], e.uz[c])
		}
	case "rho":
		fmt.Fprintf(w, "SCALARS rho float 1\nLOOKUP_TABLE default\n")
		for c := uint64(0); c < n; c++ {
			fmt.Fprintf(w, "%g\n", e.rho[c])
		}
	case "flags":
		fmt.Fprintf(w, "SCALARS flags int 1\nLOOKUP_TABLE default\n")
		for c := uint64(0); c < n; c++ {
			fmt.Fprintf(w, "%d\n", e.flags[c])
		}
	case "F":
		fmt.Fprintf(w, "VECTORS F float\n")
		for c := uint64(0); c < n; c++ {
			fmt.Fprintf(w, "%g %g %g\n", e.fx[c], e.fy[c], e.fz[c])
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("lattice: cannot write snapshot %s: %w", path, err)
	}
	return nil
}

// writeVTKHeader emits the structured-points preamble. The cell layout is
// x-fastest, matching the VTK point ordering.
func (e *Engine) writeVTKHeader(w io.Writer, field string) {
	fmt.Fprintf(w, "# vtk DataFile Version 3.0\n")
	fmt.Fprintf(w, "%s at step %d\n", field, e.T())
	fmt.Fprintf(w, "ASCII\n")
	fmt.Fprintf(w, "DATASET STRUCTURED_POINTS\n")
	fmt.Fprintf(w, "DIMENSIONS %d %d %d\n", e.shape.Nx, e.shape.Ny, e.shape.Nz)
	fmt.Fprintf(w, "ORIGIN 0 0 0\n")
	fmt.Fprintf(w, "SPACING 1 1 1\n")
	fmt.Fprintf(w, "POINT_DATA %d\n", e.shape.Cells())
}

// WriteStatus writes a one-line summary of the current simulation state.
func (e *Engine) WriteStatus(w io.Writer) error {
	solid := uint64(0)
	for _, f := range e.flags {
		if f == FlagSolid {
			solid++
		}
	}
	_, err := fmt.Fprintf(w, "t=%d grid=%s cells=%d solid=%d nu=%g mem=%.0fMB\n",
		e.T(), e.shape, e.shape.Cells(), solid, e.nu, MemoryRequirementMB(e.shape))
	return err
}
