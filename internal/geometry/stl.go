// Package geometry loads STL surface meshes and rasterizes them into the
// simulation grid's solid-cell flags.
package geometry

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// Vec3 is a point or direction in grid coordinates.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 { return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z} }

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 { return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z} }

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Triangle is one mesh facet. Normals are not kept; the voxelizer only
// needs vertex positions.
type Triangle [3]Vec3

// Mesh is a triangle soup loaded from an STL file.
type Mesh struct {
	Triangles []Triangle
}

// Load reads an STL file, accepting both the binary and ASCII layouts.
// The format is detected from the file itself, not the extension: binary
// files are exactly 84 + 50*n bytes for their declared triangle count.
func Load(path string) (*Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("geometry: cannot read mesh %s: %w", path, err)
	}

	var mesh *Mesh
	if isBinarySTL(data) {
		mesh, err = parseBinarySTL(data)
	} else {
		mesh, err = parseASCIISTL(data)
	}
	if err != nil {
		return nil, fmt.Errorf("geometry: cannot parse mesh %s: %w", path, err)
	}
	if len(mesh.Triangles) == 0 {
		return nil, fmt.Errorf("geometry: mesh %s has no triangles", path)
	}
	return mesh, nil
}

func isBinarySTL(data []byte) bool {
	if len(data) < 84 {
		return false
	}
	count := binary.LittleEndian.Uint32(data[80:84])
	return uint64(len(data)) == 84+50*uint64(count)
}

// parseBinarySTL reads the 80-byte header, the triangle count and the
// fixed 50-byte records: normal (ignored), three vertices, attribute word.
func parseBinarySTL(data []byte) (*Mesh, error) {
	count := binary.LittleEndian.Uint32(data[80:84])
	mesh := &Mesh{Triangles: make([]Triangle, 0, count)}

	off := 84
	for i := uint32(0); i < count; i++ {
		off += 12 // normal
		var tri Triangle
		for v := 0; v < 3; v++ {
			tri[v] = Vec3{
				X: float64(math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))),
				Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(data[off+4:]))),
				Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(data[off+8:]))),
			}
			off += 12
		}
		off += 2 // attribute byte count
		mesh.Triangles = append(mesh.Triangles, tri)
	}
	return mesh, nil
}

// parseASCIISTL collects "vertex x y z" lines in groups of three. Facet
// and loop keywords are not validated beyond that grouping.
func parseASCIISTL(data []byte) (*Mesh, error) {
	mesh := &Mesh{}
	var tri Triangle
	nvert := 0

	sc := bufio.NewScanner(strings.NewReader(string(data)))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) != 4 || fields[0] != "vertex" {
			continue
		}
		var v Vec3
		var err error
		if v.X, err = strconv.ParseFloat(fields[1], 64); err != nil {
			return nil, fmt.Errorf("bad vertex coordinate %q", fields[1])
		}
		if v.Y, err = strconv.ParseFloat(fields[2], 64); err != nil {
			return nil, fmt.Errorf("bad vertex coordinate %q", fields[2])
		}
		if v.Z, err = strconv.ParseFloat(fields[3], 64); err != nil {
			return nil, fmt.Errorf("bad vertex coordinate %q", fields[3])
		}
		tri[nvert] = v
		nvert++
		if nvert == 3 {
			mesh.Triangles = append(mesh.Triangles, tri)
			nvert = 0
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if nvert != 0 {
		return nil, fmt.Errorf("dangling vertices: %d of 3", nvert)
	}
	return mesh, nil
}

// Bounds returns the axis-aligned bounding box of the mesh.
func (m *Mesh) Bounds() (min, max Vec3) {
	min = Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	max = Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, tri := range m.Triangles {
		for _, v := range tri {
			min.X = math.Min(min.X, v.X)
			min.Y = math.Min(min.Y, v.Y)
			min.Z = math.Min(min.Z, v.Z)
			max.X = math.Max(max.X, v.X)
			max.Y = math.Max(max.Y, v.Y)
			max.Z = math.Max(max.Z, v.Z)
		}
	}
	return min, max
}
