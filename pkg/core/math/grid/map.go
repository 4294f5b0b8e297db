// Package grid implements the occupancy map: a static rectangular grid of
// tagged cells plus a length-per-cell scale, with deterministic ray-cast
// queries against it.
package grid

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
)

// Descriptor tags a single cell of the occupancy map. The numeric values
// follow the wire/file convention where 8 denotes a wall cell.
type Descriptor int

const (
	DescDriving Descriptor = iota
	DescEdge
	DescWhiteLine
	DescStart
	DescAir
	DescSea
	DescLand
	DescStorage
	DescWall Descriptor = 8
)

// Cell augments a Descriptor with the platform-level flags the planner
// consumes; the localizer and ray caster only ever look at Descriptor.
type Cell struct {
	Desc   Descriptor
	Level  int
	Status int
}

// Map is a row-major rectangular occupancy grid. Row 0 is the bottom edge
// of the course; column 0 is the left edge. Scale is length-units per cell.
type Map struct {
	cells [][]Cell // cells[row][col]
	scale float32
}

// NewFromDescriptors builds a Map from a pre-built descriptor grid. rows[0]
// is treated as row 0 (bottom edge) exactly as given; callers loading from
// a top-down file format must reverse rows themselves before calling this.
func NewFromDescriptors(cells [][]Cell, scale float32) (*Map, error) {
	if len(cells) == 0 || len(cells[0]) == 0 {
		return nil, fmt.Errorf("grid: empty descriptor grid")
	}
	if scale <= 0 {
		return nil, fmt.Errorf("grid: scale must be > 0, got %v", scale)
	}
	cols := len(cells[0])
	for r, row := range cells {
		if len(row) != cols {
			return nil, fmt.Errorf("grid: ragged row %d: have %d cols, want %d", r, len(row), cols)
		}
	}
	return &Map{cells: cells, scale: scale}, nil
}

// NewFromBinaryCSV builds a Map from a raw grid of 0/1 cells where 1 means
// wall. rows[0] is the top row of the source file; it is reversed here so
// that row 0 of the resulting Map is the bottom edge of the course, per
// the file-format convention (§6).
func NewFromBinaryCSV(rows [][]int, inchesPerCell float32) (*Map, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("grid: empty CSV grid")
	}
	cols := len(rows[0])
	cells := make([][]Cell, len(rows))
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("grid: ragged CSV row %d", i)
		}
		dst := make([]Cell, cols)
		src := rows[len(rows)-1-i] // reverse: file row 0 is map's top
		for c, v := range src {
			if v != 0 {
				dst[c] = Cell{Desc: DescWall}
			} else {
				dst[c] = Cell{Desc: DescDriving}
			}
		}
		cells[i] = dst
	}
	return NewFromDescriptors(cells, inchesPerCell)
}

// LoadCSVFile reads a 0/1 occupancy grid from a CSV file on disk (the
// course-description format of §6) and builds a Map from it at the given
// inches-per-cell scale.
func LoadCSVFile(path string, inchesPerCell float32) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("grid: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	var rows [][]int
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("grid: read %s: %w", path, err)
		}
		row := make([]int, len(record))
		for i, field := range record {
			v, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return nil, fmt.Errorf("grid: %s: parse cell %q: %w", path, field, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	return NewFromBinaryCSV(rows, inchesPerCell)
}

// Dims returns grid dimensions in cells (cols, rows).
func (m *Map) Dims() (cols, rows int) {
	return len(m.cells[0]), len(m.cells)
}

// DimsMetric returns grid dimensions in length-units (width, height).
func (m *Map) DimsMetric() (width, height float32) {
	cols, rows := m.Dims()
	return float32(cols) * m.scale, float32(rows) * m.scale
}

// Scale returns the length-units-per-cell conversion factor.
func (m *Map) Scale() float32 {
	return m.scale
}

// Diagonal returns the metric length of the map's bounding-box diagonal,
// used as the sentinel max-range reading when a ray misses every wall.
func (m *Map) Diagonal() float32 {
	w, h := m.DimsMetric()
	return math32.Sqrt(w*w + h*h)
}

// InBounds reports whether cell (cx, cy) lies within the grid.
func (m *Map) InBounds(cx, cy int) bool {
	cols, rows := m.Dims()
	return cx >= 0 && cx < cols && cy >= 0 && cy < rows
}

// IsWall reports whether cell (cx, cy) is a wall. Cells outside the grid
// are not walls.
func (m *Map) IsWall(cx, cy int) bool {
	if !m.InBounds(cx, cy) {
		return false
	}
	return m.cells[cy][cx].Desc == DescWall
}

// Cell returns the descriptor cell at (cx, cy); the zero Cell if out of
// bounds.
func (m *Map) Cell(cx, cy int) Cell {
	if !m.InBounds(cx, cy) {
		return Cell{}
	}
	return m.cells[cy][cx]
}

// CellToWorld returns the world-coordinate center of cell (cx, cy).
func (m *Map) CellToWorld(cx, cy int) (x, y float32) {
	return (float32(cx) + 0.5) * m.scale, (float32(cy) + 0.5) * m.scale
}

// WorldToCell returns the grid cell containing world point (x, y).
func (m *Map) WorldToCell(x, y float32) (cx, cy int) {
	return int(math32.Floor(x / m.scale)), int(math32.Floor(y / m.scale))
}

// Clamp restricts a world point to the map's bounding box.
func (m *Map) Clamp(x, y float32) (float32, float32) {
	w, h := m.DimsMetric()
	const epsilon = 1e-4
	switch {
	case x < 0:
		x = 0
	case x >= w:
		x = w - epsilon
	}
	switch {
	case y < 0:
		y = 0
	case y >= h:
		y = h - epsilon
	}
	return x, y
}
