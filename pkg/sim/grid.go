package sim

import "math"

// Zone is the zoning category of a cell.
type Zone uint8

const (
	Unzoned Zone = iota
	Residential
	Commercial
	Industrial
	Office
	Civic
	Park

	// ZoneCount is the number of zone values including Unzoned.
	ZoneCount
)

var zoneNames = [ZoneCount]string{"unzoned", "residential", "commercial", "industrial", "office", "civic", "park"}

// String returns the zone name.
func (z Zone) String() string {
	if z >= ZoneCount {
		return "unknown"
	}
	return zoneNames[z]
}

// Structure classifies what stands on a cell for occlusion purposes.
type Structure uint8

const (
	Open Structure = iota
	Light
	Medium
	Dense
	Tower

	// StructureCount is the number of structure classes.
	StructureCount
)

// Solid reports whether the structure blocks sound.
func (s Structure) Solid() bool {
	return s > Open && s < StructureCount
}

// Cell is one grid cell.
type Cell struct {
	Zone         Zone
	Structure    Structure
	Traffic      float32 // 0-1 road load
	Construction bool
	Fire         bool
	Water        bool
}

// Grid is the city's cell grid in row-major order.
type Grid struct {
	Width    int
	Height   int
	CellSize float64
	Cells    []Cell
}

// NewGrid allocates an empty grid.
func NewGrid(width, height int, cellSize float64) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	if cellSize <= 0 || math.IsNaN(cellSize) {
		cellSize = 1
	}
	return &Grid{Width: width, Height: height, CellSize: cellSize, Cells: make([]Cell, width*height)}
}

// InBounds reports whether (x, y) is a cell of g.
func (g *Grid) InBounds(x, y int) bool {
	return g != nil && x >= 0 && y >= 0 && x < g.Width && y < g.Height && y*g.Width+x < len(g.Cells)
}

// At returns the cell at (x, y). Out-of-range coordinates yield an empty cell.
func (g *Grid) At(x, y int) Cell {
	if !g.InBounds(x, y) {
		return Cell{}
	}
	return g.Cells[y*g.Width+x]
}

// Set stores c at (x, y); out-of-range writes are ignored.
func (g *Grid) Set(x, y int, c Cell) {
	if g.InBounds(x, y) {
		g.Cells[y*g.Width+x] = c
	}
}

// CellOf maps a world position to cell coordinates. The result may be out of
// range; non-finite positions map to (0, 0).
func (g *Grid) CellOf(p Vec2) (x, y int) {
	if g == nil || !p.Finite() {
		return 0, 0
	}
	return int(math.Floor(p.X / g.CellSize)), int(math.Floor(p.Y / g.CellSize))
}

// CellCenter returns the world position of the centre of cell (x, y).
func (g *Grid) CellCenter(x, y int) Vec2 {
	if g == nil {
		return Vec2{}
	}
	return Vec2{(float64(x) + 0.5) * g.CellSize, (float64(y) + 0.5) * g.CellSize}
}

// Size returns the world extent of the grid.
func (g *Grid) Size() Vec2 {
	if g == nil {
		return Vec2{}
	}
	return Vec2{float64(g.Width) * g.CellSize, float64(g.Height) * g.CellSize}
}
