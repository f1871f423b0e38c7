package core

import (
	"math"

	"github.com/golang/geo/r3"
)

// Direction indexes the four immediate grid neighbours of a cell, in the
// fixed order the rest of the engine assumes: South, West, East, North.
type Direction int

const (
	DirS Direction = iota
	DirW
	DirE
	DirN
)

// NoNeighbour is the reserved sentinel index used wherever a 4-neighbour
// link is absent (map edge, or a LocalPatch boundary whose neighbouring
// patch has not been materialised yet). Index-based neighbour lookup never
// chases pointers; a missing edge is just this constant.
const NoNeighbour = -1

// CellState is the Fast Marching propagation state of a cell.
type CellState uint8

const (
	// Open cells have not yet been finalised by the FM solver.
	Open CellState = iota
	// Closed cells have a finalised totalCost.
	Closed
)

// GlobalCell is one entry of the coarse grid (C1/C3).
type GlobalCell struct {
	I, J int

	Elevation float64 // metres
	Terrain   TerrainClass
	Slope     float64 // radians
	Aspect    float64 // radians

	NominalCost  float64 // per unit length, before smoothing
	SmoothedCost float64 // max(self, mean over self+neighbours)

	ObstacleRatio float64 // fraction of local sub-cells flagged obstacle, clamped to [0,1]

	TotalCost float64 // FM result; math.Inf(1) until reached
	State     CellState

	// OptimalMode is the locomotion mode TerrainTable prescribes for this
	// cell's terrain class; C2 may override this per-waypoint.
	OptimalMode LocomotionMode

	// Neighbours holds the flat-grid index of each of the four immediate
	// neighbours in Direction order, or NoNeighbour at map edges.
	Neighbours [4]int

	// HasLocalPatch is true once LocalLattice has materialised this cell's
	// LocalPatch. The patch itself is owned and indexed by LocalLattice,
	// not embedded here, since patches may outlive a single GlobalGrid walk.
	HasLocalPatch bool
}

// IsObstacle reports whether this cell is an immovable hard obstacle.
func (c *GlobalCell) IsObstacle() bool {
	return c.Terrain == ObstacleTerrainClass
}

// GlobalGrid is the flat-array representation of the coarse grid described
// in the Design Notes: two flat vectors (here, one slice of structs)
// addressed by (i,j) -> i + j*W. Neighbour lookup is always arithmetic.
type GlobalGrid struct {
	W, H     int
	CellSize float64
	Origin   r3.Vector // world offset of cell (0,0)

	Cells []GlobalCell
}

// NewGlobalGrid allocates a W x H grid and wires every cell's neighbour
// indices; cells default to OPEN with TotalCost = +Inf.
func NewGlobalGrid(w, h int, cellSize float64, origin r3.Vector) *GlobalGrid {
	g := &GlobalGrid{
		W:        w,
		H:        h,
		CellSize: cellSize,
		Origin:   origin,
		Cells:    make([]GlobalCell, w*h),
	}
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			idx := g.Index(i, j)
			c := &g.Cells[idx]
			c.I, c.J = i, j
			c.TotalCost = math.Inf(1)
			c.State = Open
			c.Neighbours = [4]int{
				DirS: g.indexOrSentinel(i, j-1),
				DirW: g.indexOrSentinel(i-1, j),
				DirE: g.indexOrSentinel(i+1, j),
				DirN: g.indexOrSentinel(i, j+1),
			}
		}
	}
	return g
}

// Index converts a grid coordinate to a flat slice index. Callers must
// ensure (i,j) is in bounds; use InBounds to check untrusted input.
func (g *GlobalGrid) Index(i, j int) int {
	return i + j*g.W
}

// InBounds reports whether (i,j) lies within the grid.
func (g *GlobalGrid) InBounds(i, j int) bool {
	return i >= 0 && i < g.W && j >= 0 && j < g.H
}

func (g *GlobalGrid) indexOrSentinel(i, j int) int {
	if !g.InBounds(i, j) {
		return NoNeighbour
	}
	return g.Index(i, j)
}

// At returns the cell at (i,j), or nil if out of bounds.
func (g *GlobalGrid) At(i, j int) *GlobalCell {
	if !g.InBounds(i, j) {
		return nil
	}
	return &g.Cells[g.Index(i, j)]
}

// Neighbour returns the cell adjacent to c in direction d, or nil if the
// map edge is reached there.
func (g *GlobalGrid) Neighbour(c *GlobalCell, d Direction) *GlobalCell {
	idx := c.Neighbours[d]
	if idx == NoNeighbour {
		return nil
	}
	return &g.Cells[idx]
}

// CellToWorld returns the world-space centre of cell (i,j).
func (g *GlobalGrid) CellToWorld(i, j int) r3.Vector {
	return r3.Vector{
		X: g.Origin.X + float64(i)*g.CellSize,
		Y: g.Origin.Y + float64(j)*g.CellSize,
	}
}

// WorldToCell locates the four cell centres surrounding pos (centres sit at
// Origin + (i,j)*CellSize, see CellToWorld). It returns the lower-left one,
// (i,j) = floor of pos in grid units, and the bilinear residuals (a,b) in
// [0,1) of pos measured from centre (i,j) toward centre (i+1,j+1). This is
// not always the nearest cell; NearestCell rounds instead.
func (g *GlobalGrid) WorldToCell(pos r3.Vector) (i, j int, a, b float64) {
	fx := (pos.X - g.Origin.X) / g.CellSize
	fy := (pos.Y - g.Origin.Y) / g.CellSize
	i = int(math.Floor(fx))
	j = int(math.Floor(fy))
	a = fx - float64(i)
	b = fy - float64(j)
	return
}

// NearestCell rounds pos to the nearest grid index, clamped to the grid.
func (g *GlobalGrid) NearestCell(pos r3.Vector) (i, j int) {
	fx := (pos.X - g.Origin.X) / g.CellSize
	fy := (pos.Y - g.Origin.Y) / g.CellSize
	i = clampInt(int(math.Round(fx)), 0, g.W-1)
	j = clampInt(int(math.Round(fy)), 0, g.H-1)
	return
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Interpolate performs the engine-wide bilinear blend used by both the
// cost-model slope interpolation and the gradient-descent path extractors:
// g00 + (g10-g00)*a + (g01-g00)*b + (g11+g00-g10-g01)*a*b.
func Interpolate(a, b, g00, g01, g10, g11 float64) float64 {
	return g00 + (g10-g00)*a + (g01-g00)*b + (g11+g00-g10-g01)*a*b
}
