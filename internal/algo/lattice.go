package algo

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/elektrokombinacija/terrafm/internal/core"
)

// LocalCell is one entry of a LocalPatch (C4/C5 data, §3).
type LocalCell struct {
	GlobalIdx  int // owning GlobalCell's flat grid index
	SubI, SubJ int

	Risk       float64
	IsObstacle bool

	TotalCost float64
	State     core.CellState

	// Neighbours holds the flat LocalLattice.Cells index of each of the
	// four neighbours in core.Direction order, or NoNeighbour if that
	// side's patch has not been materialised yet (§3 invariant 4).
	Neighbours [4]int
}

// LocalPatch is the R x R fine lattice lazily materialised inside one
// GlobalCell.
type LocalPatch struct {
	GlobalIdx int
	Base      int // index of this patch's (0,0) cell in LocalLattice.Cells
}

// LocalLattice implements C4: it lazily materialises LocalPatches inside
// the GlobalCells the robot visits and stitches neighbouring patches
// together across their shared boundary.
type LocalLattice struct {
	Grid          *core.GlobalGrid
	R             int // globalCellSize / localCellSize, an integer >= 1
	LocalCellSize float64

	Patches map[int]*LocalPatch // keyed by owning GlobalCell flat index
	Cells   []LocalCell
}

// NewLocalLattice creates an empty lattice manager over grid with
// localCellSize dividing grid.CellSize evenly into R.
func NewLocalLattice(grid *core.GlobalGrid, localCellSize float64) *LocalLattice {
	r := int(math.Round(grid.CellSize / localCellSize))
	if r < 1 {
		r = 1
	}
	return &LocalLattice{
		Grid:          grid,
		R:             r,
		LocalCellSize: localCellSize,
		Patches:       make(map[int]*LocalPatch),
	}
}

// Expand materialises the patch owned by GlobalCell gIdx if it is not
// already materialised, per §4.3. It wires interior neighbours, then wires
// bidirectionally across every boundary whose adjacent patch already
// exists (resolving the Open Question on cross-patch fix-up: wiring always
// happens both ways, regardless of materialisation order).
func (l *LocalLattice) Expand(gIdx int) *LocalPatch {
	if p, ok := l.Patches[gIdx]; ok {
		return p
	}

	r := l.R
	base := len(l.Cells)
	patch := &LocalPatch{GlobalIdx: gIdx, Base: base}

	for sj := 0; sj < r; sj++ {
		for si := 0; si < r; si++ {
			l.Cells = append(l.Cells, LocalCell{
				GlobalIdx: gIdx,
				SubI:      si,
				SubJ:      sj,
				TotalCost: math.Inf(1),
				State:     core.Open,
				Neighbours: [4]int{
					core.DirS: core.NoNeighbour,
					core.DirW: core.NoNeighbour,
					core.DirE: core.NoNeighbour,
					core.DirN: core.NoNeighbour,
				},
			})
		}
	}
	l.Patches[gIdx] = patch
	l.Grid.Cells[gIdx].HasLocalPatch = true

	// Interior wiring.
	for sj := 0; sj < r; sj++ {
		for si := 0; si < r; si++ {
			idx := base + sj*r + si
			c := &l.Cells[idx]
			if si > 0 {
				c.Neighbours[core.DirW] = base + sj*r + (si - 1)
			}
			if si < r-1 {
				c.Neighbours[core.DirE] = base + sj*r + (si + 1)
			}
			if sj > 0 {
				c.Neighbours[core.DirS] = base + (sj-1)*r + si
			}
			if sj < r-1 {
				c.Neighbours[core.DirN] = base + (sj+1)*r + si
			}
		}
	}

	l.wireBoundary(gIdx)
	return patch
}

// wireBoundary wires this patch to each already-materialised neighbouring
// patch, bidirectionally, across all four sides.
func (l *LocalLattice) wireBoundary(gIdx int) {
	g := l.Grid
	cell := &g.Cells[gIdx]
	r := l.R
	me := l.Patches[gIdx]

	type side struct {
		dir    core.Direction
		myEdge func(k int) int // local cell index along my edge, k in [0,r)
	}

	sides := []side{
		{core.DirW, func(k int) int { return me.Base + k*r + 0 }},
		{core.DirE, func(k int) int { return me.Base + k*r + (r - 1) }},
		{core.DirS, func(k int) int { return me.Base + 0*r + k }},
		{core.DirN, func(k int) int { return me.Base + (r-1)*r + k }},
	}

	for _, s := range sides {
		nb := g.Neighbour(cell, s.dir)
		if nb == nil {
			continue
		}
		nbIdx := g.Index(nb.I, nb.J)
		other, ok := l.Patches[nbIdx]
		if !ok {
			continue // wired later when the neighbour materialises
		}
		opp := opposite(s.dir)
		for k := 0; k < r; k++ {
			mine := s.myEdge(k)
			var theirs int
			switch s.dir {
			case core.DirW, core.DirE:
				theirs = other.Base + k*r + edgeCol(s.dir, r)
			default:
				theirs = other.Base + edgeRow(s.dir, r)*r + k
			}
			l.Cells[mine].Neighbours[s.dir] = theirs
			l.Cells[theirs].Neighbours[opp] = mine
		}
	}
}

func opposite(d core.Direction) core.Direction {
	switch d {
	case core.DirS:
		return core.DirN
	case core.DirN:
		return core.DirS
	case core.DirW:
		return core.DirE
	default:
		return core.DirW
	}
}

// edgeCol/edgeRow pick the neighbouring patch's column/row that abuts this
// patch along direction d (the far edge from d's perspective).
func edgeCol(d core.Direction, r int) int {
	if d == core.DirW {
		return r - 1
	}
	return 0
}

func edgeRow(d core.Direction, r int) int {
	if d == core.DirS {
		return r - 1
	}
	return 0
}

// GetLocalCell implements §4.3's getLocalCell(worldXY): find the nearest
// global cell, materialise it, then index into its patch.
func (l *LocalLattice) GetLocalCell(worldXY r3.Vector) *LocalCell {
	g := l.Grid
	gi, gj := g.NearestCell(worldXY)
	gIdx := g.Index(gi, gj)
	patch := l.Expand(gIdx)

	centre := g.CellToWorld(gi, gj)
	corner := r3.Vector{X: centre.X - 0.5*g.CellSize, Y: centre.Y - 0.5*g.CellSize}
	subX := (worldXY.X - corner.X) / g.CellSize
	subY := (worldXY.Y - corner.Y) / g.CellSize
	si := clampInt(int(math.Floor(subX*float64(l.R))), 0, l.R-1)
	sj := clampInt(int(math.Floor(subY*float64(l.R))), 0, l.R-1)

	return &l.Cells[patch.Base+sj*l.R+si]
}

// ExpandNeighbourhood materialises every global cell within radiusMetres
// of pose, per §4.3's "neighbourhood update". Called from updateLocalMap
// whenever the robot enters a new global cell.
func (l *LocalLattice) ExpandNeighbourhood(pose r3.Vector, radiusMetres float64) {
	g := l.Grid
	ci, cj := g.NearestCell(pose)
	cellRadius := int(math.Ceil(radiusMetres / g.CellSize))

	loI := clampInt(ci-cellRadius, 0, g.W-1)
	hiI := clampInt(ci+cellRadius, 0, g.W-1)
	loJ := clampInt(cj-cellRadius, 0, g.H-1)
	hiJ := clampInt(cj+cellRadius, 0, g.H-1)

	for j := loJ; j <= hiJ; j++ {
		for i := loI; i <= hiI; i++ {
			l.Expand(g.Index(i, j))
		}
	}
}

// WorldPose returns the world-space position of a LocalCell.
func (l *LocalLattice) WorldPose(c *LocalCell) r3.Vector {
	g := l.Grid
	gc := &g.Cells[c.GlobalIdx]
	centre := g.CellToWorld(gc.I, gc.J)
	corner := r3.Vector{X: centre.X - 0.5*g.CellSize, Y: centre.Y - 0.5*g.CellSize}
	return r3.Vector{
		X: corner.X + (float64(c.SubI)+0.5)*l.LocalCellSize,
		Y: corner.Y + (float64(c.SubJ)+0.5)*l.LocalCellSize,
	}
}

// Neighbour returns c's neighbour in direction d, or nil if absent.
func (l *LocalLattice) Neighbour(c *LocalCell, d core.Direction) *LocalCell {
	idx := c.Neighbours[d]
	if idx == core.NoNeighbour {
		return nil
	}
	return &l.Cells[idx]
}

// Index returns c's flat index within l.Cells.
func (l *LocalLattice) Index(c *LocalCell) int {
	p := l.Patches[c.GlobalIdx]
	return p.Base + c.SubJ*l.R + c.SubI
}
