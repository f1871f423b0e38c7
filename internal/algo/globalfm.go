package algo

import (
	"context"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/elektrokombinacija/terrafm/internal/core"
)

// GlobalSolver owns a core.GlobalGrid and the CostModel that assigns it
// edge costs, and implements C3, the global Fast Marching solver.
type GlobalSolver struct {
	Grid  *core.GlobalGrid
	Costs *CostModel
}

// NewGlobalSolver wraps a grid and cost model together; InitCosts must be
// called once before the first ComputeField.
func NewGlobalSolver(grid *core.GlobalGrid, costs *CostModel) *GlobalSolver {
	return &GlobalSolver{Grid: grid, Costs: costs}
}

// InitCosts computes slope, aspect, nominal cost and smoothed cost for
// every cell once, per §4.1 and the initGlobalMap operation of §4.8. It
// must run after elevation and terrain have been assigned to every cell.
func (s *GlobalSolver) InitCosts() {
	g := s.Grid
	nominal := make([]float64, len(g.Cells))
	for idx := range g.Cells {
		c := &g.Cells[idx]
		w := g.Neighbour(c, core.DirW)
		e := g.Neighbour(c, core.DirE)
		sC := g.Neighbour(c, core.DirS)
		n := g.Neighbour(c, core.DirN)

		var ew, ee, es, en float64
		if w != nil {
			ew = w.Elevation - c.Elevation
		}
		if e != nil {
			ee = e.Elevation - c.Elevation
		}
		if sC != nil {
			es = sC.Elevation - c.Elevation
		}
		if n != nil {
			en = n.Elevation - c.Elevation
		}
		c.Slope, c.Aspect = SlopeAspect(ew, ee, es, en, w != nil, e != nil, sC != nil, n != nil, g.CellSize)

		cost, forced := s.Costs.NominalCost(c.Terrain, c.Slope)
		nominal[idx] = cost
		if forced {
			c.ObstacleRatio = 1
		}
	}

	// Smoothed cost: a second pass so neighbour lookups all see nominal
	// values, never partially-smoothed ones.
	for idx := range g.Cells {
		c := &g.Cells[idx]
		var neigh []float64
		for d := core.Direction(0); d < 4; d++ {
			if nb := g.Neighbour(c, d); nb != nil {
				neigh = append(neigh, nominal[nb.I+nb.J*g.W])
			}
		}
		c.NominalCost = nominal[idx]
		c.SmoothedCost = SmoothCost(nominal[idx], neigh)
	}
}

// ComputeField runs §4.2 from the given goal cell index, resetting any
// previously CLOSED cells first, and returns once the band is empty. Cells
// the goal cannot reach keep totalCost = +Inf, which is not an error at
// this layer; the only error returned is ctx's cancellation. The expected
// cost at a start pose is read afterwards with InterpolatedCost.
func (s *GlobalSolver) ComputeField(ctx context.Context, goalIdx int) error {
	g := s.Grid
	for i := range g.Cells {
		if g.Cells[i].State == core.Closed {
			g.Cells[i].TotalCost = math.Inf(1)
			g.Cells[i].State = core.Open
		}
	}

	band := NewNarrowBand(func(idx int) (float64, bool) {
		c := &g.Cells[idx]
		return c.TotalCost, c.State == core.Open
	})

	g.Cells[goalIdx].TotalCost = 0
	band.Push(goalIdx, 0)

	iter := 0
	for !band.Empty() {
		iter++
		if iter%4096 == 0 {
			select {
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), "computeGlobalField: cancelled")
			default:
			}
		}

		idx, ok := band.PopMin()
		if !ok {
			break
		}
		cell := &g.Cells[idx]
		cell.State = core.Closed

		for d := core.Direction(0); d < 4; d++ {
			nb := g.Neighbour(cell, d)
			if nb == nil || nb.State != core.Open {
				continue
			}
			nbIdx := g.Index(nb.I, nb.J)
			eff := s.Costs.EffectiveCost(nb.SmoothedCost, nb.Slope, nb.ObstacleRatio, g.CellSize)
			t := eikonalUpdate(g, nb, eff)
			if t < nb.TotalCost {
				nb.TotalCost = t
				band.Push(nbIdx, t)
			}
		}
	}
	return nil
}

// eikonalUpdate is the §4.2 Eikonal update at one GlobalCell, used by the
// global solver. The local repair solver and the risk engine read their
// own neighbours and share only eikonalCombine with it.
func eikonalUpdate(g *core.GlobalGrid, n *core.GlobalCell, c float64) float64 {
	tx := axisMin(g.Neighbour(n, core.DirE), g.Neighbour(n, core.DirW))
	ty := axisMin(g.Neighbour(n, core.DirN), g.Neighbour(n, core.DirS))
	return eikonalCombine(tx, ty, c)
}

func axisMin(a, b *core.GlobalCell) float64 {
	av, bv := math.Inf(1), math.Inf(1)
	if a != nil {
		av = a.TotalCost
	}
	if b != nil {
		bv = b.TotalCost
	}
	if av < bv {
		return av
	}
	return bv
}

// eikonalCombine is the scalar Eikonal solve shared (with differently
// named operands) by the global solver, the local repair solver, and the
// risk engine's S-field propagation.
func eikonalCombine(tx, ty, c float64) float64 {
	if math.IsInf(tx, 1) && math.IsInf(ty, 1) {
		return math.Inf(1)
	}
	if math.Abs(tx-ty) < c && !math.IsInf(tx, 1) && !math.IsInf(ty, 1) {
		return (tx + ty + math.Sqrt(2*c*c-(tx-ty)*(tx-ty))) / 2
	}
	return math.Min(tx, ty) + c
}

// InterpolatedCost bilinearly interpolates totalCost at an arbitrary world
// position from the four surrounding GlobalCells.
func (s *GlobalSolver) InterpolatedCost(pos r3.Vector) float64 {
	g := s.Grid
	i, j, a, b := g.WorldToCell(pos)
	c00 := g.At(i, j)
	c10 := g.At(i+1, j)
	c01 := g.At(i, j+1)
	c11 := g.At(i+1, j+1)
	if c00 == nil || c10 == nil || c01 == nil || c11 == nil {
		return math.Inf(1)
	}
	return core.Interpolate(a, b, c00.TotalCost, c01.TotalCost, c10.TotalCost, c11.TotalCost)
}
