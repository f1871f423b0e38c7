package algo

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/elektrokombinacija/terrafm/internal/core"
)

// MaxExtractionSteps bounds gradient descent before it is declared
// diverged, per §4.5's "implementation-defined step budget (e.g. 10^6)".
const MaxExtractionSteps = 1_000_000

// gradientComponent computes one axis of the per-corner central-difference
// gradient used by both the global and local extractors: central
// difference if both neighbours are finite, one-sided if only one is, and
// zero if neither — the same zero guard is applied before normalising in
// normalizedGradient, so this never by itself needs to special-case 0/0.
func gradientComponent(lo, hi *float64) float64 {
	switch {
	case lo != nil && hi != nil:
		return (*hi - *lo) / 2
	case hi != nil:
		return *hi
	case lo != nil:
		return -*lo
	default:
		return 0
	}
}

// normalizedGradient normalises (dx,dy), returning (0,0) if both are zero.
// The reference implementation this engine is modelled on applies this
// guard in one neighbour-gradient overload but not the other, which would
// let the ungated overload divide 0/0 into NaN; this engine applies the
// guard uniformly so neither the global nor the local extractor can ever
// produce NaN heading from a flat total-cost neighbourhood.
func normalizedGradient(dx, dy float64) (gx, gy float64) {
	if dx == 0 && dy == 0 {
		return 0, 0
	}
	norm := math.Hypot(dx, dy)
	return dx / norm, dy / norm
}

func finiteOrNil(v float64) *float64 {
	if math.IsInf(v, 1) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// cellGradient computes the normalised totalCost gradient at a GlobalCell.
func cellGradient(g *core.GlobalGrid, c *core.GlobalCell) (gx, gy float64) {
	w := g.Neighbour(c, core.DirW)
	e := g.Neighbour(c, core.DirE)
	s := g.Neighbour(c, core.DirS)
	n := g.Neighbour(c, core.DirN)

	var wv, ev, sv, nv *float64
	if w != nil {
		wv = finiteOrNil(w.TotalCost)
	}
	if e != nil {
		ev = finiteOrNil(e.TotalCost)
	}
	if s != nil {
		sv = finiteOrNil(s.TotalCost)
	}
	if n != nil {
		nv = finiteOrNil(n.TotalCost)
	}

	dx := gradientComponent(wv, ev)
	dy := gradientComponent(sv, nv)
	return normalizedGradient(dx, dy)
}

// ExtractGlobalPath implements C6 (§4.5): fixed-step gradient descent over
// the global totalCost field from start toward goal.
func ExtractGlobalPath(solver *GlobalSolver, start, goal core.Waypoint, riskDistance float64) (core.Trajectory, error) {
	g := solver.Grid
	tau := math.Min(0.5, riskDistance) * g.CellSize

	traj := core.Trajectory{start}
	pos := start.Pos

	for step := 0; ; step++ {
		if step >= MaxExtractionSteps {
			return traj, errors.Wrapf(core.ErrPathDiverged, "extractPath: exceeded %d steps", MaxExtractionSteps)
		}
		if goalDist := (r3.Vector{X: pos.X - goal.Pos.X, Y: pos.Y - goal.Pos.Y}).Norm(); goalDist < g.CellSize {
			traj = append(traj, goal)
			return traj, nil
		}

		i, j, a, b := g.WorldToCell(pos)
		i = clampInt(i, 0, g.W-2)
		j = clampInt(j, 0, g.H-2)

		c00 := g.At(i, j)
		c10 := g.At(i+1, j)
		c01 := g.At(i, j+1)
		c11 := g.At(i+1, j+1)
		if c00 == nil || c10 == nil || c01 == nil || c11 == nil {
			return traj, errors.Wrap(core.ErrUnreachable, "extractPath: fell off the grid")
		}

		gx00, gy00 := cellGradient(g, c00)
		gx10, gy10 := cellGradient(g, c10)
		gx01, gy01 := cellGradient(g, c01)
		gx11, gy11 := cellGradient(g, c11)

		dCx := core.Interpolate(a, b, gx00, gx01, gx10, gx11)
		dCy := core.Interpolate(a, b, gy00, gy01, gy10, gy11)
		elev := core.Interpolate(a, b, c00.Elevation, c01.Elevation, c10.Elevation, c11.Elevation)

		if math.IsNaN(dCx) || math.IsNaN(dCy) {
			return traj, errors.Wrap(core.ErrPathDiverged, "extractPath: NaN gradient")
		}

		nextPos := r3.Vector{X: pos.X - tau*dCx, Y: pos.Y - tau*dCy}
		heading := math.Atan2(-dCy, -dCx)

		wp := core.Waypoint{Pos: nextPos, Heading: heading}.WithElevation(elev)
		traj = append(traj, wp)
		pos = nextPos
	}
}
