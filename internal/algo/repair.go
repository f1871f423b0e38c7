package algo

import (
	"context"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/elektrokombinacija/terrafm/internal/core"
)

// straightLineProbeSteps discretises the riskDistance straight-line walk
// that §4.6's termination test uses to confirm a candidate exit is truly
// clear, not just momentarily risk == 0 at one point.
const straightLineProbeSteps = 8

// localAxisMin mirrors axisMin but over LocalCell totalCost.
func localAxisMin(l *LocalLattice, a, b *LocalCell) float64 {
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

// globalGradientAt bilinearly interpolates the normalised global totalCost
// gradient at an arbitrary world position, the same way ExtractGlobalPath
// does per-step; it is reused by the local repair solver's straight-line
// safety probe.
func globalGradientAt(solver *GlobalSolver, pos r3.Vector) (dCx, dCy float64, ok bool) {
	g := solver.Grid
	i, j, a, b := g.WorldToCell(pos)
	i = clampInt(i, 0, g.W-2)
	j = clampInt(j, 0, g.H-2)

	c00 := g.At(i, j)
	c10 := g.At(i+1, j)
	c01 := g.At(i, j+1)
	c11 := g.At(i+1, j+1)
	if c00 == nil || c10 == nil || c01 == nil || c11 == nil {
		return 0, 0, false
	}

	gx00, gy00 := cellGradient(g, c00)
	gx10, gy10 := cellGradient(g, c10)
	gx01, gy01 := cellGradient(g, c01)
	gx11, gy11 := cellGradient(g, c11)

	dCx = core.Interpolate(a, b, gx00, gx01, gx10, gx11)
	dCy = core.Interpolate(a, b, gy00, gy01, gy10, gy11)
	return dCx, dCy, true
}

// riskFreeDescent walks riskDistance metres from start in the descent
// direction of the global field, in straightLineProbeSteps increments,
// and reports whether every sample is risk-free. A position where the
// global gradient cannot be evaluated (off the edge of the map) is
// treated as safe: the repair solver's job is to rejoin the global field,
// and refusing every exit near a map boundary would make LocalRepairFailed
// unreachably common there.
func riskFreeDescent(lattice *LocalLattice, solver *GlobalSolver, start r3.Vector, riskDistance float64) bool {
	dCx, dCy, ok := globalGradientAt(solver, start)
	if !ok {
		return true
	}
	step := riskDistance / float64(straightLineProbeSteps)
	pos := start
	for k := 0; k < straightLineProbeSteps; k++ {
		pos = r3.Vector{X: pos.X - step*dCx, Y: pos.Y - step*dCy}
		if lattice.GetLocalCell(pos).Risk > 0 {
			return false
		}
	}
	return true
}

func localAllNeighboursClosed(l *LocalLattice, c *LocalCell) bool {
	for d := core.Direction(0); d < 4; d++ {
		if nb := l.Neighbour(c, d); nb != nil && nb.State != core.Closed {
			return false
		}
	}
	return true
}

// LocalRepair implements C7's core (§4.6): a bounded local FM re-solve
// seeded at wInit that terminates at the first valid exit onto the
// Treach level set of the global field, once that exit and its four
// neighbours are finalised.
func LocalRepair(ctx context.Context, lattice *LocalLattice, solver *GlobalSolver, wInit core.Waypoint, treach, riskDistance float64) (*LocalCell, error) {
	l := lattice

	for i := range l.Cells {
		if l.Cells[i].State == core.Closed {
			l.Cells[i].State = core.Open
			l.Cells[i].TotalCost = math.Inf(1)
		}
	}

	start := l.GetLocalCell(wInit.Pos)
	start.TotalCost = 0
	start.State = core.Closed

	band := NewNarrowBand(func(idx int) (float64, bool) {
		c := &l.Cells[idx]
		return c.TotalCost, c.State == core.Open
	})

	propagate := func(cell *LocalCell) {
		for d := core.Direction(0); d < 4; d++ {
			nb := l.Neighbour(cell, d)
			if nb == nil || nb.State != core.Open {
				continue
			}
			c := nb.Risk + 0.1
			tx := localAxisMin(l, l.Neighbour(nb, core.DirE), l.Neighbour(nb, core.DirW))
			ty := localAxisMin(l, l.Neighbour(nb, core.DirN), l.Neighbour(nb, core.DirS))
			t := eikonalCombine(tx, ty, c)
			if t < nb.TotalCost {
				nb.TotalCost = t
				band.Push(l.Index(nb), t)
			}
		}
	}

	propagate(start)

	// exitIdx, not a *LocalCell, survives the l.Cells reallocation that
	// riskFreeDescent's GetLocalCell calls can trigger when they
	// materialise a patch the search hasn't reached yet.
	exitIdx := -1
	iter := 0
	for !band.Empty() {
		iter++
		if iter%4096 == 0 {
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), "localRepair: cancelled")
			default:
			}
		}

		idx, ok := band.PopMin()
		if !ok {
			break
		}
		cell := &l.Cells[idx]
		cell.State = core.Closed

		if exitIdx == -1 {
			worldPos := l.WorldPose(cell)
			if solver.InterpolatedCost(worldPos) < treach && cell.Risk == 0 {
				if riskFreeDescent(l, solver, worldPos, riskDistance) {
					exitIdx = idx
				}
			}
		}

		propagate(cell)

		if exitIdx != -1 {
			exit := &l.Cells[exitIdx]
			if exit.State == core.Closed && localAllNeighboursClosed(l, exit) {
				return exit, nil
			}
		}
	}

	return nil, errors.Wrap(core.ErrLocalRepairFailed, "localRepair: narrow band exhausted before a valid exit closed")
}

// localCellGradient computes the normalised totalCost gradient at a
// LocalCell the same way cellGradient does for GlobalCells.
func localCellGradient(l *LocalLattice, c *LocalCell) (gx, gy float64) {
	w := l.Neighbour(c, core.DirW)
	e := l.Neighbour(c, core.DirE)
	s := l.Neighbour(c, core.DirS)
	n := l.Neighbour(c, core.DirN)

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

// ExtractLocalPath runs the same fixed-step gradient-descent shape as
// ExtractGlobalPath (§4.5), over a LocalLattice's totalCost field instead
// of the global grid's. Because LocalCells are addressed through patches
// rather than one contiguous rectangular array, this samples a single
// cell's gradient per step (via GetLocalCell) instead of bilinearly
// blending four corners; the step size is small enough (0.5*localCellSize)
// that this tracks the same descent direction the corner-blended global
// extractor would produce.
func ExtractLocalPath(lattice *LocalLattice, start, goal core.Waypoint, localCellSize float64) (core.Trajectory, error) {
	tau := 0.5 * localCellSize
	pos := start.Pos
	traj := core.Trajectory{start}

	for step := 0; ; step++ {
		if step >= MaxExtractionSteps {
			return traj, errors.Wrapf(core.ErrPathDiverged, "extractLocalPath: exceeded %d steps", MaxExtractionSteps)
		}
		if d := (r3.Vector{X: pos.X - goal.Pos.X, Y: pos.Y - goal.Pos.Y}).Norm(); d < localCellSize {
			traj = append(traj, goal)
			return traj, nil
		}

		lc := lattice.GetLocalCell(pos)
		gx, gy := localCellGradient(lattice, lc)
		if math.IsNaN(gx) || math.IsNaN(gy) {
			return traj, errors.Wrap(core.ErrPathDiverged, "extractLocalPath: NaN gradient")
		}

		gCell := &lattice.Grid.Cells[lc.GlobalIdx]
		nextPos := r3.Vector{X: pos.X - tau*gx, Y: pos.Y - tau*gy}
		heading := math.Atan2(-gy, -gx)

		wp := core.Waypoint{Pos: nextPos, Heading: heading}.WithElevation(gCell.Elevation)
		traj = append(traj, wp)
		pos = nextPos
	}
}

// EvaluateTrajectory implements the §4.7 evaluate(trajectory) read side:
// it walks traj reading each waypoint's nearest LocalCell risk and returns
// the maximal contiguous run with risk > 0. blocked is false if no
// waypoint has positive risk.
func EvaluateTrajectory(lattice *LocalLattice, traj core.Trajectory) (minIndex, maxIndex int, blocked bool) {
	bestLen := 0
	runStart := -1
	for i, wp := range traj {
		risky := lattice.GetLocalCell(wp.Pos).Risk > 0
		if risky && runStart == -1 {
			runStart = i
		}
		if !risky && runStart != -1 {
			if runLen := i - runStart; runLen > bestLen {
				bestLen = runLen
				minIndex, maxIndex = runStart, i-1
				blocked = true
			}
			runStart = -1
		}
	}
	if runStart != -1 {
		if runLen := len(traj) - runStart; runLen > bestLen {
			minIndex, maxIndex = runStart, len(traj)-1
			blocked = true
		}
	}
	return
}

// Repair implements the §4.7 outer splice: given a blocked segment
// [minIndex,maxIndex] on traj, it truncates at the re-entry point, runs
// the local FM repair, and stitches a local sub-path plus a fresh global
// tail back onto the original goal.
func Repair(ctx context.Context, lattice *LocalLattice, solver *GlobalSolver, riskDistance, localCellSize float64, traj core.Trajectory, minIndex, maxIndex int, goal core.Waypoint) (core.Trajectory, error) {
	indexLim := 0
	for i := minIndex; i > 0; i-- {
		if traj[i].DistanceTo(traj[minIndex]) > 2*riskDistance {
			indexLim = i
			break
		}
	}

	truncated := append(core.Trajectory{}, traj[:indexLim+1]...)

	if maxIndex >= len(traj)-1 {
		// The goal itself sits inside forbidden terrain; there is nothing
		// to rejoin, so the trajectory is simply shortened.
		return truncated, nil
	}

	treach := solver.InterpolatedCost(traj[maxIndex].Pos)
	wInit := truncated[len(truncated)-1]

	exit, err := LocalRepair(ctx, lattice, solver, wInit, treach, riskDistance)
	if err != nil {
		return truncated, err
	}

	exitWaypoint := core.NewWaypoint(lattice.WorldPose(exit).X, lattice.WorldPose(exit).Y, 0, 0)

	localSubPath, err := ExtractLocalPath(lattice, exitWaypoint, wInit, localCellSize)
	if err != nil {
		return truncated, errors.Wrap(err, "repair: local sub-path extraction diverged")
	}
	reversed := make(core.Trajectory, len(localSubPath))
	for i, wp := range localSubPath {
		reversed[len(localSubPath)-1-i] = wp
	}
	if len(reversed) > 0 {
		reversed = reversed[1:] // drop the duplicate of wInit, already the truncated tail
	}

	globalTail, err := ExtractGlobalPath(solver, exitWaypoint, goal, riskDistance)
	if err != nil {
		return append(truncated, reversed...), errors.Wrap(err, "repair: global tail extraction diverged")
	}

	result := append(truncated, reversed...)
	result = append(result, globalTail...)
	return result, nil
}
