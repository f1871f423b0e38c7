package algo

import (
	"github.com/golang/geo/r3"

	"github.com/elektrokombinacija/terrafm/internal/core"
)

// TraversabilityFrame is a 2D obstacle/free sensor frame as described in
// §6: pixel value 0 means obstacle, any non-zero means free. The frame is
// assumed centred at Origin.
type TraversabilityFrame struct {
	Width, Height int
	RowSize       int // bytes per row
	PixelStride   int // bytes per pixel
	Data          []byte
	Origin        r3.Vector
	Resolution    float64 // metres per pixel
}

func (f *TraversabilityFrame) valueAt(px, py int) byte {
	return f.Data[py*f.RowSize+px*f.PixelStride]
}

// RiskEngine implements C5: it ingests sensor frames, marks LocalCell
// obstacles, and propagates the risk halo described in §4.4. Its shape —
// mutex-free here since the facade already guarantees single-threaded,
// non-reentrant calls, but otherwise an ingest/propagate/check-deviation
// pipeline over lattice state — mirrors the planning-execution bridge's
// update/gradient/deviation pattern this engine descends from.
type RiskEngine struct {
	Lattice      *LocalLattice
	RiskDistance float64

	expandables *MaxBand
}

// NewRiskEngine wires a risk engine to a lattice.
func NewRiskEngine(lattice *LocalLattice, riskDistance float64) *RiskEngine {
	e := &RiskEngine{Lattice: lattice, RiskDistance: riskDistance}
	e.expandables = NewMaxBand(func(idx int) (float64, bool) {
		c := &lattice.Cells[idx]
		return c.Risk, true
	})
	return e
}

// IngestFrame implements §4.4's ingestion half. It returns the contiguous
// [minIndex, maxIndex] run of globalPath waypoints within RiskDistance of
// a newly discovered obstacle, and whether anything was blocked at all.
func (e *RiskEngine) IngestFrame(frame *TraversabilityFrame, globalPath core.Trajectory) (blocked bool, minIndex, maxIndex int) {
	l := e.Lattice
	g := l.Grid
	r2 := float64(l.R * l.R)

	minIndex = len(globalPath)
	maxIndex = 0

	offsetX := frame.Origin.X - float64(frame.Width)/2*frame.Resolution
	offsetY := frame.Origin.Y - float64(frame.Height)/2*frame.Resolution

	for py := 0; py < frame.Height; py++ {
		for px := 0; px < frame.Width; px++ {
			if frame.valueAt(px, py) != 0 {
				continue // free pixel
			}
			pos := r3.Vector{
				X: offsetX + float64(px)*frame.Resolution,
				Y: offsetY + float64(py)*frame.Resolution,
			}
			lc := l.GetLocalCell(pos)
			if lc.IsObstacle {
				continue
			}
			lc.IsObstacle = true
			lc.Risk = 1.0
			e.expandables.Push(l.Index(lc), lc.Risk)

			gCell := &g.Cells[lc.GlobalIdx]
			gCell.ObstacleRatio = clamp01(gCell.ObstacleRatio + 1/r2)
			for d := core.Direction(0); d < 4; d++ {
				if nb := g.Neighbour(gCell, d); nb != nil {
					nb.ObstacleRatio = clamp01(nb.ObstacleRatio + 0.2/r2)
				}
			}

			if lo, hi, hit := blockedRange(globalPath, l.WorldPose(lc), e.RiskDistance); hit {
				if lo < minIndex {
					minIndex = lo
				}
				if hi > maxIndex {
					maxIndex = hi
				}
				blocked = true
			}
		}
	}
	return
}

// blockedRange implements the §4.7 "blocking test": an obstacle LocalCell
// blocks iff its world distance to some globalPath waypoint is < riskDistance.
// It returns the index range of waypoints that test positive.
func blockedRange(path core.Trajectory, obstaclePos r3.Vector, riskDistance float64) (lo, hi int, hit bool) {
	lo, hi = -1, -1
	for i, wp := range path {
		d := r3.Vector{X: wp.Pos.X - obstaclePos.X, Y: wp.Pos.Y - obstaclePos.Y}.Norm()
		if d < riskDistance {
			if lo == -1 {
				lo = i
			}
			hi = i
			hit = true
		}
	}
	return
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// PropagateRisk implements §4.4's risk propagation: an Eikonal pass over
// S = 1 - risk, popping a true argmax of current risk at every step (per
// the Design Notes' resolution of the source's first-improving-candidate
// scan quirk) until the expandables queue drains. A risk-1 cell is still
// propagated from — nothing can exceed 1, so the "early exit when max is
// 1" language in §4.4 describes a scan-efficiency shortcut the heap makes
// unnecessary, not a reason to skip its neighbours.
func (e *RiskEngine) PropagateRisk() {
	l := e.Lattice
	c := l.LocalCellSize / e.RiskDistance

	for !e.expandables.Empty() {
		idx, ok := e.expandables.PopMax()
		if !ok {
			break
		}
		cell := &l.Cells[idx]

		for d := core.Direction(0); d < 4; d++ {
			nb := l.Neighbour(cell, d)
			if nb == nil {
				continue
			}
			sx := riskAxis(l.Neighbour(nb, core.DirE), l.Neighbour(nb, core.DirW))
			sy := riskAxis(l.Neighbour(nb, core.DirN), l.Neighbour(nb, core.DirS))
			s := eikonalCombine(sx, sy, c)
			rPrime := 1 - s
			if rPrime < 0 {
				rPrime = 0
			}
			if rPrime > nb.Risk {
				nb.Risk = rPrime
				e.expandables.Push(l.Index(nb), nb.Risk)
			}
		}
	}
}

// riskAxis returns 1 - max(risk_a, risk_b): the more at-risk of the two
// opposite neighbours along an axis dominates, so S along that axis is
// its complement. An absent neighbour contributes 0 risk, per §4.4.
func riskAxis(a, b *LocalCell) float64 {
	ra, rb := 0.0, 0.0
	if a != nil {
		ra = a.Risk
	}
	if b != nil {
		rb = b.Risk
	}
	if ra > rb {
		return 1 - ra
	}
	return 1 - rb
}
