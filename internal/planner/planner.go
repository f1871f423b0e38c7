// Package planner implements C8, the facade that orchestrates the global
// Fast Marching solver, the local refinement lattice, the risk engine and
// the path extractor/repairer, and owns all of their mutable state.
package planner

import (
	"context"
	"math"
	"sync"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/elektrokombinacija/terrafm/internal/algo"
	"github.com/elektrokombinacija/terrafm/internal/core"
)

// ConstructionConfig is the "consumed once" configuration of §6: the
// terrain/mode/cost tables and the risk radius.
type ConstructionConfig struct {
	Terrains      core.TerrainTable
	Modes         core.ModeNames
	SlopeRangeDeg []float64
	CostTable     []float64
	RiskDistance  float64 // metres; default 0.5 if zero
}

// MapConfig is the "per-map" configuration of §6.
type MapConfig struct {
	GlobalCellSize float64
	LocalCellSize  float64
	Origin         r3.Vector
	Elevation      [][]float64         // [H][W]
	Terrain        [][]core.TerrainClass // [H][W]
}

// Planner is C8. All of its operations are synchronous and mutate
// planner-owned state; per §5 it is not re-entrant. reentrancy guards
// against a caller violating that contract by returning ErrNotReentrant
// instead of corrupting state or deadlocking.
type Planner struct {
	reentrancy sync.Mutex

	log golog.Logger

	grid     *core.GlobalGrid
	costs    *algo.CostModel
	solver   *algo.GlobalSolver
	lattice  *algo.LocalLattice
	risk     *algo.RiskEngine

	riskDistance float64

	goal     core.Waypoint
	hasGoal  bool
	goalIdx  int
}

// New constructs an un-initialised planner; call InitGlobalMap before any
// other operation.
func New(logger golog.Logger) *Planner {
	if logger == nil {
		logger = golog.NewDevelopmentLogger("planner")
	}
	return &Planner{log: logger}
}

func (p *Planner) lock() error {
	if !p.reentrancy.TryLock() {
		return core.ErrNotReentrant
	}
	return nil
}

func (p *Planner) unlock() { p.reentrancy.Unlock() }

// InitGlobalMap implements §4.8's initGlobalMap: it builds C1, computes
// slope/aspect, and nominal+smoothed costs.
func (p *Planner) InitGlobalMap(cc ConstructionConfig, mc MapConfig) error {
	if err := p.lock(); err != nil {
		return err
	}
	defer p.unlock()

	riskDistance := cc.RiskDistance
	if riskDistance <= 0 {
		riskDistance = 0.5
	}
	p.riskDistance = riskDistance

	h := len(mc.Elevation)
	if h == 0 {
		return errors.New("initGlobalMap: elevation matrix is empty")
	}
	w := len(mc.Elevation[0])

	p.grid = core.NewGlobalGrid(w, h, mc.GlobalCellSize, mc.Origin)
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			c := p.grid.At(i, j)
			c.Elevation = mc.Elevation[j][i]
			c.Terrain = mc.Terrain[j][i]
			c.OptimalMode = cc.Terrains.OptimalMode(c.Terrain)
		}
	}

	p.costs = algo.NewCostModel(algo.CostModelConfig{
		Terrains:      cc.Terrains,
		Modes:         cc.Modes,
		SlopeRangeDeg: cc.SlopeRangeDeg,
		CostTable:     cc.CostTable,
	})
	p.solver = algo.NewGlobalSolver(p.grid, p.costs)
	p.solver.InitCosts()

	p.lattice = algo.NewLocalLattice(p.grid, mc.LocalCellSize)
	p.risk = algo.NewRiskEngine(p.lattice, riskDistance)

	p.log.Infow("global map initialised", "width", w, "height", h, "cellSize", mc.GlobalCellSize)
	return nil
}

// SetGoal implements §4.8's setGoal: rounds to the nearest global cell and
// rejects it (and the whole goal) if that cell or any of its four
// neighbours is terrain class 0.
func (p *Planner) SetGoal(wp core.Waypoint) error {
	if err := p.lock(); err != nil {
		return err
	}
	defer p.unlock()

	gi, gj := p.grid.NearestCell(wp.Pos)
	cell := p.grid.At(gi, gj)
	if cell.IsObstacle() {
		p.log.Debugw("goal rejected: goal cell is forbidden terrain", "i", gi, "j", gj)
		return core.ErrGoalForbidden
	}
	for d := core.Direction(0); d < 4; d++ {
		if nb := p.grid.Neighbour(cell, d); nb != nil && nb.IsObstacle() {
			p.log.Debugw("goal rejected: neighbouring cell is forbidden terrain", "i", gi, "j", gj)
			return core.ErrGoalForbidden
		}
	}

	p.goal = wp
	p.hasGoal = true
	p.goalIdx = p.grid.Index(gi, gj)
	p.log.Infow("goal set", "i", gi, "j", gj)
	return nil
}

// ComputeGlobalField implements §4.8's computeGlobalField: runs §4.2 and
// returns the interpolated expected cost at startWaypoint.
func (p *Planner) ComputeGlobalField(ctx context.Context, start core.Waypoint) (float64, error) {
	if err := p.lock(); err != nil {
		return 0, err
	}
	defer p.unlock()

	if !p.hasGoal {
		return 0, errors.New("computeGlobalField: no goal set")
	}
	if err := p.solver.ComputeField(ctx, p.goalIdx); err != nil {
		return 0, errors.Wrap(err, "computeGlobalField")
	}
	cost := p.solver.InterpolatedCost(start.Pos)
	p.log.Debugw("global field computed", "startCost", cost)
	return cost, nil
}

// UpdateLocalMap implements §4.8's updateLocalMap: materialises patches in
// a fixed radius around pose.
func (p *Planner) UpdateLocalMap(pose r3.Vector) error {
	if err := p.lock(); err != nil {
		return err
	}
	defer p.unlock()

	const neighbourhoodRadiusMetres = 6.0
	p.lattice.ExpandNeighbourhood(pose, neighbourhoodRadiusMetres)
	return nil
}

// IngestResult is the outcome of IngestTraversabilityFrame.
type IngestResult struct {
	Repaired   bool
	Trajectory core.Trajectory
}

// IngestTraversabilityFrame implements §4.8's ingestTraversabilityFrame:
// §4.4 ingestion, then §4.7 repair if the frame revealed a blocked
// segment of trajectory.
func (p *Planner) IngestTraversabilityFrame(ctx context.Context, frame *algo.TraversabilityFrame, trajectory core.Trajectory) (IngestResult, error) {
	if err := p.lock(); err != nil {
		return IngestResult{}, err
	}
	defer p.unlock()

	blocked, minIdx, maxIdx := p.risk.IngestFrame(frame, trajectory)
	if !blocked {
		return IngestResult{Repaired: false, Trajectory: trajectory}, nil
	}

	p.risk.PropagateRisk()
	p.log.Warnw("trajectory blocked, repairing", "minIndex", minIdx, "maxIndex", maxIdx)

	repaired, err := algo.Repair(ctx, p.lattice, p.solver, p.riskDistance, p.lattice.LocalCellSize, trajectory, minIdx, maxIdx, p.goal)
	if err != nil {
		return IngestResult{Repaired: true, Trajectory: repaired}, errors.Wrap(err, "ingestTraversabilityFrame")
	}
	return IngestResult{Repaired: true, Trajectory: repaired}, nil
}

// ExtractPath implements §4.8's extractPath: §4.5 gradient descent from
// start to the current goal.
func (p *Planner) ExtractPath(start core.Waypoint) (core.Trajectory, error) {
	if err := p.lock(); err != nil {
		return nil, err
	}
	defer p.unlock()

	if !p.hasGoal {
		return nil, errors.New("extractPath: no goal set")
	}
	if math.IsInf(p.solver.InterpolatedCost(start.Pos), 1) {
		return nil, core.ErrUnreachable
	}
	traj, err := algo.ExtractGlobalPath(p.solver, start, p.goal, p.riskDistance)
	if err != nil {
		return traj, err
	}
	p.log.Debugw("path extracted", "waypoints", len(traj))
	return traj, nil
}

// ReEvaluatePath implements §4.8's reEvaluatePath: runs §4.7 over the
// current full path.
func (p *Planner) ReEvaluatePath(ctx context.Context, trajectory core.Trajectory) (IngestResult, error) {
	if err := p.lock(); err != nil {
		return IngestResult{}, err
	}
	defer p.unlock()

	minIdx, maxIdx, blocked := algo.EvaluateTrajectory(p.lattice, trajectory)
	if !blocked {
		return IngestResult{Repaired: false, Trajectory: trajectory}, nil
	}

	repaired, err := algo.Repair(ctx, p.lattice, p.solver, p.riskDistance, p.lattice.LocalCellSize, trajectory, minIdx, maxIdx, p.goal)
	if err != nil {
		return IngestResult{Repaired: true, Trajectory: repaired}, errors.Wrap(err, "reEvaluatePath")
	}
	return IngestResult{Repaired: true, Trajectory: repaired}, nil
}

// CostMap returns a read-only snapshot of the global totalCost field plus
// the visualisation metadata described in §6.
func (p *Planner) CostMap() ([][]float64, CostMapMeta) {
	g := p.grid
	out := make([][]float64, g.H)
	for j := 0; j < g.H; j++ {
		out[j] = make([]float64, g.W)
		for i := 0; i < g.W; i++ {
			out[j][i] = g.At(i, j).TotalCost
		}
	}
	meta := CostMapMeta{
		ScaleX:  g.CellSize,
		ScaleY:  g.CellSize,
		CenterX: g.Origin.X + g.CellSize*0.5*float64(g.W),
		CenterY: g.Origin.Y + g.CellSize*0.5*float64(g.H),
	}
	return out, meta
}

// CostMapMeta carries the scale/center metadata required by §6's
// visualisation output contract.
type CostMapMeta struct {
	ScaleX, ScaleY   float64
	CenterX, CenterY float64
}

// ObstacleRatioMap returns a read-only snapshot of each GlobalCell's
// obstacleRatio, the coarse-grained risk signal §4.4 folds back from the
// local lattice. It is a cheap stand-in for a full per-LocalCell risk map
// when a caller only needs a global-resolution overlay.
func (p *Planner) ObstacleRatioMap() [][]float64 {
	g := p.grid
	out := make([][]float64, g.H)
	for j := 0; j < g.H; j++ {
		out[j] = make([]float64, g.W)
		for i := 0; i < g.W; i++ {
			out[j][i] = g.At(i, j).ObstacleRatio
		}
	}
	return out
}
