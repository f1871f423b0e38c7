package planner

import (
	"context"
	"math"
	"testing"

	"github.com/golang/geo/r3"

	"github.com/elektrokombinacija/terrafm/internal/algo"
	"github.com/elektrokombinacija/terrafm/internal/core"
)

func flatMapConfig(w, h int, cellSize, localCellSize float64, obstacleAt func(i, j int) bool) (ConstructionConfig, MapConfig) {
	cc := ConstructionConfig{
		Terrains: core.TerrainTable{
			{Name: "obstacle"},
			{Name: "flat"},
		},
		Modes:         core.ModeNames{"drive"},
		SlopeRangeDeg: []float64{0, 45},
		CostTable:     []float64{1e9, 1e9, 1.0, 1.0},
		RiskDistance:  0.5,
	}

	elevation := make([][]float64, h)
	terrain := make([][]core.TerrainClass, h)
	for j := 0; j < h; j++ {
		elevation[j] = make([]float64, w)
		terrain[j] = make([]core.TerrainClass, w)
		for i := 0; i < w; i++ {
			terrain[j][i] = core.TerrainClass(1)
			if obstacleAt != nil && obstacleAt(i, j) {
				terrain[j][i] = core.ObstacleTerrainClass
			}
		}
	}

	mc := MapConfig{
		GlobalCellSize: cellSize,
		LocalCellSize:  localCellSize,
		Origin:         r3.Vector{},
		Elevation:      elevation,
		Terrain:        terrain,
	}
	return cc, mc
}

func TestInitGlobalMapRejectsEmptyElevation(t *testing.T) {
	p := New(nil)
	cc, mc := flatMapConfig(4, 4, 1.0, 0.25, nil)
	mc.Elevation = nil
	if err := p.InitGlobalMap(cc, mc); err == nil {
		t.Error("expected an error initialising with an empty elevation matrix")
	}
}

func TestSetGoalRejectsForbiddenTerrain(t *testing.T) {
	p := New(nil)
	cc, mc := flatMapConfig(6, 6, 1.0, 0.25, func(i, j int) bool { return i == 3 && j == 3 })
	if err := p.InitGlobalMap(cc, mc); err != nil {
		t.Fatalf("InitGlobalMap: %v", err)
	}
	if err := p.SetGoal(core.NewWaypoint(3, 3, 0, 0)); err != core.ErrGoalForbidden {
		t.Errorf("SetGoal on obstacle cell = %v, want ErrGoalForbidden", err)
	}
}

func TestSetGoalRejectsNeighbouringForbiddenTerrain(t *testing.T) {
	p := New(nil)
	cc, mc := flatMapConfig(6, 6, 1.0, 0.25, func(i, j int) bool { return i == 3 && j == 3 })
	if err := p.InitGlobalMap(cc, mc); err != nil {
		t.Fatalf("InitGlobalMap: %v", err)
	}
	// Goal on cell (4,3), adjacent to the forbidden (3,3) cell.
	if err := p.SetGoal(core.NewWaypoint(4, 3, 0, 0)); err != core.ErrGoalForbidden {
		t.Errorf("SetGoal next to an obstacle = %v, want ErrGoalForbidden", err)
	}
}

func TestEndToEndPlanOnFlatMap(t *testing.T) {
	p := New(nil)
	cc, mc := flatMapConfig(10, 10, 1.0, 0.25, nil)
	if err := p.InitGlobalMap(cc, mc); err != nil {
		t.Fatalf("InitGlobalMap: %v", err)
	}
	goal := core.NewWaypoint(5, 5, 0, 0)
	if err := p.SetGoal(goal); err != nil {
		t.Fatalf("SetGoal: %v", err)
	}

	start := core.NewWaypoint(1, 1, 0, 0)
	cost, err := p.ComputeGlobalField(context.Background(), start)
	if err != nil {
		t.Fatalf("ComputeGlobalField: %v", err)
	}
	if cost <= 0 || math.IsInf(cost, 1) {
		t.Errorf("start cost = %v, want a finite positive value", cost)
	}

	traj, err := p.ExtractPath(start)
	if err != nil {
		t.Fatalf("ExtractPath: %v", err)
	}
	if len(traj) < 2 {
		t.Fatal("expected a multi-waypoint trajectory")
	}
	last := traj[len(traj)-1]
	if d := last.DistanceTo(goal); d > 1e-6 {
		t.Errorf("path did not terminate at goal: last=%v goal=%v", last.Pos, goal.Pos)
	}
}

func TestComputeGlobalFieldRequiresGoal(t *testing.T) {
	p := New(nil)
	cc, mc := flatMapConfig(5, 5, 1.0, 0.25, nil)
	if err := p.InitGlobalMap(cc, mc); err != nil {
		t.Fatalf("InitGlobalMap: %v", err)
	}
	if _, err := p.ComputeGlobalField(context.Background(), core.NewWaypoint(0, 0, 0, 0)); err == nil {
		t.Error("expected an error computing the field before a goal is set")
	}
}

func TestReentrancyGuardRejectsNestedCalls(t *testing.T) {
	p := New(nil)
	if err := p.lock(); err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer p.unlock()

	if err := p.SetGoal(core.NewWaypoint(0, 0, 0, 0)); err != core.ErrNotReentrant {
		t.Errorf("SetGoal while already locked = %v, want ErrNotReentrant", err)
	}
}

func TestIngestTraversabilityFrameTriggersRepair(t *testing.T) {
	p := New(nil)
	cc, mc := flatMapConfig(12, 12, 1.0, 0.25, nil)
	if err := p.InitGlobalMap(cc, mc); err != nil {
		t.Fatalf("InitGlobalMap: %v", err)
	}
	goal := core.NewWaypoint(10, 10, 0, 0)
	if err := p.SetGoal(goal); err != nil {
		t.Fatalf("SetGoal: %v", err)
	}
	start := core.NewWaypoint(1, 1, 0, 0)
	if _, err := p.ComputeGlobalField(context.Background(), start); err != nil {
		t.Fatalf("ComputeGlobalField: %v", err)
	}
	traj, err := p.ExtractPath(start)
	if err != nil {
		t.Fatalf("ExtractPath: %v", err)
	}

	// Drop an obstacle frame centred on a waypoint partway along traj so
	// the trajectory is reported blocked and a repair is attempted.
	mid := traj[len(traj)/2]
	data := make([]byte, 16*16)
	for i := range data {
		data[i] = 1
	}
	data[8*16+8] = 0 // obstacle pixel at the frame centre
	frame := &algo.TraversabilityFrame{
		Width: 16, Height: 16, RowSize: 16, PixelStride: 1,
		Data: data, Origin: mid.Pos, Resolution: 0.1,
	}

	result, err := p.IngestTraversabilityFrame(context.Background(), frame, traj)
	if !result.Repaired {
		t.Fatal("expected the frame to trigger a repair attempt")
	}
	if err != nil {
		t.Logf("repair returned an error (acceptable if no valid exit existed): %v", err)
	}
	if len(result.Trajectory) == 0 {
		t.Error("repair result should carry a non-empty trajectory even on partial failure")
	}
}

func TestCostMapAndObstacleRatioMapShapes(t *testing.T) {
	p := New(nil)
	cc, mc := flatMapConfig(4, 3, 1.0, 0.25, nil)
	if err := p.InitGlobalMap(cc, mc); err != nil {
		t.Fatalf("InitGlobalMap: %v", err)
	}
	costs, meta := p.CostMap()
	if len(costs) != 3 || len(costs[0]) != 4 {
		t.Errorf("CostMap shape = %dx%d, want 3x4", len(costs), len(costs[0]))
	}
	if meta.ScaleX != 1.0 || meta.ScaleY != 1.0 {
		t.Errorf("CostMapMeta scale = (%v,%v), want (1,1)", meta.ScaleX, meta.ScaleY)
	}

	ratios := p.ObstacleRatioMap()
	if len(ratios) != 3 || len(ratios[0]) != 4 {
		t.Errorf("ObstacleRatioMap shape = %dx%d, want 3x4", len(ratios), len(ratios[0]))
	}
}
