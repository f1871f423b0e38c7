package algo

import (
	"math"
	"testing"

	"github.com/elektrokombinacija/terrafm/internal/core"
)

func testCostModel() *CostModel {
	return NewCostModel(CostModelConfig{
		Terrains:      core.TerrainTable{{Name: "obstacle"}, {Name: "flat"}},
		Modes:         core.ModeNames{"drive"},
		SlopeRangeDeg: []float64{0, 15, 30},
		// row-major over (terrain, mode, slopeBucket); terrain 0 is always forced obstacle.
		CostTable: []float64{1e9, 1e9, 1e9, 1.0, 1.5, 3.0},
	})
}

func TestNominalCostObstacleTerrain(t *testing.T) {
	m := testCostModel()
	cost, forced := m.NominalCost(core.ObstacleTerrainClass, 0)
	if !forced {
		t.Error("terrain class 0 should always force obstacle")
	}
	if cost != 1e9 {
		t.Errorf("obstacle nominal cost = %v, want 1e9", cost)
	}
}

func TestNominalCostOutOfSlopeRange(t *testing.T) {
	m := testCostModel()
	_, forced := m.NominalCost(core.TerrainClass(1), 60*math.Pi/180)
	if !forced {
		t.Error("slope beyond the configured range should force obstacle")
	}
}

func TestNominalCostInterpolatesBetweenBuckets(t *testing.T) {
	m := testCostModel()
	cost, forced := m.NominalCost(core.TerrainClass(1), 7.5*math.Pi/180) // halfway between bucket 0 and 1
	if forced {
		t.Fatal("mid-range slope should not force obstacle")
	}
	want := (1.0 + 1.5) / 2
	if math.Abs(cost-want) > 1e-9 {
		t.Errorf("interpolated cost = %v, want %v", cost, want)
	}
}

func TestEffectiveCostFullObstacleRatio(t *testing.T) {
	m := testCostModel()
	got := m.EffectiveCost(1.0, 0, 1.0, 2.0)
	want := 2.0 * m.obstacleCost()
	if got != want {
		t.Errorf("EffectiveCost with obstacleRatio=1 = %v, want %v", got, want)
	}
}

func TestEffectiveCostCapsAtObstacleCost(t *testing.T) {
	m := testCostModel()
	// A nominal cost far above the obstacle cost must still be capped.
	got := m.EffectiveCost(1e12, 0, 0, 1.0)
	want := 1.0 * m.obstacleCost()
	if got != want {
		t.Errorf("EffectiveCost should cap at obstacle cost, got %v want %v", got, want)
	}
}

func TestSlopeAspectFlatField(t *testing.T) {
	slope, aspect := SlopeAspect(0, 0, 0, 0, true, true, true, true, 1.0)
	if slope != 0 {
		t.Errorf("flat field slope = %v, want 0", slope)
	}
	if aspect != 0 {
		t.Errorf("flat field aspect = %v, want 0 (zero-guard)", aspect)
	}
}

func TestEquivalentSlopeAlongAspect(t *testing.T) {
	slope := 20 * math.Pi / 180
	// Heading aligned with aspect: omega=0, so equivalent slope == slope.
	got := EquivalentSlope(0, 0, slope)
	if math.Abs(got-slope) > 1e-6 {
		t.Errorf("EquivalentSlope aligned with aspect = %v, want %v", got, slope)
	}
}

func TestEquivalentSlopeAcrossContour(t *testing.T) {
	slope := 20 * math.Pi / 180
	// Heading perpendicular to aspect (along the contour): equivalent slope should be 0.
	got := EquivalentSlope(math.Pi/2, 0, slope)
	if math.Abs(got) > 1e-6 {
		t.Errorf("EquivalentSlope across the contour = %v, want 0", got)
	}
}

func TestSmoothCostNeverLowersCost(t *testing.T) {
	got := SmoothCost(5.0, []float64{1.0, 1.0, 1.0})
	if got != 5.0 {
		t.Errorf("SmoothCost = %v, want 5.0 (self already exceeds the mean)", got)
	}

	got = SmoothCost(1.0, []float64{5.0, 5.0})
	want := (1.0 + 5.0 + 5.0) / 3
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("SmoothCost = %v, want mean %v", got, want)
	}
}
