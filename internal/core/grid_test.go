package core

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
)

func TestNewGlobalGridNeighbourWiring(t *testing.T) {
	g := NewGlobalGrid(3, 3, 1.0, r3.Vector{})

	center := g.At(1, 1)
	if n := g.Neighbour(center, DirW); n == nil || n.I != 0 || n.J != 1 {
		t.Errorf("west neighbour of (1,1) = %v, want (0,1)", n)
	}
	if n := g.Neighbour(center, DirE); n == nil || n.I != 2 || n.J != 1 {
		t.Errorf("east neighbour of (1,1) = %v, want (2,1)", n)
	}

	corner := g.At(0, 0)
	if n := g.Neighbour(corner, DirW); n != nil {
		t.Errorf("west neighbour of (0,0) = %v, want nil", n)
	}
	if n := g.Neighbour(corner, DirS); n != nil {
		t.Errorf("south neighbour of (0,0) = %v, want nil", n)
	}
}

func TestGlobalGridDefaultState(t *testing.T) {
	g := NewGlobalGrid(2, 2, 1.0, r3.Vector{})
	for i := range g.Cells {
		if g.Cells[i].State != Open {
			t.Errorf("cell %d state = %v, want Open", i, g.Cells[i].State)
		}
		if !math.IsInf(g.Cells[i].TotalCost, 1) {
			t.Errorf("cell %d totalCost = %v, want +Inf", i, g.Cells[i].TotalCost)
		}
	}
}

func TestWorldToCellRoundTrip(t *testing.T) {
	g := NewGlobalGrid(5, 5, 2.0, r3.Vector{X: 10, Y: 10})

	i, j, a, b := g.WorldToCell(r3.Vector{X: 12.5, Y: 11.0})
	if i != 1 || j != 0 {
		t.Fatalf("WorldToCell index = (%d,%d), want (1,0)", i, j)
	}
	if math.Abs(a-0.25) > 1e-9 || math.Abs(b-0.5) > 1e-9 {
		t.Errorf("WorldToCell residual = (%v,%v), want (0.25,0.5)", a, b)
	}
}

func TestNearestCellClamps(t *testing.T) {
	g := NewGlobalGrid(4, 4, 1.0, r3.Vector{})
	i, j := g.NearestCell(r3.Vector{X: -5, Y: 100})
	if i != 0 || j != 3 {
		t.Errorf("NearestCell out-of-range = (%d,%d), want (0,3)", i, j)
	}
}

func TestInterpolateCorners(t *testing.T) {
	tests := []struct {
		name               string
		a, b               float64
		g00, g01, g10, g11 float64
		want               float64
	}{
		{"corner 00", 0, 0, 1, 2, 3, 4, 1},
		{"corner 10", 1, 0, 1, 2, 3, 4, 3},
		{"corner 01", 0, 1, 1, 2, 3, 4, 2},
		{"corner 11", 1, 1, 1, 2, 3, 4, 4},
		{"center of a flat field", 0.5, 0.5, 5, 5, 5, 5, 5},
	}

	for _, tt := range tests {
		got := Interpolate(tt.a, tt.b, tt.g00, tt.g01, tt.g10, tt.g11)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: Interpolate(...) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsObstacle(t *testing.T) {
	obstacle := GlobalCell{Terrain: ObstacleTerrainClass}
	if !obstacle.IsObstacle() {
		t.Error("cell with terrain class 0 should be an obstacle")
	}
	clear := GlobalCell{Terrain: TerrainClass(1)}
	if clear.IsObstacle() {
		t.Error("cell with terrain class 1 should not be an obstacle")
	}
}
