package algo

import (
	"testing"

	"github.com/golang/geo/r3"

	"github.com/elektrokombinacija/terrafm/internal/core"
)

func obstacleFrame(width, height int, obstacleX, obstacleY int, resolution float64, origin r3.Vector) *TraversabilityFrame {
	data := make([]byte, width*height)
	for i := range data {
		data[i] = 1 // free
	}
	data[obstacleY*width+obstacleX] = 0 // obstacle
	return &TraversabilityFrame{
		Width: width, Height: height,
		RowSize: width, PixelStride: 1,
		Data:       data,
		Origin:     origin,
		Resolution: resolution,
	}
}

func TestIngestFrameMarksObstacleAndRaisesParentRatio(t *testing.T) {
	l := testLattice(5, 5, 1.0, 0.25)
	e := NewRiskEngine(l, 0.5)

	center := r3.Vector{X: 2, Y: 2} // centre of global cell (2,2)
	frame := obstacleFrame(8, 8, 4, 4, 0.1, center)

	path := core.Trajectory{core.NewWaypoint(2, 2, 0, 0)}
	blocked, _, _ := e.IngestFrame(frame, path)
	if !blocked {
		t.Fatal("a path waypoint sitting on the obstacle should be blocked")
	}

	gc := l.Grid.At(2, 2)
	if gc.ObstacleRatio <= 0 {
		t.Errorf("owning GlobalCell's obstacleRatio should have risen, got %v", gc.ObstacleRatio)
	}
}

func TestPropagateRiskDecaysWithDistance(t *testing.T) {
	l := testLattice(5, 5, 1.0, 0.2) // R = 5
	e := NewRiskEngine(l, 1.0)

	obstacleIdx := l.Grid.Index(2, 2)
	patch := l.Expand(obstacleIdx)
	seed := &l.Cells[patch.Base] // (0,0) sub-cell of the center patch
	seed.IsObstacle = true
	seed.Risk = 1.0
	e.expandables.Push(l.Index(seed), 1.0)

	e.PropagateRisk()

	near := l.Neighbour(seed, core.DirE)
	if near == nil {
		t.Fatal("expected an east neighbour inside the same patch")
	}
	if near.Risk <= 0 {
		t.Error("a cell adjacent to the obstacle should have positive risk after propagation")
	}
	if near.Risk > seed.Risk {
		t.Errorf("propagated risk %v should not exceed the seed risk %v", near.Risk, seed.Risk)
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{-1, 0}, {0, 0}, {0.5, 0.5}, {1, 1}, {2, 1},
	}
	for _, tt := range tests {
		if got := clamp01(tt.in); got != tt.want {
			t.Errorf("clamp01(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
