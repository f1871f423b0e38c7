package algo

import (
	"testing"

	"github.com/golang/geo/r3"

	"github.com/elektrokombinacija/terrafm/internal/core"
)

func testLattice(w, h int, cellSize, localCellSize float64) *LocalLattice {
	grid := core.NewGlobalGrid(w, h, cellSize, r3.Vector{})
	return NewLocalLattice(grid, localCellSize)
}

func TestExpandMaterialisesRxRCells(t *testing.T) {
	l := testLattice(3, 3, 1.0, 0.25) // R = 4
	patch := l.Expand(l.Grid.Index(1, 1))

	if l.R != 4 {
		t.Fatalf("R = %d, want 4", l.R)
	}
	if got := len(l.Cells) - patch.Base; got != 16 {
		t.Errorf("patch has %d cells, want 16", got)
	}

	// Expanding again must be a no-op (same base).
	again := l.Expand(l.Grid.Index(1, 1))
	if again.Base != patch.Base {
		t.Error("re-expanding an already-materialised patch should return the same patch")
	}
}

func TestWireBoundaryLinksAdjacentPatches(t *testing.T) {
	l := testLattice(3, 3, 1.0, 0.5) // R = 2
	l.Expand(l.Grid.Index(0, 0))
	l.Expand(l.Grid.Index(1, 0)) // adjacent to the east

	left := l.Patches[l.Grid.Index(0, 0)]
	right := l.Patches[l.Grid.Index(1, 0)]

	// The east edge column of the left patch must be wired to the west
	// edge column of the right patch, for every row.
	for row := 0; row < l.R; row++ {
		mine := &l.Cells[left.Base+row*l.R+(l.R-1)]
		wantIdx := right.Base + row*l.R + 0
		if mine.Neighbours[core.DirE] != wantIdx {
			t.Errorf("row %d: east neighbour = %d, want %d", row, mine.Neighbours[core.DirE], wantIdx)
		}
		theirs := &l.Cells[wantIdx]
		if theirs.Neighbours[core.DirW] != left.Base+row*l.R+(l.R-1) {
			t.Errorf("row %d: reverse west neighbour not wired", row)
		}
	}
}

func TestGetLocalCellMaterialisesOnDemand(t *testing.T) {
	l := testLattice(4, 4, 1.0, 0.25)
	pos := r3.Vector{X: 2.1, Y: 2.6}
	cell := l.GetLocalCell(pos)
	if cell == nil {
		t.Fatal("GetLocalCell returned nil")
	}
	// Cell centres sit at integer metres, so (2.1,2.6) rounds to cell (2,3).
	if _, ok := l.Patches[l.Grid.Index(2, 3)]; !ok {
		t.Error("GetLocalCell should have materialised the owning GlobalCell's patch")
	}
}

func TestWorldPoseRoundTrip(t *testing.T) {
	l := testLattice(4, 4, 1.0, 0.25)
	pos := r3.Vector{X: 1.6, Y: 1.1}
	cell := l.GetLocalCell(pos)
	back := l.WorldPose(cell)

	// (1.6,1.1) rounds to cell (2,1), which spans [1.5,2.5] x [0.5,1.5].
	if back.X < 1.5 || back.X > 2.5 || back.Y < 0.5 || back.Y > 1.5 {
		t.Errorf("WorldPose(%v) = %v, should land back inside the same global cell", pos, back)
	}
}
