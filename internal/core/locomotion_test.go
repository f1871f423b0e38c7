package core

import "testing"

func TestTerrainTableOptimalMode(t *testing.T) {
	table := TerrainTable{
		{Name: "obstacle", OptimalLocomotionMode: 0},
		{Name: "sand", OptimalLocomotionMode: 1},
		{Name: "rock", OptimalLocomotionMode: 2},
	}

	tests := []struct {
		class TerrainClass
		want  LocomotionMode
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{99, 0}, // out of range falls back to mode 0
	}

	for _, tt := range tests {
		if got := table.OptimalMode(tt.class); got != tt.want {
			t.Errorf("OptimalMode(%d) = %v, want %v", tt.class, got, tt.want)
		}
	}
}

func TestModeNamesString(t *testing.T) {
	names := ModeNames{"drive", "wheel-walk"}
	if got := names.String(1); got != "wheel-walk" {
		t.Errorf("String(1) = %q, want %q", got, "wheel-walk")
	}
	if got := names.String(5); got != "unknown" {
		t.Errorf("String(5) = %q, want %q", got, "unknown")
	}
}
