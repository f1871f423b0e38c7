package algo

import "testing"

func TestNarrowBandPopsMinimum(t *testing.T) {
	keys := map[int]float64{0: 3, 1: 1, 2: 2}
	alive := map[int]bool{0: true, 1: true, 2: true}
	band := NewNarrowBand(func(idx int) (float64, bool) { return keys[idx], alive[idx] })

	for idx, k := range keys {
		band.Push(idx, k)
	}

	var order []int
	for !band.Empty() {
		idx, ok := band.PopMin()
		if !ok {
			t.Fatal("PopMin reported empty but Empty() said otherwise")
		}
		order = append(order, idx)
	}

	want := []int{1, 2, 0}
	if len(order) != len(want) {
		t.Fatalf("pop order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("pop order = %v, want %v", order, want)
			break
		}
	}
}

func TestNarrowBandDiscardsStaleEntries(t *testing.T) {
	key := 5.0
	alive := true
	band := NewNarrowBand(func(idx int) (float64, bool) { return key, alive })

	band.Push(0, 5.0)
	key = 1.0
	band.Push(0, 1.0) // the live update; the stale 5.0 entry must be skipped

	idx, ok := band.PopMin()
	if !ok || idx != 0 {
		t.Fatalf("PopMin() = (%d,%v), want (0,true)", idx, ok)
	}
	if !band.Empty() {
		t.Error("band should be empty after draining the only live entry")
	}
}

func TestNarrowBandDropsDeadCells(t *testing.T) {
	alive := false
	band := NewNarrowBand(func(idx int) (float64, bool) { return 0, alive })
	band.Push(0, 0)
	if !band.Empty() {
		t.Error("band with only a dead cell should report Empty")
	}
}

func TestMaxBandPopsMaximum(t *testing.T) {
	keys := map[int]float64{0: 0.2, 1: 0.9, 2: 0.5}
	band := NewMaxBand(func(idx int) (float64, bool) { return keys[idx], true })
	for idx, k := range keys {
		band.Push(idx, k)
	}

	idx, ok := band.PopMax()
	if !ok || idx != 1 {
		t.Fatalf("PopMax() = (%d,%v), want (1,true)", idx, ok)
	}
}

func TestLinearBandMatchesNarrowBandOrder(t *testing.T) {
	keys := map[int]float64{0: 3, 1: 1, 2: 2}
	alive := map[int]bool{0: true, 1: true, 2: true}
	band := NewLinearBand(func(idx int) (float64, bool) { return keys[idx], alive[idx] })
	for idx, k := range keys {
		band.Push(idx, k)
	}

	var order []int
	for !band.Empty() {
		idx, ok := band.PopMin()
		if !ok {
			t.Fatal("PopMin reported empty but Empty() said otherwise")
		}
		order = append(order, idx)
	}

	want := []int{1, 2, 0}
	for i := range want {
		if i >= len(order) || order[i] != want[i] {
			t.Errorf("pop order = %v, want %v", order, want)
			break
		}
	}
}
