// Package algo implements the Fast Marching solvers, the local refinement
// lattice, the obstacle and risk engine, and the path extractor/repairer
// that together form the planning core.
package algo

import "container/heap"

// bandEntry is one narrow-band membership record: the flat index of the
// cell it refers to and the key value it was pushed with. A cell's true
// current key lives on the cell itself (GlobalCell.TotalCost or
// LocalCell.TotalCost/Risk); this cached copy lets poppers detect and
// discard stale entries cheaply instead of hunting through the heap for a
// decrease-key update.
type bandEntry struct {
	index int
	key   float64
	seq   int // insertion order, for stable tie-breaking only
}

// bandHeap is a container/heap.Interface min-heap over bandEntry.key. It
// implements the narrow band the Design Notes recommend: push on every
// update, and let poppers skip entries whose cached key no longer matches
// the cell's live value (lazy deletion instead of decrease-key).
type bandHeap []bandEntry

func (h bandHeap) Len() int { return len(h) }
func (h bandHeap) Less(i, j int) bool {
	if h[i].key != h[j].key {
		return h[i].key < h[j].key
	}
	return h[i].seq < h[j].seq
}
func (h bandHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *bandHeap) Push(x any) {
	*h = append(*h, x.(bandEntry))
}

func (h *bandHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// NarrowBand is a min-priority queue over flat cell indices, keyed by a
// caller-supplied current cost. It tolerates stale entries left behind by
// cost decreases: Pop always returns the live minimum, silently discarding
// entries whose cached key has drifted from currentKey's live answer.
type NarrowBand struct {
	h         bandHeap
	seq       int
	currentKey func(index int) (key float64, alive bool)
}

// NewNarrowBand creates an empty band. currentKey must return the cell's
// live key and true if the cell is still a legitimate band member (still
// OPEN); it returns false once the cell has been closed, which lets Pop
// discard entries for cells closed through some other path.
func NewNarrowBand(currentKey func(index int) (float64, bool)) *NarrowBand {
	return &NarrowBand{currentKey: currentKey}
}

// Push inserts or re-inserts index with key. Re-inserting an index already
// present is fine and expected: it is how "decrease key" is realised.
func (b *NarrowBand) Push(index int, key float64) {
	b.seq++
	heap.Push(&b.h, bandEntry{index: index, key: key, seq: b.seq})
}

// Empty reports whether the band has no more live entries. It must drain
// stale entries to answer correctly, so it is not a cheap O(1) check.
func (b *NarrowBand) Empty() bool {
	b.dropStale()
	return b.h.Len() == 0
}

// PopMin removes and returns the index with the smallest live key. The
// second return is false if the band was empty.
func (b *NarrowBand) PopMin() (int, bool) {
	b.dropStale()
	if b.h.Len() == 0 {
		return 0, false
	}
	e := heap.Pop(&b.h).(bandEntry)
	return e.index, true
}

func (b *NarrowBand) dropStale() {
	for b.h.Len() > 0 {
		top := b.h[0]
		key, alive := b.currentKey(top.index)
		if alive && key == top.key {
			return
		}
		heap.Pop(&b.h)
	}
}

// LinearBand is a linear-scan narrow band: O(N) per pop, O(1) per push. It
// exists for small fixtures and for cross-checking NarrowBand in tests, per
// the Design Notes' "linear scan is acceptable for small maps".
type LinearBand struct {
	members    map[int]struct{}
	currentKey func(index int) (float64, bool)
}

// NewLinearBand creates an empty linear band with the same currentKey
// contract as NewNarrowBand.
func NewLinearBand(currentKey func(index int) (float64, bool)) *LinearBand {
	return &LinearBand{members: make(map[int]struct{}), currentKey: currentKey}
}

func (b *LinearBand) Push(index int, _ float64) {
	b.members[index] = struct{}{}
}

func (b *LinearBand) Empty() bool {
	b.dropDead()
	return len(b.members) == 0
}

func (b *LinearBand) PopMin() (int, bool) {
	b.dropDead()
	best := -1
	bestKey := 0.0
	for idx := range b.members {
		key, alive := b.currentKey(idx)
		if !alive {
			continue
		}
		if best == -1 || key < bestKey {
			best = idx
			bestKey = key
		}
	}
	if best == -1 {
		return 0, false
	}
	delete(b.members, best)
	return best, true
}

func (b *LinearBand) dropDead() {
	for idx := range b.members {
		if _, alive := b.currentKey(idx); !alive {
			delete(b.members, idx)
		}
	}
}

// maxBandEntry orders by descending key; used by the risk engine's
// "pop item with maximum current risk" expansion queue (§4.4).
type maxBandEntry = bandEntry

type maxBandHeap []maxBandEntry

func (h maxBandHeap) Len() int { return len(h) }
func (h maxBandHeap) Less(i, j int) bool {
	if h[i].key != h[j].key {
		return h[i].key > h[j].key
	}
	return h[i].seq < h[j].seq
}
func (h maxBandHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *maxBandHeap) Push(x any)   { *h = append(*h, x.(maxBandEntry)) }
func (h *maxBandHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// MaxBand is a max-priority queue keyed by current risk, used by the risk
// engine so "pop the item with maximum current risk" (§4.4) is a true
// argmax rather than a first-improving linear scan.
type MaxBand struct {
	h         maxBandHeap
	seq       int
	currentKey func(index int) (float64, bool)
}

// NewMaxBand creates an empty max-band with the same currentKey contract
// as NewNarrowBand (alive reporting false once a cell is permanently done).
func NewMaxBand(currentKey func(index int) (float64, bool)) *MaxBand {
	return &MaxBand{currentKey: currentKey}
}

func (b *MaxBand) Push(index int, key float64) {
	b.seq++
	heap.Push(&b.h, maxBandEntry{index: index, key: key, seq: b.seq})
}

func (b *MaxBand) Empty() bool {
	b.dropStale()
	return b.h.Len() == 0
}

func (b *MaxBand) PopMax() (int, bool) {
	b.dropStale()
	if b.h.Len() == 0 {
		return 0, false
	}
	e := heap.Pop(&b.h).(maxBandEntry)
	return e.index, true
}

func (b *MaxBand) dropStale() {
	for b.h.Len() > 0 {
		top := b.h[0]
		key, alive := b.currentKey(top.index)
		if alive && key == top.key {
			return
		}
		heap.Pop(&b.h)
	}
}
