package algo

import (
	"math"

	"github.com/elektrokombinacija/terrafm/internal/core"
)

// CostModelConfig is the construction-time configuration consumed once by
// CostModel, per §6 of the specification.
type CostModelConfig struct {
	Terrains        core.TerrainTable
	Modes           core.ModeNames
	SlopeRangeDeg   []float64 // ordered, length >= 1
	CostTable       []float64 // flat, row-major over (terrain, mode, slopeBucket)
}

// CostModel implements C2: it maps (terrain, slope, heading) to a scalar
// cost per unit length, and derives the effective FM edge cost from a
// GlobalCell's nominal cost and obstacleRatio.
type CostModel struct {
	cfg CostModelConfig
}

// NewCostModel wraps a configuration. It does not validate it: a cost table
// shorter than |terrains|·|modes|·|slopeRange| panics on first lookup.
func NewCostModel(cfg CostModelConfig) *CostModel {
	return &CostModel{cfg: cfg}
}

func (m *CostModel) numModes() int  { return len(m.cfg.Modes) }
func (m *CostModel) numSlopes() int { return len(m.cfg.SlopeRangeDeg) }

// tableAt indexes the flat cost table at (terrain, mode, slopeBucket).
func (m *CostModel) tableAt(terrain core.TerrainClass, mode core.LocomotionMode, bucket int) float64 {
	idx := int(terrain)*m.numModes()*m.numSlopes() + int(mode)*m.numSlopes() + bucket
	return m.cfg.CostTable[idx]
}

// obstacleCost is costTable[0], the cost written into cells classified (or
// forced) as hard obstacle.
func (m *CostModel) obstacleCost() float64 {
	return m.tableAt(core.ObstacleTerrainClass, 0, 0)
}

// NominalCost computes the §4.1 "nominal cost" for one cell, given its
// terrain class and slope in radians. It also returns whether the cell
// should be forced to obstacleRatio = 1 (terrain 0, or slope out of range).
func (m *CostModel) NominalCost(terrain core.TerrainClass, slopeRad float64) (cost float64, forcedObstacle bool) {
	if terrain == core.ObstacleTerrainClass {
		return m.obstacleCost(), true
	}

	if m.numSlopes() == 1 {
		return m.minOverModes(terrain, 0), false
	}

	s := slopeRad * 180.0 / math.Pi
	lo, hi := m.cfg.SlopeRangeDeg[0], m.cfg.SlopeRangeDeg[m.numSlopes()-1]
	u := (s - lo) / (hi - lo) * float64(m.numSlopes()-1)

	if u > float64(m.numSlopes()-1) || u < 0 {
		return m.obstacleCost(), true
	}

	b0 := int(math.Floor(u))
	b1 := b0 + 1
	if b1 > m.numSlopes()-1 {
		b1 = b0
	}
	frac := u - float64(b0)

	best := math.Inf(1)
	for mode := 0; mode < m.numModes(); mode++ {
		c0 := m.tableAt(terrain, core.LocomotionMode(mode), b0)
		c1 := m.tableAt(terrain, core.LocomotionMode(mode), b1)
		blended := c0 + (c1-c0)*frac
		if blended < best {
			best = blended
		}
	}
	return best, false
}

func (m *CostModel) minOverModes(terrain core.TerrainClass, bucket int) float64 {
	best := math.Inf(1)
	for mode := 0; mode < m.numModes(); mode++ {
		c := m.tableAt(terrain, core.LocomotionMode(mode), bucket)
		if c < best {
			best = c
		}
	}
	return best
}

// SlopeAspect computes slope and aspect from elevation differences over the
// grid's cell size, per §4.1. elevW..elevN are the neighbours' elevations
// relative to the cell's own elevation: along an axis with both neighbours
// present this is the central difference, and at a map edge it is the
// one-sided difference between the present neighbour and the cell.
func SlopeAspect(elevW, elevE, elevS, elevN float64, haveW, haveE, haveS, haveN bool, cellSize float64) (slope, aspect float64) {
	var dx, dy float64
	switch {
	case haveW && haveE:
		dx = (elevE - elevW) / (2 * cellSize)
	case haveE:
		dx = (elevE) / cellSize
	case haveW:
		dx = -(elevW) / cellSize
	}
	switch {
	case haveS && haveN:
		dy = (elevN - elevS) / (2 * cellSize)
	case haveN:
		dy = (elevN) / cellSize
	case haveS:
		dy = -(elevS) / cellSize
	}

	slope = math.Atan(math.Hypot(dx, dy))
	if dx == 0 && dy == 0 {
		aspect = 0
	} else {
		aspect = math.Atan2(dy, dx)
	}
	return
}

// EffectiveCost is the "effective edge cost used by FM" from §4.1: it
// folds obstacleRatio and slope attenuation into a single per-cell Eikonal
// coefficient C.
func (m *CostModel) EffectiveCost(nominalCost, slope, obstacleRatio, cellSize float64) float64 {
	if obstacleRatio > 0.99 {
		return cellSize * m.obstacleCost()
	}
	bySlope := cellSize * nominalCost / math.Cos(slope) / (1 - obstacleRatio)
	capped := cellSize * m.obstacleCost()
	if bySlope < capped {
		return bySlope
	}
	return capped
}

// EquivalentSlope computes the slope-equivalent used for per-waypoint mode
// selection: s_eq = acos(sqrt(cos^2(omega)*cos^2(slope) + sin^2(omega))),
// where omega is the angle between the path heading and the cell aspect.
func EquivalentSlope(heading, aspect, slope float64) float64 {
	omega := heading - aspect
	cosW := math.Cos(omega)
	sinW := math.Sin(omega)
	v := cosW*cosW*math.Cos(slope)*math.Cos(slope) + sinW*sinW
	if v > 1 {
		v = 1
	}
	if v < 0 {
		v = 0
	}
	return math.Acos(math.Sqrt(v))
}

// SelectMode picks the locomotion mode minimising the slope-interpolated
// cost at the given equivalent slope (clamped to the configured slope
// range), per §4.1's "per-waypoint mode selection".
func (m *CostModel) SelectMode(terrain core.TerrainClass, equivSlopeRad float64) core.LocomotionMode {
	if m.numSlopes() == 1 {
		return m.bestMode(terrain, 0)
	}
	s := equivSlopeRad * 180.0 / math.Pi
	lo, hi := m.cfg.SlopeRangeDeg[0], m.cfg.SlopeRangeDeg[m.numSlopes()-1]
	u := (s - lo) / (hi - lo) * float64(m.numSlopes()-1)
	u = math.Max(0, math.Min(u, float64(m.numSlopes()-1)))
	b0 := int(math.Floor(u))
	b1 := clampInt(b0+1, 0, m.numSlopes()-1)
	frac := u - float64(b0)

	best := core.LocomotionMode(0)
	bestCost := math.Inf(1)
	for mode := 0; mode < m.numModes(); mode++ {
		c0 := m.tableAt(terrain, core.LocomotionMode(mode), b0)
		c1 := m.tableAt(terrain, core.LocomotionMode(mode), b1)
		if c := c0 + (c1-c0)*frac; c < bestCost {
			bestCost = c
			best = core.LocomotionMode(mode)
		}
	}
	return best
}

func (m *CostModel) bestMode(terrain core.TerrainClass, bucket int) core.LocomotionMode {
	best := core.LocomotionMode(0)
	bestCost := math.Inf(1)
	for mode := 0; mode < m.numModes(); mode++ {
		c := m.tableAt(terrain, core.LocomotionMode(mode), bucket)
		if c < bestCost {
			bestCost = c
			best = core.LocomotionMode(mode)
		}
	}
	return best
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SmoothCost raises self to max(self, mean over self and present
// neighbours), per §4.1's "smoothed cost" dilation rule.
func SmoothCost(self float64, neighbours []float64) float64 {
	sum := self
	count := 1
	for _, n := range neighbours {
		sum += n
		count++
	}
	mean := sum / float64(count)
	if mean > self {
		return mean
	}
	return self
}
