// Package config decodes the loosely-typed attribute maps a host passes in
// (parsed from JSON/YAML upstream) into the planner's construction and
// per-map configuration structs.
package config

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/elektrokombinacija/terrafm/internal/core"
	"github.com/elektrokombinacija/terrafm/internal/planner"
)

// TerrainAttrs is the wire shape of one terrainTable entry.
type TerrainAttrs struct {
	Name                  string `mapstructure:"name"`
	OptimalLocomotionMode int    `mapstructure:"optimal_locomotion_mode"`
}

// ConstructionAttrs is the wire shape of the construction config described
// in §6: decoded once from a map[string]interface{}.
type ConstructionAttrs struct {
	TerrainTable    []TerrainAttrs `mapstructure:"terrain_table"`
	LocomotionModes []string       `mapstructure:"locomotion_modes"`
	SlopeRangeDeg   []float64      `mapstructure:"slope_range_deg"`
	CostTable       []float64      `mapstructure:"cost_table"`
	RiskDistance    float64        `mapstructure:"risk_distance"`
}

// MapAttrs is the wire shape of the per-map config described in §6.
type MapAttrs struct {
	GlobalCellSize float64     `mapstructure:"global_cell_size"`
	LocalCellSize  float64     `mapstructure:"local_cell_size"`
	OriginX        float64     `mapstructure:"origin_x"`
	OriginY        float64     `mapstructure:"origin_y"`
	Elevation      [][]float64 `mapstructure:"elevation"`
	Terrain        [][]int     `mapstructure:"terrain"`
}

func decode(raw map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "config: building decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return errors.Wrap(err, "config: decoding attributes")
	}
	return nil
}

// DecodeConstruction decodes raw into a planner.ConstructionConfig.
func DecodeConstruction(raw map[string]interface{}) (planner.ConstructionConfig, error) {
	var attrs ConstructionAttrs
	if err := decode(raw, &attrs); err != nil {
		return planner.ConstructionConfig{}, err
	}

	terrains := make(core.TerrainTable, len(attrs.TerrainTable))
	for i, t := range attrs.TerrainTable {
		terrains[i] = core.TerrainDescriptor{
			Name:                  t.Name,
			OptimalLocomotionMode: core.LocomotionMode(t.OptimalLocomotionMode),
		}
	}

	return planner.ConstructionConfig{
		Terrains:      terrains,
		Modes:         core.ModeNames(attrs.LocomotionModes),
		SlopeRangeDeg: attrs.SlopeRangeDeg,
		CostTable:     attrs.CostTable,
		RiskDistance:  attrs.RiskDistance,
	}, nil
}

// DecodeMap decodes raw into a planner.MapConfig.
func DecodeMap(raw map[string]interface{}) (planner.MapConfig, error) {
	var attrs MapAttrs
	if err := decode(raw, &attrs); err != nil {
		return planner.MapConfig{}, err
	}

	if len(attrs.Elevation) == 0 {
		return planner.MapConfig{}, errors.New("config: elevation matrix is empty")
	}
	terrain := make([][]core.TerrainClass, len(attrs.Terrain))
	for j, row := range attrs.Terrain {
		terrain[j] = make([]core.TerrainClass, len(row))
		for i, v := range row {
			terrain[j][i] = core.TerrainClass(v)
		}
	}

	return planner.MapConfig{
		GlobalCellSize: attrs.GlobalCellSize,
		LocalCellSize:  attrs.LocalCellSize,
		Origin:         r3.Vector{X: attrs.OriginX, Y: attrs.OriginY},
		Elevation:      attrs.Elevation,
		Terrain:        terrain,
	}, nil
}
