package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/elektrokombinacija/terrafm/internal/config"
	"github.com/elektrokombinacija/terrafm/internal/planner"
)

// fileConfig is the on-disk JSON shape: construction attrs and map attrs
// side by side, since the CLI always needs both to build a Planner.
type fileConfig struct {
	Construction map[string]interface{} `json:"construction"`
	Map          map[string]interface{} `json:"map"`
}

func loadPlannerConfig(path string) (planner.ConstructionConfig, planner.MapConfig, error) {
	var cc planner.ConstructionConfig
	var mc planner.MapConfig

	raw, err := os.ReadFile(path)
	if err != nil {
		return cc, mc, errors.Wrap(err, "reading config file")
	}
	var fc fileConfig
	if err := json.Unmarshal(raw, &fc); err != nil {
		return cc, mc, errors.Wrap(err, "parsing config file")
	}

	cc, err = config.DecodeConstruction(fc.Construction)
	if err != nil {
		return cc, mc, err
	}
	mc, err = config.DecodeMap(fc.Map)
	if err != nil {
		return cc, mc, err
	}
	return cc, mc, nil
}
