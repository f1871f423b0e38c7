package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/terrafm/internal/algo"
)

func newGenMapCmd() *cobra.Command {
	var width, height int
	var cellSize, localCellSize float64
	var noiseMean, noiseStd float64
	var seed int64
	var out string

	cmd := &cobra.Command{
		Use:   "genmap",
		Short: "Synthesise a flat terrain map with log-normal elevation noise",
		RunE: func(cmd *cobra.Command, args []string) error {
			rng := rand.New(rand.NewSource(seed))
			noise := algo.NewLogNormalFromMeanStd(noiseMean, noiseStd)

			elevation := make([][]float64, height)
			terrain := make([][]int, height)
			for j := 0; j < height; j++ {
				elevation[j] = make([]float64, width)
				terrain[j] = make([]int, width)
				for i := 0; i < width; i++ {
					elevation[j][i] = noise.Sample(rng) - noise.Mean()
					terrain[j][i] = 1
				}
			}

			fc := fileConfig{
				Construction: map[string]interface{}{
					"terrain_table": []map[string]interface{}{
						{"name": "obstacle", "optimal_locomotion_mode": 0},
						{"name": "nominal", "optimal_locomotion_mode": 0},
					},
					"locomotion_modes": []string{"drive"},
					"slope_range_deg":  []float64{0, 15, 30, 45},
					"cost_table":       []float64{1e9, 1e9, 1e9, 1e9, 1.0, 1.4, 2.2, 1e9},
					"risk_distance":    0.5,
				},
				Map: map[string]interface{}{
					"global_cell_size": cellSize,
					"local_cell_size":  localCellSize,
					"origin_x":         0,
					"origin_y":         0,
					"elevation":        elevation,
					"terrain":          terrain,
				},
			}

			raw, err := json.MarshalIndent(fc, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, raw, 0o644); err != nil {
				return err
			}

			roughThreshold := 2 * noise.Mean()
			roughFraction := 1 - noise.CDF(roughThreshold)
			fmt.Printf("wrote %s: %dx%d cells, %.1f%% of noise samples exceed %.3fm\n",
				out, width, height, roughFraction*100, roughThreshold)
			return nil
		},
	}

	cmd.Flags().IntVar(&width, "width", 32, "grid width, cells")
	cmd.Flags().IntVar(&height, "height", 32, "grid height, cells")
	cmd.Flags().Float64Var(&cellSize, "cell-size", 1.0, "global cell size, metres")
	cmd.Flags().Float64Var(&localCellSize, "local-cell-size", 0.2, "local cell size, metres")
	cmd.Flags().Float64Var(&noiseMean, "noise-mean", 0.05, "mean of the elevation noise magnitude, metres")
	cmd.Flags().Float64Var(&noiseStd, "noise-std", 0.02, "std dev of the elevation noise magnitude, metres")
	cmd.Flags().Int64Var(&seed, "seed", 1, "PRNG seed")
	cmd.Flags().StringVar(&out, "out", "map.json", "output config file path")
	return cmd
}
