package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/terrafm/internal/algo"
	"github.com/elektrokombinacija/terrafm/internal/core"
	"github.com/elektrokombinacija/terrafm/internal/planner"
)

func newBenchCmd() *cobra.Command {
	var iterations int
	var goalX, goalY float64
	var seed int64
	var fleetSize int

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Repeatedly recompute the global field and extract a path, reporting fitted timing distributions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("bench: --config is required")
			}
			cc, mc, err := loadPlannerConfig(configPath)
			if err != nil {
				return err
			}

			p := planner.New(logger)
			if err := p.InitGlobalMap(cc, mc); err != nil {
				return err
			}
			goal := core.NewWaypoint(goalX, goalY, 0, 0)
			if err := p.SetGoal(goal); err != nil {
				return err
			}

			rng := rand.New(rand.NewSource(seed))
			w := float64(len(mc.Elevation[0])) * mc.GlobalCellSize
			h := float64(len(mc.Elevation)) * mc.GlobalCellSize

			computeDurations := make([]float64, 0, iterations)
			extractDurations := make([]float64, 0, iterations)
			ctx := context.Background()
			for n := 0; n < iterations; n++ {
				start := core.NewWaypoint(rng.Float64()*w, rng.Float64()*h, 0, 0)

				t0 := time.Now()
				if _, err := p.ComputeGlobalField(ctx, start); err != nil {
					return err
				}
				computeDurations = append(computeDurations, time.Since(t0).Seconds())

				t1 := time.Now()
				if _, err := p.ExtractPath(start); err != nil {
					// A diverged or unreachable extraction still counts as a
					// timed sample for the purpose of this benchmark.
					extractDurations = append(extractDurations, time.Since(t1).Seconds())
					continue
				}
				extractDurations = append(extractDurations, time.Since(t1).Seconds())
			}

			computeMean, computeStd := meanStd(computeDurations)
			extractMean, extractStd := meanStd(extractDurations)
			computeFit := algo.NewLogNormalFromMeanStd(computeMean, computeStd)
			extractFit := algo.NewLogNormalFromMeanStd(extractMean, extractStd)

			// Total per-cycle latency: compute + extract, each already
			// log-normal-fitted, combined via Fenton-Wilkinson.
			total := algo.ConvolveDurations(computeFit, extractFit)
			totalMs := algo.ScaleLogNormal(total, 1000)

			// Worst-case among fleetSize robots running this cycle
			// concurrently, approximated as the max of fleetSize iid draws.
			fleet := make([]algo.LogNormalDist, fleetSize)
			for i := range fleet {
				fleet[i] = total
			}
			worst := algo.MaxApproximation(fleet)

			fmt.Printf("iterations=%d compute: mean=%.4fs std=%.4fs fitted_std=%.4fs p95=%.4fs\n",
				iterations, computeMean, computeStd, computeFit.Std(), computeFit.Quantile(0.95))
			fmt.Printf("extract: mean=%.4fs std=%.4fs p95=%.4fs\n",
				extractMean, extractStd, extractFit.Quantile(0.95))
			fmt.Printf("total cycle: median=%.4fs (%.2fms) p95=%.4fs fleet(%d) worst_median=%.4fs\n",
				total.Median(), totalMs.Median(), total.Quantile(0.95), fleetSize, worst.Median())
			return nil
		},
	}

	cmd.Flags().IntVar(&iterations, "iterations", 10, "number of repeated global-field computations")
	cmd.Flags().Float64Var(&goalX, "goal-x", 0, "goal X, metres")
	cmd.Flags().Float64Var(&goalY, "goal-y", 0, "goal Y, metres")
	cmd.Flags().Int64Var(&seed, "seed", 1, "PRNG seed for random start poses")
	cmd.Flags().IntVar(&fleetSize, "fleet-size", 1, "number of concurrent robots to approximate worst-case latency for")
	return cmd
}

func meanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean = sum / float64(len(xs))

	var variance float64
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= float64(len(xs))
	std = math.Sqrt(variance)
	return
}
