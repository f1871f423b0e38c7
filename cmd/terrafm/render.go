package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/terrafm/internal/core"
	"github.com/elektrokombinacija/terrafm/internal/planner"
	"github.com/elektrokombinacija/terrafm/internal/visualize"
)

func newRenderCmd() *cobra.Command {
	var startX, startY, goalX, goalY float64
	var costOut, riskOut string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the global cost field and obstacle-ratio map to PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("render: --config is required")
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
			start := core.NewWaypoint(startX, startY, 0, 0)
			if _, err := p.ComputeGlobalField(context.Background(), start); err != nil {
				return err
			}

			if costOut != "" {
				if err := visualize.RenderCostMap(p, costOut); err != nil {
					return err
				}
				traj, _ := p.ExtractPath(start)
				if len(traj) > 0 {
					if err := visualize.OverlayTrajectory(costOut, traj, mc.GlobalCellSize, len(mc.Elevation)); err != nil {
						return err
					}
				}
			}
			if riskOut != "" {
				if err := visualize.RenderRiskMap(p.ObstacleRatioMap(), riskOut); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&startX, "start-x", 0, "start X, metres")
	cmd.Flags().Float64Var(&startY, "start-y", 0, "start Y, metres")
	cmd.Flags().Float64Var(&goalX, "goal-x", 0, "goal X, metres")
	cmd.Flags().Float64Var(&goalY, "goal-y", 0, "goal Y, metres")
	cmd.Flags().StringVar(&costOut, "cost-out", "cost.png", "cost-map PNG output path")
	cmd.Flags().StringVar(&riskOut, "risk-out", "", "obstacle-ratio PNG output path (empty to skip)")
	return cmd
}
