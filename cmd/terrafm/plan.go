package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/terrafm/internal/core"
	"github.com/elektrokombinacija/terrafm/internal/planner"
)

func newPlanCmd() *cobra.Command {
	var startX, startY, goalX, goalY float64

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute a global field and extract a path from start to goal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("plan: --config is required")
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

			ctx := context.Background()
			start := core.NewWaypoint(startX, startY, 0, 0)
			if _, err := p.ComputeGlobalField(ctx, start); err != nil {
				return err
			}

			traj, err := p.ExtractPath(start)
			if err != nil && traj == nil {
				return err
			}

			out, encErr := json.MarshalIndent(traj, "", "  ")
			if encErr != nil {
				return encErr
			}
			fmt.Println(string(out))
			return err
		},
	}

	cmd.Flags().Float64Var(&startX, "start-x", 0, "start X, metres")
	cmd.Flags().Float64Var(&startY, "start-y", 0, "start Y, metres")
	cmd.Flags().Float64Var(&goalX, "goal-x", 0, "goal X, metres")
	cmd.Flags().Float64Var(&goalY, "goal-y", 0, "goal Y, metres")
	return cmd
}
