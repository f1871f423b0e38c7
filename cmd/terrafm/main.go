// Command terrafm drives the two-scale path-planning engine from the
// command line: computing a global cost field, extracting a path,
// synthesising a test map, and rendering cost/risk overlays to PNG.
package main

import (
	"fmt"
	"os"

	"github.com/edaniels/golog"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	logger     golog.Logger
)

func main() {
	root := &cobra.Command{
		Use:   "terrafm",
		Short: "Two-scale Fast Marching path planner",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a JSON construction+map config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cobra.OnInitialize(func() {
		if verbose {
			logger = golog.NewDevelopmentLogger("cli")
		} else {
			logger = golog.NewProductionLogger("cli")
		}
	})

	root.AddCommand(newPlanCmd(), newGenMapCmd(), newBenchCmd(), newRenderCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
