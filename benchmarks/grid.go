package benchmarks

import (
	"log/slog"
	"path"

	"github.com/spf13/cobra"
	"github.com/zeu5/reinforced/grid"
	"github.com/zeu5/reinforced/types"
)

func Grid(window int, doors ...grid.Door) setupFunc {
	return func(c *types.Comparison, config TrainingConfig, logger *slog.Logger) error {
		g := config.Grid
		build := func() *grid.GridEnvironment {
			env := grid.NewGridEnvironment(g.Height, g.Width, g.Grids, doors...)
			if g.EasyGoal {
				env.WithGoal(grid.InGrid(g.Grids - 1).Or(grid.InPosition(g.Height-1, g.Width-1, 0)))
			}
			return env
		}
		newEnv := func() (types.Environment, error) {
			return build(), nil
		}
		shape := build()

		c.AddAnalysis("visits", grid.GridAnalyzer(), grid.GridPlotComparator(path.Join(saveFile, "visits")))
		c.AddAnalysis("reward", types.EpisodeReward(), types.RewardPlotter(path.Join(saveFile, "reward"), window))
		c.AddAnalysis("coverage", types.PureCoverage(), types.PureCoveragePlotter(path.Join(saveFile, "coverage")))
		c.AddAnalysis("graph", types.StateGraph(), types.VisitGraphComparator(path.Join(saveFile, "graph")))

		if err := addQAgents(c, config, logger, shape.Features(), shape.Actions(), newEnv); err != nil {
			return err
		}
		return addBaselines(c, config, newEnv)
	}
}

func GridCommand() *cobra.Command {
	var window int
	var shortcut bool

	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Reach the far corner of the last grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			doors := make([]grid.Door, 0)
			if shortcut {
				config, err := LoadTrainingConfig(configFile)
				if err != nil {
					return err
				}
				g := config.Grid
				// from the middle of the first grid straight into the last one
				doors = append(doors, grid.Door{
					From: grid.Position{I: g.Height / 2, J: g.Width / 2, K: 0},
					To:   grid.Position{I: 0, J: 0, K: g.Grids - 1},
				})
			}
			return runBenchmark("grid", Grid(window, doors...))
		},
	}
	cmd.PersistentFlags().IntVar(&window, "window", 100, "Moving average window of the reward plot")
	cmd.PersistentFlags().BoolVar(&shortcut, "shortcut", false, "Add a door from the middle of the first grid to the last grid")
	return cmd
}
