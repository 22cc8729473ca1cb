package benchmarks

import (
	"log/slog"
	"path"

	"github.com/spf13/cobra"
	"github.com/zeu5/reinforced/tictactoe"
	"github.com/zeu5/reinforced/types"
)

func TicTacToe(window int) setupFunc {
	return func(c *types.Comparison, config TrainingConfig, logger *slog.Logger) error {
		newEnv := func() (types.Environment, error) {
			return tictactoe.NewEnv(config.TicTacToe)
		}
		shape, err := tictactoe.NewEnv(config.TicTacToe)
		if err != nil {
			return err
		}

		c.AddAnalysis("reward", types.EpisodeReward(), types.RewardPlotter(path.Join(saveFile, "reward"), window))
		c.AddAnalysis("coverage", types.PureCoverage(), types.PureCoveragePlotter(path.Join(saveFile, "coverage")))
		c.AddAnalysis("graph", types.StateGraph(), types.VisitGraphComparator(path.Join(saveFile, "graph")))

		if err := addQAgents(c, config, logger, shape.Features(), shape.Actions(), newEnv); err != nil {
			return err
		}
		return addBaselines(c, config, newEnv)
	}
}

func TicTacToeCommand() *cobra.Command {
	var window int
	cmd := &cobra.Command{
		Use:   "tictactoe",
		Short: "Play a random opponent on a configurable board",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark("tictactoe", TicTacToe(window))
		},
	}
	cmd.PersistentFlags().IntVar(&window, "window", 100, "Moving average window of the reward plot")
	return cmd
}
