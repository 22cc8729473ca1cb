package benchmarks

import (
	"github.com/spf13/cobra"
)

var (
	episodes int
	horizon  int
	saveFile string
	runs     int

	configFile  string
	parallel    bool
	traces      bool
	monitorAddr string
	redisAddr   string
	verbose     bool

	cpuprofile string
	memprofile string
)

func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           "reinforced",
		Short:         "Compare Q agents trained from replay buffers against exploration baselines",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCommand.PersistentFlags().IntVarP(&episodes, "episodes", "e", 10000, "Number of episodes to run")
	rootCommand.PersistentFlags().IntVar(&horizon, "horizon", 100, "Horizon of each episode")
	rootCommand.PersistentFlags().StringVarP(&saveFile, "save", "s", "results", "Save the result data in the specified folder")
	rootCommand.PersistentFlags().IntVar(&runs, "runs", 1, "Number of experiment runs")

	rootCommand.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML training config, defaults are used when empty")
	rootCommand.PersistentFlags().BoolVar(&parallel, "parallel", false, "Run the experiments of a run concurrently")
	rootCommand.PersistentFlags().BoolVar(&traces, "traces", false, "Record every episode trace")
	rootCommand.PersistentFlags().StringVar(&monitorAddr, "monitor", "", "Serve /metrics and /status on the address")
	rootCommand.PersistentFlags().StringVar(&redisAddr, "redis", "", "Push run summaries to the redis server instead of a file")
	rootCommand.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	rootCommand.PersistentFlags().StringVar(&cpuprofile, "cpuprofile", "", "Write a cpu profile to the file in the save folder")
	rootCommand.PersistentFlags().StringVar(&memprofile, "memprofile", "", "Write a heap profile to the file in the save folder")

	// adding the subcommands here
	rootCommand.AddCommand(TicTacToeCommand())
	rootCommand.AddCommand(GridCommand())
	rootCommand.AddCommand(ConfigCommand())
	return rootCommand
}
