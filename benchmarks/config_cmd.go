package benchmarks

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ConfigCommand prints the effective training config, a starting point for --config
func ConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the training config as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := LoadTrainingConfig(configFile)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(config)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
