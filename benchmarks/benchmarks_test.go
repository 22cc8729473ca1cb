package benchmarks

import (
	"bytes"
	"context"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/reinforced/grid"
	"github.com/zeu5/reinforced/types"
	"github.com/zeu5/reinforced/util"
)

func smallConfig() TrainingConfig {
	config := DefaultTrainingConfig()
	config.Agent.Memory = 8
	config.Agent.TrainEvery = 2
	config.Agent.Lag = 2
	config.Trainer.BatchSize = 4
	config.Exploration.Steps = 10
	config.Grid = GridConfig{Height: 3, Width: 3, Grids: 2}
	return config
}

func newTestComparison(t *testing.T) (*types.Comparison, string) {
	dir := t.TempDir()
	saveFile = dir
	c, err := types.NewComparison(&types.ComparisonConfig{
		Runs:       1,
		Episodes:   4,
		Horizon:    6,
		RecordPath: dir,
	})
	require.NoError(t, err)
	return c, dir
}

func experimentNames(c *types.Comparison) []string {
	names := make([]string, len(c.Experiments))
	for i, e := range c.Experiments {
		names[i] = e.Name
	}
	return names
}

func TestTicTacToeComparison(t *testing.T) {
	c, dir := newTestComparison(t)
	require.NoError(t, TicTacToe(2)(c, smallConfig(), newLogger()))
	assert.Equal(t, []string{"q-linear", "q-tabular", "random", "softmax-neg", "softmax-negfreq", "bonus-greedy", "bonus-softmax"}, experimentNames(c))

	require.NoError(t, c.Run(context.Background()))
	_, err := os.Stat(path.Join(dir, "comparison_config.json"))
	assert.NoError(t, err)
	_, err = os.Stat(path.Join(dir, "graph", "0_q-linear_graph.json"))
	assert.NoError(t, err)
}

func TestGridComparison(t *testing.T) {
	c, dir := newTestComparison(t)
	config := smallConfig()
	config.Baselines = BaselinesConfig{Random: true}
	config.Agent.Models = []string{"linear"}
	door := grid.Door{From: grid.Position{I: 1, J: 1, K: 0}, To: grid.Position{I: 0, J: 0, K: 1}}
	require.NoError(t, Grid(2, door)(c, config, newLogger()))
	assert.Equal(t, []string{"q-linear", "random"}, experimentNames(c))

	require.NoError(t, c.Run(context.Background()))
	_, err := os.Stat(path.Join(dir, "visits", "0_random_visits.json"))
	assert.NoError(t, err)
}

func TestNewRecorderDefaultsToFile(t *testing.T) {
	saveFile = t.TempDir()
	redisAddr = ""
	recorder, err := newRecorder(context.Background(), "test")
	require.NoError(t, err)
	defer recorder.Close()
	assert.IsType(t, &util.FileRecorder{}, recorder)
}

func TestConfigCommand(t *testing.T) {
	configFile = ""
	cmd := ConfigCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "target_rule: bellman")
}

func TestRootCommandHasBenchmarks(t *testing.T) {
	root := GetRootCommand()
	for _, name := range []string{"tictactoe", "grid", "config"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}
