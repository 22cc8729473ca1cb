package benchmarks

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/zeu5/reinforced/models"
	"github.com/zeu5/reinforced/policies"
	"github.com/zeu5/reinforced/tictactoe"
	"github.com/zeu5/reinforced/types"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid training config")

// TrainingConfig holds the hyper parameters of the Q agents and the
// environments the benchmarks run against. Loaded from YAML with --config.
type TrainingConfig struct {
	Agent       AgentConfig       `yaml:"agent"`
	Trainer     TrainerConfig     `yaml:"trainer"`
	Exploration ExplorationConfig `yaml:"exploration"`
	Baselines   BaselinesConfig   `yaml:"baselines"`

	TicTacToe tictactoe.Config `yaml:"tictactoe"`
	Grid      GridConfig       `yaml:"grid"`
}

type AgentConfig struct {
	// replay buffer capacity
	Memory     int `yaml:"memory"`
	TrainEvery int `yaml:"train_every"`
	Lag        int `yaml:"lag"`

	Discount float32 `yaml:"discount"`
	// bellman or soft_bellman
	TargetRule string `yaml:"target_rule"`
	// greedy or softmax
	Selection   string  `yaml:"selection"`
	Temperature float64 `yaml:"temperature"`

	InvalidReward float32 `yaml:"invalid_reward"`

	// linear, tabular or both
	Models       []string `yaml:"models"`
	LearningRate float64  `yaml:"learning_rate"`
	TabularAlpha float32  `yaml:"tabular_alpha"`

	Seed uint64 `yaml:"seed"`
}

type TrainerConfig struct {
	BatchSize int `yaml:"batch_size"`
	Epochs    int `yaml:"epochs"`
}

type ExplorationConfig struct {
	// static, linear or exponential
	Schedule string  `yaml:"schedule"`
	Start    float32 `yaml:"start"`
	End      float32 `yaml:"end"`
	Steps    int     `yaml:"steps"`
	Rate     float64 `yaml:"rate"`
}

// BaselinesConfig toggles the policies the Q agents are compared against
type BaselinesConfig struct {
	Random     bool `yaml:"random"`
	SoftMaxNeg bool `yaml:"softmax_neg"`
	Bonus      bool `yaml:"bonus"`
}

type GridConfig struct {
	Height int `yaml:"height"`
	Width  int `yaml:"width"`
	Grids  int `yaml:"grids"`
	// end episodes on entering the last grid or the far corner of the first
	// one, instead of the far corner of the last grid
	EasyGoal bool `yaml:"easy_goal"`
}

func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		Agent: AgentConfig{
			Memory:       10000,
			TrainEvery:   4,
			Lag:          10,
			Discount:     0.95,
			TargetRule:   "bellman",
			Selection:    "greedy",
			Temperature:  1,
			Models:       []string{"linear", "tabular"},
			LearningRate: 0.01,
			TabularAlpha: 0.5,
			Seed:         1,
		},
		Trainer: TrainerConfig{
			BatchSize: 32,
			Epochs:    1,
		},
		Exploration: ExplorationConfig{
			Schedule: "linear",
			Start:    1,
			End:      0.05,
			Steps:    5000,
		},
		Baselines: BaselinesConfig{
			Random:     true,
			SoftMaxNeg: true,
			Bonus:      true,
		},
		TicTacToe: tictactoe.DefaultConfig(),
		Grid: GridConfig{
			Height: 10,
			Width:  10,
			Grids:  3,
		},
	}
}

// LoadTrainingConfig reads the YAML file at path over the defaults. An empty
// path returns the defaults.
func LoadTrainingConfig(path string) (TrainingConfig, error) {
	config := DefaultTrainingConfig()
	if path == "" {
		return config, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("parse config %s: %w", path, err)
	}
	return config, config.Validate()
}

func (c TrainingConfig) Validate() error {
	if c.Agent.Memory < 1 {
		return fmt.Errorf("%w: memory must be >= 1", ErrInvalidConfig)
	}
	if c.Agent.TrainEvery < 1 {
		return fmt.Errorf("%w: train_every must be >= 1", ErrInvalidConfig)
	}
	if c.Agent.Lag < 1 {
		return fmt.Errorf("%w: lag must be >= 1", ErrInvalidConfig)
	}
	if c.Agent.Discount < 0 || c.Agent.Discount > 1 {
		return fmt.Errorf("%w: discount must be in [0, 1]", ErrInvalidConfig)
	}
	if _, err := c.targetRule(); err != nil {
		return err
	}
	if _, err := policies.ParseSelection(c.Agent.Selection); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	for _, m := range c.Agent.Models {
		if m != "linear" && m != "tabular" {
			return fmt.Errorf("%w: unknown model %q", ErrInvalidConfig, m)
		}
	}
	if c.Trainer.BatchSize < 1 || c.Trainer.Epochs < 1 {
		return fmt.Errorf("%w: batch_size and epochs must be >= 1", ErrInvalidConfig)
	}
	if _, err := c.schedule(); err != nil {
		return err
	}
	if err := c.TicTacToe.Validate(); err != nil {
		return fmt.Errorf("%w: tictactoe: %v", ErrInvalidConfig, err)
	}
	if c.Grid.Height < 1 || c.Grid.Width < 1 || c.Grid.Grids < 1 {
		return fmt.Errorf("%w: grid dimensions must be >= 1", ErrInvalidConfig)
	}
	return nil
}

func (c TrainingConfig) targetRule() (types.TargetRule, error) {
	switch strings.ToLower(c.Agent.TargetRule) {
	case "", "bellman":
		return policies.NewBellman(c.Agent.Discount), nil
	case "soft_bellman":
		return policies.NewSoftBellman(c.Agent.Discount), nil
	default:
		return nil, fmt.Errorf("%w: unknown target rule %q", ErrInvalidConfig, c.Agent.TargetRule)
	}
}

func (c TrainingConfig) schedule() (types.ExplorationSchedule, error) {
	e := c.Exploration
	switch strings.ToLower(e.Schedule) {
	case "static":
		return policies.NewStatic(e.Start), nil
	case "", "linear":
		return policies.LinearDecay{Start: e.Start, End: e.End, Steps: e.Steps}, nil
	case "exponential":
		return policies.ExponentialDecay{Start: e.Start, End: e.End, Rate: e.Rate}, nil
	default:
		return nil, fmt.Errorf("%w: unknown exploration schedule %q", ErrInvalidConfig, e.Schedule)
	}
}

// model builds a fresh model of the given kind for an environment with the
// given feature and action counts
func (c TrainingConfig) model(kind string, features, actions int) types.Model {
	if kind == "tabular" {
		return models.NewTabularModel(actions, c.Agent.TabularAlpha, 0)
	}
	return models.NewLinearModel(features, actions, c.Agent.LearningRate, c.Agent.Seed)
}

// NewQAgent builds a Q agent of the given model kind. The config must be valid.
func (c TrainingConfig) NewQAgent(kind string, features, actions int, logger *slog.Logger) (*policies.QAgent, error) {
	rule, err := c.targetRule()
	if err != nil {
		return nil, err
	}
	schedule, err := c.schedule()
	if err != nil {
		return nil, err
	}
	selection, err := policies.ParseSelection(c.Agent.Selection)
	if err != nil {
		return nil, err
	}
	return policies.NewQAgent(policies.QAgentConfig{
		Model:         c.model(kind, features, actions),
		Memory:        c.Agent.Memory,
		TrainEvery:    c.Agent.TrainEvery,
		Lag:           c.Agent.Lag,
		Trainer:       policies.NewQTrainer(c.Trainer.BatchSize, c.Trainer.Epochs, c.Agent.Seed, logger),
		Exploration:   schedule,
		TargetRule:    rule,
		Selection:     selection,
		Temperature:   c.Agent.Temperature,
		InvalidReward: c.Agent.InvalidReward,
		Seed:          c.Agent.Seed,
		Logger:        logger,
	})
}
