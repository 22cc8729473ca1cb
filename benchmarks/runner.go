package benchmarks

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/zeu5/reinforced/policies"
	"github.com/zeu5/reinforced/types"
	"github.com/zeu5/reinforced/util"
)

// setupFunc adds the analyses and experiments of a benchmark to the comparison
type setupFunc func(c *types.Comparison, config TrainingConfig, logger *slog.Logger) error

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newRecorder(ctx context.Context, command string) (util.Recorder, error) {
	if redisAddr != "" {
		return util.NewRedisRecorder(ctx, redisAddr, "reinforced:"+command)
	}
	return util.NewFileRecorder(path.Join(saveFile, "summaries.jsonl"))
}

// runBenchmark loads the training config, prepares the comparison with setup
// and runs it until it completes or the process is interrupted
func runBenchmark(command string, setup setupFunc) error {
	config, err := LoadTrainingConfig(configFile)
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}
	logger := newLogger().With("benchmark", command)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cConfig := &types.ComparisonConfig{
		Runs:                   runs,
		Episodes:               episodes,
		Horizon:                horizon,
		RecordPath:             saveFile,
		RecordTraces:           traces,
		Parallel:               parallel,
		ConsecutiveErrorsAbort: 20,
		Logger:                 logger,
	}
	c, err := types.NewComparison(cConfig)
	if err != nil {
		return err
	}
	// after NewComparison the folder is not wiped anymore
	recorder, err := newRecorder(ctx, command)
	if err != nil {
		return fmt.Errorf("creating recorder: %w", err)
	}
	defer recorder.Close()
	cConfig.Recorder = recorder

	if err := setup(c, config, logger); err != nil {
		return err
	}

	if monitorAddr != "" {
		names := make([]string, len(c.Experiments))
		for i, e := range c.Experiments {
			names[i] = e.Name
		}
		m := NewMonitor(monitorAddr, logger)
		m.SetStatus(Status{
			Command:     command,
			Experiments: names,
			Runs:        runs,
			Episodes:    episodes,
			Horizon:     horizon,
			Config:      config,
		})
		m.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			m.Shutdown(shutdownCtx)
		}()
	}

	stopProfiling, err := startProfiling()
	if err != nil {
		return err
	}
	defer stopProfiling()

	start := time.Now()
	err = c.Run(ctx)
	logger.Info("comparison finished", "duration", time.Since(start).Round(time.Millisecond), "err", err)
	return err
}

// addBaselines adds the enabled exploration baselines, each with its own
// environment from newEnv
func addBaselines(c *types.Comparison, config TrainingConfig, newEnv func() (types.Environment, error)) error {
	seed := config.Agent.Seed
	baselines := make(map[string]types.Policy)
	order := make([]string, 0)
	if config.Baselines.Random {
		baselines["random"] = types.NewRandomPolicy(seed)
		order = append(order, "random")
	}
	if config.Baselines.SoftMaxNeg {
		baselines["softmax-neg"] = types.NewSoftMaxNegPolicy(0.3, 0.7, seed)
		order = append(order, "softmax-neg")
		baselines["softmax-negfreq"] = policies.NewSoftMaxNegFreqPolicy(0.3, 0.7, false, seed)
		order = append(order, "softmax-negfreq")
	}
	if config.Baselines.Bonus {
		baselines["bonus-greedy"] = policies.NewBonusPolicyGreedy(0.1, 0.99, 0.02, false, seed)
		order = append(order, "bonus-greedy")
		baselines["bonus-softmax"] = policies.NewBonusPolicySoftMax(0.1, 0.99, 1, seed)
		order = append(order, "bonus-softmax")
	}
	for _, name := range order {
		env, err := newEnv()
		if err != nil {
			return err
		}
		c.AddExperiment(types.NewExperiment(name, baselines[name], env))
	}
	return nil
}

// addQAgents adds one Q agent per configured model kind
func addQAgents(c *types.Comparison, config TrainingConfig, logger *slog.Logger, features, actions int, newEnv func() (types.Environment, error)) error {
	for _, kind := range config.Agent.Models {
		env, err := newEnv()
		if err != nil {
			return err
		}
		name := "q-" + kind
		agent, err := config.NewQAgent(kind, features, actions, logger.With("experiment", name))
		if err != nil {
			return fmt.Errorf("creating %s agent: %w", kind, err)
		}
		c.AddExperiment(types.NewExperiment(name, agent, env))
	}
	return nil
}
