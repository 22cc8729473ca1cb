package types

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/zeu5/reinforced/util"
	"gonum.org/v1/gonum/stat"
)

var ErrExperimentAborted = errors.New("experiment aborted")

type experimentRunConfig struct {
	// execution configuration
	CurrentRun int
	Episodes   int
	Horizon    int
	Analyzers  map[string]Analyzer
	Context    context.Context

	// threshold to abort the experiment
	ConsecutiveErrorsAbort int

	RecordTraces   bool
	ReportSavePath string

	// progress goes here when running in parallel, to stdout otherwise
	Output *ParallelOutput
	Logger *slog.Logger

	//misc
	LongestExpNameLen int
}

// Experiment encapsulates the different parameters to configure an agent and analyze the traces
type Experiment struct {
	Name        string
	policy      Policy
	environment Environment
}

// NewExperiment creates a new experiment instance
func NewExperiment(name string, policy Policy, environment Environment) *Experiment {
	return &Experiment{
		Name:        name,
		policy:      policy,
		environment: environment,
	}
}

// RunSummary is what gets recorded for every experiment run
type RunSummary struct {
	Experiment  string  `json:"experiment"`
	Run         int     `json:"run"`
	Episodes    int     `json:"episodes"`
	Timesteps   int     `json:"timesteps"`
	Errors      int     `json:"errors"`
	Terminal    int     `json:"terminal"`
	MeanReward  float64 `json:"mean_reward"`
	LastReward  float64 `json:"last_reward"`
	DurationSec float64 `json:"duration_sec"`
}

func (e *Experiment) recordTrace(rConfig *experimentRunConfig, trace *Trace) {
	tracesFile := path.Join(rConfig.ReportSavePath, "traces", e.Name+"_"+strconv.Itoa(rConfig.CurrentRun)+".jsonl")
	bs, err := json.Marshal(trace)
	if err != nil {
		panic(err)
	}

	if err := util.AppendToFile(tracesFile, string(bs)); err != nil {
		rConfig.Logger.Warn("failed to record trace", "experiment", e.Name, "err", err)
	}
}

func (e *Experiment) progress(rConfig *experimentRunConfig, s *RunSummary) {
	EPPadding := len(strconv.Itoa(rConfig.Episodes))
	line := fmt.Sprintf("Exp:%*s, Eps:%*d/%d, TSteps:%*d, Err:%*d, Term:%*d, Reward:%8.3f",
		rConfig.LongestExpNameLen, e.Name, EPPadding, s.Episodes, rConfig.Episodes,
		EPPadding+3, s.Timesteps, EPPadding, s.Errors, EPPadding, s.Terminal, s.LastReward)
	if rConfig.Output != nil {
		rConfig.Output.TrySet(line)
		return
	}
	// terminal execution display
	fmt.Printf("\r%s", line)
}

// Run the experiment for the specified number of episodes, feeding every
// trace to the analyzers
func (e *Experiment) Run(rConfig *experimentRunConfig) (*RunSummary, error) {
	start := time.Now()
	summary := &RunSummary{
		Experiment: e.Name,
		Run:        rConfig.CurrentRun,
	}
	rewards := make([]float64, 0, rConfig.Episodes)

	agent := NewAgent(&AgentConfig{
		Episodes:    rConfig.Episodes,
		Horizon:     rConfig.Horizon,
		Policy:      e.policy,
		Environment: e.environment,
	})

	consecutiveErrors := 0
	e.progress(rConfig, summary)
	for episode := 0; episode < rConfig.Episodes; episode++ {
		select {
		case <-rConfig.Context.Done():
			return summary, rConfig.Context.Err()
		default:
		}

		trace, err := e.runEpisode(agent, episode)
		summary.Episodes += 1
		summary.Timesteps += trace.Len()
		if err != nil {
			summary.Errors += 1
			consecutiveErrors += 1
			rConfig.Logger.Debug("episode failed", "experiment", e.Name, "episode", episode, "err", err)
		} else {
			consecutiveErrors = 0
		}
		if trace.Status().Terminal() {
			summary.Terminal += 1
		}
		reward := float64(trace.TotalReward())
		rewards = append(rewards, reward)
		summary.LastReward = reward

		if rConfig.RecordTraces {
			e.recordTrace(rConfig, trace)
		}

		// analyze the trace, even if the episode ended with an error
		for _, a := range rConfig.Analyzers {
			a.Analyze(episode, e.Name, trace)
		}

		if rConfig.ConsecutiveErrorsAbort > 0 && consecutiveErrors >= rConfig.ConsecutiveErrorsAbort {
			return summary, fmt.Errorf("%w: %s had %d consecutive errors, last: %v", ErrExperimentAborted, e.Name, consecutiveErrors, err)
		}
		e.progress(rConfig, summary)
	}

	if len(rewards) > 0 {
		summary.MeanReward = stat.Mean(rewards, nil)
	}
	summary.DurationSec = time.Since(start).Seconds()
	if rConfig.Output == nil {
		fmt.Println("")
	}
	return summary, nil
}

// runEpisode converts panics of the policy or environment into errors
func (e *Experiment) runEpisode(agent *Agent, episode int) (trace *Trace, err error) {
	defer func() {
		if r := recover(); r != nil {
			if trace == nil {
				trace = NewTrace()
			}
			err = fmt.Errorf("episode %d panicked: %v", episode, r)
		}
	}()
	return agent.RunEpisode(episode)
}

// Reset cleans the learned state of the policy
func (e *Experiment) Reset() {
	e.policy.Reset()
}

// Generic Dataset that contains information after processing the traces
type DataSet interface{}

// Analyzer compresses the information in the traces to a DataSet
type Analyzer interface {
	// episode, experiment, trace
	Analyze(int, string, *Trace)
	// Resulting dataset
	DataSet() DataSet
}

// AnalyzerFactory creates a fresh analyzer for every experiment run
type AnalyzerFactory func() Analyzer

// Comparator differentiates between different datasets with associated names
// run, total episodes, experiment names, datasets
type Comparator func(int, int, []string, []DataSet)

func NoopComparator() Comparator {
	return func(i, _ int, s []string, ds []DataSet) {}
}

// ComparisonConfig contains the configuration for the comparison
type ComparisonConfig struct {
	Runs     int // number of runs
	Episodes int // number of episodes
	Horizon  int // number of steps

	RecordPath   string // path to store the results
	RecordTraces bool

	// run the experiments of a run concurrently
	Parallel bool
	// abort an experiment after that many failed episodes in a row, 0 never aborts
	ConsecutiveErrorsAbort int

	// receives a RunSummary per experiment and run, optional
	Recorder util.Recorder
	Logger   *slog.Logger
}

// record the configuration of the comparison
func (c *Comparison) recordConfig() error {
	cfg := c.cConfig
	out := make(map[string]interface{})
	out["runs"] = cfg.Runs
	out["episodes"] = cfg.Episodes
	out["horizon"] = cfg.Horizon
	out["record_traces"] = cfg.RecordTraces
	out["parallel"] = cfg.Parallel

	experiments := make([]string, 0)
	for _, e := range c.Experiments {
		experiments = append(experiments, e.Name)
	}
	out["experiments"] = experiments

	analyzers := make([]string, 0)
	for name := range c.analyzers {
		analyzers = append(analyzers, name)
	}
	out["analyzers"] = analyzers

	bs, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return os.WriteFile(path.Join(cfg.RecordPath, "comparison_config.json"), bs, 0644)
}

// Comparison contains the different experiments to compare
// The traces obtained from the experiments are analyzed
// The analyzed datasets are then compared
type Comparison struct {
	Experiments []*Experiment
	analyzers   map[string]AnalyzerFactory
	comparators map[string]Comparator
	cConfig     *ComparisonConfig
}

// NewComparison creates a comparison instance
func NewComparison(config *ComparisonConfig) (*Comparison, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	if _, err := os.Stat(config.RecordPath); err == nil {
		if err := RemoveContents(config.RecordPath); err != nil {
			return nil, fmt.Errorf("cleaning %s: %w", config.RecordPath, err)
		}
	}
	foldersToCreate := []string{config.RecordPath}
	if config.RecordTraces {
		foldersToCreate = append(foldersToCreate, path.Join(config.RecordPath, "traces"))
	}
	for _, fldPath := range foldersToCreate {
		if err := os.MkdirAll(fldPath, 0777); err != nil {
			return nil, fmt.Errorf("creating %s: %w", fldPath, err)
		}
	}

	return &Comparison{
		Experiments: make([]*Experiment, 0),
		analyzers:   make(map[string]AnalyzerFactory),
		comparators: make(map[string]Comparator),
		cConfig:     config,
	}, nil
}

// AddAnalysis adds an analyzer and comparator to the comparison
func (c *Comparison) AddAnalysis(name string, analyzer AnalyzerFactory, comparator Comparator) {
	c.analyzers[name] = analyzer
	c.comparators[name] = comparator
}

// Add experiments to compare
func (c *Comparison) AddExperiment(e *Experiment) {
	c.Experiments = append(c.Experiments, e)
}

// Run the comparison
func (c *Comparison) Run(ctx context.Context) error {
	if err := c.recordConfig(); err != nil { // store configuration details to a file
		return fmt.Errorf("recording comparison config: %w", err)
	}

	longestNameLen := 0
	for _, e := range c.Experiments {
		if len(e.Name) > longestNameLen {
			longestNameLen = len(e.Name)
		}
	}

	for run := 0; run < c.cConfig.Runs; run++ { // number of runs
		fmt.Printf("Run %d\n", run+1)
		rConfigs := make([]*experimentRunConfig, len(c.Experiments))
		for i := range c.Experiments {
			rConfigs[i] = c.prepareRunConfig(ctx, run, longestNameLen)
		}

		var summaries []*RunSummary
		var err error
		if c.cConfig.Parallel {
			summaries, err = c.runParallel(ctx, rConfigs)
		} else {
			summaries, err = c.runSequential(rConfigs)
		}
		if err != nil {
			return err
		}

		names := make([]string, len(c.Experiments))
		for i, e := range c.Experiments {
			names[i] = e.Name
			e.Reset()
			c.record(ctx, summaries[i])
		}
		for name, comp := range c.comparators {
			datasets := make([]DataSet, len(c.Experiments))
			for i := range c.Experiments {
				datasets[i] = rConfigs[i].Analyzers[name].DataSet()
			}
			comp(run, c.cConfig.Episodes, names, datasets) // make the plots
		}
	}
	return nil
}

func (c *Comparison) record(ctx context.Context, summary *RunSummary) {
	c.cConfig.Logger.Info("experiment finished",
		"experiment", summary.Experiment,
		"run", summary.Run,
		"episodes", summary.Episodes,
		"errors", summary.Errors,
		"mean_reward", summary.MeanReward)
	if c.cConfig.Recorder == nil {
		return
	}
	if err := c.cConfig.Recorder.Record(ctx, summary); err != nil {
		c.cConfig.Logger.Warn("failed to record run summary", "experiment", summary.Experiment, "err", err)
	}
}

func (c *Comparison) runSequential(rConfigs []*experimentRunConfig) ([]*RunSummary, error) {
	summaries := make([]*RunSummary, len(c.Experiments))
	for i, e := range c.Experiments {
		summary, err := e.Run(rConfigs[i])
		if err != nil && !errors.Is(err, ErrExperimentAborted) {
			return nil, err
		}
		if err != nil {
			c.cConfig.Logger.Error("experiment aborted", "experiment", e.Name, "err", err)
		}
		summaries[i] = summary
	}
	return summaries, nil
}

func (c *Comparison) runParallel(ctx context.Context, rConfigs []*experimentRunConfig) ([]*RunSummary, error) {
	outputs := make([]*ParallelOutput, len(c.Experiments))
	for i := range outputs {
		outputs[i] = NewParallelOutput()
		outputs[i].Running = true
		rConfigs[i].Output = outputs[i]
	}
	printer := NewTerminalPrinter(ctx, outputs, time.Second)
	printer.Start()
	defer printer.Stop()

	summaries := make([]*RunSummary, len(c.Experiments))
	errs := make([]error, len(c.Experiments))
	wg := new(sync.WaitGroup)
	for i, e := range c.Experiments {
		wg.Add(1)
		go func(i int, e *Experiment) {
			defer wg.Done()
			summaries[i], errs[i] = e.Run(rConfigs[i])
		}(i, e)
	}
	wg.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrExperimentAborted) {
			return nil, err
		}
		c.cConfig.Logger.Error("experiment aborted", "experiment", c.Experiments[i].Name, "err", err)
	}
	return summaries, nil
}

// prepare the run configuration for the experiment
func (c *Comparison) prepareRunConfig(ctx context.Context, run, longestExpNameLen int) *experimentRunConfig {
	rCfg := &experimentRunConfig{
		CurrentRun:             run,
		Episodes:               c.cConfig.Episodes,
		Horizon:                c.cConfig.Horizon,
		Analyzers:              make(map[string]Analyzer),
		RecordTraces:           c.cConfig.RecordTraces,
		ReportSavePath:         c.cConfig.RecordPath,
		ConsecutiveErrorsAbort: c.cConfig.ConsecutiveErrorsAbort,
		Context:                ctx,
		Logger:                 c.cConfig.Logger,

		LongestExpNameLen: longestExpNameLen,
	}

	for name, newAnalyzer := range c.analyzers {
		rCfg.Analyzers[name] = newAnalyzer()
	}
	return rCfg
}

// RemoveContents deletes everything in the directory
func RemoveContents(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	names, err := d.Readdirnames(-1)
	if err != nil {
		return err
	}
	for _, name := range names {
		err = os.RemoveAll(path.Join(dir, name))
		if err != nil {
			return err
		}
	}
	return nil
}
