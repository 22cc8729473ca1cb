package types

import (
	"context"
	"encoding/json"
	"os"
	"path"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/reinforced/util"
)

type counterState struct {
	n   int
	max int
}

func (c *counterState) Hash() string { return strconv.Itoa(c.n) }

func (c *counterState) Actions() []Action {
	if c.n >= c.max {
		return []Action{}
	}
	return []Action{DiscreteAction(0), DiscreteAction(1)}
}

func (c *counterState) Encode() Features { return Features{float32(c.n)} }

// counterEnv counts up on action 1, action 0 is invalid. Reaching max ends
// the episode with reward 1.
type counterEnv struct {
	n   int
	max int
}

func (c *counterEnv) Reset() State {
	c.n = 0
	return &counterState{n: 0, max: c.max}
}

func (c *counterEnv) Step(a Action) (State, float32, Status) {
	if a.Index() != 1 {
		return &counterState{n: c.n, max: c.max}, 0, StatusInvalid
	}
	c.n++
	if c.n == c.max {
		return &counterState{n: c.n, max: c.max}, 1, StatusEnd
	}
	return &counterState{n: c.n, max: c.max}, 0, StatusPlaying
}

type fixedPolicy struct {
	action        Action
	notifications []Notification
}

func (f *fixedPolicy) NextAction(int, State) (Action, bool) { return f.action, true }

func (f *fixedPolicy) Handle(n Notification) error {
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fixedPolicy) Reset() { f.notifications = nil }

func kinds(ns []Notification) []NotificationKind {
	out := make([]NotificationKind, len(ns))
	for i, n := range ns {
		out[i] = n.Kind
	}
	return out
}

func TestAgentNotificationOrder(t *testing.T) {
	policy := &fixedPolicy{action: DiscreteAction(1)}
	agent := NewAgent(&AgentConfig{Episodes: 1, Horizon: 10, Policy: policy, Environment: &counterEnv{max: 2}})
	trace, err := agent.RunEpisode(0)
	require.NoError(t, err)

	assert.Equal(t, 2, trace.Len())
	assert.Equal(t, StatusEnd, trace.Status())
	assert.Equal(t, float32(1), trace.TotalReward())
	assert.Equal(t, []NotificationKind{
		NotifyState,
		NotifyAction, NotifyReward, NotifyState,
		NotifyAction, NotifyReward, NotifyState,
	}, kinds(policy.notifications))
	assert.Equal(t, StatusStart, policy.notifications[0].Status)
	assert.Equal(t, StatusEnd, policy.notifications[6].Status)
}

func TestAgentInvalidAction(t *testing.T) {
	policy := &fixedPolicy{action: DiscreteAction(0)}
	agent := NewAgent(&AgentConfig{Episodes: 1, Horizon: 10, Policy: policy, Environment: &counterEnv{max: 2}})
	trace, err := agent.RunEpisode(0)
	require.NoError(t, err)

	assert.Equal(t, 1, trace.Len())
	assert.Equal(t, StatusInvalid, trace.Status())
	assert.Equal(t, []NotificationKind{NotifyState, NotifyInvalidAction, NotifyState}, kinds(policy.notifications))
}

func TestAgentHorizon(t *testing.T) {
	agent := NewAgent(&AgentConfig{Episodes: 3, Horizon: 4, Policy: NewRandomPolicy(1), Environment: &counterEnv{max: 100}})
	require.NoError(t, agent.Run(context.Background()))
	require.Len(t, agent.Traces(), 3)
	for _, trace := range agent.Traces() {
		assert.LessOrEqual(t, trace.Len(), 4)
	}
}

func TestAgentRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	agent := NewAgent(&AgentConfig{Episodes: 3, Horizon: 4, Policy: NewRandomPolicy(1), Environment: &counterEnv{max: 100}})
	assert.ErrorIs(t, agent.Run(ctx), context.Canceled)
}

func TestTraceJSON(t *testing.T) {
	trace := NewTrace()
	trace.Append(&counterState{n: 0}, DiscreteAction(1), 0.5, &counterState{n: 1}, StatusPlaying)
	bs, err := json.Marshal(trace)
	require.NoError(t, err)
	assert.JSONEq(t, `{"steps":[{"state":"0","action":"1","reward":0.5,"next_state":"1"}],"status":"playing"}`, string(bs))

	s, a, r, ns, ok := trace.Last()
	require.True(t, ok)
	assert.Equal(t, "0", s.Hash())
	assert.Equal(t, "1", a.Hash())
	assert.Equal(t, float32(0.5), r)
	assert.Equal(t, "1", ns.Hash())

	_, _, _, _, ok = trace.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 1, trace.Slice(0, 1).Len())
}

func TestSoftMaxNegPolicy(t *testing.T) {
	p := NewSoftMaxNegPolicy(0.5, 0.9, 3)
	agent := NewAgent(&AgentConfig{Episodes: 2, Horizon: 5, Policy: p, Environment: &counterEnv{max: 3}})
	require.NoError(t, agent.Run(context.Background()))
	assert.NotEmpty(t, p.QTable)
	p.Reset()
	assert.Empty(t, p.QTable)
}

func TestMovingAverage(t *testing.T) {
	assert.Equal(t, []float64{1, 1.5, 2.5}, MovingAverage([]float64{1, 2, 3}, 2))
	assert.Equal(t, []float64{1, 2}, MovingAverage([]float64{1, 2}, 0))
}

func runComparison(t *testing.T, parallel bool) string {
	dir := t.TempDir()
	recordPath := path.Join(dir, "results")
	recorder, err := util.NewFileRecorder(path.Join(dir, "summary.jsonl"))
	require.NoError(t, err)

	c, err := NewComparison(&ComparisonConfig{
		Runs:         2,
		Episodes:     5,
		Horizon:      6,
		RecordPath:   recordPath,
		RecordTraces: true,
		Parallel:     parallel,
		Recorder:     recorder,
	})
	require.NoError(t, err)
	c.AddAnalysis("coverage", PureCoverage(), NoopComparator())

	rewards := make([][]DataSet, 0)
	c.AddAnalysis("reward", EpisodeReward(), func(_, _ int, names []string, ds []DataSet) {
		rewards = append(rewards, ds)
	})
	c.AddExperiment(NewExperiment("random", NewRandomPolicy(1), &counterEnv{max: 3}))
	c.AddExperiment(NewExperiment("always", &fixedPolicy{action: DiscreteAction(1)}, &counterEnv{max: 3}))
	require.NoError(t, c.Run(context.Background()))

	require.Len(t, rewards, 2)
	for _, ds := range rewards {
		require.Len(t, ds, 2)
		assert.Len(t, ds[0].([]float64), 5)
		// always counting up reaches the end every episode
		assert.Equal(t, []float64{1, 1, 1, 1, 1}, ds[1].([]float64))
	}

	_, err = os.Stat(path.Join(recordPath, "comparison_config.json"))
	assert.NoError(t, err)
	_, err = os.Stat(path.Join(recordPath, "traces", "always_1.jsonl"))
	assert.NoError(t, err)
	return path.Join(dir, "summary.jsonl")
}

func TestComparisonSequential(t *testing.T) {
	summaryPath := runComparison(t, false)
	bs, err := os.ReadFile(summaryPath)
	require.NoError(t, err)
	assert.Contains(t, string(bs), `"experiment":"always"`)
}

func TestComparisonParallel(t *testing.T) {
	runComparison(t, true)
}

func TestComparisonCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, err := NewComparison(&ComparisonConfig{Runs: 1, Episodes: 5, Horizon: 5, RecordPath: t.TempDir()})
	require.NoError(t, err)
	c.AddExperiment(NewExperiment("random", NewRandomPolicy(1), &counterEnv{max: 3}))
	assert.ErrorIs(t, c.Run(ctx), context.Canceled)
}

func TestVisitGraphAnalyzer(t *testing.T) {
	trace := NewTrace()
	trace.Append(&counterState{n: 0}, DiscreteAction(1), 0, &counterState{n: 1}, StatusPlaying)
	trace.Append(&counterState{n: 1}, DiscreteAction(0), 0, &counterState{n: 1}, StatusInvalid)

	a := StateGraph()()
	a.Analyze(0, "test", trace)
	a.Analyze(1, "test", trace)
	graph := a.DataSet().(*VisitGraph)

	assert.Len(t, graph.Nodes, 2)
	assert.Equal(t, 2, graph.Edges())
	assert.Equal(t, map[string]int{"0": 2, "1": 2}, graph.GetVisits())
	assert.True(t, graph.Nodes["1"].Next["0"]["1"])
	assert.True(t, graph.Nodes["1"].Prev["1"]["0"])

	file := path.Join(t.TempDir(), "graph.json")
	require.NoError(t, graph.Record(file))
	bs, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(bs), `"visits":2`)
}
