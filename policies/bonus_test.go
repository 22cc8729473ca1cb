package policies

import (
	"context"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/reinforced/types"
)

func TestQTableSetOverwrites(t *testing.T) {
	q := NewQTable()
	assert.Equal(t, 1.0, q.Get("s", "a", 1))
	q.Set("s", "a", 3)
	assert.Equal(t, 3.0, q.Get("s", "a", 1))

	q.Set("s", "b", 5)
	action, val := q.Max("s", 0)
	assert.Equal(t, "b", action)
	assert.Equal(t, 5.0, val)

	action, val = q.MaxAmong("s", []string{"a", "c"}, 4)
	assert.Equal(t, "c", action)
	assert.Equal(t, 4.0, val)

	_, val = q.Max("unknown", -2)
	assert.Equal(t, -2.0, val)
	assert.Equal(t, 2, q.States())
}

func TestQTableRecord(t *testing.T) {
	q := NewQTable()
	q.Set("s", "a", 1)
	assert.NoError(t, q.Record(path.Join(t.TempDir(), "policies", "q.json")))
}

func TestBonusPolicyPrefersUnvisited(t *testing.T) {
	b := NewBonusPolicyGreedy(0.5, 0.9, 0, false, 1)
	runner := types.NewAgent(&types.AgentConfig{
		Episodes: 1, Horizon: 3, Policy: b, Environment: &chainEnv{},
	})
	_, err := runner.RunEpisode(0)
	require.NoError(t, err)
	// the horizon does not end the episode, the next start does
	_, err = runner.RunEpisode(1)
	require.NoError(t, err)

	start := (&chainState{pos: 0}).Hash()
	assert.True(t, b.visits.HasState(start))
	visited := b.visits.Get(start, types.DiscreteAction(0).Hash(), 0) + b.visits.Get(start, types.DiscreteAction(1).Hash(), 0)
	assert.Greater(t, visited, 0.0)
}

func TestBonusSoftMaxPicksLegalAction(t *testing.T) {
	b := NewBonusPolicySoftMax(0.5, 0.9, 1, 2)
	s := &chainState{pos: 2}
	for i := 0; i < 10; i++ {
		a, ok := b.NextAction(i, s)
		require.True(t, ok)
		assert.Contains(t, s.Actions(), a)
	}
}

func TestSoftMaxNegFreqPenalisesRevisits(t *testing.T) {
	p := NewSoftMaxNegFreqPolicy(0.5, 0.9, false, 1)
	runner := types.NewAgent(&types.AgentConfig{
		Episodes: 3, Horizon: 4, Policy: p, Environment: &chainEnv{},
	})
	require.NoError(t, runner.Run(context.Background()))
	assert.NotEmpty(t, p.Freq)
	for _, actions := range p.QTable {
		for _, val := range actions {
			assert.LessOrEqual(t, val, 0.0)
		}
	}

	p.Reset()
	assert.Empty(t, p.Freq)
	assert.Empty(t, p.QTable)
}
