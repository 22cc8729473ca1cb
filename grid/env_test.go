package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/reinforced/types"
)

func TestGridMovesAreClamped(t *testing.T) {
	g := NewGridEnvironment(3, 3, 1)
	s := g.Reset()
	assert.Equal(t, "(0, 0, 0)", s.Hash())

	s, reward, status := g.Step(MovementDown)
	assert.Equal(t, "(0, 0, 0)", s.Hash())
	assert.Equal(t, float32(0), reward)
	assert.Equal(t, types.StatusPlaying, status)

	s, _, _ = g.Step(MovementUp)
	s, _, _ = g.Step(MovementRight)
	assert.Equal(t, "(1, 1, 0)", s.Hash())
	assert.Len(t, s.Actions(), len(AllMovements))
}

func TestGridGoal(t *testing.T) {
	g := NewGridEnvironment(2, 2, 2)
	g.Reset()
	_, _, status := g.Step(MovementUp)
	require.Equal(t, types.StatusPlaying, status)
	_, _, status = g.Step(MovementRight)
	require.Equal(t, types.StatusPlaying, status)

	// top right corner of the first grid leads to the next grid
	s, _, _ := g.Step(NextGridMovement)
	assert.Equal(t, "(0, 0, 1)", s.Hash())
	g.Step(MovementUp)
	s, reward, status := g.Step(MovementRight)
	assert.Equal(t, "(1, 1, 1)", s.Hash())
	assert.Equal(t, float32(1), reward)
	assert.Equal(t, types.StatusEnd, status)
}

func TestGridDoors(t *testing.T) {
	g := NewGridEnvironment(4, 4, 3, Door{From: Position{I: 0, J: 0, K: 0}, To: Position{I: 2, J: 2, K: 2}})
	g.Reset()
	s, _, _ := g.Step(NextGridMovement)
	assert.Equal(t, "(2, 2, 2)", s.Hash())
}

func TestGridEncode(t *testing.T) {
	g := NewGridEnvironment(3, 5, 2)
	g.Reset()
	g.Step(MovementUp)
	s, _, _ := g.Step(MovementRight)
	enc := s.Encode()
	require.Len(t, enc, g.Features())
	assert.InDelta(t, 0.5, enc[0], 1e-6)
	assert.InDelta(t, 0.25, enc[1], 1e-6)
	assert.Equal(t, types.Features{1, 0}, enc[2:])
}

func TestVisitAnalyzer(t *testing.T) {
	g := NewGridEnvironment(3, 3, 1)
	trace := types.NewTrace()
	s := g.Reset()
	for _, m := range []types.Action{MovementUp, MovementUp, MovementDown} {
		next, r, status := g.Step(m)
		trace.Append(s, m, r, next, status)
		s = next
	}
	a := GridAnalyzer()()
	a.Analyze(0, "test", trace)
	ds := a.DataSet().(*GridDataSet)
	assert.Equal(t, 1, ds.Visits[0][0])
	assert.Equal(t, 1, ds.Visits[1][0])
	assert.Equal(t, 1, ds.Visits[2][0])
	assert.Equal(t, float64(1), ds.Max())

	merged := MergeGridDatasets([]types.DataSet{ds, ds}).(*GridDataSet)
	assert.Equal(t, 2, merged.Visits[1][0])
}

func TestGridCustomGoal(t *testing.T) {
	g := NewGridEnvironment(3, 3, 2).WithGoal(InGrid(1).Or(InPosition(1, 0, 0)))
	g.Reset()
	_, reward, status := g.Step(MovementUp)
	assert.Equal(t, float32(1), reward)
	assert.Equal(t, types.StatusEnd, status)

	g.Reset()
	_, _, status = g.Step(MovementRight)
	assert.Equal(t, types.StatusPlaying, status)
}
