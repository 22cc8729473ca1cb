package policies

import (
	"github.com/zeu5/reinforced/types"
	"golang.org/x/exp/rand"
)

// BonusPolicyGreedy is a tabular baseline rewarding rarely taken actions with
// a 1/visits bonus. The values are updated backwards over each finished
// episode.
type BonusPolicyGreedy struct {
	qTable   *QTable
	alpha    float64
	discount float64
	visits   *QTable
	epsilon  float64
	rand     *rand.Rand

	max bool

	episode *types.Trace
	prev    types.State
	action  types.Action
}

var _ types.Policy = &BonusPolicyGreedy{}

func NewBonusPolicyGreedy(alpha, discount, epsilon float64, max bool, seed uint64) *BonusPolicyGreedy {
	return &BonusPolicyGreedy{
		qTable:   NewQTable(),
		alpha:    alpha,
		discount: discount,
		visits:   NewQTable(),
		epsilon:  epsilon,
		rand:     rand.New(rand.NewSource(seed)),
		max:      max,
		episode:  types.NewTrace(),
	}
}

func (b *BonusPolicyGreedy) Record(path string) error {
	return b.qTable.Record(path)
}

func (b *BonusPolicyGreedy) Reset() {
	b.qTable = NewQTable()
	b.visits = NewQTable()
	b.episode = types.NewTrace()
	b.prev = nil
	b.action = nil
}

func (b *BonusPolicyGreedy) NextAction(step int, state types.State) (types.Action, bool) {
	actions := state.Actions()
	if len(actions) == 0 {
		return nil, false
	}

	if b.rand.Float64() < b.epsilon {
		i := b.rand.Intn(len(actions))
		return actions[i], true
	}

	actionsMap := make(map[string]types.Action)
	availableActions := make([]string, len(actions))
	for i, a := range actions {
		aHash := a.Hash()
		actionsMap[aHash] = a
		availableActions[i] = aHash
	}
	maxAction, _ := b.qTable.MaxAmong(state.Hash(), availableActions, 1)
	if maxAction == "" {
		return nil, false
	}
	return actionsMap[maxAction], true
}

func (b *BonusPolicyGreedy) Handle(n types.Notification) error {
	switch n.Kind {
	case types.NotifyAction, types.NotifyInvalidAction:
		b.action = n.Action
	case types.NotifyState:
		if n.Status == types.StatusStart {
			b.finishEpisode()
			b.prev = n.State
			return nil
		}
		if b.prev != nil && b.action != nil {
			b.episode.Append(b.prev, b.action, 0, n.State, n.Status)
		}
		b.prev = n.State
		b.action = nil
		if n.Status.Terminal() {
			b.finishEpisode()
		}
	}
	return nil
}

func (b *BonusPolicyGreedy) finishEpisode() {
	if b.episode.Len() > 0 {
		b.updateIteration(b.episode)
	}
	b.episode = types.NewTrace()
}

func (b *BonusPolicyGreedy) updateInternal(state types.State, action types.Action, nextState types.State, outOfSpace bool) {
	stateHash := state.Hash()
	actionHash := action.Hash()
	nextStateHash := nextState.Hash()
	t := b.visits.Get(stateHash, actionHash, 0) + 1
	b.visits.Set(stateHash, actionHash, t)

	nextStateVal := 0.0
	// if not horizon reached, get the value of the next state
	if !outOfSpace {
		_, nextStateVal = b.qTable.Max(nextStateHash, 1)
	}
	curVal := b.qTable.Get(stateHash, actionHash, 1)

	newVal := 0.0

	if b.max {
		newVal = (1-b.alpha)*curVal + b.alpha*max(1/t, b.discount*nextStateVal)
	} else {
		newVal = (1-b.alpha)*curVal + b.alpha*(1/t+b.discount*nextStateVal)
	}

	b.qTable.Set(stateHash, actionHash, newVal)
}

func (b *BonusPolicyGreedy) updateIteration(trace *types.Trace) {
	lastIndex := trace.Len() - 1

	for i := lastIndex; i > -1; i-- { // going backwards in the segment
		outOfSpace := i == lastIndex
		state, action, _, nextState, ok := trace.Get(i)
		if ok {
			b.updateInternal(state, action, nextState, outOfSpace)
		}
	}
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
