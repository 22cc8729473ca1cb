package policies

import (
	"math"

	"github.com/zeu5/reinforced/types"
)

// SoftMaxNegFreqPolicy is SoftMaxNegPolicy with the reward of a transition
// set to minus the number of times its target state was reached
type SoftMaxNegFreqPolicy struct {
	*types.SoftMaxNegPolicy
	Freq map[string]int
	Max  bool // if updates with max instead of plus

	alpha  float64
	gamma  float64
	prev   types.State
	action types.Action
}

var _ types.Policy = &SoftMaxNegFreqPolicy{}

func NewSoftMaxNegFreqPolicy(alpha, gamma float64, max bool, seed uint64) *SoftMaxNegFreqPolicy {
	return &SoftMaxNegFreqPolicy{
		SoftMaxNegPolicy: types.NewSoftMaxNegPolicy(alpha, gamma, seed),
		Freq:             make(map[string]int),
		Max:              max,
		alpha:            alpha,
		gamma:            gamma,
	}
}

func (t *SoftMaxNegFreqPolicy) Reset() {
	t.SoftMaxNegPolicy.Reset()
	t.Freq = make(map[string]int)
	t.prev = nil
	t.action = nil
}

func (t *SoftMaxNegFreqPolicy) Handle(n types.Notification) error {
	switch n.Kind {
	case types.NotifyAction, types.NotifyInvalidAction:
		t.action = n.Action
	case types.NotifyState:
		if n.Status != types.StatusStart && t.prev != nil && t.action != nil {
			t.update(t.prev, t.action, n.State)
		}
		t.prev = n.State
		t.action = nil
	}
	return nil
}

func (t *SoftMaxNegFreqPolicy) update(state types.State, action types.Action, nextState types.State) {
	stateHash := state.Hash()
	nextStateHash := nextState.Hash()
	actionKey := action.Hash()
	if _, ok := t.QTable[stateHash]; !ok {
		t.QTable[stateHash] = make(map[string]float64)
	}
	curVal := t.QTable[stateHash][actionKey]
	max := float64(0)
	for _, val := range t.QTable[nextStateHash] {
		if val > max {
			max = val
		}
	}
	t.Freq[nextStateHash] += 1
	reward := float64(-1 * t.Freq[nextStateHash])

	var nextVal float64
	if t.Max {
		nextVal = (1-t.alpha)*curVal + t.alpha*math.Max(reward, t.gamma*max)
	} else {
		nextVal = (1-t.alpha)*curVal + t.alpha*(reward+t.gamma*max)
	}
	t.QTable[stateHash][actionKey] = nextVal
}
