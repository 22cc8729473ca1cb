package types

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// Policy picks actions and learns from the notifications of the episode
// driver. Notifications of one episode arrive in order:
// State(Start), then per step Action or InvalidAction, Reward and State.
type Policy interface {
	NextAction(int, State) (Action, bool)
	Handle(Notification) error
	Reset()
}

// SoftMaxNegPolicy gives every visited transition a reward of -1 and samples
// actions with a softmax over the Q values, steering towards rarely visited
// states.
type SoftMaxNegPolicy struct {
	QTable map[string]map[string]float64
	alpha  float64
	gamma  float64
	rand   *rand.Rand

	prev   State
	action Action
}

func NewSoftMaxNegPolicy(alpha, gamma float64, seed uint64) *SoftMaxNegPolicy {
	return &SoftMaxNegPolicy{
		QTable: make(map[string]map[string]float64),
		alpha:  alpha,
		gamma:  gamma,
		rand:   rand.New(rand.NewSource(seed)),
	}
}

var _ Policy = &SoftMaxNegPolicy{}

func (s *SoftMaxNegPolicy) Reset() {
	s.QTable = make(map[string]map[string]float64)
	s.prev = nil
	s.action = nil
}

func (s *SoftMaxNegPolicy) NextAction(step int, state State) (Action, bool) {
	actions := state.Actions()
	if len(actions) == 0 {
		return nil, false
	}
	stateHash := state.Hash()

	if _, ok := s.QTable[stateHash]; !ok {
		s.QTable[stateHash] = make(map[string]float64)
	}

	for _, a := range actions {
		aName := a.Hash()
		if _, ok := s.QTable[stateHash][aName]; !ok {
			s.QTable[stateHash][aName] = 0
		}
	}

	sum := float64(0)
	weights := make([]float64, len(actions))
	vals := make([]float64, len(actions))

	for i, action := range actions {
		val := s.QTable[stateHash][action.Hash()]
		exp := math.Exp(val)
		vals[i] = exp
		sum += exp
	}

	for i, v := range vals {
		weights[i] = v / sum
	}
	i, ok := sampleuv.NewWeighted(weights, s.rand).Take()
	if !ok {
		return nil, false
	}
	return actions[i], true
}

func (s *SoftMaxNegPolicy) Handle(n Notification) error {
	switch n.Kind {
	case NotifyAction, NotifyInvalidAction:
		s.action = n.Action
	case NotifyState:
		if n.Status != StatusStart && s.prev != nil && s.action != nil {
			s.update(s.prev, s.action, n.State)
		}
		s.prev = n.State
		s.action = nil
	}
	return nil
}

func (s *SoftMaxNegPolicy) update(state State, action Action, nextState State) {
	stateHash := state.Hash()

	nextStateHash := nextState.Hash()
	actionKey := action.Hash()
	if _, ok := s.QTable[stateHash]; !ok {
		return
	}
	if _, ok := s.QTable[stateHash][actionKey]; !ok {
		return
	}
	curVal := s.QTable[stateHash][actionKey]
	max := float64(0)
	if _, ok := s.QTable[nextStateHash]; ok {
		for _, val := range s.QTable[nextStateHash] {
			if val > max {
				max = val
			}
		}
	}
	nextVal := (1-s.alpha)*curVal + s.alpha*(-1+s.gamma*max)
	s.QTable[stateHash][actionKey] = nextVal
}

// RandomPolicy picks a uniformly random legal action
type RandomPolicy struct {
	rand *rand.Rand
}

var _ Policy = &RandomPolicy{}

func NewRandomPolicy(seed uint64) *RandomPolicy {
	return &RandomPolicy{
		rand: rand.New(rand.NewSource(seed)),
	}
}

func (r *RandomPolicy) Reset() {

}

func (r *RandomPolicy) Handle(_ Notification) error {
	return nil
}

func (r *RandomPolicy) NextAction(step int, state State) (Action, bool) {
	actions := state.Actions()
	if len(actions) == 0 {
		return nil, false
	}
	i := r.rand.Intn(len(actions))
	return actions[i], true
}
