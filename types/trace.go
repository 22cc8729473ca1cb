package types

import "encoding/json"

// Trace of an episode as (state, action, reward, nextState) entries
type Trace struct {
	states     []State
	actions    []Action
	rewards    []float32
	nextStates []State
	// status of the last transition
	status Status
}

func NewTrace() *Trace {
	return &Trace{
		states:     make([]State, 0),
		actions:    make([]Action, 0),
		rewards:    make([]float32, 0),
		nextStates: make([]State, 0),
		status:     StatusStart,
	}
}

func (t *Trace) Slice(from, to int) *Trace {
	slicedTrace := NewTrace()
	for i := from; i < to; i++ {
		slicedTrace.Append(t.states[i], t.actions[i], t.rewards[i], t.nextStates[i], StatusPlaying)
	}
	if to == len(t.states) {
		slicedTrace.status = t.status
	}
	return slicedTrace
}

func (t *Trace) Append(state State, action Action, reward float32, nextState State, status Status) {
	t.states = append(t.states, state)
	t.actions = append(t.actions, action)
	t.rewards = append(t.rewards, reward)
	t.nextStates = append(t.nextStates, nextState)
	t.status = status
}

func (t *Trace) Len() int {
	return len(t.states)
}

// Status of the last transition, StatusStart for an empty trace
func (t *Trace) Status() Status {
	return t.status
}

func (t *Trace) Get(i int) (State, Action, float32, State, bool) {
	if i < 0 || i >= len(t.states) {
		return nil, nil, 0, nil, false
	}
	return t.states[i], t.actions[i], t.rewards[i], t.nextStates[i], true
}

func (t *Trace) Last() (State, Action, float32, State, bool) {
	return t.Get(len(t.states) - 1)
}

// TotalReward sums the rewards of the episode
func (t *Trace) TotalReward() float32 {
	total := float32(0)
	for _, r := range t.rewards {
		total += r
	}
	return total
}

type traceStep struct {
	State     string  `json:"state"`
	Action    string  `json:"action"`
	Reward    float32 `json:"reward"`
	NextState string  `json:"next_state"`
}

func (t *Trace) MarshalJSON() ([]byte, error) {
	steps := make([]traceStep, len(t.states))
	for i := range t.states {
		steps[i] = traceStep{
			State:     t.states[i].Hash(),
			Action:    t.actions[i].Hash(),
			Reward:    t.rewards[i],
			NextState: t.nextStates[i].Hash(),
		}
	}
	return json.Marshal(map[string]interface{}{
		"steps":  steps,
		"status": t.status.String(),
	})
}
