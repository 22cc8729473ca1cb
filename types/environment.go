package types

import "strconv"

// Features is the fixed length encoding of a state fed to models
type Features []float32

// Clone returns a copy owned by the caller
func (f Features) Clone() Features {
	out := make(Features, len(f))
	copy(out, f)
	return out
}

// Status of the environment after a transition
type Status int

const (
	// StatusStart is reported for the state returned by Reset
	StatusStart Status = iota
	StatusPlaying
	StatusEnd
	// StatusInvalid is reported when the action was not legal. The episode ends.
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusStart:
		return "start"
	case StatusPlaying:
		return "playing"
	case StatusEnd:
		return "end"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Terminal is true when no transition follows a state with this status
func (s Status) Terminal() bool {
	return s == StatusEnd || s == StatusInvalid
}

// Environment with a discrete action space
type Environment interface {
	// Reset called at the start of each episode
	Reset() State
	// Step applies the action and returns the next state, the reward
	// and the resulting status
	Step(Action) (State, float32, Status)
}

// State of the system that RL policies observe
type State interface {
	// Indexed by the Hash
	// Should be deterministic
	Hash() string
	// Legal actions from the state
	Actions() []Action
	// Encode the state for the value model
	Encode() Features
}

// An Action that the RL policy can take
type Action interface {
	// Should be deterministic
	Hash() string
	// Index of the action in the model output
	Index() int
}

// DiscreteAction is the action at a fixed position of the action space
type DiscreteAction int

var _ Action = DiscreteAction(0)

func (d DiscreteAction) Hash() string {
	return strconv.Itoa(int(d))
}

func (d DiscreteAction) Index() int {
	return int(d)
}
