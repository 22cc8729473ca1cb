package policies

import (
	"fmt"
	"log/slog"

	"github.com/zeu5/reinforced/replay"
	"github.com/zeu5/reinforced/types"
	"golang.org/x/exp/rand"
)

// DefaultInvalidReward is the reward of an action the environment rejected
const DefaultInvalidReward float32 = -1

type QAgentConfig struct {
	Model types.Model
	// capacity of the replay buffer
	Memory int
	// train every that many steps once the buffer is full
	TrainEvery int
	// sync the target model every Lag trainings
	Lag         int
	Trainer     *QTrainer
	Exploration types.ExplorationSchedule
	TargetRule  types.TargetRule

	Selection   Selection
	Temperature float64
	// zero means DefaultInvalidReward
	InvalidReward float32
	Seed          uint64
	Logger        *slog.Logger
}

// Validate reports the first required field that is not set
func (c *QAgentConfig) Validate() error {
	switch {
	case c.Model == nil:
		return fmt.Errorf("%w: model", ErrMissingField)
	case c.Memory < 1:
		return fmt.Errorf("%w: memory", ErrMissingField)
	case c.TrainEvery < 1:
		return fmt.Errorf("%w: train_every", ErrMissingField)
	case c.Lag < 1:
		return fmt.Errorf("%w: lag", ErrMissingField)
	case c.Trainer == nil:
		return fmt.Errorf("%w: trainer", ErrMissingField)
	case c.Exploration == nil:
		return fmt.Errorf("%w: exploration", ErrMissingField)
	case c.TargetRule == nil:
		return fmt.Errorf("%w: target_rule", ErrMissingField)
	}
	return nil
}

type agentState int

const (
	awaitingAction agentState = iota
	actionTaken
	rewardReceived
)

func (s agentState) String() string {
	switch s {
	case awaitingAction:
		return "AwaitingAction"
	case actionTaken:
		return "ActionTaken"
	case rewardReceived:
		return "RewardReceived"
	default:
		return "Unknown"
	}
}

// resettable models can drop their learned parameters
type resettable interface {
	Reset()
}

// QAgent is a deep Q-learning policy. It records every transition in a
// segmented replay buffer and trains its model from the buffer once it is
// full.
type QAgent struct {
	config   QAgentConfig
	model    types.Model
	memory   *Memory
	trainer  *QTrainer
	schedule types.ExplorationSchedule
	rule     types.TargetRule
	rand     *rand.Rand
	logger   *slog.Logger

	eps   float32
	t     int
	state agentState

	action int
	reward float32
}

var _ types.Policy = &QAgent{}

func NewQAgent(config QAgentConfig) (*QAgent, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.InvalidReward == 0 {
		config.InvalidReward = DefaultInvalidReward
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	memory, err := replay.New[types.Features, int, *Target](config.Memory)
	if err != nil {
		return nil, err
	}
	return &QAgent{
		config:   config,
		model:    config.Model,
		memory:   memory,
		trainer:  config.Trainer,
		schedule: config.Exploration,
		rule:     config.TargetRule,
		rand:     rand.New(rand.NewSource(config.Seed)),
		logger:   config.Logger,
		eps:      config.Exploration.Probability(0),
		state:    awaitingAction,
	}, nil
}

// Memory exposes the replay buffer, it must not be mutated while the agent runs
func (a *QAgent) Memory() *Memory {
	return a.memory
}

// Steps counts the transitions recorded since the buffer filled up
func (a *QAgent) Steps() int {
	return a.t
}

func (a *QAgent) Epsilon() float32 {
	return a.eps
}

func (a *QAgent) Reset() {
	memory, _ := replay.New[types.Features, int, *Target](a.config.Memory)
	a.memory = memory
	a.t = 0
	a.eps = a.schedule.Probability(0)
	a.state = awaitingAction
	a.reward = 0
	if r, ok := a.model.(resettable); ok {
		r.Reset()
	}
}

func (a *QAgent) NextAction(_ int, state types.State) (types.Action, bool) {
	actions := state.Actions()
	if len(actions) == 0 {
		return nil, false
	}
	if a.rand.Float32() < a.eps {
		return actions[a.rand.Intn(len(actions))], true
	}

	predictions := a.model.Predict(state.Encode())
	if a.config.Selection == SelectSoftmax {
		return softmax(predictions, actions, a.config.Temperature, a.rand)
	}
	action := greedy(predictions, actions)
	return action, action != nil
}

func (a *QAgent) unexpected(n types.Notification) error {
	return fmt.Errorf("%w: %s while %s", ErrUnexpectedNotification, n, a.state)
}

// Handle advances the agent through AwaitingAction, ActionTaken and
// RewardReceived
func (a *QAgent) Handle(n types.Notification) error {
	switch n.Kind {
	case types.NotifyAction:
		if a.state != awaitingAction {
			return a.unexpected(n)
		}
		a.action = n.Action.Index()
		a.reward = 0
		a.state = actionTaken
	case types.NotifyInvalidAction:
		if a.state != awaitingAction {
			return a.unexpected(n)
		}
		a.action = n.Action.Index()
		a.reward = a.config.InvalidReward
		a.state = rewardReceived
	case types.NotifyReward:
		if a.state == awaitingAction {
			return a.unexpected(n)
		}
		a.reward += n.Reward
		a.state = rewardReceived
	case types.NotifyState:
		if n.Status == types.StatusStart {
			a.begin(n.State)
			return nil
		}
		if a.state != rewardReceived {
			return a.unexpected(n)
		}
		return a.transition(n.State, n.Status)
	default:
		return a.unexpected(n)
	}
	return nil
}

// begin closes a transition left without a next state and starts a new episode
func (a *QAgent) begin(state types.State) {
	if a.state == rewardReceived {
		if back, err := a.memory.Back(); err == nil {
			back.Payload = &Target{
				Index:    a.action,
				Value:    a.rule.Value(a.reward, nil),
				Terminal: true,
			}
		}
	}
	a.memory.BeginEpisode(state.Encode().Clone(), nil)
	a.state = awaitingAction
	a.reward = 0
}

func (a *QAgent) transition(state types.State, status types.Status) error {
	features := state.Encode().Clone()
	terminal := status.Terminal()
	var predictions []float32
	if !terminal {
		predictions = a.model.PredictTarget(features)
	}

	back, err := a.memory.Back()
	if err != nil {
		return fmt.Errorf("recording target: %w", err)
	}
	target := &Target{
		Index:    a.action,
		Value:    a.rule.Value(a.reward, predictions),
		Terminal: terminal,
	}
	if err := a.memory.PushResult(features, a.action, a.reward, nil); err != nil {
		return fmt.Errorf("recording transition: %w", err)
	}
	// back may have been evicted by the push, only keep the target if it is
	// still the previous node
	if prev, err := a.memory.Ref(a.memory.Len() - 2); err == nil && prev == back {
		back.Payload = target
	}
	a.state = awaitingAction
	a.reward = 0
	a.update()
	return nil
}

func (a *QAgent) update() {
	if !a.memory.IsFull() {
		return
	}
	a.t += 1
	if a.t%a.config.TrainEvery == 0 {
		loss := a.trainer.Train(a.memory, a.model)
		a.logger.Debug("trained", "step", a.t, "loss", loss, "epsilon", a.eps)
		if a.t%(a.config.Lag*a.config.TrainEvery) == 0 {
			a.sync()
		}
	}
	a.eps = a.schedule.Probability(a.t)
	explorationRate.Set(float64(a.eps))
}

// sync copies the online model into the target model and recomputes every
// stored target with it
func (a *QAgent) sync() {
	a.model.SyncTarget()
	targetSyncs.Inc()
	episodes := a.memory.EpisodesMut()
	for {
		episode, ok := episodes.Next()
		if !ok {
			break
		}
		for _, pair := range episode.Pairs() {
			action, reward := pair.Step()
			terminal := pair.Prev.Payload != nil && pair.Prev.Payload.Terminal
			var predictions []float32
			if !terminal {
				predictions = a.model.PredictTarget(pair.Next.State)
			}
			pair.Prev.Payload = &Target{
				Index:    action,
				Value:    a.rule.Value(reward, predictions),
				Terminal: terminal,
			}
		}
	}
}
