package types

import (
	"context"
	"fmt"
)

type AgentConfig struct {
	Episodes    int
	Horizon     int
	Policy      Policy
	Environment Environment
}

// RL Agent configured with the corresponding
// policy and environment
type Agent struct {
	config *AgentConfig
	// collects the traces of the run
	// Only populated if the Run function is invoked
	traces      []*Trace
	policy      Policy
	environment Environment
}

// Instantiates a new Agent
func NewAgent(config *AgentConfig) *Agent {
	return &Agent{
		config:      config,
		traces:      make([]*Trace, 0, config.Episodes),
		policy:      config.Policy,
		environment: config.Environment,
	}
}

// Run the agent for the specified number of episodes and horizon
func (a *Agent) Run(ctx context.Context) error {
	for i := 0; i < a.config.Episodes; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		trace, err := a.RunEpisode(i)
		if err != nil {
			return err
		}
		a.traces = append(a.traces, trace)
	}
	return nil
}

func (a *Agent) Traces() []*Trace {
	return a.traces
}

// RunEpisode runs a single episode, notifying the policy of every
// transition, and returns the resulting trace
func (a *Agent) RunEpisode(episode int) (*Trace, error) {
	state := a.environment.Reset()
	trace := NewTrace()
	if err := a.policy.Handle(StateNotification(state, StatusStart)); err != nil {
		return trace, fmt.Errorf("episode %d start: %w", episode, err)
	}

	for i := 0; i < a.config.Horizon; i++ {
		if len(state.Actions()) == 0 {
			break
		}
		nextAction, ok := a.policy.NextAction(i, state)
		if !ok {
			break
		}
		nextState, reward, status := a.environment.Step(nextAction)

		notifications := []Notification{
			ActionNotification(nextAction),
			RewardNotification(reward),
			StateNotification(nextState, status),
		}
		if status == StatusInvalid {
			notifications = []Notification{
				InvalidActionNotification(nextAction),
				StateNotification(nextState, status),
			}
		}
		for _, n := range notifications {
			if err := a.policy.Handle(n); err != nil {
				return trace, fmt.Errorf("episode %d step %d %s: %w", episode, i, n, err)
			}
		}

		trace.Append(state, nextAction, reward, nextState, status)
		state = nextState
		if status.Terminal() {
			break
		}
	}

	return trace, nil
}
