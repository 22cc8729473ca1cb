package tictactoe

import (
	"fmt"

	"github.com/zeu5/reinforced/types"
	"golang.org/x/exp/rand"
)

type Config struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	// stones in a row needed to win
	Chain int `yaml:"chain"`

	WinReward     float32 `yaml:"win_reward"`
	LossReward    float32 `yaml:"loss_reward"`
	TieReward     float32 `yaml:"tie_reward"`
	InvalidReward float32 `yaml:"invalid_reward"`

	Seed uint64 `yaml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Width:         3,
		Height:        3,
		Chain:         3,
		WinReward:     1,
		LossReward:    -1,
		TieReward:     0,
		InvalidReward: -1,
	}
}

func (c Config) Validate() error {
	if c.Width < 1 || c.Height < 1 {
		return fmt.Errorf("board must be at least 1x1, got %dx%d", c.Width, c.Height)
	}
	if c.Chain < 1 || (c.Chain > c.Width && c.Chain > c.Height) {
		return fmt.Errorf("chain %d does not fit a %dx%d board", c.Chain, c.Width, c.Height)
	}
	return nil
}

// State is a snapshot of the board after the opponent answered
type State struct {
	board    *Board
	terminal bool
}

var _ types.State = &State{}

func (s *State) Hash() string {
	return s.board.String()
}

// Actions are the empty cells, none once the game is over
func (s *State) Actions() []types.Action {
	if s.terminal {
		return []types.Action{}
	}
	empties := s.board.Empties()
	out := make([]types.Action, len(empties))
	for i, idx := range empties {
		out[i] = types.DiscreteAction(idx)
	}
	return out
}

func (s *State) Encode() types.Features {
	return types.Features(s.board.oneHot)
}

func (s *State) Board() *Board {
	return s.board
}

// Env is played by the agent with crosses. After every valid move a random
// opponent places a circle.
type Env struct {
	config Config
	board  *Board
	rand   *rand.Rand
}

var _ types.Environment = &Env{}

func NewEnv(config Config) (*Env, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Env{
		config: config,
		board:  NewBoard(config.Width, config.Height),
		rand:   rand.New(rand.NewSource(config.Seed)),
	}, nil
}

// Actions is the size of the action space
func (e *Env) Actions() int {
	return e.board.Len()
}

// Features is the length of the state encoding
func (e *Env) Features() int {
	return 3 * e.board.Len()
}

func (e *Env) snapshot(terminal bool) *State {
	return &State{board: e.board.clone(), terminal: terminal}
}

func (e *Env) Reset() types.State {
	e.board.Reset()
	return e.snapshot(false)
}

// place puts cell at idx and reports a win and a full board
func (e *Env) place(idx int, cell Cell) (bool, bool) {
	e.board.Set(idx, cell)
	return e.board.Chain(idx) >= e.config.Chain, e.board.IsFull()
}

func (e *Env) Step(a types.Action) (types.State, float32, types.Status) {
	idx := a.Index()
	if cell, err := e.board.At(idx); err != nil || cell != Empty {
		return e.snapshot(true), e.config.InvalidReward, types.StatusInvalid
	}

	won, full := e.place(idx, Cross)
	if won {
		return e.snapshot(true), e.config.WinReward, types.StatusEnd
	}
	if full {
		return e.snapshot(true), e.config.TieReward, types.StatusEnd
	}

	empties := e.board.Empties()
	lost, full := e.place(empties[e.rand.Intn(len(empties))], Circle)
	if lost {
		return e.snapshot(true), e.config.LossReward, types.StatusEnd
	}
	if full {
		return e.snapshot(true), e.config.TieReward, types.StatusEnd
	}
	return e.snapshot(false), 0, types.StatusPlaying
}
