// Package grid is a navigation environment made of stacked grids connected
// by doors. The agent starts in the bottom left corner of the first grid
// and is rewarded for reaching the top right corner of the last one.
package grid

import (
	"fmt"

	"github.com/zeu5/reinforced/types"
)

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

type GridEnvironment struct {
	Height int
	Width  int
	Grids  int
	CurPos *Position
	Doors  []Door
	// reward for reaching the goal, the episode ends there
	GoalReward float32
	goal       Predicate
}

type Door struct {
	From Position
	To   Position
}

var _ types.Environment = &GridEnvironment{}

func NewGridEnvironment(height, width, grids int, doors ...Door) *GridEnvironment {
	g := &GridEnvironment{
		Height:     height,
		Width:      width,
		Grids:      grids,
		Doors:      doors,
		GoalReward: 1,
		goal:       InPosition(height-1, width-1, grids-1),
	}
	g.CurPos = g.position(0, 0, 0)
	return g
}

func (g *GridEnvironment) position(i, j, k int) *Position {
	return &Position{I: i, J: j, K: k, height: g.Height, width: g.Width, grids: g.Grids}
}

// Features is the length of the state encoding
func (g *GridEnvironment) Features() int {
	return 2 + g.Grids
}

// Actions is the size of the action space
func (g *GridEnvironment) Actions() int {
	return len(AllMovements)
}

func (g *GridEnvironment) Reset() types.State {
	g.CurPos = g.position(0, 0, 0)
	return g.CurPos
}

func (g *GridEnvironment) Step(a types.Action) (types.State, float32, types.Status) {
	movement, ok := a.(*Movement)
	if !ok {
		return g.CurPos, 0, types.StatusInvalid
	}
	newPos := g.position(g.CurPos.I, g.CurPos.J, g.CurPos.K)
	moved := false
	if movement.Direction == "Next" {
		for _, d := range g.Doors {
			if d.From.Eq(*g.CurPos) {
				newPos = g.position(d.To.I, d.To.J, d.To.K)
				moved = true
				break
			}
		}
	}

	if !moved {
		switch movement.Direction {
		case "Nothing":
		case "Up":
			newPos.I = min(g.Height-1, g.CurPos.I+1)
		case "Down":
			newPos.I = max(0, g.CurPos.I-1)
		case "Left":
			newPos.J = max(0, g.CurPos.J-1)
		case "Right":
			newPos.J = min(g.Width-1, g.CurPos.J+1)
		case "Next":
			if g.CurPos.I == min(10, g.Height-1) && g.CurPos.J == min(10, g.Width-1) {
				if g.CurPos.K < g.Grids-1 {
					newPos.I = 0
					newPos.J = 0
					newPos.K = g.CurPos.K + 1
				}
			}
		}
	}
	g.CurPos = newPos
	if g.goal(newPos) {
		return newPos, g.GoalReward, types.StatusEnd
	}
	return newPos, 0, types.StatusPlaying
}

type Position struct {
	I int
	J int
	K int

	height int
	width  int
	grids  int
}

var _ types.State = &Position{}

func (p *Position) Hash() string {
	return fmt.Sprintf("(%d, %d, %d)", p.I, p.J, p.K)
}

func (p *Position) Eq(other Position) bool {
	return p.I == other.I && p.J == other.J && p.K == other.K
}

func (p *Position) Actions() []types.Action {
	if p.I == 0 && p.J == 0 {
		return []types.Action{NoMovement, NextGridMovement, MovementUp, MovementRight}
	} else if p.I == 0 {
		return []types.Action{NoMovement, NextGridMovement, MovementUp, MovementRight, MovementLeft}
	} else if p.J == 0 {
		return []types.Action{NoMovement, NextGridMovement, MovementUp, MovementRight, MovementDown}
	}
	return AllMovements
}

// Encode is the normalised row and column followed by a one-hot grid index
func (p *Position) Encode() types.Features {
	out := make(types.Features, 2+p.grids)
	if p.height > 1 {
		out[0] = float32(p.I) / float32(p.height-1)
	}
	if p.width > 1 {
		out[1] = float32(p.J) / float32(p.width-1)
	}
	if p.K >= 0 && p.K < p.grids {
		out[2+p.K] = 1
	}
	return out
}

type Movement struct {
	Direction string
	index     int
}

var _ types.Action = &Movement{}

func (m *Movement) Hash() string {
	return m.Direction
}

func (m *Movement) Index() int {
	return m.index
}

var (
	MovementUp                      = &Movement{"Up", 0}
	MovementDown                    = &Movement{"Down", 1}
	MovementLeft                    = &Movement{"Left", 2}
	MovementRight                   = &Movement{"Right", 3}
	NoMovement                      = &Movement{"Nothing", 4}
	NextGridMovement                = &Movement{"Next", 5}
	AllMovements     []types.Action = []types.Action{
		MovementUp,
		MovementDown,
		MovementLeft,
		MovementRight,
		NoMovement,
		NextGridMovement,
	}
)
