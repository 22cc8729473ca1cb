package grid

import "github.com/zeu5/reinforced/types"

// Predicate over grid states
type Predicate func(types.State) bool

func InPosition(i, j, k int) Predicate {
	return func(s types.State) bool {
		pos, ok := s.(*Position)
		if !ok {
			return false
		}
		return pos.I == i && pos.J == j && pos.K == k
	}
}

func InGrid(k int) Predicate {
	return func(s types.State) bool {
		pos, ok := s.(*Position)
		return ok && pos.K == k
	}
}

func (p Predicate) Or(other Predicate) Predicate {
	return func(s types.State) bool {
		return p(s) || other(s)
	}
}

// WithGoal replaces the goal of the environment
func (g *GridEnvironment) WithGoal(goal Predicate) *GridEnvironment {
	g.goal = goal
	return g
}
