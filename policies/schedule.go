package policies

import (
	"math"

	"github.com/zeu5/reinforced/types"
)

// Static exploration probability
type Static struct {
	Epsilon float32
}

var _ types.ExplorationSchedule = Static{}

func NewStatic(epsilon float32) Static {
	return Static{Epsilon: epsilon}
}

func (s Static) Probability(_ int) float32 {
	return s.Epsilon
}

// LinearDecay moves from Start to End over Steps training steps
type LinearDecay struct {
	Start float32
	End   float32
	Steps int
}

var _ types.ExplorationSchedule = LinearDecay{}

func (l LinearDecay) Probability(step int) float32 {
	if l.Steps <= 0 || step >= l.Steps {
		return l.End
	}
	if step <= 0 {
		return l.Start
	}
	frac := float32(step) / float32(l.Steps)
	return l.Start + (l.End-l.Start)*frac
}

// ExponentialDecay approaches End as End + (Start - End) * e^(-Rate * step)
type ExponentialDecay struct {
	Start float32
	End   float32
	Rate  float64
}

var _ types.ExplorationSchedule = ExponentialDecay{}

func (e ExponentialDecay) Probability(step int) float32 {
	if step <= 0 {
		return e.Start
	}
	return e.End + (e.Start-e.End)*float32(math.Exp(-e.Rate*float64(step)))
}
