package policies

import (
	"math"

	"github.com/zeu5/reinforced/types"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// BonusPolicySoftMax samples over the bonus values instead of picking the max
type BonusPolicySoftMax struct {
	*BonusPolicyGreedy
	temperature float64
	rand        rand.Source
}

var _ types.Policy = &BonusPolicySoftMax{}

func NewBonusPolicySoftMax(alpha, discount, temperature float64, seed uint64) *BonusPolicySoftMax {
	return &BonusPolicySoftMax{
		BonusPolicyGreedy: NewBonusPolicyGreedy(alpha, discount, 0, false, seed),
		temperature:       temperature,
		rand:              rand.NewSource(seed + 1),
	}
}

func (b *BonusPolicySoftMax) NextAction(step int, state types.State) (types.Action, bool) {
	actions := state.Actions()
	if len(actions) == 0 {
		return nil, false
	}
	stateHash := state.Hash()

	sum := float64(0)
	weights := make([]float64, len(actions))
	vals := make([]float64, len(actions))

	maxVal := math.Inf(-1)
	for i, action := range actions {
		vals[i] = b.qTable.Get(stateHash, action.Hash(), 1) * (1 / b.temperature)
		if vals[i] > maxVal {
			maxVal = vals[i]
		}
	}
	for i, val := range vals {
		exp := math.Exp(val - maxVal)
		vals[i] = exp
		sum += exp
	}
	for i, v := range vals {
		weights[i] = v / sum
	}
	i, ok := sampleuv.NewWeighted(weights, b.rand).Take()
	if !ok {
		return nil, false
	}
	return actions[i], true
}
