package policies

import (
	"fmt"
	"math"
	"strings"

	"github.com/zeu5/reinforced/types"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// Selection is how the agent exploits the model predictions
type Selection int

const (
	SelectGreedy Selection = iota
	SelectSoftmax
)

func (s Selection) String() string {
	switch s {
	case SelectGreedy:
		return "greedy"
	case SelectSoftmax:
		return "softmax"
	default:
		return "unknown"
	}
}

func ParseSelection(s string) (Selection, error) {
	switch strings.ToLower(s) {
	case "", "greedy":
		return SelectGreedy, nil
	case "softmax":
		return SelectSoftmax, nil
	default:
		return SelectGreedy, fmt.Errorf("unknown action selection %q", s)
	}
}

// greedy returns the legal action with the highest prediction. Ties go to
// the first action.
func greedy(predictions []float32, actions []types.Action) types.Action {
	var best types.Action
	bestVal := float32(math.Inf(-1))
	for _, a := range actions {
		idx := a.Index()
		if idx < 0 || idx >= len(predictions) {
			continue
		}
		val := predictions[idx]
		if math.IsNaN(float64(val)) {
			panic(fmt.Sprintf("encountered a NaN while selecting action, predictions were: %v", predictions))
		}
		if best == nil || val > bestVal {
			best = a
			bestVal = val
		}
	}
	return best
}

// softmax samples a legal action with probability proportional to
// exp(prediction / temperature)
func softmax(predictions []float32, actions []types.Action, temperature float64, src *rand.Rand) (types.Action, bool) {
	if temperature <= 0 {
		temperature = 1
	}
	vals := make([]float64, len(actions))
	maxVal := math.Inf(-1)
	for i, a := range actions {
		idx := a.Index()
		if idx < 0 || idx >= len(predictions) {
			vals[i] = math.Inf(-1)
			continue
		}
		vals[i] = float64(predictions[idx]) / temperature
		if vals[i] > maxVal {
			maxVal = vals[i]
		}
	}
	if math.IsInf(maxVal, -1) {
		return nil, false
	}

	sum := float64(0)
	weights := make([]float64, len(actions))
	for i, v := range vals {
		exp := math.Exp(v - maxVal)
		weights[i] = exp
		sum += exp
	}
	for i := range weights {
		weights[i] /= sum
	}
	i, ok := sampleuv.NewWeighted(weights, src).Take()
	if !ok {
		return nil, false
	}
	return actions[i], true
}
