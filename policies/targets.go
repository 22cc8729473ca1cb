package policies

import (
	"fmt"

	"github.com/zeu5/reinforced/types"
	"gonum.org/v1/gonum/floats"
)

// Target is the training target stored with a node: the value the model
// output at Index should move to
type Target struct {
	Index int
	Value float32
	// the transition ended the episode, Value does not depend on the target model
	Terminal bool
}

func toFloat64(predictions []float32) []float64 {
	out := make([]float64, len(predictions))
	for i, p := range predictions {
		out[i] = float64(p)
	}
	return out
}

// Bellman target: reward + discount * max Q(next)
type Bellman struct {
	Discount float32
}

var _ types.TargetRule = Bellman{}

func NewBellman(discount float32) Bellman {
	return Bellman{Discount: discount}
}

func (b Bellman) Value(reward float32, predictions []float32) float32 {
	if len(predictions) == 0 {
		return reward
	}
	preds := toFloat64(predictions)
	if floats.HasNaN(preds) {
		panic(fmt.Sprintf("encountered a NaN, predictions were: %v", predictions))
	}
	return reward + b.Discount*float32(floats.Max(preds))
}

// SoftBellman target: reward + discount * log sum exp Q(next)
type SoftBellman struct {
	Discount float32
}

var _ types.TargetRule = SoftBellman{}

func NewSoftBellman(discount float32) SoftBellman {
	return SoftBellman{Discount: discount}
}

func (s SoftBellman) Value(reward float32, predictions []float32) float32 {
	if len(predictions) == 0 {
		return reward
	}
	preds := toFloat64(predictions)
	if floats.HasNaN(preds) {
		panic(fmt.Sprintf("encountered a NaN, predictions were: %v", predictions))
	}
	return reward + s.Discount*float32(floats.LogSumExp(preds))
}
