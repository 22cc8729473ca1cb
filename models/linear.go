// Package models implements value models for Q agents
package models

import (
	"fmt"

	"github.com/zeu5/reinforced/types"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LinearModel predicts Q(s) = W s + b. Gradients of squared error are
// accumulated by ApplyPartialUpdate and applied as one averaged SGD step on
// Update.
type LinearModel struct {
	inputs       int
	outputs      int
	learningRate float64
	seed         uint64

	weights *mat.Dense
	bias    *mat.VecDense

	targetWeights *mat.Dense
	targetBias    *mat.VecDense

	gradWeights *mat.Dense
	gradBias    *mat.VecDense
	pending     int
}

var _ types.Model = &LinearModel{}

func NewLinearModel(inputs, outputs int, learningRate float64, seed uint64) *LinearModel {
	m := &LinearModel{
		inputs:       inputs,
		outputs:      outputs,
		learningRate: learningRate,
		seed:         seed,
	}
	m.Reset()
	return m
}

// Reset draws new small random weights and syncs the target copy
func (m *LinearModel) Reset() {
	r := rand.New(rand.NewSource(m.seed))
	data := make([]float64, m.outputs*m.inputs)
	for i := range data {
		data[i] = r.NormFloat64() * 0.01
	}
	m.weights = mat.NewDense(m.outputs, m.inputs, data)
	m.bias = mat.NewVecDense(m.outputs, nil)
	m.targetWeights = mat.NewDense(m.outputs, m.inputs, nil)
	m.targetBias = mat.NewVecDense(m.outputs, nil)
	m.gradWeights = mat.NewDense(m.outputs, m.inputs, nil)
	m.gradBias = mat.NewVecDense(m.outputs, nil)
	m.pending = 0
	m.SyncTarget()
}

func (m *LinearModel) input(f types.Features) []float64 {
	if len(f) != m.inputs {
		panic(fmt.Sprintf("linear model expects %d features, got %d", m.inputs, len(f)))
	}
	x := make([]float64, len(f))
	for i, v := range f {
		x[i] = float64(v)
	}
	return x
}

func (m *LinearModel) predict(w *mat.Dense, b *mat.VecDense, f types.Features) []float32 {
	x := mat.NewVecDense(m.inputs, m.input(f))
	y := mat.NewVecDense(m.outputs, nil)
	y.MulVec(w, x)
	y.AddVec(y, b)
	out := make([]float32, m.outputs)
	for i := range out {
		out[i] = float32(y.AtVec(i))
	}
	return out
}

func (m *LinearModel) Predict(f types.Features) []float32 {
	return m.predict(m.weights, m.bias, f)
}

func (m *LinearModel) PredictTarget(f types.Features) []float32 {
	return m.predict(m.targetWeights, m.targetBias, f)
}

func (m *LinearModel) ApplyPartialUpdate(f types.Features, index int, target float32) float32 {
	if index < 0 || index >= m.outputs {
		panic(fmt.Sprintf("output index %d out of range [0, %d)", index, m.outputs))
	}
	x := m.input(f)
	pred := floats.Dot(m.weights.RawRowView(index), x) + m.bias.AtVec(index)
	diff := pred - float64(target)

	floats.AddScaled(m.gradWeights.RawRowView(index), diff, x)
	m.gradBias.SetVec(index, m.gradBias.AtVec(index)+diff)
	m.pending++
	return float32(diff * diff)
}

func (m *LinearModel) Update() {
	if m.pending == 0 {
		return
	}
	step := -m.learningRate / float64(m.pending)
	m.gradWeights.Scale(step, m.gradWeights)
	m.weights.Add(m.weights, m.gradWeights)
	m.bias.AddScaledVec(m.bias, step, m.gradBias)

	m.gradWeights.Zero()
	m.gradBias.Zero()
	m.pending = 0
}

func (m *LinearModel) SyncTarget() {
	m.targetWeights.Copy(m.weights)
	m.targetBias.CopyVec(m.bias)
}
