package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zeu5/reinforced/types"
)

// TabularModel keeps one row of values per distinct feature vector
type TabularModel struct {
	outputs int
	alpha   float32
	initial float32

	online  map[string][]float32
	target  map[string][]float32
	pending []tabularUpdate
}

type tabularUpdate struct {
	key    string
	index  int
	target float32
}

var _ types.Model = &TabularModel{}

func NewTabularModel(outputs int, alpha, initial float32) *TabularModel {
	return &TabularModel{
		outputs: outputs,
		alpha:   alpha,
		initial: initial,
		online:  make(map[string][]float32),
		target:  make(map[string][]float32),
		pending: make([]tabularUpdate, 0),
	}
}

func featureKey(f types.Features) string {
	var b strings.Builder
	for i, v := range f {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	return b.String()
}

func (t *TabularModel) row(table map[string][]float32, key string) []float32 {
	if r, ok := table[key]; ok {
		return r
	}
	r := make([]float32, t.outputs)
	for i := range r {
		r[i] = t.initial
	}
	return r
}

func (t *TabularModel) Predict(f types.Features) []float32 {
	r := t.row(t.online, featureKey(f))
	out := make([]float32, len(r))
	copy(out, r)
	return out
}

func (t *TabularModel) PredictTarget(f types.Features) []float32 {
	r := t.row(t.target, featureKey(f))
	out := make([]float32, len(r))
	copy(out, r)
	return out
}

func (t *TabularModel) ApplyPartialUpdate(f types.Features, index int, target float32) float32 {
	if index < 0 || index >= t.outputs {
		panic(fmt.Sprintf("output index %d out of range [0, %d)", index, t.outputs))
	}
	key := featureKey(f)
	diff := t.row(t.online, key)[index] - target
	t.pending = append(t.pending, tabularUpdate{key: key, index: index, target: target})
	return diff * diff
}

func (t *TabularModel) Update() {
	for _, u := range t.pending {
		r := t.row(t.online, u.key)
		r[u.index] += t.alpha * (u.target - r[u.index])
		t.online[u.key] = r
	}
	t.pending = t.pending[:0]
}

func (t *TabularModel) SyncTarget() {
	t.target = make(map[string][]float32, len(t.online))
	for k, r := range t.online {
		c := make([]float32, len(r))
		copy(c, r)
		t.target[k] = c
	}
}

// Reset forgets every value
func (t *TabularModel) Reset() {
	t.online = make(map[string][]float32)
	t.target = make(map[string][]float32)
	t.pending = t.pending[:0]
}

// States is the number of rows in the online table
func (t *TabularModel) States() int {
	return len(t.online)
}
