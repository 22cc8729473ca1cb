package policies

import (
	"encoding/json"
	"math"

	"github.com/zeu5/reinforced/util"
)

// QTable maps state and action hashes to values
type QTable struct {
	table map[string]map[string]float64
}

func NewQTable() *QTable {
	return &QTable{
		table: make(map[string]map[string]float64),
	}
}

// Get returns the value of (state, action), storing def when unseen
func (q *QTable) Get(state, action string, def float64) float64 {
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[string]float64)
	}
	if _, ok := q.table[state][action]; !ok {
		q.table[state][action] = def
	}
	return q.table[state][action]
}

func (q *QTable) Set(state, action string, val float64) {
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[string]float64)
	}
	q.table[state][action] = val
}

func (q *QTable) HasState(state string) bool {
	_, ok := q.table[state]
	return ok
}

// States is the number of states with at least one entry
func (q *QTable) States() int {
	return len(q.table)
}

func (q *QTable) Max(state string, def float64) (string, float64) {
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[string]float64)
		return "", def
	}
	maxAction := ""
	maxVal := math.Inf(-1)
	for a, val := range q.table[state] {
		if val > maxVal || (val == maxVal && a < maxAction) {
			maxAction = a
			maxVal = val
		}
	}
	if maxAction == "" {
		return "", def
	}
	return maxAction, maxVal
}

// MaxAmong is Max restricted to actions, unseen actions count as def
func (q *QTable) MaxAmong(state string, actions []string, def float64) (string, float64) {
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[string]float64)
	}
	maxAction := ""
	maxVal := math.Inf(-1)
	for _, a := range actions {
		if _, ok := q.table[state][a]; !ok {
			q.table[state][a] = def
		}
		val := q.table[state][a]
		if val > maxVal {
			maxAction = a
			maxVal = val
		}
	}
	return maxAction, maxVal
}

// Record writes the table as JSON
func (q *QTable) Record(path string) error {
	bs, err := json.Marshal(q.table)
	if err != nil {
		return err
	}
	return util.WriteToFile(path, string(bs))
}
