package types

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strconv"
)

// VisitGraph is the graph of visited states, edges are labelled with actions
type VisitGraph struct {
	Nodes map[string]*Node `json:"nodes"`
}

func NewVisitGraph() *VisitGraph {
	return &VisitGraph{
		Nodes: make(map[string]*Node),
	}
}

// Update adds the transition and reports whether from was not seen before
func (v *VisitGraph) Update(from State, action string, to State) bool {
	fromKey := from.Hash()
	toKey := to.Hash()
	new := false
	if _, ok := v.Nodes[fromKey]; !ok {
		v.Nodes[fromKey] = NewNode(fromKey)
		new = true
	}
	if _, ok := v.Nodes[toKey]; !ok {
		v.Nodes[toKey] = NewNode(toKey)
	}
	v.Nodes[fromKey].Visits += 1
	v.Nodes[fromKey].AddNext(action, toKey)
	v.Nodes[toKey].AddPrev(action, fromKey)
	return new
}

func (v *VisitGraph) GetVisits() map[string]int {
	results := make(map[string]int)
	for k, n := range v.Nodes {
		results[k] = n.Visits
	}
	return results
}

// Edges counts the distinct (from, action, to) transitions
func (v *VisitGraph) Edges() int {
	edges := 0
	for _, n := range v.Nodes {
		for _, next := range n.Next {
			edges += len(next)
		}
	}
	return edges
}

func (v *VisitGraph) Record(filePath string) error {
	bs, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, bs, 0644)
}

type Node struct {
	Key    string `json:"key"`
	Visits int    `json:"visits"`
	// Next, Prev: Each action can lead to many states
	Next map[string]map[string]bool `json:"next"`
	Prev map[string]map[string]bool `json:"prev"`
}

func NewNode(key string) *Node {
	return &Node{
		Key:    key,
		Visits: 0,
		Next:   make(map[string]map[string]bool),
		Prev:   make(map[string]map[string]bool),
	}
}

func (n *Node) AddPrev(a, prev string) {
	if _, ok := n.Prev[a]; !ok {
		n.Prev[a] = make(map[string]bool)
	}
	n.Prev[a][prev] = true
}

func (n *Node) AddNext(a, next string) {
	if _, ok := n.Next[a]; !ok {
		n.Next[a] = make(map[string]bool)
	}
	n.Next[a][next] = true
}

type VisitGraphAnalyzer struct {
	graph *VisitGraph
}

var _ Analyzer = &VisitGraphAnalyzer{}

func StateGraph() AnalyzerFactory {
	return func() Analyzer {
		return &VisitGraphAnalyzer{graph: NewVisitGraph()}
	}
}

func (v *VisitGraphAnalyzer) Analyze(_ int, _ string, trace *Trace) {
	for i := 0; i < trace.Len(); i++ {
		state, action, _, next, _ := trace.Get(i)
		v.graph.Update(state, action.Hash(), next)
	}
}

func (v *VisitGraphAnalyzer) DataSet() DataSet {
	return v.graph
}

// VisitGraphComparator stores the graph of every experiment as JSON and
// prints the node and edge counts
func VisitGraphComparator(savePath string) Comparator {
	if _, err := os.Stat(savePath); err != nil {
		os.MkdirAll(savePath, os.ModePerm)
	}
	return func(run, _ int, names []string, ds []DataSet) {
		for i, name := range names {
			graph := ds[i].(*VisitGraph)
			fmt.Printf("Graph %s: %d states, %d transitions\n", name, len(graph.Nodes), graph.Edges())
			graph.Record(path.Join(savePath, strconv.Itoa(run)+"_"+name+"_graph.json"))
		}
	}
}
