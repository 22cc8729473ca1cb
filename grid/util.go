package grid

import (
	"encoding/json"
	"os"
	"path"
	"strconv"

	"github.com/zeu5/reinforced/types"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

type GridDataSet struct {
	Visits map[int]map[int]int
	Height int
	Width  int
}

var _ plotter.GridXYZ = &GridDataSet{}

func (g *GridDataSet) Dims() (int, int) {
	return g.Width, g.Height
}

func (g *GridDataSet) Z(j, i int) float64 {
	return float64(g.Visits[i][j])
}

func (g *GridDataSet) X(j int) float64 {
	return float64(j)
}

func (g *GridDataSet) Y(i int) float64 {
	return float64(i)
}

func (g *GridDataSet) Min() float64 {
	return 0.0
}

func (g *GridDataSet) Max() float64 {
	max := 0
	for _, vals := range g.Visits {
		for _, count := range vals {
			if count > max {
				max = count
			}
		}
	}
	return float64(max)
}

// flat reports whether every cell holds the same count
func (g *GridDataSet) flat() bool {
	first := g.Z(0, 0)
	for i := 0; i < g.Height; i++ {
		for j := 0; j < g.Width; j++ {
			if g.Z(j, i) != first {
				return false
			}
		}
	}
	return true
}

func (g *GridDataSet) visit(p *Position) {
	if _, ok := g.Visits[p.I]; !ok {
		g.Visits[p.I] = make(map[int]int)
	}
	if p.I+1 > g.Height {
		g.Height = p.I + 1
	}
	if p.J+1 > g.Width {
		g.Width = p.J + 1
	}
	g.Visits[p.I][p.J] += 1
}

func MergeGridDatasets(dataSets []types.DataSet) types.DataSet {
	newDataset := &GridDataSet{
		Visits: make(map[int]map[int]int),
		Height: 0,
		Width:  0,
	}
	for _, d := range dataSets {
		dGrid := d.(*GridDataSet)
		if dGrid.Height > newDataset.Height {
			newDataset.Height = dGrid.Height
		}
		if dGrid.Width > newDataset.Width {
			newDataset.Width = dGrid.Width
		}
		for i, vals := range dGrid.Visits {
			if _, ok := newDataset.Visits[i]; !ok {
				newDataset.Visits[i] = make(map[int]int)
			}
			for j, visits := range vals {
				newDataset.Visits[i][j] += visits
			}
		}
	}
	return newDataset
}

// VisitAnalyzer counts visits per (row, column) over all grids
type VisitAnalyzer struct {
	dataSet *GridDataSet
}

var _ types.Analyzer = &VisitAnalyzer{}

func GridAnalyzer() types.AnalyzerFactory {
	return func() types.Analyzer {
		return &VisitAnalyzer{
			dataSet: &GridDataSet{
				Visits: make(map[int]map[int]int),
			},
		}
	}
}

func (v *VisitAnalyzer) Analyze(_ int, _ string, trace *types.Trace) {
	for i := 0; i < trace.Len(); i++ {
		state, _, _, _, _ := trace.Get(i)
		if pos, ok := state.(*Position); ok {
			v.dataSet.visit(pos)
		}
	}
}

func (v *VisitAnalyzer) DataSet() types.DataSet {
	return v.dataSet
}

// GridPlotComparator stores the visit counts as JSON and renders a heat map
// per experiment
func GridPlotComparator(figPath string) types.Comparator {
	if _, err := os.Stat(figPath); err != nil {
		os.MkdirAll(figPath, os.ModePerm)
	}
	return func(run, _ int, s []string, ds []types.DataSet) {
		for i := 0; i < len(s); i++ {
			name := s[i]
			dataSet := ds[i].(*GridDataSet)
			prefix := path.Join(figPath, strconv.Itoa(run)+"_"+name)

			bs, _ := json.Marshal(dataSet)
			os.WriteFile(prefix+"_visits.json", bs, 0644)

			if dataSet.Width == 0 || dataSet.Height == 0 || dataSet.flat() {
				continue
			}
			p := plot.New()
			p.Title.Text = name
			p.Add(plotter.NewHeatMap(dataSet, palette.Heat(20, 1)))
			p.Save(4*vg.Inch, 4*vg.Inch, prefix+"_visits.png")
		}
	}
}
