package types

import (
	"fmt"
	"os"
	"path"
	"strconv"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// CoverageAnalyzer counts the unique states seen after every episode
type CoverageAnalyzer struct {
	uniqueStates    map[string]bool
	numUniqueStates []int
}

var _ Analyzer = &CoverageAnalyzer{}

func PureCoverage() AnalyzerFactory {
	return func() Analyzer {
		return &CoverageAnalyzer{
			uniqueStates:    make(map[string]bool),
			numUniqueStates: make([]int, 0),
		}
	}
}

func (c *CoverageAnalyzer) Analyze(_ int, _ string, trace *Trace) {
	for j := 0; j < trace.Len(); j++ {
		s, _, _, ns, _ := trace.Get(j)
		c.uniqueStates[s.Hash()] = true
		c.uniqueStates[ns.Hash()] = true
	}
	c.numUniqueStates = append(c.numUniqueStates, len(c.uniqueStates))
}

func (c *CoverageAnalyzer) DataSet() DataSet {
	out := make([]int, len(c.numUniqueStates))
	copy(out, c.numUniqueStates)
	return out
}

func PureCoveragePlotter(plotPath string) Comparator {
	if _, err := os.Stat(plotPath); err != nil {
		os.MkdirAll(plotPath, os.ModePerm)
	}
	return func(i, _ int, s []string, ds []DataSet) {
		p := plot.New()
		p.Title.Text = "Comparison"
		p.X.Label.Text = "Episode"
		p.Y.Label.Text = "States covered"
		for i := 0; i < len(s); i++ {
			uniqueStates := ds[i].([]int)
			if len(uniqueStates) == 0 {
				continue
			}
			points := make(plotter.XYs, len(uniqueStates))
			for i, v := range uniqueStates {
				points[i] = plotter.XY{
					X: float64(i),
					Y: float64(v),
				}
			}
			line, err := plotter.NewLine(points)
			if err != nil {
				continue
			}
			line.Color = plotutil.Color(i)
			p.Add(line)
			p.Legend.Add(s[i], line)
			fmt.Printf("Number of unique states: %d for benchmark: %s\n", uniqueStates[len(uniqueStates)-1], s[i])
		}
		p.Save(8*vg.Inch, 8*vg.Inch, path.Join(plotPath, strconv.Itoa(i)+"_pure_coverage.png"))
	}
}

// RewardAnalyzer keeps the total reward of every episode
type RewardAnalyzer struct {
	rewards []float64
}

var _ Analyzer = &RewardAnalyzer{}

func EpisodeReward() AnalyzerFactory {
	return func() Analyzer {
		return &RewardAnalyzer{rewards: make([]float64, 0)}
	}
}

func (r *RewardAnalyzer) Analyze(_ int, _ string, trace *Trace) {
	r.rewards = append(r.rewards, float64(trace.TotalReward()))
}

func (r *RewardAnalyzer) DataSet() DataSet {
	out := make([]float64, len(r.rewards))
	copy(out, r.rewards)
	return out
}

// MovingAverage smooths values over a trailing window
func MovingAverage(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(values))
	for i := range values {
		from := i - window + 1
		if from < 0 {
			from = 0
		}
		out[i] = stat.Mean(values[from:i+1], nil)
	}
	return out
}

// RewardPlotter plots the moving average of the episode rewards
func RewardPlotter(plotPath string, window int) Comparator {
	if _, err := os.Stat(plotPath); err != nil {
		os.MkdirAll(plotPath, os.ModePerm)
	}
	return func(run, _ int, names []string, ds []DataSet) {
		p := plot.New()
		p.Title.Text = "Comparison"
		p.X.Label.Text = "Episode"
		p.Y.Label.Text = "Reward (moving average " + strconv.Itoa(window) + ")"
		for i := 0; i < len(names); i++ {
			rewards := ds[i].([]float64)
			if len(rewards) == 0 {
				continue
			}
			smooth := MovingAverage(rewards, window)
			points := make(plotter.XYs, len(smooth))
			for j, v := range smooth {
				points[j] = plotter.XY{
					X: float64(j),
					Y: v,
				}
			}
			line, err := plotter.NewLine(points)
			if err != nil {
				continue
			}
			line.Color = plotutil.Color(i)
			p.Add(line)
			p.Legend.Add(names[i], line)
			mean, std := stat.MeanStdDev(rewards, nil)
			fmt.Printf("Reward mean: %.3f std: %.3f last: %.3f for benchmark: %s\n", mean, std, smooth[len(smooth)-1], names[i])
		}
		p.Save(8*vg.Inch, 8*vg.Inch, path.Join(plotPath, strconv.Itoa(run)+"_reward.png"))
	}
}
