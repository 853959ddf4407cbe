package scoring

import (
	"sort"

	"alfredoptarigan/resume-rubric/internal/rubric"
)

// Recommendation kinds.
const (
	KindTopPriority = "top_priority"
	KindQuickWin    = "quick_win"
)

const (
	maxTopPriorities = 3
	maxQuickWins     = 3
	// priorityCeiling excludes dimensions that already score well.
	priorityCeiling = 4.0
	// quickWinGap is how far below the next band a pass rate may sit.
	quickWinGap = 0.10
)

// Recommendation points at one dimension and the signals that held it back.
type Recommendation struct {
	Kind              string   `json:"kind"`
	Dimension         string   `json:"dimension"`
	Score             float64  `json:"score"`
	Weight            float64  `json:"weight"`
	FailedSignals     []string `json:"failed_signals"`
	Advice            string   `json:"advice"`
	ChecksToNextLevel int      `json:"checks_to_next_level,omitempty"`
}

// Rank orders dimensions ascending by score, then by descending weight, then by id.
func Rank(dims []DimensionScore) []DimensionScore {
	out := append([]DimensionScore(nil), dims...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		return a.Dimension < b.Dimension
	})
	return out
}

// Recommend derives top priorities and quick wins from an evaluation. It runs
// no checks of its own.
func Recommend(ev *Evaluation, catalog *rubric.Catalog) []Recommendation {
	ranked := Rank(ev.Dimensions)
	advice := func(id string) string {
		if d, ok := catalog.Get(id); ok {
			return d.Advice
		}
		return ""
	}

	var out []Recommendation
	picked := make(map[string]struct{})

	for _, d := range ranked {
		if len(picked) == maxTopPriorities {
			break
		}
		if d.Score >= priorityCeiling {
			break
		}
		out = append(out, Recommendation{
			Kind:          KindTopPriority,
			Dimension:     d.Dimension,
			Score:         d.Score,
			Weight:        d.Weight,
			FailedSignals: d.FailedSignals,
			Advice:        advice(d.Dimension),
		})
		picked[d.Dimension] = struct{}{}
	}

	wins := 0
	for _, d := range ranked {
		if wins == maxQuickWins {
			break
		}
		if _, dup := picked[d.Dimension]; dup {
			continue
		}
		need, ok := checksToNextBand(d)
		if !ok {
			continue
		}
		out = append(out, Recommendation{
			Kind:              KindQuickWin,
			Dimension:         d.Dimension,
			Score:             d.Score,
			Weight:            d.Weight,
			FailedSignals:     d.FailedSignals,
			Advice:            advice(d.Dimension),
			ChecksToNextLevel: need,
		})
		wins++
	}
	return out
}

// checksToNextBand reports how many more passing checks would lift the
// signal-derived score one band, when the pass rate sits within quickWinGap
// of that band.
func checksToNextBand(d DimensionScore) (int, bool) {
	next, ok := nextBand(d.PassRate)
	if !ok || d.Checked == 0 || next-d.PassRate > quickWinGap {
		return 0, false
	}
	passed := d.Checked - d.Failed
	for k := 1; passed+k <= d.Checked; k++ {
		if float64(passed+k)/float64(d.Checked) >= next {
			return k, true
		}
	}
	return 0, false
}
