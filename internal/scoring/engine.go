package scoring

import (
	"alfredoptarigan/resume-rubric/internal/resume"
	"alfredoptarigan/resume-rubric/internal/rubric"
)

// CheckResult is the tally for one signal of one dimension.
type CheckResult struct {
	Signal  string `json:"signal"`
	Checked int    `json:"checked"`
	Failed  int    `json:"failed"`
}

// SignalResult is the tally for one dimension. It is recomputed on every
// evaluation and never stored on its own.
type SignalResult struct {
	Dimension string        `json:"dimension"`
	Checks    []CheckResult `json:"checks"`
	Checked   int           `json:"checked"`
	Failed    int           `json:"failed"`
}

// PassRate is (checked - failed) / checked. ok is false when nothing was checked.
func (r SignalResult) PassRate() (rate float64, ok bool) {
	if r.Checked == 0 {
		return 0, false
	}
	return float64(r.Checked-r.Failed) / float64(r.Checked), true
}

// Passed is the number of successful checks.
func (r SignalResult) Passed() int {
	return r.Checked - r.Failed
}

// FailedSignals lists signals with at least one failure, in the dimension's signal order.
func (r SignalResult) FailedSignals() []string {
	var out []string
	for _, c := range r.Checks {
		if c.Failed > 0 {
			out = append(out, c.Signal)
		}
	}
	return out
}

// RunChecks evaluates every registered signal of each dimension against the
// resume's bullets. It makes no external calls and does not depend on map order.
func RunChecks(structure resume.Structure, dims []rubric.Dimension, registry Registry) map[string]SignalResult {
	bullets := structure.Bullets()
	out := make(map[string]SignalResult, len(dims))

	for _, dim := range dims {
		res := SignalResult{Dimension: dim.ID}
		for _, signal := range dim.Signals {
			check, ok := registry[signal]
			if !ok {
				continue
			}
			cr := runCheck(signal, check, bullets)
			if cr.Checked == 0 {
				continue
			}
			res.Checks = append(res.Checks, cr)
			res.Checked += cr.Checked
			res.Failed += cr.Failed
		}
		out[dim.ID] = res
	}
	return out
}

func runCheck(signal string, check Check, bullets []resume.Bullet) CheckResult {
	cr := CheckResult{Signal: signal}
	if len(bullets) == 0 {
		return cr
	}

	hits := 0
	for _, b := range bullets {
		if check.Pass(b) {
			hits++
		}
	}

	if check.Coverage {
		cr.Checked = 1
		if hits == 0 || float64(hits)/float64(len(bullets)) < check.MinShare {
			cr.Failed = 1
		}
		return cr
	}

	cr.Checked = len(bullets)
	cr.Failed = len(bullets) - hits
	return cr
}
