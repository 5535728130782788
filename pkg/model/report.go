package model

import "time"

// Report is the ordered set of results of one automation run.
type Report struct {
	Results  []CommandResult
	Started  time.Time
	Finished time.Time
}

// Summary holds the derived counters of a Report.
type Summary struct {
	Total      int
	Succeeded  int
	Failed     int
	TotalLines int // sum of LineCount over successful results
}

// Successes returns the successful results in report order.
func (r *Report) Successes() []CommandResult {
	var out []CommandResult
	for _, res := range r.Results {
		if res.Success {
			out = append(out, res)
		}
	}
	return out
}

// Failures returns the failed results in report order.
func (r *Report) Failures() []CommandResult {
	var out []CommandResult
	for _, res := range r.Results {
		if !res.Success {
			out = append(out, res)
		}
	}
	return out
}

// Summary computes the report counters.
func (r *Report) Summary() Summary {
	s := Summary{Total: len(r.Results)}
	for _, res := range r.Results {
		if res.Success {
			s.Succeeded++
			s.TotalLines += res.LineCount
		} else {
			s.Failed++
		}
	}
	return s
}
