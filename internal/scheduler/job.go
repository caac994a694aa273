package scheduler

import (
	"context"
	"time"
)

// historySize bounds the results kept per job.
const historySize = 100

// Job is one unit of scheduled engine work.
// SSOT: the scheduled job interface is defined only here
type Job interface {
	Name() string

	// Run executes the job. A returned error makes the scheduler retry.
	Run(ctx context.Context) error

	// Schedule returns the cron expression, seconds first
	// ("0 0 2 * * *" is every day at 02:00) or a descriptor such as "@daily".
	Schedule() string
}

// JobResult records one execution, retries included.
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory is the in-process execution log of one job.
type JobHistory struct {
	Results []JobResult
}

// Add appends a result, dropping the oldest beyond historySize.
func (h *JobHistory) Add(result JobResult) {
	h.Results = append(h.Results, result)
	if over := len(h.Results) - historySize; over > 0 {
		h.Results = h.Results[over:]
	}
}

// Latest returns up to n most recent results, oldest first.
func (h *JobHistory) Latest(n int) []JobResult {
	if n > len(h.Results) {
		n = len(h.Results)
	}
	return h.Results[len(h.Results)-n:]
}

// Last returns the most recent result, if any
func (h *JobHistory) Last() (JobResult, bool) {
	if len(h.Results) == 0 {
		return JobResult{}, false
	}
	return h.Results[len(h.Results)-1], true
}

// Counts splits the kept results into successes and failures.
func (h *JobHistory) Counts() (succeeded, failed int) {
	for _, r := range h.Results {
		if r.Success {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// SuccessRate is succeeded/total in [0, 1]; 0 without history.
func (h *JobHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0
	}
	ok, _ := h.Counts()
	return float64(ok) / float64(len(h.Results))
}
