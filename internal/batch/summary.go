package batch

import (
	"time"
)

// JobResult is the reported outcome of one input.
type JobResult struct {
	Input     string        `json:"input" yaml:"input"`
	Output    string        `json:"output,omitempty" yaml:"output,omitempty"`
	Status    Status        `json:"status" yaml:"status"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorKind string        `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Skipped   bool          `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Cues      int           `json:"cues,omitempty" yaml:"cues,omitempty"`
	Duration  time.Duration `json:"duration" yaml:"duration"`

	err error
}

// Err returns the underlying error for failed jobs.
func (r JobResult) Err() error {
	return r.err
}

// Summary is the batch report. It is always produced, even when every job
// fails or the batch is cancelled.
type Summary struct {
	BatchID    string        `json:"batch_id" yaml:"batch_id"`
	StartedAt  time.Time     `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time     `json:"finished_at" yaml:"finished_at"`
	Done       int           `json:"done" yaml:"done"`
	Failed     int           `json:"failed" yaml:"failed"`
	Skipped    int           `json:"skipped" yaml:"skipped"`
	Jobs       []JobResult   `json:"jobs" yaml:"jobs"`
	Elapsed    time.Duration `json:"elapsed" yaml:"elapsed"`
}

// OK reports whether every job finished successfully.
func (s Summary) OK() bool {
	return s.Failed == 0
}

// Failures returns the failed job results in input order.
func (s Summary) Failures() []JobResult {
	var out []JobResult
	for _, job := range s.Jobs {
		if job.Status == StatusFailed {
			out = append(out, job)
		}
	}
	return out
}

func (s *Summary) tally() {
	s.Done, s.Failed, s.Skipped = 0, 0, 0
	for _, job := range s.Jobs {
		switch job.Status {
		case StatusDone:
			s.Done++
			if job.Skipped {
				s.Skipped++
			}
		case StatusFailed:
			s.Failed++
		}
	}
}
