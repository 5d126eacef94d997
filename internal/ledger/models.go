package ledger

import "time"

// Status is the terminal outcome of a job.
type Status string

const (
	StatusDone   Status = "done"
	StatusFailed Status = "failed"
)

// Entry is one recorded job outcome.
type Entry struct {
	ID           int64         `json:"id" yaml:"id"`
	BatchID      string        `json:"batch_id" yaml:"batch_id"`
	Input        string        `json:"input" yaml:"input"`
	Output       string        `json:"output,omitempty" yaml:"output,omitempty"`
	Format       string        `json:"format" yaml:"format"`
	Status       Status        `json:"status" yaml:"status"`
	ErrorKind    string        `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	ErrorMessage string        `json:"error,omitempty" yaml:"error,omitempty"`
	InputSize    int64         `json:"input_size" yaml:"input_size"`
	InputModTime time.Time     `json:"input_mtime" yaml:"input_mtime"`
	Cues         int           `json:"cues" yaml:"cues"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
	FinishedAt   time.Time     `json:"finished_at" yaml:"finished_at"`
}

// Matches reports whether a previous success still describes the input as it
// is now: same size, same modification time, same output format, and the
// output is still present.
func (e *Entry) Matches(size int64, modTime time.Time, format string, outputExists func(string) bool) bool {
	if e == nil || e.Status != StatusDone {
		return false
	}
	if e.InputSize != size || !e.InputModTime.Equal(modTime.UTC()) {
		return false
	}
	if e.Format != format || e.Output == "" {
		return false
	}
	return outputExists == nil || outputExists(e.Output)
}
