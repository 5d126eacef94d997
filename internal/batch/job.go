package batch

import (
	"context"
	"time"

	"github.com/looplab/fsm"
)

// Status is a job lifecycle state.
type Status string

const (
	StatusPending      Status = "pending"
	StatusExtracting   Status = "extracting"
	StatusTranscribing Status = "transcribing"
	StatusFormatting   Status = "formatting"
	StatusDone         Status = "done"
	StatusFailed       Status = "failed"
)

const (
	eventExtract    = "extract"
	eventTranscribe = "transcribe"
	eventFormat     = "format"
	eventComplete   = "complete"
	eventFail       = "fail"
)

// Job tracks one input through the pipeline. A Job is owned by the worker
// processing it and never shared.
type Job struct {
	Input  Input
	Output string

	machine  *fsm.FSM
	err      error
	skipped  bool
	cues     int
	started  time.Time
	finished time.Time
	onChange func(*Job, Status, Status)
}

func newJob(in Input, output string, onChange func(*Job, Status, Status)) *Job {
	job := &Job{Input: in, Output: output, onChange: onChange}
	job.machine = fsm.NewFSM(
		string(StatusPending),
		fsm.Events{
			{Name: eventExtract, Src: []string{string(StatusPending)}, Dst: string(StatusExtracting)},
			{Name: eventTranscribe, Src: []string{string(StatusExtracting)}, Dst: string(StatusTranscribing)},
			{Name: eventFormat, Src: []string{string(StatusTranscribing)}, Dst: string(StatusFormatting)},
			// Pending -> done is the resume shortcut for unchanged inputs.
			{Name: eventComplete, Src: []string{string(StatusFormatting), string(StatusPending)}, Dst: string(StatusDone)},
			{Name: eventFail, Src: []string{
				string(StatusPending),
				string(StatusExtracting),
				string(StatusTranscribing),
				string(StatusFormatting),
			}, Dst: string(StatusFailed)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				if job.onChange != nil {
					job.onChange(job, Status(e.Src), Status(e.Dst))
				}
			},
		},
	)
	return job
}

// Status returns the current lifecycle state.
func (j *Job) Status() Status {
	return Status(j.machine.Current())
}

// Err returns the captured failure, if any.
func (j *Job) Err() error {
	return j.err
}

// Terminal reports whether the job reached Done or Failed.
func (j *Job) Terminal() bool {
	switch j.Status() {
	case StatusDone, StatusFailed:
		return true
	}
	return false
}

// The state machine refuses transitions on a cancelled context, but a
// cancelled job still has to reach Failed.
func (j *Job) event(ctx context.Context, event string) error {
	return j.machine.Event(context.WithoutCancel(ctx), event)
}

func (j *Job) advance(ctx context.Context, event string) error {
	return j.event(ctx, event)
}

func (j *Job) fail(ctx context.Context, err error) {
	if j.Terminal() {
		return
	}
	j.err = err
	j.finished = time.Now()
	_ = j.event(ctx, eventFail)
}

func (j *Job) complete(ctx context.Context) error {
	if err := j.event(ctx, eventComplete); err != nil {
		return err
	}
	j.finished = time.Now()
	return nil
}

func (j *Job) duration() time.Duration {
	if j.started.IsZero() || j.finished.IsZero() {
		return 0
	}
	return j.finished.Sub(j.started)
}
