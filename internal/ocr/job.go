package ocr

import (
	"sync/atomic"

	"jordanella.com/autovision/internal/cv"
)

// JobState tracks where a recognition job is in its lifecycle
type JobState int32

const (
	JobSubmitted JobState = iota
	JobRunning
	JobSucceeded
	JobFailed
)

// Progress is an informational notification emitted while a job runs.
// Notifications never substitute for a terminal outcome.
type Progress struct {
	Status   string
	Fraction float64 // 0..1
}

// Word is a single recognized word with its own confidence and bounds
type Word struct {
	Text       string
	Confidence float64
	Bounds     cv.Region
}

// Page is the structured result of a successful recognition job
type Page struct {
	Text       string
	Confidence float64
	Words      []Word
}

// progressBuffer bounds the progress side-channel; notifications beyond
// it are dropped rather than buffered unbounded.
const progressBuffer = 8

// Job is a single submitted recognition request. It settles exactly once:
// Done is closed when a terminal state is reached, after which Result
// returns the tagged outcome. The Progress channel is a side-channel the
// caller may drain or ignore; it is closed before the job settles.
type Job struct {
	progress chan Progress
	done     chan struct{}
	state    atomic.Int32

	page Page
	err  error
}

// NewJob creates a job in the Submitted state. Engines drive it through
// Notify and exactly one of Succeed or Fail.
func NewJob() *Job {
	return &Job{
		progress: make(chan Progress, progressBuffer),
		done:     make(chan struct{}),
	}
}

// Progress returns the informational notification side-channel
func (j *Job) Progress() <-chan Progress {
	return j.progress
}

// Done is closed once the job reaches a terminal state
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Result returns the terminal outcome. It must only be read after Done
// is closed.
func (j *Job) Result() (Page, error) {
	return j.page, j.err
}

// State returns the current lifecycle state
func (j *Job) State() JobState {
	return JobState(j.state.Load())
}

// Engine-side transitions. A single engine worker drives each job, so the
// transition methods are not safe for concurrent use with each other.

// Notify emits a progress notification. Full buffers drop the
// notification; terminal jobs ignore it.
func (j *Job) Notify(p Progress) {
	j.state.CompareAndSwap(int32(JobSubmitted), int32(JobRunning))
	if JobState(j.state.Load()) >= JobSucceeded {
		return
	}
	select {
	case j.progress <- p:
	default:
	}
}

// Succeed settles the job with a page. Later transitions are ignored.
func (j *Job) Succeed(page Page) {
	if !j.settle(JobSucceeded) {
		return
	}
	j.page = page
	close(j.progress)
	close(j.done)
}

// Fail settles the job with an error. Later transitions are ignored.
func (j *Job) Fail(err error) {
	if !j.settle(JobFailed) {
		return
	}
	j.err = err
	close(j.progress)
	close(j.done)
}

func (j *Job) settle(terminal JobState) bool {
	for {
		s := j.state.Load()
		if JobState(s) >= JobSucceeded {
			return false
		}
		if j.state.CompareAndSwap(s, int32(terminal)) {
			return true
		}
	}
}
