package render

import (
	"fmt"
	"io"
)

// Job is a single render attempt handed to a Renderer: what to render, the
// data to render it with, and where to write. A job ends exactly once, either
// through End or through Fail; anything after that is ignored.
type Job struct {
	// Template is the resolved template identifier (directory prefix applied).
	Template string
	// Data is a snapshot of the view's merged data mapping.
	Data map[string]any
	// Nested reports whether output feeds a parent view instead of a response.
	// Renderers that can produce structured values should hand them over
	// unencoded when Nested is set.
	Nested bool

	sink  Sink
	sched Scheduler

	done    bool
	ended   bool
	err     error
	onError []func(error)
	onEnd   []func()
}

// NewJob builds a job writing into sink. sched is used to replay late handler
// registrations and to run Go work; it may be nil for fully synchronous use.
func NewJob(template string, data map[string]any, sink Sink, sched Scheduler) *Job {
	if data == nil {
		data = map[string]any{}
	}
	return &Job{
		Template: template,
		Data:     data,
		sink:     sink,
		sched:    sched,
	}
}

// Write forwards a chunk to the sink. Writes after the job finished are
// dropped.
func (j *Job) Write(chunk any) error {
	if j.done || j.sink == nil {
		return nil
	}
	return j.sink.Write(chunk)
}

// Writer exposes the job as an io.Writer for template engines.
func (j *Job) Writer() io.Writer {
	return jobWriter{j}
}

// End closes the sink and fires the end handlers.
func (j *Job) End() {
	if j.done {
		return
	}
	if j.sink != nil {
		if err := j.sink.End(); err != nil {
			j.fail(err)
			return
		}
	}
	j.done = true
	j.ended = true
	for _, fn := range j.onEnd {
		fn()
	}
}

// Fail reports a render failure to the error handlers.
func (j *Job) Fail(err error) {
	if j.done {
		return
	}
	if err == nil {
		err = fmt.Errorf("render: template %q failed", j.Template)
	}
	j.fail(err)
}

func (j *Job) fail(err error) {
	j.done = true
	j.err = err
	for _, fn := range j.onError {
		fn(err)
	}
}

// OnError registers fn for the failure event. If the job already failed, fn
// is replayed on the next tick.
func (j *Job) OnError(fn func(error)) *Job {
	if fn == nil {
		return j
	}
	if j.done {
		if !j.ended {
			err := j.err
			j.replay(func() { fn(err) })
		}
		return j
	}
	j.onError = append(j.onError, fn)
	return j
}

// OnEnd registers fn for the end event. If the job already ended, fn is
// replayed on the next tick.
func (j *Job) OnEnd(fn func()) *Job {
	if fn == nil {
		return j
	}
	if j.done {
		if j.ended {
			j.replay(fn)
		}
		return j
	}
	j.onEnd = append(j.onEnd, fn)
	return j
}

// Done reports whether the job has ended or failed.
func (j *Job) Done() bool {
	return j.done
}

// Err returns the failure, if any.
func (j *Job) Err() error {
	return j.err
}

// Go runs work off the loop and, back on the loop, writes its result and ends
// the job (or fails it). Without a scheduler work runs inline.
func (j *Job) Go(work func() (any, error)) {
	finish := func(out any, err error) func() {
		return func() {
			if err != nil {
				j.Fail(err)
				return
			}
			if out != nil {
				if err := j.Write(out); err != nil {
					j.Fail(err)
					return
				}
			}
			j.End()
		}
	}

	if j.sched == nil {
		finish(work())()
		return
	}
	j.sched.Go(func() func() {
		return finish(work())
	})
}

// Stream runs work off the loop like Go, but lets it emit any number of chunks
// while it runs. Each chunk is written on the loop in emit order, then the job
// ends, or fails with the error work returns. Without a scheduler everything
// runs inline.
func (j *Job) Stream(work func(emit func(chunk any)) error) {
	write := func(chunk any) {
		if err := j.Write(chunk); err != nil {
			j.Fail(err)
		}
	}
	finish := func(err error) {
		if err != nil {
			j.Fail(err)
			return
		}
		j.End()
	}

	if j.sched == nil {
		finish(work(write))
		return
	}
	j.sched.Go(func() func() {
		err := work(func(chunk any) {
			j.sched.Post(func() { write(chunk) })
		})
		return func() { finish(err) }
	})
}

func (j *Job) replay(fn func()) {
	if j.sched == nil {
		fn()
		return
	}
	j.sched.Post(fn)
}

type jobWriter struct {
	job *Job
}

func (w jobWriter) Write(p []byte) (int, error) {
	if err := w.job.Write(string(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}
