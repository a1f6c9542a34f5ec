package testsupport

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-viewtree/pkg/render"
)

// TemplateFunc produces the output of a stub template.
type TemplateFunc func(data map[string]any) (string, error)

// StubRenderer renders from an in-memory template table. With Async set it
// produces output through job.Go, so the result lands on a later loop tick.
type StubRenderer struct {
	Templates map[string]TemplateFunc
	Async     bool

	mu    sync.Mutex
	calls []string
}

// Render implements render.Renderer.
func (r *StubRenderer) Render(_ context.Context, job *render.Job) {
	r.mu.Lock()
	r.calls = append(r.calls, job.Template)
	r.mu.Unlock()

	fn, ok := r.Templates[job.Template]
	if !ok {
		job.Fail(fmt.Errorf("testsupport: template %q not found", job.Template))
		return
	}

	data := job.Data
	if r.Async {
		job.Go(func() (any, error) {
			return fn(data)
		})
		return
	}

	out, err := fn(data)
	if err != nil {
		job.Fail(err)
		return
	}
	if err := job.Write(out); err != nil {
		job.Fail(err)
		return
	}
	job.End()
}

// Calls returns the templates rendered so far, in order.
func (r *StubRenderer) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// HoldRenderer parks every job it receives so tests can finish them by hand,
// in any order, at any time.
type HoldRenderer struct {
	mu   sync.Mutex
	jobs []*render.Job
}

// Render implements render.Renderer.
func (r *HoldRenderer) Render(_ context.Context, job *render.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
}

// Jobs returns the parked jobs in arrival order.
func (r *HoldRenderer) Jobs() []*render.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*render.Job(nil), r.jobs...)
}

// Last returns the most recent job, nil if none.
func (r *HoldRenderer) Last() *render.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.jobs) == 0 {
		return nil
	}
	return r.jobs[len(r.jobs)-1]
}
