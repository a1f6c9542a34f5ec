package render

import (
	"context"
)

// Renderer turns a template identifier plus a data mapping into output. A
// renderer reads job.Data, writes chunks to the job and finishes it with
// job.End or job.Fail. It may do either synchronously or from a later tick
// (see Job.Go); the caller never waits on Render to return output.
type Renderer interface {
	Render(ctx context.Context, job *Job)
}

// RendererFunc adapts a plain function to the Renderer interface.
type RendererFunc func(ctx context.Context, job *Job)

// Render implements Renderer.
func (f RendererFunc) Render(ctx context.Context, job *Job) {
	f(ctx, job)
}

// Sink receives rendered output. Chunks are usually string or []byte; a
// structured value (map, slice, struct) is allowed where the sink buffers into
// a parent view.
type Sink interface {
	Write(chunk any) error
	End() error
}

// ResponseSink is the real output channel owned by a root view.
type ResponseSink interface {
	Sink
	SetStatus(code int)
	SetHeader(name, value string)
}

// Scheduler queues continuations on the single-threaded loop view trees run
// on. *loop.Loop satisfies it.
type Scheduler interface {
	Post(fn func())
	Go(work func() func())
}
