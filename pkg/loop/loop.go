// Package loop provides the single-threaded task queue view trees run on.
//
// Every state transition of a view tree happens inside a continuation executed
// by Run, one at a time, on the goroutine that called Run. Work that would
// block (template I/O, network) is handed to Go, which runs it on its own
// goroutine and queues the continuation it returns back onto the loop.
package loop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrRunning is returned by Run when another goroutine is already draining the
// same loop.
var ErrRunning = errors.New("loop: already running")

// Loop is a FIFO queue of continuations. Post and Go are safe to call from any
// goroutine; Run must only be driven from one.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	pending int
	wake    chan struct{}
	running atomic.Bool
}

// New returns an empty loop.
func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post enqueues fn to run on the next tick.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	l.signal()
}

// Go runs work on a new goroutine. The continuation returned by work, if any,
// is queued on the loop once work returns. Run does not report the loop idle
// while work is outstanding.
func (l *Loop) Go(work func() func()) {
	if work == nil {
		return
	}
	l.mu.Lock()
	l.pending++
	l.mu.Unlock()

	go func() {
		next := work()
		l.mu.Lock()
		l.pending--
		if next != nil {
			l.queue = append(l.queue, next)
		}
		l.mu.Unlock()
		l.signal()
	}()
}

// Run executes queued continuations until the queue is empty and no Go work is
// outstanding. It returns ctx.Err() if the context ends first; continuations
// still queued at that point are left in place.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer l.running.Store(false)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fn, idle := l.next()
		if fn != nil {
			fn()
			continue
		}
		if idle {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Len reports the number of continuations waiting to run.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) == 0 {
		return nil, l.pending == 0
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, false
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
