package loop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoopRunsPostedContinuationsInOrder(t *testing.T) {
	l := New()
	var got []string

	l.Post(func() { got = append(got, "a") })
	l.Post(func() {
		got = append(got, "b")
		l.Post(func() { got = append(got, "d") })
	})
	l.Post(func() { got = append(got, "c") })

	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []string{"a", "b", "c", "d"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if l.Len() != 0 {
		t.Fatalf("expected drained queue, got %d", l.Len())
	}
}

func TestLoopWaitsForOutstandingWork(t *testing.T) {
	l := New()
	var got []string

	l.Go(func() func() {
		time.Sleep(10 * time.Millisecond)
		return func() { got = append(got, "async") }
	})
	l.Post(func() { got = append(got, "sync") })

	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []string{"sync", "async"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestLoopGoWithoutContinuation(t *testing.T) {
	l := New()
	ran := make(chan struct{}, 1)
	l.Go(func() func() {
		ran <- struct{}{}
		return nil
	})

	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	select {
	case <-ran:
	default:
		t.Fatalf("expected work to run before loop went idle")
	}
}

func TestLoopRunHonoursContext(t *testing.T) {
	l := New()
	release := make(chan struct{})
	defer close(release)

	l.Go(func() func() {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestLoopRejectsConcurrentRun(t *testing.T) {
	l := New()
	var inner error
	l.Post(func() {
		inner = l.Run(context.Background())
	})

	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !errors.Is(inner, ErrRunning) {
		t.Fatalf("expected ErrRunning from nested run, got %v", inner)
	}
}
