package structured_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-viewtree/pkg/loop"
	"github.com/goliatone/go-viewtree/pkg/render"
	"github.com/goliatone/go-viewtree/pkg/renderers/structured"
	"github.com/goliatone/go-viewtree/pkg/testsupport"
	"github.com/goliatone/go-viewtree/pkg/view"
)

func newRoot(t *testing.T, contentType string) (*view.View, *testsupport.RecordingSink, *loop.Loop, *[]error) {
	t.Helper()

	registry := render.NewRegistry()
	if err := structured.Register(registry); err != nil {
		t.Fatalf("register: %v", err)
	}

	var failures []error
	sink := testsupport.NewRecordingSink()
	l := loop.New()
	root := view.New(sink,
		view.WithLoop(l),
		view.WithRegistry(registry),
		view.WithContentType(contentType),
		view.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		view.WithErrorHandler(func(err error, _ string) { failures = append(failures, err) }),
	)
	return root, sink, l, &failures
}

func buildInbox(root *view.View) {
	root.Set("title", "Inbox")
	items := root.Child("items")
	items.Set("count", 3)
	root.Render("inbox")
	items.Render("items")
}

func TestJSONTreeNestsChildDocuments(t *testing.T) {
	root, sink, l, failures := newRoot(t, structured.JSONContentType)
	buildInbox(root)
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(*failures) != 0 {
		t.Fatalf("unexpected failures: %v", *failures)
	}
	want := `{"items":{"count":3},"title":"Inbox"}`
	if diff := cmp.Diff(want, sink.Body()); diff != "" {
		t.Fatalf("json mismatch (-want +got):\n%s", diff)
	}
}

func TestYAMLTreeNestsChildDocuments(t *testing.T) {
	root, sink, l, _ := newRoot(t, structured.YAMLContentType)
	buildInbox(root)
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := "items:\n  count: 3\ntitle: Inbox\n"
	if diff := cmp.Diff(want, sink.Body()); diff != "" {
		t.Fatalf("yaml mismatch (-want +got):\n%s", diff)
	}
}

func TestNestedJobReceivesStructuredValue(t *testing.T) {
	sink := testsupport.NewRecordingSink()
	job := render.NewJob("items", map[string]any{"count": 3}, sink, nil)
	job.Nested = true

	structured.NewJSON("").Render(context.Background(), job)

	chunks := sink.Chunks()
	if len(chunks) != 1 {
		t.Fatalf("expected one chunk, got %d", len(chunks))
	}
	if diff := cmp.Diff(map[string]any{"count": 3}, chunks[0]); diff != "" {
		t.Fatalf("chunk mismatch (-want +got):\n%s", diff)
	}
	if sink.Ends() != 1 {
		t.Fatalf("expected end, got %d", sink.Ends())
	}
}

func TestJSONIndent(t *testing.T) {
	sink := testsupport.NewRecordingSink()
	job := render.NewJob("doc", map[string]any{"a": "<b>"}, sink, nil)

	structured.NewJSON("  ").Render(context.Background(), job)

	want := "{\n  \"a\": \"<b>\"\n}"
	if got := sink.Body(); got != want {
		t.Fatalf("indent mismatch\nwant: %q\n got: %q", want, got)
	}
}

func TestEncodeFailureFailsJob(t *testing.T) {
	sink := testsupport.NewRecordingSink()
	job := render.NewJob("doc", map[string]any{"bad": math.Inf(1)}, sink, nil)

	var got error
	job.OnError(func(err error) { got = err })
	structured.NewJSON("").Render(context.Background(), job)

	if got == nil {
		t.Fatalf("expected encode failure")
	}
	if sink.Ends() != 0 {
		t.Fatalf("failed job must not end the sink")
	}
}

func TestCanceledContextFailsJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := render.NewJob("doc", nil, testsupport.NewRecordingSink(), nil)
	var got error
	job.OnError(func(err error) { got = err })
	structured.NewYAML().Render(ctx, job)

	if !errors.Is(got, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", got)
	}
}
