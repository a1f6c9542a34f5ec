package render_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-viewtree/pkg/render"
)

func named(name string) render.Renderer {
	return render.RendererFunc(func(_ context.Context, job *render.Job) {
		_ = job.Write(name)
		job.End()
	})
}

func renderWith(t *testing.T, r render.Renderer) string {
	t.Helper()
	var out string
	sink := &captureSink{write: func(chunk any) { out += chunk.(string) }}
	r.Render(context.Background(), render.NewJob("tmpl", nil, sink, nil))
	return out
}

func TestRegistryResolveUnknownContentType(t *testing.T) {
	registry := render.NewRegistry()

	_, err := registry.Resolve("application/json")
	if !errors.Is(err, render.ErrUnsupportedContentType) {
		t.Fatalf("expected ErrUnsupportedContentType, got %v", err)
	}
}

func TestRegistryRegisterReplacesBinding(t *testing.T) {
	registry := render.NewRegistry()
	registry.MustRegister("application/json", named("first"))

	captured, err := registry.Resolve("application/json")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if err := registry.Register("application/json", named("second")); err != nil {
		t.Fatalf("second register: %v", err)
	}

	latest, err := registry.Resolve("application/json")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if got := renderWith(t, latest); got != "second" {
		t.Fatalf("expected replacement renderer, got %q", got)
	}
	if got := renderWith(t, captured); got != "first" {
		t.Fatalf("expected captured renderer to keep working, got %q", got)
	}
}

func TestRegistryNormalizesContentType(t *testing.T) {
	registry := render.NewRegistry()
	registry.MustRegister("Text/HTML; charset=utf-8", named("html"))

	if !registry.Has("text/html") {
		t.Fatalf("expected normalized lookup to succeed")
	}
	if _, err := registry.Resolve(" text/html ;charset=latin1"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	registry.MustRegister("application/json", named("json"))
	if diff := cmp.Diff([]string{"application/json", "text/html"}, registry.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistryRejectsInvalidRegistration(t *testing.T) {
	registry := render.NewRegistry()
	if err := registry.Register("", named("x")); err == nil {
		t.Fatalf("expected error for empty content type")
	}
	if err := registry.Register("text/html", nil); err == nil {
		t.Fatalf("expected error for nil renderer")
	}
}

type captureSink struct {
	write func(any)
	ends  int
}

func (s *captureSink) Write(chunk any) error {
	if s.write != nil {
		s.write(chunk)
	}
	return nil
}

func (s *captureSink) End() error {
	s.ends++
	return nil
}
