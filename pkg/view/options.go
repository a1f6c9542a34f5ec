package view

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-viewtree/pkg/loop"
	"github.com/goliatone/go-viewtree/pkg/render"
)

// Option customises a root view.
type Option func(*View)

// WithLoop runs the tree on l instead of a private loop.
func WithLoop(l *loop.Loop) Option {
	return func(v *View) {
		v.env.loop = l
	}
}

// WithRegistry resolves renderers from registry instead of render.Default().
func WithRegistry(registry *render.Registry) Option {
	return func(v *View) {
		v.env.registry = registry
	}
}

// WithContentType overrides DefaultContentType for the root. Children copy it
// at creation time.
func WithContentType(contentType string) Option {
	return func(v *View) {
		v.contentType = contentType
	}
}

// WithDirectory sets the base path for relative template identifiers.
func WithDirectory(dir string) Option {
	return func(v *View) {
		v.directory = dir
	}
}

// WithErrorHandler registers the root's error handler. Children created later
// start with a copy of it.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(v *View) {
		v.onError = fn
	}
}

// WithLogger sets the logger used for lifecycle and fallback diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(v *View) {
		v.env.logger = logger
	}
}

// WithGlobals seeds values visible to every view of the tree. View data wins
// over globals on key collisions.
func WithGlobals(globals map[string]any) Option {
	return func(v *View) {
		if len(globals) == 0 {
			return
		}
		if v.env.globals == nil {
			v.env.globals = make(map[string]any, len(globals))
		}
		for key, value := range globals {
			v.env.globals[key] = value
		}
	}
}

// WithDefaultTemplate registers the fallback template status helpers use for
// code when the caller passes none.
func WithDefaultTemplate(code int, template string) Option {
	return func(v *View) {
		v.defaults[code] = template
	}
}

// WithDefaultTemplates registers several status fallbacks at once.
func WithDefaultTemplates(templates map[int]string) Option {
	return func(v *View) {
		for code, template := range templates {
			v.defaults[code] = template
		}
	}
}

// WithContext sets the context handed to renderers.
func WithContext(ctx context.Context) Option {
	return func(v *View) {
		v.env.ctx = ctx
	}
}
