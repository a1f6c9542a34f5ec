// Package httpview serves view trees over net/http. Every request gets its
// own loop and root view writing to the http.ResponseWriter; the handler
// returns once the tree finished and the loop drained.
package httpview

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/goliatone/go-viewtree/pkg/loop"
	"github.com/goliatone/go-viewtree/pkg/view"
)

// HandlerFunc builds the tree for one request.
type HandlerFunc func(root *view.View, r *http.Request)

type Option func(*config)

type config struct {
	logger      *slog.Logger
	viewOptions []view.Option
}

// WithLogger sets the logger for request level events. Views use it too
// unless a view option overrides it.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithViewOptions applies opts to every root view.
func WithViewOptions(opts ...view.Option) Option {
	return func(cfg *config) {
		cfg.viewOptions = append(cfg.viewOptions, opts...)
	}
}

// Handler adapts fn to http.Handler. Render failures default to
// root.ServerError; fn may install its own handler with root.OnError.
func Handler(fn HandlerFunc, options ...Option) http.Handler {
	cfg := &config{logger: slog.Default()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}
	logger := cfg.logger.With("component", "httpview")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := loop.New()

		var root *view.View
		resp := NewResponse(w, func() string { return root.ContentType() })

		opts := []view.Option{
			view.WithLogger(logger),
			view.WithErrorHandler(func(err error, template string) {
				root.ServerError(err)
			}),
		}
		opts = append(opts, cfg.viewOptions...)
		opts = append(opts,
			view.WithLoop(l),
			view.WithContext(r.Context()),
		)
		root = view.New(resp, opts...)

		fn(root, r)

		if err := l.Run(r.Context()); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				logger.Debug("httpview: request ended before the tree finished",
					"method", r.Method,
					"path", r.URL.Path,
					"error", err,
				)
				root.CancelRender()
				return
			}
			logger.Error("httpview: loop failed", "path", r.URL.Path, "error", err)
		}

		if !resp.Ended() {
			logger.Warn("httpview: view tree stalled, ending response",
				"method", r.Method,
				"path", r.URL.Path,
				"state", root.State().String(),
				"pending", pending(root),
			)
			if resp.Written() == 0 {
				root.SetStatusCode(http.StatusInternalServerError)
			}
			root.CancelRender()
			if err := resp.End(); err != nil {
				logger.Warn("httpview: end response failed", "error", err)
			}
		}
	})
}

// pending lists the paths of views that never completed.
func pending(v *view.View) []string {
	var out []string
	var walk func(n *view.View)
	walk = func(n *view.View) {
		if n.State() != view.Complete {
			out = append(out, n.Path())
		}
		for _, child := range n.Children() {
			walk(child)
		}
	}
	walk(v)
	return out
}
