package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-viewtree/internal/logging"
	"github.com/goliatone/go-viewtree/internal/treefile"
	"github.com/goliatone/go-viewtree/pkg/httpview"
	"github.com/goliatone/go-viewtree/pkg/render"
	"github.com/goliatone/go-viewtree/pkg/view"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		routesFile string
		order      string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the routes of a routes file over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			routes, err := treefile.LoadRoutes(routesFile)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			handler, err := a.handler(ctx, routes, treefile.Order(order))
			if err != nil {
				return err
			}
			return a.serve(ctx, handler)
		},
	}
	cmd.Flags().StringVar(&routesFile, "routes", "routes.yaml", "routes file")
	cmd.Flags().StringVar(&order, "order", string(treefile.ParentFirst), "render order (parent_first, children_first)")
	cmd.Flags().String("addr", "", "listen address")
	_ = a.v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

// handler builds the router for routes. With templates.watch set, template
// changes are picked up until ctx is done.
func (a *app) handler(ctx context.Context, routes *treefile.Routes, order treefile.Order) (http.Handler, error) {
	registry, htmlRenderer, err := a.registry()
	if err != nil {
		return nil, err
	}
	if a.cfg.Templates.Watch {
		if err := htmlRenderer.Watch(ctx); err != nil {
			return nil, err
		}
		a.logger.Info("watching templates", "dir", a.cfg.Templates.Dir)
	}
	return a.router(registry, routes, order)
}

func (a *app) router(registry *render.Registry, routes *treefile.Routes, order treefile.Order) (http.Handler, error) {
	statusTemplates, err := a.statusTemplates()
	if err != nil {
		return nil, err
	}

	opts := []httpview.Option{
		httpview.WithLogger(logging.Component(a.logger, "http")),
		httpview.WithViewOptions(
			view.WithRegistry(registry),
			view.WithContentType(a.cfg.View.ContentType),
			view.WithGlobals(a.cfg.View.Globals),
			view.WithDefaultTemplates(statusTemplates),
		),
	}

	router := mux.NewRouter()
	for _, route := range routes.Routes {
		route := route
		router.Handle(route.Path, httpview.Handler(func(root *view.View, r *http.Request) {
			if vars := mux.Vars(r); len(vars) > 0 {
				params := make(map[string]any, len(vars))
				for key, value := range vars {
					params[key] = value
				}
				root.Set("params", params)
			}
			route.Apply(root, r.Method, order)
		}, opts...))
	}
	router.NotFoundHandler = httpview.Handler(func(root *view.View, _ *http.Request) {
		root.NotFound()
	}, opts...)
	router.Use(a.accessLog)
	return router, nil
}

func (a *app) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		a.logger.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("elapsed", time.Since(start)),
		)
	})
}

func (a *app) serve(ctx context.Context, handler http.Handler) error {
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("serve: shutdown: %w", err)
	}
	a.logger.Info("server stopped")
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
