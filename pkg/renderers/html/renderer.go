package html

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/goliatone/go-viewtree/pkg/render"
	rendertemplate "github.com/goliatone/go-viewtree/pkg/render/template"
	"github.com/goliatone/go-viewtree/pkg/render/template/gotemplate"
)

// ContentType is the content type the renderer registers under.
const ContentType = "text/html"

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateDir      string
	extension        string
	cacheSize        int
	cacheSizeSet     bool
	builtins         bool
	logger           *slog.Logger
	templateRenderer rendertemplate.TemplateRenderer
}

// WithTemplatesFS supplies the template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk. Renderers built
// this way can Watch the directory.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		cfg.templateDir = strings.TrimSpace(path)
	}
}

// WithExtension overrides the extension appended to bare template names.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		cfg.extension = ext
	}
}

// WithCacheSize bounds the parsed template cache.
func WithCacheSize(size int) Option {
	return func(cfg *config) {
		cfg.cacheSize = size
		cfg.cacheSizeSet = true
	}
}

// WithoutBuiltins stops the built-in status pages from being layered under
// the application templates.
func WithoutBuiltins() Option {
	return func(cfg *config) {
		cfg.builtins = false
	}
}

// WithLogger sets the logger handed to the template engine.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithTemplateRenderer injects a custom template engine. Template options are
// ignored when one is set.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// Renderer renders HTML views through a template engine. The template is
// executed off the loop; its output is written as a single chunk.
//
// Child output reaches parent templates as plain strings, so parent templates
// mark it safe: {{ header|safe }}.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
	engine    *gotemplate.Engine
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{builtins: true}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateRenderer != nil {
		return &Renderer{templates: cfg.templateRenderer}, nil
	}

	engineOpts := []gotemplate.Option{
		gotemplate.WithExtension(cfg.extension),
		gotemplate.WithLogger(cfg.logger),
	}
	if cfg.cacheSizeSet {
		engineOpts = append(engineOpts, gotemplate.WithCacheSize(cfg.cacheSize))
	}
	if cfg.templateDir != "" {
		engineOpts = append(engineOpts, gotemplate.WithBaseDir(cfg.templateDir))
	}

	files := cfg.templateFS
	switch {
	case files != nil && cfg.builtins:
		files = layered{files, TemplatesFS()}
	case files == nil && cfg.builtins:
		files = TemplatesFS()
	}
	if files != nil {
		engineOpts = append(engineOpts, gotemplate.WithFS(files))
	}

	engine, err := gotemplate.New(engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
	}
	return &Renderer{templates: engine, engine: engine}, nil
}

func (r *Renderer) Name() string {
	return "html"
}

func (r *Renderer) ContentType() string {
	return ContentType
}

// Engine returns the built-in engine, nil when a custom one was injected.
func (r *Renderer) Engine() *gotemplate.Engine {
	return r.engine
}

// Watch reloads templates when the template directory changes.
func (r *Renderer) Watch(ctx context.Context) error {
	if r.engine == nil {
		return fmt.Errorf("html renderer: watch needs the built-in engine")
	}
	return r.engine.Watch(ctx)
}

// Render implements render.Renderer.
func (r *Renderer) Render(ctx context.Context, job *render.Job) {
	if r.templates == nil {
		job.Fail(fmt.Errorf("html renderer: template renderer is nil"))
		return
	}

	name := job.Template
	data := job.Data
	job.Go(func() (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := r.templates.RenderTemplate(name, data)
		if err != nil {
			return nil, fmt.Errorf("html renderer: render template: %w", err)
		}
		return out, nil
	})
}

// Register installs the renderer in registry under ContentType.
func (r *Renderer) Register(registry *render.Registry) error {
	return registry.Register(ContentType, r)
}

// layered resolves names against each file system in turn.
type layered []fs.FS

func (l layered) Open(name string) (fs.File, error) {
	var firstErr error
	for _, files := range l {
		f, err := files.Open(name)
		if err == nil {
			return f, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}
