package view

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goliatone/go-viewtree/pkg/loop"
	"github.com/goliatone/go-viewtree/pkg/render"
)

// DefaultContentType is used by roots created without WithContentType.
const DefaultContentType = "text/html"

// ErrorHandler receives render failures together with the template that
// failed.
type ErrorHandler func(err error, template string)

// View is one node of a render tree. The root writes to a real response sink;
// every other view buffers its output into its parent's data under its key.
// A view only renders once it was asked to and all of its children completed,
// whichever of those happens last.
//
// Views are not safe for concurrent use. All calls must come from the
// goroutine driving the tree's loop, or from continuations it runs.
type View struct {
	key         string
	data        map[string]any
	contentType string
	template    string
	directory   string
	state       RenderState
	children    map[string]*View
	parent      *View
	root        *View

	onError    ErrorHandler
	onComplete func()
	defaults   map[int]string

	env       *environment
	attempt   uint64
	forcing   bool
	escalated bool
	completed bool

	// root only
	out      render.ResponseSink
	status   int
	closed   bool
	fallback bool
}

// environment is shared by every view of a tree.
type environment struct {
	loop     *loop.Loop
	registry *render.Registry
	logger   *slog.Logger
	ctx      context.Context
	globals  map[string]any
}

// New creates a root view writing to sink. Without WithErrorHandler the root
// falls back to a handler that logs and panics, so production roots should
// always register one.
func New(sink render.ResponseSink, options ...Option) *View {
	v := &View{
		data:        make(map[string]any),
		contentType: DefaultContentType,
		children:    make(map[string]*View),
		defaults:    make(map[int]string),
		env:         &environment{},
		out:         sink,
		status:      http.StatusOK,
	}
	v.root = v

	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(v)
	}

	if v.env.loop == nil {
		v.env.loop = loop.New()
	}
	if v.env.registry == nil {
		v.env.registry = render.Default()
	}
	if v.env.logger == nil {
		v.env.logger = slog.Default()
	}
	if v.env.ctx == nil {
		v.env.ctx = context.Background()
	}
	if v.onError == nil {
		v.onError = haltingErrorHandler(v.env.logger)
	}
	return v
}

func haltingErrorHandler(logger *slog.Logger) ErrorHandler {
	return func(err error, template string) {
		logger.Error("view: render failed without an error handler",
			"template", template,
			"error", err,
		)
		panic(fmt.Errorf("view: no error handler registered: %w", err))
	}
}

// Child creates a view rendered into v's data under key. It starts with v's
// content type, directory and error handler. An existing child under the same
// key is canceled and replaced.
func (v *View) Child(key string) *View {
	if prev, ok := v.children[key]; ok {
		prev.CancelRender()
	}

	child := &View{
		key:         key,
		data:        make(map[string]any),
		contentType: v.contentType,
		directory:   v.directory,
		children:    make(map[string]*View),
		parent:      v,
		root:        v.root,
		onError:     v.onError,
		env:         v.env,
	}
	v.children[key] = child
	return child
}

// Key returns the view's key in its parent, empty for the root.
func (v *View) Key() string { return v.key }

// Parent returns the creating view, nil for the root.
func (v *View) Parent() *View { return v.parent }

// Root returns the top-most view of the tree.
func (v *View) Root() *View { return v.root }

// Loop returns the loop the tree runs on.
func (v *View) Loop() *loop.Loop { return v.env.loop }

// State returns the current render state.
func (v *View) State() RenderState { return v.state }

// Children returns a copy of the current children keyed by name.
func (v *View) Children() map[string]*View {
	out := make(map[string]*View, len(v.children))
	for key, child := range v.children {
		out[key] = child
	}
	return out
}

// Set stores value under key in the view's data.
func (v *View) Set(key string, value any) {
	v.data[key] = value
}

// Get returns the value stored under key, nil when missing.
func (v *View) Get(key string) any {
	return v.data[key]
}

// Data returns a copy of the view's own data.
func (v *View) Data() map[string]any {
	out := make(map[string]any, len(v.data))
	for key, value := range v.data {
		out[key] = value
	}
	return out
}

// ContentType returns the content type used to resolve the renderer.
func (v *View) ContentType() string { return v.contentType }

// SetContentType overrides the content type for this view.
func (v *View) SetContentType(contentType string) { v.contentType = contentType }

// Directory returns the base path for relative templates.
func (v *View) Directory() string { return v.directory }

// SetDirectory overrides the base path for relative templates.
func (v *View) SetDirectory(dir string) { v.directory = dir }

// Template returns the pinned template, if any.
func (v *View) Template() string { return v.template }

// SetTemplate pins template. A pinned template wins over the identifier passed
// to later Render calls.
func (v *View) SetTemplate(template string) { v.template = template }

// OnComplete registers fn to run the first time this view's own render
// succeeds. Forced re-renders that complete later do not fire it again.
func (v *View) OnComplete(fn func()) { v.onComplete = fn }

// OnError replaces this view's error handler. Children created afterwards
// copy the new handler; existing children keep theirs.
func (v *View) OnError(fn ErrorHandler) {
	if fn == nil {
		return
	}
	v.onError = fn
}

// Path returns the dotted key path from the root, "$" for the root itself.
func (v *View) Path() string {
	if v.parent == nil {
		return "$"
	}
	var keys []string
	for n := v; n.parent != nil; n = n.parent {
		keys = append(keys, n.key)
	}
	slices.Reverse(keys)
	return "$." + strings.Join(keys, ".")
}

// CanRender reports whether the view was asked to render and every child has
// completed.
func (v *View) CanRender() bool {
	if v.state != Requested {
		return false
	}
	for _, child := range v.children {
		if child.state != Complete {
			return false
		}
	}
	return true
}

// Render asks the view to render template. The view renders right away when
// its children are done; otherwise it pins template (unless one is pinned
// already) and renders once the last child completes. Calls on a canceled,
// failed or already rendering view are ignored.
func (v *View) Render(template string) {
	switch v.state {
	case Canceled, Started, Complete, Failed:
		v.logger().Debug("view: render ignored",
			"path", v.Path(),
			"state", v.state.String(),
			"template", template,
		)
		return
	}

	v.state = Requested
	if v.CanRender() {
		v.start(v.effectiveTemplate(template))
		return
	}
	if v.template == "" {
		v.template = template
	}
}

// ForceRender cancels the view and its subtree, pins template and starts a
// fresh render cycle with it. Until that cycle has started or failed, further
// forces on the same view are ignored. The one exception is escalating a
// failed forced render to the 500 fallback, which happens at most once.
func (v *View) ForceRender(template string) {
	v.forceRender(template, false)
}

func (v *View) forceRender(template string, fallback bool) {
	if v.forcing && (!fallback || v.escalated) {
		v.logger().Debug("view: nested force render ignored", "path", v.Path(), "template", template)
		return
	}

	forcing, escalated := v.forcing, v.escalated
	v.escalated = forcing || fallback
	v.forcing = true
	defer func() {
		v.forcing, v.escalated = forcing, escalated
	}()

	v.CancelRender()
	v.template = template
	v.state = Requested
	if v == v.root {
		v.fallback = fallback
	}
	v.Render(template)
}

// CancelRender cancels the view and every descendant, then drops the
// children. Output still arriving from renderers already in flight is
// discarded. Cancellation never reaches the error handler.
func (v *View) CancelRender() {
	v.state = Canceled
	v.attempt++
	for _, child := range v.children {
		child.CancelRender()
	}
	v.children = make(map[string]*View)
}

func (v *View) effectiveTemplate(template string) string {
	if v.template != "" {
		return v.template
	}
	return template
}

func (v *View) resolveTemplate(template string) string {
	if v.directory == "" || template == "" {
		return template
	}
	if path.IsAbs(template) || filepath.IsAbs(template) {
		return template
	}
	return path.Join(v.directory, template)
}

func (v *View) start(template string) {
	v.state = Started
	v.attempt++
	attempt := v.attempt
	resolved := v.resolveTemplate(template)

	renderer, err := v.env.registry.Resolve(v.contentType)
	if err != nil {
		v.fail(attempt, resolved, err)
		return
	}

	v.logger().Debug("view: render started", "path", v.Path(), "template", resolved, "content_type", v.contentType)

	job := render.NewJob(resolved, v.mergedData(), v.newSink(attempt), v.env.loop)
	job.Nested = v.parent != nil
	job.OnError(func(err error) {
		v.fail(attempt, resolved, err)
	})
	renderer.Render(v.env.ctx, job)
}

func (v *View) mergedData() map[string]any {
	out := make(map[string]any, len(v.env.globals)+len(v.data))
	for key, value := range v.env.globals {
		out[key] = value
	}
	for key, value := range v.data {
		out[key] = value
	}
	return out
}

// live reports whether attempt is the render in flight.
func (v *View) live(attempt uint64) bool {
	return v.attempt == attempt && v.state == Started
}

func (v *View) complete(value any) {
	v.state = Complete
	v.logger().Debug("view: render complete", "path", v.Path())

	parent := v.parent
	if parent != nil {
		parent.data[v.key] = value
	}
	if v.onComplete != nil && !v.completed {
		v.completed = true
		v.onComplete()
	}
	if parent != nil && parent.CanRender() {
		v.env.loop.Post(parent.retry)
	}
}

// retry is the deferred parent render triggered by a child completing.
func (v *View) retry() {
	if v.CanRender() {
		v.Render(v.template)
	}
}

func (v *View) fail(attempt uint64, template string, err error) {
	if !v.live(attempt) {
		return
	}
	v.state = Failed

	if v == v.root && v.fallback {
		loopErr := render.FallbackLoop(template, err)
		v.logger().Error("view: fallback template failed, closing response",
			"path", v.Path(),
			"template", template,
			"status", v.status,
			"error", loopErr,
		)
		v.CancelRender()
		v.closeSink()
		return
	}

	v.onError(render.Failure(template, err), template)
}

func (v *View) logger() *slog.Logger {
	return v.env.logger
}
