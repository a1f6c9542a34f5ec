package html_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-viewtree/pkg/loop"
	"github.com/goliatone/go-viewtree/pkg/render"
	"github.com/goliatone/go-viewtree/pkg/renderers/html"
	"github.com/goliatone/go-viewtree/pkg/testsupport"
	"github.com/goliatone/go-viewtree/pkg/view"
)

var pages = fstest.MapFS{
	"layout/page.html":   {Data: []byte(`<body>{{ header|safe }}<p>{{ message }}</p></body>`)},
	"partials/nav.html":  {Data: []byte(`<nav>{{ user }}</nav>`)},
	"partials/head.html": {Data: []byte(`<header>{{ nav|safe }}</header>`)},
	"broken.html":        {Data: []byte(`{% if %}`)},
}

type tree struct {
	root     *view.View
	sink     *testsupport.RecordingSink
	loop     *loop.Loop
	failures []error
}

func newTree(t *testing.T, renderer *html.Renderer, options ...view.Option) *tree {
	t.Helper()

	registry := render.NewRegistry()
	require.NoError(t, renderer.Register(registry))

	tr := &tree{sink: testsupport.NewRecordingSink(), loop: loop.New()}
	opts := append([]view.Option{
		view.WithLoop(tr.loop),
		view.WithRegistry(registry),
		view.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		view.WithErrorHandler(func(err error, _ string) {
			tr.failures = append(tr.failures, err)
		}),
	}, options...)
	tr.root = view.New(tr.sink, opts...)
	return tr
}

func (tr *tree) run(t *testing.T) {
	t.Helper()
	require.NoError(t, tr.loop.Run(context.Background()))
}

func TestRendererComposesNestedViews(t *testing.T) {
	renderer, err := html.New(html.WithTemplatesFS(pages))
	require.NoError(t, err)

	tr := newTree(t, renderer)
	tr.root.Set("message", "<hi>")

	header := tr.root.Child("header")
	nav := header.Child("nav")
	nav.Set("user", "ada")

	tr.root.Render("layout/page")
	header.Render("partials/head")
	nav.Render("partials/nav")
	tr.run(t)

	require.Empty(t, tr.failures)
	assert.Equal(t, "<body><header><nav>ada</nav></header><p>&lt;hi&gt;</p></body>", tr.sink.Body())
	assert.Equal(t, 1, tr.sink.Ends())
}

func TestRendererFailureReachesHandler(t *testing.T) {
	renderer, err := html.New(html.WithTemplatesFS(pages))
	require.NoError(t, err)

	tr := newTree(t, renderer)
	tr.root.Render("broken")
	tr.run(t)

	require.Len(t, tr.failures, 1)
	assert.True(t, errors.Is(tr.failures[0], render.ErrRenderFailure))
	assert.Equal(t, view.Failed, tr.root.State())
}

func TestBuiltinStatusPages(t *testing.T) {
	renderer, err := html.New(html.WithTemplatesFS(pages))
	require.NoError(t, err)

	tr := newTree(t, renderer, view.WithDefaultTemplates(html.StatusTemplates()))
	tr.root.Child("slow")
	tr.root.Render("layout/page")
	tr.root.NotFound()
	tr.run(t)

	assert.Equal(t, http.StatusNotFound, tr.sink.Status())
	assert.Contains(t, tr.sink.Body(), "<h1>404</h1>")
	assert.Equal(t, 1, tr.sink.Ends())
}

func TestServerErrorPageHidesMessageByDefault(t *testing.T) {
	renderer, err := html.New()
	require.NoError(t, err)

	tr := newTree(t, renderer, view.WithDefaultTemplates(html.StatusTemplates()))
	tr.root.ServerError(errors.New("secret"))
	tr.run(t)

	assert.Equal(t, http.StatusInternalServerError, tr.sink.Status())
	assert.Contains(t, tr.sink.Body(), "<h1>500</h1>")
	assert.NotContains(t, tr.sink.Body(), "secret")
}

func TestServerErrorPageShowsMessageInDebug(t *testing.T) {
	renderer, err := html.New()
	require.NoError(t, err)

	tr := newTree(t, renderer,
		view.WithDefaultTemplates(html.StatusTemplates()),
		view.WithGlobals(map[string]any{"debug": true}),
	)
	tr.root.ServerError(errors.New("db down"))
	tr.run(t)

	assert.Contains(t, tr.sink.Body(), "<pre>db down</pre>")
}

func TestWithoutBuiltinsNeedsTemplates(t *testing.T) {
	_, err := html.New(html.WithoutBuiltins())
	assert.Error(t, err)
}

func TestRendererCanceledContextFails(t *testing.T) {
	renderer, err := html.New(html.WithTemplatesFS(pages))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := newTree(t, renderer, view.WithContext(ctx))
	tr.root.Render("partials/nav")
	tr.run(t)

	require.Len(t, tr.failures, 1)
	assert.True(t, errors.Is(tr.failures[0], context.Canceled))
}

func TestRendererTemplatesDirAndWatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "home.html"), []byte("home {{ n }}"), 0o644))

	renderer, err := html.New(html.WithTemplatesDir(dir))
	require.NoError(t, err)
	require.NotNil(t, renderer.Engine())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, renderer.Watch(ctx))

	tr := newTree(t, renderer)
	tr.root.Set("n", 1)
	tr.root.Render("home")
	tr.run(t)

	assert.Equal(t, "home 1", tr.sink.Body())
}
