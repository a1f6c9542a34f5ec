package httpview_test

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-viewtree/pkg/httpview"
	"github.com/goliatone/go-viewtree/pkg/render"
	"github.com/goliatone/go-viewtree/pkg/testsupport"
	"github.com/goliatone/go-viewtree/pkg/view"
)

func templates() *testsupport.StubRenderer {
	return &testsupport.StubRenderer{Async: true, Templates: map[string]testsupport.TemplateFunc{
		"page": func(data map[string]any) (string, error) {
			return "<main>" + fmt.Sprint(data["header"]) + "</main>", nil
		},
		"header": func(data map[string]any) (string, error) {
			return "<h1>" + fmt.Sprint(data["title"]) + "</h1>", nil
		},
		"broken": func(map[string]any) (string, error) {
			return "", errors.New("boom")
		},
		"errors/500": func(data map[string]any) (string, error) {
			return "failed: " + fmt.Sprint(data["error"]), nil
		},
	}}
}

func serve(t *testing.T, fn httpview.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	registry := render.NewRegistry()
	require.NoError(t, registry.Register(view.DefaultContentType, templates()))

	handler := httpview.Handler(fn,
		httpview.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		httpview.WithViewOptions(
			view.WithRegistry(registry),
			view.WithDefaultTemplate(http.StatusInternalServerError, "errors/500"),
		),
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

func TestHandlerRendersTree(t *testing.T) {
	rec := serve(t, func(root *view.View, r *http.Request) {
		header := root.Child("header")
		header.Set("title", "Hello")
		root.Render("page")
		header.Render("header")
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<main><h1>Hello</h1></main>", rec.Body.String())
}

func TestHandlerDefaultsToServerError(t *testing.T) {
	rec := serve(t, func(root *view.View, r *http.Request) {
		root.Render("broken")
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, `failed: render: render failed template="broken": boom`, rec.Body.String())
}

func TestHandlerNotFoundWithoutTemplate(t *testing.T) {
	rec := serve(t, func(root *view.View, r *http.Request) {
		root.Child("x").Render("header")
		root.NotFound()
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestHandlerRedirect(t *testing.T) {
	rec := serve(t, func(root *view.View, r *http.Request) {
		root.Redirect("/login")
	})

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Empty(t, rec.Body.String())
}

func TestHandlerEndsStalledTree(t *testing.T) {
	rec := serve(t, func(root *view.View, r *http.Request) {
		root.Child("forgotten")
		root.Render("page")
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.True(t, rec.Flushed)
}

func TestResponseWrites(t *testing.T) {
	rec := httptest.NewRecorder()
	resp := httpview.NewResponse(rec, nil)

	resp.SetStatus(http.StatusAccepted)
	resp.SetHeader("X-Trace", "abc")
	require.NoError(t, resp.Write(map[string]any{"ok": true}))
	require.NoError(t, resp.Write([]byte("\n")))
	require.NoError(t, resp.End())
	require.NoError(t, resp.End())

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "abc", rec.Header().Get("X-Trace"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "{\"ok\":true}\n", rec.Body.String())
	assert.ErrorIs(t, resp.Write("late"), httpview.ErrEnded)
}

func TestResponseDropsBodyForNotModified(t *testing.T) {
	rec := httptest.NewRecorder()
	resp := httpview.NewResponse(rec, func() string { return "text/html" })

	resp.SetStatus(http.StatusNotModified)
	require.NoError(t, resp.Write("ignored"))
	require.NoError(t, resp.End())

	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Empty(t, rec.Header().Get("Content-Type"))
	assert.Zero(t, resp.Written())
}
