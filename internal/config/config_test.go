package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "templates", cfg.Templates.Dir)
	assert.Equal(t, ".html", cfg.Templates.Extension)
	assert.Equal(t, 128, cfg.Templates.CacheSize)
	assert.False(t, cfg.Templates.Watch)
	assert.Equal(t, "text/html", cfg.View.ContentType)
	assert.Equal(t, "text/plain", cfg.Files.ContentType)
	assert.Empty(t, cfg.Files.Dir)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewtree.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
templates:
  dir: site
  watch: true
view:
  status_templates:
    "404": errors/404
    "500": errors/500
  globals:
    site: Docs
log:
  format: json
`), 0o644))

	t.Setenv("VIEWTREE_LOG_LEVEL", "debug")
	t.Setenv("VIEWTREE_FILES_CONTENT_TYPE", "application/octet-stream")
	t.Setenv("VIEWTREE_SERVER_ADDR", ":9100")

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, "site", cfg.Templates.Dir)
	assert.True(t, cfg.Templates.Watch)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "Docs", cfg.View.Globals["site"])
	assert.Equal(t, "application/octet-stream", cfg.Files.ContentType)

	codes, err := cfg.View.StatusCodes()
	require.NoError(t, err)
	assert.Equal(t, map[int]string{404: "errors/404", 500: "errors/500"}, codes)
}

func TestLoadRejectsBadStatusCode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewtree.yaml")
	require.NoError(t, os.WriteFile(path, []byte("view:\n  status_templates:\n    nope: x\n"), 0o644))

	_, err := Load(New(), path)
	assert.ErrorContains(t, err, `invalid status code "nope"`)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
