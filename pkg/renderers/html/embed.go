package html

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed templates/errors/*.html
var embeddedTemplates embed.FS

// TemplatesFS exposes the built-in status pages (errors/401, errors/404,
// errors/500) so applications can layer them under their own templates.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// StatusTemplates maps status codes to the built-in pages, ready for
// view.WithDefaultTemplates.
func StatusTemplates() map[int]string {
	return map[int]string{
		http.StatusUnauthorized:        "errors/401",
		http.StatusNotFound:            "errors/404",
		http.StatusInternalServerError: "errors/500",
	}
}
