package view

import (
	"net/http"
	"strings"
)

// Status helpers always act on the root: it owns the only real response.

// SetStatusCode sets the response status.
func (v *View) SetStatusCode(code int) {
	r := v.root
	r.status = code
	if r.out != nil {
		r.out.SetStatus(code)
	}
}

// StatusCode returns the response status, 200 unless changed.
func (v *View) StatusCode() int {
	return v.root.status
}

// SetHeaders sets response headers.
func (v *View) SetHeaders(headers map[string]string) {
	r := v.root
	if r.out == nil {
		return
	}
	for name, value := range headers {
		r.out.SetHeader(name, value)
	}
}

// SetDefaultTemplate registers the fallback template used by the status
// helpers for code.
func (v *View) SetDefaultTemplate(code int, template string) {
	v.root.defaults[code] = template
}

// DefaultTemplate returns the fallback registered for code.
func (v *View) DefaultTemplate(code int) string {
	return v.root.defaults[code]
}

// NotFound responds 404 and renders template, the registered 404 default, or
// nothing.
func (v *View) NotFound(template ...string) {
	v.root.respondWith(http.StatusNotFound, false, template)
}

// Unauthorized responds 401 and renders template, the registered 401 default,
// or nothing.
func (v *View) Unauthorized(template ...string) {
	v.root.respondWith(http.StatusUnauthorized, false, template)
}

// ServerError responds 500. The error message is exposed to the fallback
// template under the "error" key. A failure of the fallback template itself
// closes the response instead of reaching the error handler again.
func (v *View) ServerError(err error, template ...string) {
	r := v.root
	if err != nil {
		r.data["error"] = err.Error()
		r.logger().Error("view: server error", "path", v.Path(), "error", err)
	}
	r.respondWith(http.StatusInternalServerError, true, template)
}

// Created responds 201 with a Location header and no body.
func (v *View) Created(url string) {
	r := v.root
	r.SetStatusCode(http.StatusCreated)
	r.SetHeaders(map[string]string{"Location": url})
	r.terminate()
}

// Redirect responds 302 Found to url with no body.
func (v *View) Redirect(url string) {
	r := v.root
	r.SetStatusCode(http.StatusFound)
	r.SetHeaders(map[string]string{"Location": url})
	r.terminate()
}

// NotModified responds 304 with no body.
func (v *View) NotModified() {
	r := v.root
	r.SetStatusCode(http.StatusNotModified)
	r.terminate()
}

// UnsupportedMethod responds 405 listing the allowed methods.
func (v *View) UnsupportedMethod(methods []string) {
	r := v.root
	r.SetStatusCode(http.StatusMethodNotAllowed)
	r.SetHeaders(map[string]string{"Allow": strings.Join(methods, ", ")})
	r.terminate()
}

func (v *View) respondWith(code int, fallback bool, templates []string) {
	v.SetStatusCode(code)

	template := ""
	for _, t := range templates {
		if t != "" {
			template = t
			break
		}
	}
	if template == "" {
		template = v.defaults[code]
	}

	if template == "" {
		v.terminate()
		return
	}
	v.forceRender(template, fallback)
}

// terminate cancels the whole tree and closes the response without a body.
func (v *View) terminate() {
	r := v.root
	r.CancelRender()
	r.closeSink()
}
