package httpview

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/goliatone/go-viewtree/pkg/render"
)

// ErrEnded is returned by writes after the response ended.
var ErrEnded = errors.New("httpview: response already ended")

// Response adapts an http.ResponseWriter to render.ResponseSink. Status and
// headers are sent with the first body write, or on End when there is no body.
type Response struct {
	w           http.ResponseWriter
	status      int
	contentType func() string
	wroteHeader bool
	ended       bool
	written     int64
}

var _ render.ResponseSink = (*Response)(nil)

// NewResponse wraps w. contentType, when set, supplies the Content-Type sent
// if the handler did not set one explicitly.
func NewResponse(w http.ResponseWriter, contentType func() string) *Response {
	return &Response{w: w, status: http.StatusOK, contentType: contentType}
}

// SetStatus records the status sent with the headers.
func (r *Response) SetStatus(code int) {
	r.status = code
}

// SetHeader sets a response header. Headers set after the first body write
// are ignored by net/http.
func (r *Response) SetHeader(name, value string) {
	r.w.Header().Set(name, value)
}

// Status returns the recorded status.
func (r *Response) Status() int {
	return r.status
}

// Ended reports whether End was called.
func (r *Response) Ended() bool {
	return r.ended
}

// Written returns the number of body bytes written.
func (r *Response) Written() int64 {
	return r.written
}

// Write sends chunk. Strings and bytes are written as is; other values are
// JSON encoded.
func (r *Response) Write(chunk any) error {
	if r.ended {
		return ErrEnded
	}

	var payload []byte
	switch c := chunk.(type) {
	case nil:
		return nil
	case string:
		payload = []byte(c)
	case []byte:
		payload = c
	case fmt.Stringer:
		payload = []byte(c.String())
	default:
		encoded, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("httpview: encode chunk: %w", err)
		}
		if r.w.Header().Get("Content-Type") == "" {
			r.w.Header().Set("Content-Type", "application/json")
		}
		payload = encoded
	}

	r.writeHeader()
	if !bodyAllowed(r.status) {
		return nil
	}
	n, err := r.w.Write(payload)
	r.written += int64(n)
	if err != nil {
		return fmt.Errorf("httpview: write body: %w", err)
	}
	return nil
}

// End sends the headers if nothing was written and flushes. Later calls are
// no-ops.
func (r *Response) End() error {
	if r.ended {
		return nil
	}
	r.ended = true
	r.writeHeader()
	if f, ok := r.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

func (r *Response) writeHeader() {
	if r.wroteHeader {
		return
	}
	r.wroteHeader = true

	h := r.w.Header()
	if h.Get("Content-Type") == "" && r.contentType != nil && bodyAllowed(r.status) {
		if ct := headerContentType(r.contentType()); ct != "" {
			h.Set("Content-Type", ct)
		}
	}
	r.w.WriteHeader(r.status)
}

// headerContentType adds a utf-8 charset to textual types without one.
func headerContentType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return contentType
	}
	if _, ok := params["charset"]; !ok && strings.HasPrefix(mediaType, "text/") {
		params["charset"] = "utf-8"
	}
	return mime.FormatMediaType(mediaType, params)
}

func bodyAllowed(status int) bool {
	switch {
	case status >= 100 && status < 200:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}
