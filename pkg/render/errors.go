package render

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies render-time errors.
type ErrorKind string

const (
	// KindUnsupportedContentType: no renderer registered for the content type.
	KindUnsupportedContentType ErrorKind = "unsupported_content_type"
	// KindRenderFailure: the renderer reported a failure for a template.
	KindRenderFailure ErrorKind = "render_failure"
	// KindFallbackLoop: the 500 fallback template itself failed.
	KindFallbackLoop ErrorKind = "fallback_loop"
)

// Sentinels for errors.Is matching on kind.
var (
	ErrUnsupportedContentType = &Error{Kind: KindUnsupportedContentType}
	ErrRenderFailure          = &Error{Kind: KindRenderFailure}
	ErrFallbackLoop           = &Error{Kind: KindFallbackLoop}
)

// Error is the structured error surfaced to view error handlers.
type Error struct {
	Kind        ErrorKind
	ContentType string
	Template    string
	Cause       error
}

// Error implements the error interface.
func (e *Error) Error() string {
	parts := []string{"render:"}

	switch e.Kind {
	case KindUnsupportedContentType:
		parts = append(parts, "unsupported content type")
	case KindFallbackLoop:
		parts = append(parts, "fallback template failed")
	default:
		parts = append(parts, "render failed")
	}

	if e.ContentType != "" {
		parts = append(parts, fmt.Sprintf("content_type=%q", e.ContentType))
	}
	if e.Template != "" {
		parts = append(parts, fmt.Sprintf("template=%q", e.Template))
	}

	msg := strings.Join(parts, " ")
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// UnsupportedContentType builds the error returned when nothing is registered
// for contentType.
func UnsupportedContentType(contentType string) *Error {
	return &Error{Kind: KindUnsupportedContentType, ContentType: contentType}
}

// Failure wraps a renderer failure with the offending template. An error that
// is already a *Error passes through untouched.
func Failure(template string, cause error) *Error {
	var existing *Error
	if errors.As(cause, &existing) {
		return existing
	}
	return &Error{Kind: KindRenderFailure, Template: template, Cause: cause}
}

// FallbackLoop wraps a failure raised while rendering the 500 fallback.
func FallbackLoop(template string, cause error) *Error {
	return &Error{Kind: KindFallbackLoop, Template: template, Cause: cause}
}
