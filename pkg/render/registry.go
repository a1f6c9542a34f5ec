package render

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps content types to renderers. Registering a content type again
// replaces the previous binding; jobs already handed to the old renderer keep
// running against it.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
}

// NewRegistry creates an empty registry instance.
func NewRegistry() *Registry {
	return &Registry{
		renderers: make(map[string]Renderer),
	}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry. It starts empty. Prefer injecting
// a dedicated registry in tests.
func Default() *Registry {
	return defaultRegistry
}

// Register binds renderer to contentType, replacing any existing binding.
func (r *Registry) Register(contentType string, renderer Renderer) error {
	if renderer == nil {
		return fmt.Errorf("render: renderer is required")
	}
	key := NormalizeContentType(contentType)
	if key == "" {
		return fmt.Errorf("render: content type is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.renderers[key] = renderer
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(contentType string, renderer Renderer) {
	if err := r.Register(contentType, renderer); err != nil {
		panic(err)
	}
}

// Resolve returns the renderer bound to contentType. It never guesses a
// default.
func (r *Registry) Resolve(contentType string) (Renderer, error) {
	key := NormalizeContentType(contentType)

	r.mu.RLock()
	defer r.mu.RUnlock()

	renderer, ok := r.renderers[key]
	if !ok {
		return nil, UnsupportedContentType(contentType)
	}
	return renderer, nil
}

// List returns a sorted list of registered content types.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.renderers))
	for contentType := range r.renderers {
		types = append(types, contentType)
	}
	sort.Strings(types)
	return types
}

// Has reports whether a renderer is registered for contentType.
func (r *Registry) Has(contentType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.renderers[NormalizeContentType(contentType)]
	return ok
}

// NormalizeContentType lower-cases a media type and drops its parameters, so
// "Text/HTML; charset=utf-8" and "text/html" share a binding.
func NormalizeContentType(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}
