// Package component renders views with a-h/templ components looked up by
// name. The view's template identifier is the component name.
package component

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/a-h/templ"

	"github.com/goliatone/go-viewtree/pkg/render"
)

// ContentType is the content type the renderer registers under by default.
const ContentType = "text/html"

// ErrUnknownComponent is returned when a view names a component that was never
// added.
var ErrUnknownComponent = errors.New("component: unknown component")

// Factory builds a component from a view's merged data.
type Factory func(data map[string]any) templ.Component

// Renderer renders registered templ components.
type Renderer struct {
	mu         sync.RWMutex
	components map[string]Factory
}

var _ render.Renderer = (*Renderer)(nil)

// New returns an empty component renderer.
func New() *Renderer {
	return &Renderer{components: make(map[string]Factory)}
}

// Add registers factory under name, replacing any previous one.
func (r *Renderer) Add(name string, factory Factory) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("component: name required")
	}
	if factory == nil {
		return fmt.Errorf("component: factory for %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.components[name] = factory
	return nil
}

// Names lists the registered components in sorted order.
func (r *Renderer) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Renderer) lookup(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.components[name]
	return factory, ok
}

// Render implements render.Renderer.
func (r *Renderer) Render(ctx context.Context, job *render.Job) {
	factory, ok := r.lookup(job.Template)
	if !ok {
		job.Fail(fmt.Errorf("%w %q", ErrUnknownComponent, job.Template))
		return
	}

	data := job.Data
	job.Go(func() (any, error) {
		c := factory(data)
		if c == nil {
			return nil, fmt.Errorf("component: %q produced no component", job.Template)
		}
		var buf bytes.Buffer
		if err := c.Render(ctx, &buf); err != nil {
			return nil, fmt.Errorf("component: render %q: %w", job.Template, err)
		}
		return buf.String(), nil
	})
}

// Fragment returns the rendered child stored under key as raw HTML, so parent
// components can embed it without escaping. Missing keys render nothing.
func Fragment(data map[string]any, key string) templ.Component {
	switch v := data[key].(type) {
	case string:
		return templ.Raw(v)
	case []byte:
		return templ.Raw(string(v))
	default:
		return templ.NopComponent
	}
}
