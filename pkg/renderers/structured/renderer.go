// Package structured renders views as data documents instead of markup.
//
// A view's data mapping is the document. Nested views hand their mapping to
// the parent unencoded, so a tree of JSON views produces one nested document:
//
//	root := view.New(sink, view.WithContentType(structured.JSONContentType))
//	root.Set("title", "Inbox")
//	items := root.Child("items")
//	items.Set("count", 3)
//	items.Render("items")
//	root.Render("inbox")
//
// writes {"items":{"count":3},"title":"Inbox"}. The template identifier only
// names the view; it is never resolved against a file.
package structured

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-viewtree/pkg/render"
)

const (
	JSONContentType = "application/json"
	YAMLContentType = "application/yaml"
)

// Encoder turns a document into bytes.
type Encoder func(doc map[string]any) ([]byte, error)

// Renderer writes the job data as a structured value for nested jobs and as
// encoded bytes for root jobs.
type Renderer struct {
	name   string
	encode Encoder
}

var _ render.Renderer = (*Renderer)(nil)

// New builds a renderer around encode.
func New(name string, encode Encoder) *Renderer {
	return &Renderer{name: name, encode: encode}
}

// NewJSON renders documents as JSON. A non-empty indent pretty prints.
func NewJSON(indent string) *Renderer {
	return New("json", func(doc map[string]any) ([]byte, error) {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if indent != "" {
			enc.SetIndent("", indent)
		}
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		return bytes.TrimRight(buf.Bytes(), "\n"), nil
	})
}

// NewYAML renders documents as YAML.
func NewYAML() *Renderer {
	return New("yaml", func(doc map[string]any) ([]byte, error) {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
}

func (r *Renderer) Name() string {
	return r.name
}

// Render implements render.Renderer.
func (r *Renderer) Render(ctx context.Context, job *render.Job) {
	if err := ctx.Err(); err != nil {
		job.Fail(err)
		return
	}

	doc := job.Data
	if job.Nested {
		if err := job.Write(doc); err != nil {
			job.Fail(err)
			return
		}
		job.End()
		return
	}

	payload, err := r.encode(doc)
	if err != nil {
		job.Fail(fmt.Errorf("structured renderer: encode %s: %w", r.name, err))
		return
	}
	if err := job.Write(payload); err != nil {
		job.Fail(err)
		return
	}
	job.End()
}

// Register installs the JSON and YAML renderers in registry.
func Register(registry *render.Registry) error {
	if err := registry.Register(JSONContentType, NewJSON("")); err != nil {
		return err
	}
	return registry.Register(YAMLContentType, NewYAML())
}
