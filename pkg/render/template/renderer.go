package template

import (
	"io"
)

// TemplateRenderer is the engine contract HTML renderers rely on. Name-based
// renders resolve against the engine's template source; RenderString parses
// inline template text.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}

// Resetter is implemented by engines that cache parsed templates.
type Resetter interface {
	Reset()
}
