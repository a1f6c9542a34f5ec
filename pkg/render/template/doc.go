// Package template defines the engine seam used by template backed renderers.
// The pongo2 implementation lives in the gotemplate subpackage.
package template
