// Package treefile describes view trees and routes in YAML so the CLI can
// render and serve them without Go code.
//
//	template: layout/page
//	data:
//	  title: Home
//	children:
//	  - key: header
//	    template: partials/header
package treefile

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-viewtree/pkg/view"
)

// Order controls when parents are asked to render relative to children.
type Order string

const (
	// ParentFirst asks each parent to render before its children, so parents
	// render from the deferred retry once the last child completes.
	ParentFirst Order = "parent_first"
	// ChildrenFirst renders every subtree before asking its parent.
	ChildrenFirst Order = "children_first"
)

// Node is one view of a tree.
type Node struct {
	Key         string         `yaml:"key"`
	Template    string         `yaml:"template"`
	ContentType string         `yaml:"content_type,omitempty"`
	Directory   string         `yaml:"directory,omitempty"`
	Data        map[string]any `yaml:"data,omitempty"`
	Children    []Node         `yaml:"children,omitempty"`
}

// Route maps a path to a tree or to a bodyless response.
type Route struct {
	Path     string   `yaml:"path"`
	Methods  []string `yaml:"methods,omitempty"`
	Tree     *Node    `yaml:"tree,omitempty"`
	Redirect string   `yaml:"redirect,omitempty"`
	Created  string   `yaml:"created,omitempty"`
	Status   int      `yaml:"status,omitempty"`
	Template string   `yaml:"template,omitempty"`
}

// Routes is the document served by `viewtree serve`.
type Routes struct {
	Routes []Route `yaml:"routes"`
}

// LoadTree reads and validates a tree file.
func LoadTree(path string) (*Node, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("treefile: read %q: %w", path, err)
	}
	return ParseTree(raw)
}

// ParseTree decodes and validates a tree document.
func ParseTree(raw []byte) (*Node, error) {
	var node Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("treefile: decode tree: %w", err)
	}
	if err := node.Validate(); err != nil {
		return nil, err
	}
	return &node, nil
}

// LoadRoutes reads and validates a routes file.
func LoadRoutes(path string) (*Routes, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("treefile: read %q: %w", path, err)
	}
	return ParseRoutes(raw)
}

// ParseRoutes decodes and validates a routes document.
func ParseRoutes(raw []byte) (*Routes, error) {
	var routes Routes
	if err := yaml.Unmarshal(raw, &routes); err != nil {
		return nil, fmt.Errorf("treefile: decode routes: %w", err)
	}
	if len(routes.Routes) == 0 {
		return nil, errors.New("treefile: no routes defined")
	}
	for i := range routes.Routes {
		if err := routes.Routes[i].Validate(); err != nil {
			return nil, err
		}
	}
	return &routes, nil
}

// Validate checks that every node names a template and that sibling keys are
// unique and non-empty.
func (n Node) Validate() error {
	return n.validate("$")
}

func (n Node) validate(path string) error {
	if strings.TrimSpace(n.Template) == "" {
		return fmt.Errorf("treefile: %s: template is required", path)
	}
	seen := make(map[string]struct{}, len(n.Children))
	for _, child := range n.Children {
		key := strings.TrimSpace(child.Key)
		if key == "" {
			return fmt.Errorf("treefile: %s: child without key", path)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("treefile: %s: duplicate child key %q", path, key)
		}
		seen[key] = struct{}{}
		if err := child.validate(path + "." + key); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that the route has a path and exactly one outcome.
func (r Route) Validate() error {
	if !strings.HasPrefix(r.Path, "/") {
		return fmt.Errorf("treefile: route %q: path must start with /", r.Path)
	}
	outcomes := 0
	for _, set := range []bool{r.Tree != nil, r.Redirect != "", r.Created != "", r.Tree == nil && r.Status != 0} {
		if set {
			outcomes++
		}
	}
	if outcomes != 1 {
		return fmt.Errorf("treefile: route %q: needs exactly one of tree, redirect, created or status", r.Path)
	}
	if r.Tree != nil {
		return r.Tree.Validate()
	}
	if r.Status != 0 && r.Template == "" {
		switch r.Status {
		case http.StatusNotFound, http.StatusUnauthorized, http.StatusNotModified, http.StatusInternalServerError:
		default:
			return fmt.Errorf("treefile: route %q: status %d needs a template", r.Path, r.Status)
		}
	}
	return nil
}

// Build creates the subtree described by n under v and issues its renders in
// order. v itself receives n's data, content type and directory.
func Build(v *view.View, n Node, order Order) {
	apply(v, n)
	if order == ChildrenFirst {
		renderChildrenFirst(v, n)
		return
	}
	renderParentFirst(v, n)
}

func apply(v *view.View, n Node) {
	if n.ContentType != "" {
		v.SetContentType(n.ContentType)
	}
	if n.Directory != "" {
		v.SetDirectory(n.Directory)
	}
	for key, value := range n.Data {
		v.Set(key, value)
	}
	for _, child := range n.Children {
		apply(v.Child(child.Key), child)
	}
}

func renderParentFirst(v *view.View, n Node) {
	v.Render(n.Template)
	children := v.Children()
	for _, child := range n.Children {
		renderParentFirst(children[child.Key], child)
	}
}

func renderChildrenFirst(v *view.View, n Node) {
	children := v.Children()
	for _, child := range n.Children {
		renderChildrenFirst(children[child.Key], child)
	}
	v.Render(n.Template)
}

// Apply drives root for one request to this route.
func (r Route) Apply(root *view.View, method string, order Order) {
	if len(r.Methods) > 0 && !slices.ContainsFunc(r.Methods, func(m string) bool {
		return strings.EqualFold(m, method)
	}) {
		root.UnsupportedMethod(r.Methods)
		return
	}

	switch {
	case r.Redirect != "":
		root.Redirect(r.Redirect)
	case r.Created != "":
		root.Created(r.Created)
	case r.Tree != nil:
		if r.Status != 0 {
			root.SetStatusCode(r.Status)
		}
		Build(root, *r.Tree, order)
	default:
		r.respond(root)
	}
}

func (r Route) respond(root *view.View) {
	switch r.Status {
	case http.StatusNotFound:
		root.NotFound(r.Template)
	case http.StatusUnauthorized:
		root.Unauthorized(r.Template)
	case http.StatusNotModified:
		root.NotModified()
	case http.StatusInternalServerError:
		root.ServerError(errors.New(http.StatusText(r.Status)), r.Template)
	default:
		root.SetStatusCode(r.Status)
		root.Render(r.Template)
	}
}
