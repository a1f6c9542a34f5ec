package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-viewtree/internal/logging"
	"github.com/goliatone/go-viewtree/internal/treefile"
	"github.com/goliatone/go-viewtree/pkg/loop"
	"github.com/goliatone/go-viewtree/pkg/view"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		order       string
		showHeaders bool
	)

	cmd := &cobra.Command{
		Use:   "render <tree.yaml>",
		Short: "Render a tree file to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, err := treefile.LoadTree(args[0])
			if err != nil {
				return err
			}
			return a.render(cmd.Context(), node, treefile.Order(order), cmd.OutOrStdout(), cmd.ErrOrStderr(), showHeaders)
		},
	}
	cmd.Flags().StringVar(&order, "order", string(treefile.ParentFirst), "render order (parent_first, children_first)")
	cmd.Flags().BoolVar(&showHeaders, "headers", false, "print status and headers to stderr")
	return cmd
}

func (a *app) render(ctx context.Context, node *treefile.Node, order treefile.Order, out, errOut io.Writer, showHeaders bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	registry, _, err := a.registry()
	if err != nil {
		return err
	}
	statusTemplates, err := a.statusTemplates()
	if err != nil {
		return err
	}

	var failure error
	var root *view.View

	sink := newWriterSink(out)
	l := loop.New()
	root = view.New(sink,
		view.WithLoop(l),
		view.WithRegistry(registry),
		view.WithContentType(a.cfg.View.ContentType),
		view.WithLogger(logging.Component(a.logger, "view")),
		view.WithGlobals(a.cfg.View.Globals),
		view.WithDefaultTemplates(statusTemplates),
		view.WithContext(ctx),
		view.WithErrorHandler(func(err error, template string) {
			failure = err
			root.ServerError(err)
		}),
	)

	treefile.Build(root, *node, order)
	if err := l.Run(ctx); err != nil {
		return err
	}

	if showHeaders {
		fmt.Fprintf(errOut, "status: %d\n", root.StatusCode())
		for _, name := range sink.headerNames() {
			fmt.Fprintf(errOut, "%s: %s\n", name, sink.headers[name])
		}
	}
	if !sink.ended {
		return errors.New("render: view tree did not complete")
	}
	if failure != nil {
		return fmt.Errorf("render: %w", failure)
	}
	return nil
}

// writerSink streams the root output to a writer.
type writerSink struct {
	w       io.Writer
	status  int
	headers map[string]string
	ended   bool
}

func newWriterSink(w io.Writer) *writerSink {
	return &writerSink{w: w, headers: map[string]string{}}
}

func (s *writerSink) Write(chunk any) error {
	switch c := chunk.(type) {
	case string:
		_, err := io.WriteString(s.w, c)
		return err
	case []byte:
		_, err := s.w.Write(c)
		return err
	default:
		_, err := fmt.Fprint(s.w, c)
		return err
	}
}

func (s *writerSink) End() error {
	s.ended = true
	return nil
}

func (s *writerSink) SetStatus(code int) { s.status = code }

func (s *writerSink) SetHeader(name, value string) { s.headers[name] = value }

func (s *writerSink) headerNames() []string {
	names := make([]string, 0, len(s.headers))
	for name := range s.headers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
