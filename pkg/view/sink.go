package view

import (
	"github.com/goliatone/go-viewtree/pkg/render"
)

// newSink returns the sink for one render attempt. Anything written after the
// attempt stopped being live (cancel, forced restart, failure) is dropped.
func (v *View) newSink(attempt uint64) render.Sink {
	if v.parent == nil {
		return &rootSink{view: v, attempt: attempt}
	}
	return &bufferSink{view: v, attempt: attempt, value: ""}
}

// rootSink forwards to the response owned by the root.
type rootSink struct {
	view    *View
	attempt uint64
}

func (s *rootSink) Write(chunk any) error {
	v := s.view
	if !v.live(s.attempt) || v.closed || v.out == nil {
		return nil
	}
	return v.out.Write(chunk)
}

func (s *rootSink) End() error {
	v := s.view
	if !v.live(s.attempt) {
		return nil
	}
	v.closeSink()
	v.complete(nil)
	return nil
}

// bufferSink accumulates a child's output. Strings and byte slices are
// appended as text; any other chunk, Stringers included, replaces whatever was
// buffered so far.
type bufferSink struct {
	view    *View
	attempt uint64
	value   any
}

func (s *bufferSink) Write(chunk any) error {
	if !s.view.live(s.attempt) {
		return nil
	}

	var text string
	switch c := chunk.(type) {
	case nil:
		return nil
	case string:
		text = c
	case []byte:
		text = string(c)
	default:
		s.value = chunk
		return nil
	}

	if buffered, ok := s.value.(string); ok {
		s.value = buffered + text
		return nil
	}
	s.value = text
	return nil
}

func (s *bufferSink) End() error {
	if !s.view.live(s.attempt) {
		return nil
	}
	s.view.complete(s.value)
	return nil
}

func (v *View) closeSink() {
	r := v.root
	if r.closed {
		return
	}
	r.closed = true
	if r.out == nil {
		return
	}
	if err := r.out.End(); err != nil {
		r.logger().Warn("view: closing response failed", "error", err)
	}
}
