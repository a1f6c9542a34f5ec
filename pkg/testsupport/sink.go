package testsupport

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// RecordingSink is a render.ResponseSink that keeps everything it receives.
type RecordingSink struct {
	mu      sync.Mutex
	status  int
	headers map[string]string
	chunks  []any
	ends    int
}

// NewRecordingSink returns an empty sink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{headers: map[string]string{}}
}

// Write implements render.Sink.
func (s *RecordingSink) Write(chunk any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunk)
	return nil
}

// End implements render.Sink.
func (s *RecordingSink) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ends++
	return nil
}

// SetStatus implements render.ResponseSink.
func (s *RecordingSink) SetStatus(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = code
}

// SetHeader implements render.ResponseSink.
func (s *RecordingSink) SetHeader(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headers[name] = value
}

// Status returns the last status set, 0 if none.
func (s *RecordingSink) Status() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Header returns a recorded header value.
func (s *RecordingSink) Header(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headers[name]
}

// Ends reports how many times End was called.
func (s *RecordingSink) Ends() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ends
}

// Chunks returns a copy of the written chunks.
func (s *RecordingSink) Chunks() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]any(nil), s.chunks...)
}

// Body concatenates the written chunks. Structured chunks are JSON encoded.
func (s *RecordingSink) Body() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	for _, chunk := range s.chunks {
		switch c := chunk.(type) {
		case string:
			b.WriteString(c)
		case []byte:
			b.Write(c)
		default:
			payload, err := json.Marshal(c)
			if err != nil {
				fmt.Fprintf(&b, "%v", c)
				continue
			}
			b.Write(payload)
		}
	}
	return b.String()
}
