// Package file streams flat files into views without any templating.
//
// The job template names the file; the view's directory is already applied to
// it. The file is read off the loop and handed to the sink chunk by chunk, so
// a root view streams it straight into the response and a child view buffers
// it as text for its parent.
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-viewtree/pkg/render"
)

const (
	// DefaultContentType is the content type Register binds unless
	// WithContentType says otherwise.
	DefaultContentType = "text/plain"
	// DefaultChunkSize is the largest chunk written to the sink at once.
	DefaultChunkSize = 32 * 1024
)

type Option func(*Renderer)

// WithDir resolves relative file names under dir.
func WithDir(dir string) Option {
	return func(r *Renderer) {
		r.dir = strings.TrimSpace(dir)
	}
}

// WithFS reads files from fsys instead of the operating system.
func WithFS(fsys fs.FS) Option {
	return func(r *Renderer) {
		r.fsys = fsys
	}
}

// WithContentType sets the content type Register binds the renderer to.
func WithContentType(contentType string) Option {
	return func(r *Renderer) {
		if contentType = strings.TrimSpace(contentType); contentType != "" {
			r.contentType = contentType
		}
	}
}

// WithChunkSize bounds each chunk handed to the sink.
func WithChunkSize(size int) Option {
	return func(r *Renderer) {
		if size > 0 {
			r.chunkSize = size
		}
	}
}

// WithLogger sets the renderer logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Renderer writes the contents of the file named by the job template.
type Renderer struct {
	dir         string
	fsys        fs.FS
	contentType string
	chunkSize   int
	logger      *slog.Logger
}

var _ render.Renderer = (*Renderer)(nil)

func New(opts ...Option) *Renderer {
	r := &Renderer{
		contentType: DefaultContentType,
		chunkSize:   DefaultChunkSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Renderer) Name() string {
	return "file"
}

// ContentType returns the content type Register binds.
func (r *Renderer) ContentType() string {
	return r.contentType
}

// Register installs the renderer in registry under its content type.
func (r *Renderer) Register(registry *render.Registry) error {
	if registry == nil {
		return errors.New("file renderer: registry is nil")
	}
	return registry.Register(r.contentType, r)
}

// Render implements render.Renderer.
func (r *Renderer) Render(ctx context.Context, job *render.Job) {
	if err := ctx.Err(); err != nil {
		job.Fail(err)
		return
	}
	name := job.Template
	if strings.TrimSpace(name) == "" {
		job.Fail(errors.New("file renderer: empty file name"))
		return
	}

	job.Stream(func(emit func(chunk any)) error {
		f, err := r.open(name)
		if err != nil {
			return fmt.Errorf("file renderer: open %q: %w", name, err)
		}
		defer f.Close()

		total := 0
		buf := make([]byte, r.chunkSize)
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := f.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				emit(chunk)
				total += n
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return fmt.Errorf("file renderer: read %q: %w", name, err)
			}
		}
		r.logger.Debug("file renderer: streamed", "file", name, "bytes", total)
		return nil
	})
}

func (r *Renderer) open(name string) (io.ReadCloser, error) {
	if r.fsys != nil {
		clean := strings.TrimPrefix(path.Clean(filepath.ToSlash(name)), "/")
		if r.dir != "" {
			clean = path.Join(filepath.ToSlash(r.dir), clean)
		}
		return r.fsys.Open(clean)
	}
	if r.dir != "" && !filepath.IsAbs(name) {
		name = filepath.Join(r.dir, name)
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return f, nil
}
