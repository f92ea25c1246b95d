package uriutils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/benbjohnson/clock"

	"github.com/skylander86/uriutils/interfaces"
	"github.com/skylander86/uriutils/storage"
)

// FS is the uniform stream façade over the scheme-dispatched storage
// backends. It is safe for concurrent use: the underlying registry is
// read-only and every operation constructs its own independent handle.
type FS struct {
	factory *storage.Factory
	log     *slog.Logger
	clock   clock.Clock

	transientRetries uint64
}

// Option adjusts FS construction.
type Option func(*FS)

// WithClock injects the clock used by the existence-polling protocol.
// Tests use a mock clock to simulate elapsed time without real delay.
func WithClock(c clock.Clock) Option {
	return func(f *FS) {
		f.clock = c
	}
}

// WithTransientRetries sets how many times a failing existence check is
// retried within one poll tick before the error propagates.
func WithTransientRetries(n uint64) Option {
	return func(f *FS) {
		f.transientRetries = n
	}
}

// New creates a façade resolving URIs against the given registry.
func New(registry *storage.Registry, log *slog.Logger, opts ...Option) *FS {
	f := &FS{
		factory:          storage.NewFactory(registry, log),
		log:              log,
		clock:            clock.New(),
		transientRetries: 2,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewDefault creates a façade with the built-in backend set, configured
// from URIFS_* environment variables.
func NewDefault(log *slog.Logger, opts ...Option) (*FS, error) {
	cfg, err := storage.LoadConfig()
	if err != nil {
		return nil, err
	}

	registry, err := storage.DefaultRegistry(cfg, log)
	if err != nil {
		return nil, err
	}

	return New(registry, log, opts...), nil
}

// Compression selects the transparent gzip behavior of Open.
type Compression int

const (
	// GzipAuto compresses or decompresses when the URI path ends in .gz.
	GzipAuto Compression = iota
	// GzipNever passes bytes through untouched.
	GzipNever
	// GzipAlways compresses or decompresses regardless of extension.
	GzipAlways
)

type openOptions struct {
	compression Compression
}

// OpenOption adjusts a single Open call.
type OpenOption func(*openOptions)

// WithCompression overrides the default GzipAuto behavior.
func WithCompression(c Compression) OpenOption {
	return func(o *openOptions) {
		o.compression = c
	}
}

// HandleFor parses and resolves a URI into an unopened backend handle.
// Most callers use Open, Read, Dump, Exists or Stat instead.
func (f *FS) HandleFor(uri string, mode interfaces.Mode) (interfaces.Handle, error) {
	return f.factory.HandleFor(uri, mode)
}

// Open opens a URI for reading or writing and returns the stream. The
// caller owns the stream and must close it; Close is idempotent and, for
// write modes, performs the flush to the backend. Opening a missing
// resource for reading fails with ErrNotFound; opening for writing never
// requires pre-existence.
func (f *FS) Open(ctx context.Context, uri string, mode interfaces.Mode, opts ...OpenOption) (interfaces.Stream, error) {
	options := openOptions{compression: GzipAuto}
	for _, opt := range opts {
		opt(&options)
	}

	handle, err := f.factory.HandleFor(uri, mode)
	if err != nil {
		return nil, err
	}

	stream, err := handle.Open(ctx)
	if err != nil {
		return nil, err
	}

	gzipped := options.compression == GzipAlways ||
		(options.compression == GzipAuto && strings.HasSuffix(handle.URI().Path, ".gz"))
	if !gzipped {
		return stream, nil
	}

	if mode.IsRead() {
		wrapped, err := newGzipReadStream(stream)
		if err != nil {
			stream.Close()
			return nil, fmt.Errorf("failed to open gzip stream %s: %w", uri, err)
		}
		return wrapped, nil
	}
	return newGzipWriteStream(stream), nil
}

// Read opens a URI in binary read mode, reads it fully and closes the
// stream.
func (f *FS) Read(ctx context.Context, uri string, opts ...OpenOption) ([]byte, error) {
	stream, err := f.Open(ctx, uri, interfaces.ModeReadBinary, opts...)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", uri, err)
	}
	return data, nil
}

// ReadString reads a URI fully in text mode and returns its UTF-8 content.
func (f *FS) ReadString(ctx context.Context, uri string, opts ...OpenOption) (string, error) {
	stream, err := f.Open(ctx, uri, interfaces.ModeRead, opts...)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", uri, err)
	}
	return string(data), nil
}

// Dump writes content to a URI in binary write mode: open, write, close
// in one scoped call. The close performs the backend flush, so its error
// is the write outcome.
func (f *FS) Dump(ctx context.Context, uri string, content []byte, opts ...OpenOption) error {
	return f.dump(ctx, uri, interfaces.ModeWriteBinary, content, opts)
}

// DumpString writes UTF-8 text content to a URI in text write mode.
func (f *FS) DumpString(ctx context.Context, uri string, content string, opts ...OpenOption) error {
	return f.dump(ctx, uri, interfaces.ModeWrite, []byte(content), opts)
}

func (f *FS) dump(ctx context.Context, uri string, mode interfaces.Mode, content []byte, opts []OpenOption) error {
	stream, err := f.Open(ctx, uri, mode, opts...)
	if err != nil {
		return err
	}

	if _, err := stream.Write(content); err != nil {
		stream.Close()
		return fmt.Errorf("failed to write %s: %w", uri, err)
	}

	if err := stream.Close(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", uri, err)
	}
	return nil
}

// Exists reports whether the resource exists. Absence is a normal false
// result; only backend connectivity or authorization failures return an
// error.
func (f *FS) Exists(ctx context.Context, uri string) (bool, error) {
	handle, err := f.factory.HandleFor(uri, interfaces.ModeReadBinary)
	if err != nil {
		return false, err
	}
	return handle.Exists(ctx)
}

// Stat returns fresh metadata for the resource. A missing resource fails
// with ErrNotFound; fields the backend cannot supply are left absent.
func (f *FS) Stat(ctx context.Context, uri string) (interfaces.Metadata, error) {
	handle, err := f.factory.HandleFor(uri, interfaces.ModeReadBinary)
	if err != nil {
		return interfaces.Metadata{}, err
	}
	return handle.Metadata(ctx)
}
