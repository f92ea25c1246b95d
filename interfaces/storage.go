package interfaces

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrInvalidURI is returned when a URI string cannot be parsed.
	ErrInvalidURI = errors.New("invalid URI")

	// ErrUnsupportedScheme is returned when no backend is registered for a
	// URI's scheme token.
	ErrUnsupportedScheme = errors.New("unsupported URI scheme")

	// ErrUnsupportedMode is returned when a backend does not support the
	// requested open mode, or when a stream is used against its direction.
	ErrUnsupportedMode = errors.New("unsupported mode")

	// ErrNotFound is returned when the target resource is absent on a read
	// or metadata operation. Existence checks convert this condition into a
	// plain false result instead.
	ErrNotFound = errors.New("resource not found")

	// ErrBackendUnavailable is returned for connectivity, authorization and
	// quota failures of the underlying backend.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrDuplicateScheme is returned when a scheme token is registered twice.
	ErrDuplicateScheme = errors.New("scheme already registered")

	// ErrClosed is returned when a closed stream is read from or written to.
	ErrClosed = errors.New("stream already closed")
)

// Metadata describes a resource as reported by its backend. Fields a backend
// cannot supply are left nil or empty rather than zeroed, so callers can
// distinguish unknown from zero. Metadata is produced fresh on every query
// and never cached or mutated after construction.
type Metadata struct {
	// Size is the resource size in bytes, if the backend reports one.
	Size *int64

	// LastModified is the last modification time, if known.
	LastModified *time.Time

	// ContentType is the media type, if known.
	ContentType string

	// Extra holds backend-specific fields such as ETags or topic attributes.
	Extra map[string]string
}

// Stream is the uniform read-or-write interface returned once a Handle is
// opened. Streams are directional: reading from a write stream or writing
// to a read stream fails with ErrUnsupportedMode. Close is idempotent; a
// write stream flushes its content to the backend on the first Close, and
// any operation after Close fails with ErrClosed.
type Stream interface {
	io.Reader
	io.Writer
	io.Closer

	// Name identifies the stream for diagnostics, normally the URI.
	Name() string
}

// Handle is a not-yet-open reference to a resource on a specific backend.
// Handles are constructed unopened by the factory, so existence and
// metadata queries reuse the parsing and resolution path without opening a
// stream. Two handles for the same URI are independent sessions; the
// backend session reference is exclusively owned by its Handle.
type Handle interface {
	// URI returns the parsed URI this handle refers to.
	URI() ParsedURI

	// Mode returns the open mode the handle was constructed with.
	Mode() Mode

	// Open opens the underlying stream. Opening a missing resource for
	// reading fails with ErrNotFound; opening for writing never requires
	// pre-existence and may create missing parent containers where the
	// backend has that notion.
	Open(ctx context.Context) (Stream, error)

	// Exists reports whether the resource exists. Absence is a normal
	// false result; only backend connectivity failures return an error.
	Exists(ctx context.Context) (bool, error)

	// Metadata returns fresh resource metadata. A missing resource fails
	// with ErrNotFound.
	Metadata(ctx context.Context) (Metadata, error)
}
