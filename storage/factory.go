package storage

import (
	"fmt"
	"log/slog"

	"github.com/skylander86/uriutils/interfaces"
)

// Factory creates unopened storage handles from URI strings. It is the one
// place where a URI string is parsed, its scheme resolved against the
// registry, and the backend-specific handle constructed.
type Factory struct {
	registry *Registry
	log      *slog.Logger
}

// NewFactory creates a factory resolving schemes against the given registry.
func NewFactory(registry *Registry, log *slog.Logger) *Factory {
	return &Factory{
		registry: registry,
		log:      log,
	}
}

// HandleFor parses a URI string, resolves its scheme and constructs the
// backend-specific handle for the requested mode. The handle is returned
// unopened; no backend I/O happens here, so existence and metadata callers
// share this path without opening a stream.
//
// Fails with ErrInvalidURI for unparseable URIs, ErrUnsupportedMode for
// unknown mode tokens and ErrUnsupportedScheme for unregistered schemes.
func (f *Factory) HandleFor(uri string, mode interfaces.Mode) (interfaces.Handle, error) {
	if err := mode.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", uri, err)
	}

	parsed, err := interfaces.ParseURI(uri)
	if err != nil {
		return nil, err
	}

	desc, err := f.registry.Resolve(parsed.Scheme)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", uri, err)
	}

	f.log.Debug("Resolved URI to backend",
		slog.String("uri", uri),
		slog.String("backend", desc.Name),
		slog.String("mode", string(mode)))

	return desc.New(parsed, mode)
}
