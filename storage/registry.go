package storage

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/skylander86/uriutils/interfaces"
)

// Constructor builds an unopened Handle for a parsed URI and open mode.
type Constructor func(uri interfaces.ParsedURI, mode interfaces.Mode) (interfaces.Handle, error)

// Descriptor is a registry entry: the set of scheme tokens a backend
// serves and the constructor producing its handles.
type Descriptor struct {
	// Name identifies the backend for logging.
	Name string

	// Schemes lists the scheme tokens this backend serves. Tokens are
	// matched case-insensitively; the empty token serves schemeless URIs.
	Schemes []string

	// New constructs an unopened handle.
	New Constructor
}

// Registry maps URI scheme tokens to backend descriptors.
//
// A registry is populated at process start and read-only thereafter;
// Register must not be called concurrently with Resolve. Concurrent
// resolution is safe once registration is complete.
type Registry struct {
	log     *slog.Logger
	schemes map[string]Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:     log,
		schemes: make(map[string]Descriptor),
	}
}

// Register adds a backend descriptor under all of its scheme tokens.
// Registering a token that is already taken fails with ErrDuplicateScheme
// and leaves the registry unchanged.
func (r *Registry) Register(desc Descriptor) error {
	if desc.New == nil {
		return fmt.Errorf("backend %q has no constructor", desc.Name)
	}
	if len(desc.Schemes) == 0 {
		return fmt.Errorf("backend %q registers no schemes", desc.Name)
	}

	tokens := make([]string, 0, len(desc.Schemes))
	for _, scheme := range desc.Schemes {
		token := strings.ToLower(scheme)
		if existing, ok := r.schemes[token]; ok {
			return fmt.Errorf("%w: %q already served by backend %q", interfaces.ErrDuplicateScheme, token, existing.Name)
		}
		tokens = append(tokens, token)
	}

	for _, token := range tokens {
		r.schemes[token] = desc
	}

	r.log.Debug("Registered storage backend",
		slog.String("backend", desc.Name),
		slog.String("schemes", strings.Join(tokens, ",")))

	return nil
}

// Resolve returns the descriptor for a scheme token. Resolution is a pure
// map lookup; no I/O occurs. An unknown token fails with
// ErrUnsupportedScheme.
func (r *Registry) Resolve(scheme string) (Descriptor, error) {
	desc, ok := r.schemes[strings.ToLower(scheme)]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", interfaces.ErrUnsupportedScheme, scheme)
	}
	return desc, nil
}

// Schemes returns the registered scheme tokens, for diagnostics.
func (r *Registry) Schemes() []string {
	tokens := make([]string, 0, len(r.schemes))
	for token := range r.schemes {
		tokens = append(tokens, token)
	}
	return tokens
}

// DefaultRegistry creates a registry populated with the built-in backend
// set: filesystem, S3, GCS, HTTP(S), SNS, IPFS and Vault.
func DefaultRegistry(cfg Config, log *slog.Logger) (*Registry, error) {
	registry := NewRegistry(log)

	builtins := []Descriptor{
		{
			Name:    "file",
			Schemes: []string{"", "file"},
			New: func(uri interfaces.ParsedURI, mode interfaces.Mode) (interfaces.Handle, error) {
				return NewFileHandle(uri, mode, log)
			},
		},
		{
			Name:    "s3",
			Schemes: []string{"s3"},
			New: func(uri interfaces.ParsedURI, mode interfaces.Mode) (interfaces.Handle, error) {
				return NewS3Handle(uri, mode, cfg, log)
			},
		},
		{
			Name:    "gcs",
			Schemes: []string{"gs", "gcs"},
			New: func(uri interfaces.ParsedURI, mode interfaces.Mode) (interfaces.Handle, error) {
				return NewGCSHandle(uri, mode, cfg, log)
			},
		},
		{
			Name:    "http",
			Schemes: []string{"http", "https"},
			New: func(uri interfaces.ParsedURI, mode interfaces.Mode) (interfaces.Handle, error) {
				return NewHTTPHandle(uri, mode, cfg, log)
			},
		},
		{
			Name:    "sns",
			Schemes: []string{"sns"},
			New: func(uri interfaces.ParsedURI, mode interfaces.Mode) (interfaces.Handle, error) {
				return NewSNSHandle(uri, mode, cfg, log)
			},
		},
		{
			Name:    "ipfs",
			Schemes: []string{"ipfs"},
			New: func(uri interfaces.ParsedURI, mode interfaces.Mode) (interfaces.Handle, error) {
				return NewIPFSHandle(uri, mode, cfg, log)
			},
		},
		{
			Name:    "vault",
			Schemes: []string{"vault"},
			New: func(uri interfaces.ParsedURI, mode interfaces.Mode) (interfaces.Handle, error) {
				return NewVaultHandle(uri, mode, cfg, log)
			},
		},
	}

	for _, desc := range builtins {
		if err := registry.Register(desc); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
