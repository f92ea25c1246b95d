// Package interfaces defines the core types and contracts of the uriutils
// system, separating interface definitions from backend implementations.
//
// # URI Model
//
// ParsedURI is the immutable result of parsing a URI string. The scheme token
// selects a storage backend; an absent scheme selects the local filesystem:
//
//	/var/data/corpus.txt          -> filesystem
//	file:///var/data/corpus.txt   -> filesystem
//	s3://bucket/path/to/key       -> S3 object storage
//	gs://bucket/path/to/key       -> Google Cloud Storage
//	http://example.com/file.json  -> HTTP
//	sns://topic-name              -> SNS notification topic
//
// # Storage Contracts
//
// Handle represents a resource on a specific backend. It is constructed
// unopened so that existence and metadata queries never pay the cost of
// opening a stream:
//
//	Open(ctx) (Stream, error)
//	Exists(ctx) (bool, error)
//	Metadata(ctx) (Metadata, error)
//
// Stream is the uniform read-or-write interface returned once a Handle is
// opened. Streams are directional: a stream opened for reading rejects
// writes and vice versa. Close is idempotent; for write streams the first
// Close flushes buffered content to the backend.
//
// # Errors
//
// All failures are classified through the sentinel errors defined here
// (ErrUnsupportedScheme, ErrUnsupportedMode, ErrNotFound,
// ErrBackendUnavailable, ErrDuplicateScheme, ErrInvalidURI, ErrClosed) and
// wrapped with enough context to diagnose: the URI, the scheme and the
// attempted mode. Callers test with errors.Is.
//
// Absence is not an error for existence checks: Exists returns false, nil
// for a missing resource and reserves its error return for backend
// connectivity or authorization failures.
package interfaces
