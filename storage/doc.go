// Package storage provides the scheme registry, the URI handle factory and
// the built-in storage backends of the uriutils system.
//
// # Scheme Registry
//
// The Registry maps URI scheme tokens to backend descriptors. Each
// descriptor carries the alias set of tokens it serves and a constructor
// producing an unopened Handle from a parsed URI and an open mode.
// Registering a token twice is a configuration error. The empty token is
// the filesystem backend, so schemeless paths resolve there by default.
//
// The registry is built once at startup and read-only thereafter.
// DefaultRegistry returns the built-in set; additional backends can be
// registered before first use.
//
// # Built-in Backends
//
// Supported URI schemes:
//
//   - (none), file://  - Local filesystem
//   - s3://            - Amazon S3 or compatible object storage
//     s3://[ACCESS_KEY:SECRET_KEY@]bucket/key?region=us-west-2&endpoint=minio.local:9000
//   - gs://, gcs://    - Google Cloud Storage objects
//   - http://, https:// - HTTP endpoints; write mode maps to PUT
//   - sns://           - AWS SNS topics (write-only); the remainder after the
//     scheme is an opaque topic name or ARN
//   - ipfs://          - IPFS content by CID, via a configured node API
//   - vault://         - HashiCorp Vault KV v2 secrets
//
// Backend support for open modes varies: object stores and SNS reject
// append, SNS and IPFS have further directional limits. Unsupported
// combinations fail with interfaces.ErrUnsupportedMode at construction
// time, before any network traffic.
//
// # Handle Factory
//
// The Factory ties parsing and resolution together:
//
//	factory := storage.NewFactory(registry, logger)
//	handle, err := factory.HandleFor("s3://bucket/corpus.txt", interfaces.ModeReadBinary)
//
// The returned handle is unopened; Open, Exists and Metadata are invoked by
// the caller (normally through the uriutils façade).
package storage
