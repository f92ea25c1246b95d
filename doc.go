// Package uriutils provides a single uniform interface for reading,
// writing, checking existence of, and retrieving metadata for resources
// identified by URIs, regardless of whether they live on the local
// filesystem, in an object store, behind an HTTP endpoint or on a pub/sub
// topic.
//
// The URI scheme selects the storage backend; callers never branch on it:
//
//	fs, err := uriutils.NewDefault(logger)
//	...
//	if err := fs.DumpString(ctx, "s3://bucket/results/run-42.json", report); err != nil { ... }
//	content, err := fs.ReadString(ctx, "/tmp/input.txt")
//	ok, err := fs.WaitExists(ctx, "s3://bucket/flags/done", 5*time.Minute, 5*time.Second)
//
// Streams returned by Open are scoped resources: Close is idempotent and,
// for write streams, flushes the content to the backend exactly once.
// URIs whose path ends in .gz are transparently gzip-compressed and
// decompressed by default.
//
// The scheme registry, the handle factory and the backend implementations
// live in the storage subpackage; shared types and error sentinels in
// interfaces. Command-line integration helpers are under cmd/flags.
package uriutils
