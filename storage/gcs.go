package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"time"

	gcs "cloud.google.com/go/storage"

	"github.com/skylander86/uriutils/interfaces"
)

// GCSHandle implements a storage handle for Google Cloud Storage objects.
// The URI authority is the bucket and the path the object name; gs:// and
// gcs:// are interchangeable:
//
//	gs://bucket/path/to/key.txt
//	gcs://bucket/path/to/key.txt
//
// Authentication uses the standard Application Default Credentials chain
// of the Google client.
type GCSHandle struct {
	client *gcs.Client // created lazily with the operation context
	bucket string
	key    string
	uri    interfaces.ParsedURI
	mode   interfaces.Mode
	log    *slog.Logger
}

// NewGCSHandle creates an unopened GCS handle. Append mode is not
// supported by object stores and fails with ErrUnsupportedMode.
func NewGCSHandle(uri interfaces.ParsedURI, mode interfaces.Mode, cfg Config, log *slog.Logger) (*GCSHandle, error) {
	if mode.IsAppend() {
		return nil, fmt.Errorf("%w: gcs does not support append (%s)", interfaces.ErrUnsupportedMode, uri.Raw)
	}

	bucket := uri.Authority
	if bucket == "" {
		return nil, fmt.Errorf("%w: %q has no bucket", interfaces.ErrInvalidURI, uri.Raw)
	}

	key := uri.Key()
	if key == "" {
		return nil, fmt.Errorf("%w: %q has no object name", interfaces.ErrInvalidURI, uri.Raw)
	}

	return &GCSHandle{
		bucket: bucket,
		key:    key,
		uri:    uri,
		mode:   mode,
		log:    log,
	}, nil
}

// URI returns the parsed URI this handle refers to.
func (h *GCSHandle) URI() interfaces.ParsedURI {
	return h.uri
}

// Mode returns the open mode the handle was constructed with.
func (h *GCSHandle) Mode() interfaces.Mode {
	return h.mode
}

// object resolves the object handle, creating the client on first use so
// that credential loading happens under the operation's context.
func (h *GCSHandle) object(ctx context.Context) (*gcs.ObjectHandle, error) {
	if h.client == nil {
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: create GCS client: %v", interfaces.ErrBackendUnavailable, err)
		}
		h.client = client
	}
	return h.client.Bucket(h.bucket).Object(h.key), nil
}

// Open opens the object. Reads stream the object content; writes buffer
// locally and upload the object in a single put when the stream is closed.
func (h *GCSHandle) Open(ctx context.Context) (interfaces.Stream, error) {
	if h.mode.IsRead() {
		return h.openRead(ctx)
	}
	return h.openWrite(ctx), nil
}

func (h *GCSHandle) openRead(ctx context.Context) (interfaces.Stream, error) {
	obj, err := h.object(ctx)
	if err != nil {
		return nil, err
	}

	reader, err := obj.NewReader(ctx)
	if err != nil {
		if isGCSNotFound(err) {
			return nil, fmt.Errorf("%w: gs://%s/%s", interfaces.ErrNotFound, h.bucket, h.key)
		}
		return nil, fmt.Errorf("%w: get gs://%s/%s: %v", interfaces.ErrBackendUnavailable, h.bucket, h.key, err)
	}

	h.log.Debug("Opened object from GCS",
		slog.String("bucket", h.bucket),
		slog.String("key", h.key))

	return newReadStream(h.uri.Raw, reader), nil
}

func (h *GCSHandle) openWrite(ctx context.Context) interfaces.Stream {
	return newPutStream(h.uri.Raw, func(data []byte) error {
		obj, err := h.object(ctx)
		if err != nil {
			return err
		}

		start := time.Now()
		writer := obj.NewWriter(ctx)
		if contentType := mime.TypeByExtension(filepath.Ext(h.key)); contentType != "" {
			writer.ContentType = contentType
		}

		if _, err := writer.Write(data); err != nil {
			writer.Close()
			return fmt.Errorf("%w: put gs://%s/%s: %v", interfaces.ErrBackendUnavailable, h.bucket, h.key, err)
		}
		if err := writer.Close(); err != nil {
			return fmt.Errorf("%w: put gs://%s/%s: %v", interfaces.ErrBackendUnavailable, h.bucket, h.key, err)
		}

		h.log.Debug("Stored object in GCS",
			slog.String("bucket", h.bucket),
			slog.String("key", h.key),
			slog.Int("size", len(data)),
			slog.Duration("duration", time.Since(start)))

		return nil
	})
}

// Exists queries the object attributes. A missing object is a plain false
// result; connectivity and authorization failures return
// ErrBackendUnavailable.
func (h *GCSHandle) Exists(ctx context.Context) (bool, error) {
	obj, err := h.object(ctx)
	if err != nil {
		return false, err
	}

	if _, err := obj.Attrs(ctx); err != nil {
		if isGCSNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: attrs of gs://%s/%s: %v", interfaces.ErrBackendUnavailable, h.bucket, h.key, err)
	}
	return true, nil
}

// Metadata reports size, modification time, content type and the object's
// user metadata plus ETag from the object attributes.
func (h *GCSHandle) Metadata(ctx context.Context) (interfaces.Metadata, error) {
	obj, err := h.object(ctx)
	if err != nil {
		return interfaces.Metadata{}, err
	}

	attrs, err := obj.Attrs(ctx)
	if err != nil {
		if isGCSNotFound(err) {
			return interfaces.Metadata{}, fmt.Errorf("%w: gs://%s/%s", interfaces.ErrNotFound, h.bucket, h.key)
		}
		return interfaces.Metadata{}, fmt.Errorf("%w: attrs of gs://%s/%s: %v", interfaces.ErrBackendUnavailable, h.bucket, h.key, err)
	}

	size := attrs.Size
	updated := attrs.Updated

	md := interfaces.Metadata{
		Size:         &size,
		LastModified: &updated,
		ContentType:  attrs.ContentType,
		Extra:        make(map[string]string),
	}
	for name, value := range attrs.Metadata {
		md.Extra[name] = value
	}
	if attrs.Etag != "" {
		md.Extra["ETag"] = attrs.Etag
	}

	return md, nil
}

func isGCSNotFound(err error) bool {
	return errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, gcs.ErrBucketNotExist)
}
