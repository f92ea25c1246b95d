package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/skylander86/uriutils/interfaces"
)

// S3Handle implements a storage handle for Amazon S3 and compatible object
// stores. The URI authority is the bucket and the path the object key:
//
//	s3://[ACCESS_KEY:SECRET_KEY@]bucket/path/to/key?region=us-west-2&endpoint=minio.local:9000
//
// Region and endpoint query parameters override the process-wide defaults.
type S3Handle struct {
	client *s3.S3
	bucket string
	key    string
	uri    interfaces.ParsedURI
	mode   interfaces.Mode
	log    *slog.Logger
}

// NewS3Handle creates an unopened S3 handle. Append mode is not supported
// by object stores and fails with ErrUnsupportedMode.
func NewS3Handle(uri interfaces.ParsedURI, mode interfaces.Mode, cfg Config, log *slog.Logger) (*S3Handle, error) {
	if mode.IsAppend() {
		return nil, fmt.Errorf("%w: s3 does not support append (%s)", interfaces.ErrUnsupportedMode, uri.Raw)
	}

	bucket := uri.Authority
	if bucket == "" {
		return nil, fmt.Errorf("%w: %q has no bucket", interfaces.ErrInvalidURI, uri.Raw)
	}

	key := uri.Key()
	if key == "" {
		return nil, fmt.Errorf("%w: %q has no object key", interfaces.ErrInvalidURI, uri.Raw)
	}

	region := uri.GetParam("region")
	if region == "" {
		region = cfg.S3Region
	}

	endpoint := uri.GetParam("endpoint")
	if endpoint == "" {
		endpoint = cfg.S3Endpoint
	}

	awsCfg := aws.Config{
		Region: aws.String(region),
	}
	if endpoint != "" {
		awsCfg.Endpoint = aws.String(endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	} else if cfg.S3ForcePathStyle {
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	// Credentials embedded in the URI take precedence over the ambient
	// credential chain (environment, shared config, instance role).
	if uri.Auth != "" {
		accessKey, secretKey, ok := strings.Cut(uri.Auth, ":")
		if !ok {
			return nil, fmt.Errorf("%w: credentials in %q must be ACCESS_KEY:SECRET_KEY", interfaces.ErrInvalidURI, uri.Raw)
		}
		awsCfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	}

	sess, err := session.NewSession(&awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Handle{
		client: s3.New(sess),
		bucket: bucket,
		key:    key,
		uri:    uri,
		mode:   mode,
		log:    log,
	}, nil
}

// URI returns the parsed URI this handle refers to.
func (h *S3Handle) URI() interfaces.ParsedURI {
	return h.uri
}

// Mode returns the open mode the handle was constructed with.
func (h *S3Handle) Mode() interfaces.Mode {
	return h.mode
}

// Open opens the object. Reads fetch the object into memory and return a
// stream over its content; writes buffer locally and upload the object in
// a single put when the stream is closed.
func (h *S3Handle) Open(ctx context.Context) (interfaces.Stream, error) {
	if h.mode.IsRead() {
		return h.openRead(ctx)
	}
	return h.openWrite(ctx), nil
}

func (h *S3Handle) openRead(ctx context.Context) (interfaces.Stream, error) {
	start := time.Now()

	result, err := h.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(h.key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("%w: s3://%s/%s", interfaces.ErrNotFound, h.bucket, h.key)
		}
		return nil, fmt.Errorf("%w: get s3://%s/%s: %v", interfaces.ErrBackendUnavailable, h.bucket, h.key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read s3://%s/%s: %v", interfaces.ErrBackendUnavailable, h.bucket, h.key, err)
	}

	h.log.Debug("Fetched object from S3",
		slog.String("bucket", h.bucket),
		slog.String("key", h.key),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return newReadStream(h.uri.Raw, io.NopCloser(bytes.NewReader(data))), nil
}

func (h *S3Handle) openWrite(ctx context.Context) interfaces.Stream {
	return newPutStream(h.uri.Raw, func(data []byte) error {
		start := time.Now()

		input := &s3.PutObjectInput{
			Bucket: aws.String(h.bucket),
			Key:    aws.String(h.key),
			Body:   bytes.NewReader(data),
		}
		if contentType := mime.TypeByExtension(filepath.Ext(h.key)); contentType != "" {
			input.ContentType = aws.String(contentType)
		}

		if _, err := h.client.PutObjectWithContext(ctx, input); err != nil {
			return fmt.Errorf("%w: put s3://%s/%s: %v", interfaces.ErrBackendUnavailable, h.bucket, h.key, err)
		}

		h.log.Debug("Stored object in S3",
			slog.String("bucket", h.bucket),
			slog.String("key", h.key),
			slog.Int("size", len(data)),
			slog.Duration("duration", time.Since(start)))

		return nil
	})
}

// Exists heads the object. A missing object is a plain false result;
// connectivity and authorization failures return ErrBackendUnavailable.
func (h *S3Handle) Exists(ctx context.Context) (bool, error) {
	_, err := h.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(h.key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: head s3://%s/%s: %v", interfaces.ErrBackendUnavailable, h.bucket, h.key, err)
	}
	return true, nil
}

// Metadata heads the object and reports size, modification time, content
// type and the object's user metadata plus ETag.
func (h *S3Handle) Metadata(ctx context.Context) (interfaces.Metadata, error) {
	result, err := h.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(h.key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return interfaces.Metadata{}, fmt.Errorf("%w: s3://%s/%s", interfaces.ErrNotFound, h.bucket, h.key)
		}
		return interfaces.Metadata{}, fmt.Errorf("%w: head s3://%s/%s: %v", interfaces.ErrBackendUnavailable, h.bucket, h.key, err)
	}

	md := interfaces.Metadata{
		Size:         result.ContentLength,
		LastModified: result.LastModified,
		ContentType:  aws.StringValue(result.ContentType),
		Extra:        make(map[string]string),
	}
	for name, value := range result.Metadata {
		md.Extra[name] = aws.StringValue(value)
	}
	if etag := aws.StringValue(result.ETag); etag != "" {
		md.Extra["ETag"] = etag
	}

	return md, nil
}

// isS3NotFound reports whether an S3 error means the object is absent.
// HeadObject reports "NotFound" while GetObject reports "NoSuchKey".
func isS3NotFound(err error) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	switch aerr.Code() {
	case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
		return true
	}
	return false
}
