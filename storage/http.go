package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/skylander86/uriutils/interfaces"
)

// HTTPHandle implements a storage handle for http:// and https:// URLs.
// Reads issue GET requests and stream the response body; writes buffer
// locally and issue a single PUT on close; existence and metadata use HEAD.
type HTTPHandle struct {
	client *http.Client
	url    string
	uri    interfaces.ParsedURI
	mode   interfaces.Mode
	log    *slog.Logger
}

// NewHTTPHandle creates an unopened HTTP handle. Append mode has no HTTP
// mapping and fails with ErrUnsupportedMode.
func NewHTTPHandle(uri interfaces.ParsedURI, mode interfaces.Mode, cfg Config, log *slog.Logger) (*HTTPHandle, error) {
	if mode.IsAppend() {
		return nil, fmt.Errorf("%w: http does not support append (%s)", interfaces.ErrUnsupportedMode, uri.Raw)
	}
	if uri.Authority == "" {
		return nil, fmt.Errorf("%w: %q has no host", interfaces.ErrInvalidURI, uri.Raw)
	}

	return &HTTPHandle{
		client: &http.Client{Timeout: cfg.HTTPTimeout},
		url:    uri.Raw,
		uri:    uri,
		mode:   mode,
		log:    log,
	}, nil
}

// URI returns the parsed URI this handle refers to.
func (h *HTTPHandle) URI() interfaces.ParsedURI {
	return h.uri
}

// Mode returns the open mode the handle was constructed with.
func (h *HTTPHandle) Mode() interfaces.Mode {
	return h.mode
}

// Open performs a GET for read modes, streaming the response body. For
// write modes it returns a stream whose Close sends the buffered content
// in a single PUT request.
func (h *HTTPHandle) Open(ctx context.Context) (interfaces.Stream, error) {
	if h.mode.IsRead() {
		return h.openRead(ctx)
	}
	return h.openWrite(ctx), nil
}

func (h *HTTPHandle) openRead(ctx context.Context) (interfaces.Stream, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", h.url, err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", interfaces.ErrBackendUnavailable, h.url, err)
	}

	if isHTTPNotFound(resp.StatusCode) {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", interfaces.ErrNotFound, h.url)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: get %s: %s", interfaces.ErrBackendUnavailable, h.url, resp.Status)
	}

	h.log.Debug("Opened HTTP resource for reading",
		slog.String("url", h.url),
		slog.String("status", resp.Status),
		slog.Duration("duration", time.Since(start)))

	return newReadStream(h.uri.Raw, resp.Body), nil
}

func (h *HTTPHandle) openWrite(ctx context.Context) interfaces.Stream {
	return newPutStream(h.uri.Raw, func(data []byte) error {
		start := time.Now()

		req, err := http.NewRequestWithContext(ctx, http.MethodPut, h.url, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to create request for %s: %w", h.url, err)
		}
		if contentType := mime.TypeByExtension(filepath.Ext(h.uri.Path)); contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := h.client.Do(req)
		if err != nil {
			return fmt.Errorf("%w: put %s: %v", interfaces.ErrBackendUnavailable, h.url, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("%w: put %s: %s", interfaces.ErrBackendUnavailable, h.url, resp.Status)
		}

		h.log.Debug("Stored HTTP resource",
			slog.String("url", h.url),
			slog.String("status", resp.Status),
			slog.Int("size", len(data)),
			slog.Duration("duration", time.Since(start)))

		return nil
	})
}

// Exists issues a HEAD request. 404 and 410 are a plain false result;
// other failures, including authorization errors, are backend errors so
// that a broken endpoint is never mistaken for an absent resource.
func (h *HTTPHandle) Exists(ctx context.Context) (bool, error) {
	resp, err := h.head(ctx)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if isHTTPNotFound(resp.StatusCode) {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("%w: head %s: %s", interfaces.ErrBackendUnavailable, h.url, resp.Status)
	}
	return true, nil
}

// Metadata issues a HEAD request and maps the response headers. Servers
// that omit Content-Length or Last-Modified leave the corresponding fields
// absent.
func (h *HTTPHandle) Metadata(ctx context.Context) (interfaces.Metadata, error) {
	resp, err := h.head(ctx)
	if err != nil {
		return interfaces.Metadata{}, err
	}
	defer resp.Body.Close()

	if isHTTPNotFound(resp.StatusCode) {
		return interfaces.Metadata{}, fmt.Errorf("%w: %s", interfaces.ErrNotFound, h.url)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return interfaces.Metadata{}, fmt.Errorf("%w: head %s: %s", interfaces.ErrBackendUnavailable, h.url, resp.Status)
	}

	md := interfaces.Metadata{
		ContentType: resp.Header.Get("Content-Type"),
		Extra:       make(map[string]string),
	}

	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if size, err := strconv.ParseInt(cl, 10, 64); err == nil && size >= 0 {
			md.Size = &size
		}
	}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if modified, err := http.ParseTime(lm); err == nil {
			md.LastModified = &modified
		}
	}
	if etag := resp.Header.Get("ETag"); etag != "" {
		md.Extra["ETag"] = etag
	}

	return md, nil
}

func (h *HTTPHandle) head(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, h.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", h.url, err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: head %s: %v", interfaces.ErrBackendUnavailable, h.url, err)
	}
	return resp, nil
}

func isHTTPNotFound(status int) bool {
	return status == http.StatusNotFound || status == http.StatusGone
}
