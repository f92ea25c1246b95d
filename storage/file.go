package storage

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/skylander86/uriutils/interfaces"
)

// FileHandle implements a storage handle backed by the local filesystem.
// It serves both explicit file:// URIs and plain schemeless paths.
type FileHandle struct {
	uri  interfaces.ParsedURI
	path string
	mode interfaces.Mode
	log  *slog.Logger
}

// NewFileHandle creates an unopened filesystem handle. All open modes are
// supported, including append.
func NewFileHandle(uri interfaces.ParsedURI, mode interfaces.Mode, log *slog.Logger) (*FileHandle, error) {
	path := uri.FilePath()
	if path == "" {
		return nil, fmt.Errorf("%w: %q has no path", interfaces.ErrInvalidURI, uri.Raw)
	}

	return &FileHandle{
		uri:  uri,
		path: path,
		mode: mode,
		log:  log,
	}, nil
}

// URI returns the parsed URI this handle refers to.
func (h *FileHandle) URI() interfaces.ParsedURI {
	return h.uri
}

// Mode returns the open mode the handle was constructed with.
func (h *FileHandle) Mode() interfaces.Mode {
	return h.mode
}

// Open opens the file. Read modes fail with ErrNotFound for a missing
// file; write modes create missing parent directories first.
func (h *FileHandle) Open(ctx context.Context) (interfaces.Stream, error) {
	if h.mode.IsRead() {
		f, err := os.Open(h.path)
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrNotFound, h.path)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", h.path, err)
		}

		h.log.Debug("Opened local file for reading", slog.String("path", h.path))
		return newReadStream(h.uri.Raw, f), nil
	}

	if dir := filepath.Dir(h.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create parent directory for %s: %w", h.path, err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if h.mode.IsAppend() {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(h.path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s for writing: %w", h.path, err)
	}

	h.log.Debug("Opened local file for writing",
		slog.String("path", h.path),
		slog.String("mode", string(h.mode)))

	return newWriteStream(h.uri.Raw, f), nil
}

// Exists reports whether the file exists.
func (h *FileHandle) Exists(ctx context.Context) (bool, error) {
	_, err := os.Stat(h.path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: stat %s: %v", interfaces.ErrBackendUnavailable, h.path, err)
	}
	return true, nil
}

// Metadata returns size and modification time from the filesystem, with
// the content type guessed from the file extension when possible.
func (h *FileHandle) Metadata(ctx context.Context) (interfaces.Metadata, error) {
	info, err := os.Stat(h.path)
	if os.IsNotExist(err) {
		return interfaces.Metadata{}, fmt.Errorf("%w: %s", interfaces.ErrNotFound, h.path)
	}
	if err != nil {
		return interfaces.Metadata{}, fmt.Errorf("%w: stat %s: %v", interfaces.ErrBackendUnavailable, h.path, err)
	}

	size := info.Size()
	modified := info.ModTime()

	return interfaces.Metadata{
		Size:         &size,
		LastModified: &modified,
		ContentType:  mime.TypeByExtension(filepath.Ext(h.path)),
	}, nil
}

// IsDir reports whether the path exists and is a directory. Used by the
// directory-typed command-line validator.
func (h *FileHandle) IsDir() bool {
	info, err := os.Stat(h.path)
	return err == nil && info.IsDir()
}
