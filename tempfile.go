package uriutils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/skylander86/uriutils/interfaces"
)

// ToTempFile downloads the content of a URI to a named local temporary
// file and returns its path together with a cleanup function removing the
// file. The content is written verbatim, without gzip handling, so the
// temporary file mirrors the remote bytes.
func (f *FS) ToTempFile(ctx context.Context, uri string) (string, func(), error) {
	stream, err := f.Open(ctx, uri, interfaces.ModeReadBinary, WithCompression(GzipNever))
	if err != nil {
		return "", nil, err
	}
	defer stream.Close()

	tmp, err := os.CreateTemp("", "uri.*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temporary file: %w", err)
	}

	size, err := io.Copy(tmp, stream)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("failed to download %s: %w", uri, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("failed to finish %s: %w", tmp.Name(), err)
	}

	f.log.Debug("Downloaded URI to temporary file",
		slog.String("uri", uri),
		slog.String("path", tmp.Name()),
		slog.Int64("size", size))

	name := tmp.Name()
	cleanup := func() { os.Remove(name) }
	return name, cleanup, nil
}
