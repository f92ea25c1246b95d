package uriutils

import (
	"fmt"

	"github.com/klauspost/compress/gzip"

	"github.com/skylander86/uriutils/interfaces"
)

// gzipReadStream decompresses an inner stream transparently. Closing
// closes the decompressor and then the inner stream; Close is idempotent.
type gzipReadStream struct {
	inner  interfaces.Stream
	zr     *gzip.Reader
	closed bool
}

func newGzipReadStream(inner interfaces.Stream) (*gzipReadStream, error) {
	zr, err := gzip.NewReader(inner)
	if err != nil {
		return nil, err
	}
	return &gzipReadStream{inner: inner, zr: zr}, nil
}

func (s *gzipReadStream) Read(p []byte) (int, error) {
	if s.closed {
		return 0, fmt.Errorf("%w: %s", interfaces.ErrClosed, s.Name())
	}
	return s.zr.Read(p)
}

func (s *gzipReadStream) Write(p []byte) (int, error) {
	return 0, fmt.Errorf("%w: %s is open for reading", interfaces.ErrUnsupportedMode, s.Name())
}

func (s *gzipReadStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.zr.Close(); err != nil {
		s.inner.Close()
		return err
	}
	return s.inner.Close()
}

func (s *gzipReadStream) Name() string {
	return s.inner.Name()
}

// gzipWriteStream compresses writes transparently. The first Close
// finishes the gzip member and then closes the inner stream, which
// performs the backend flush.
type gzipWriteStream struct {
	inner  interfaces.Stream
	zw     *gzip.Writer
	closed bool
}

func newGzipWriteStream(inner interfaces.Stream) *gzipWriteStream {
	return &gzipWriteStream{inner: inner, zw: gzip.NewWriter(inner)}
}

func (s *gzipWriteStream) Read(p []byte) (int, error) {
	return 0, fmt.Errorf("%w: %s is open for writing", interfaces.ErrUnsupportedMode, s.Name())
}

func (s *gzipWriteStream) Write(p []byte) (int, error) {
	if s.closed {
		return 0, fmt.Errorf("%w: %s", interfaces.ErrClosed, s.Name())
	}
	return s.zw.Write(p)
}

func (s *gzipWriteStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.zw.Close(); err != nil {
		s.inner.Close()
		return err
	}
	return s.inner.Close()
}

func (s *gzipWriteStream) Name() string {
	return s.inner.Name()
}
