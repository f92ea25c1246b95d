package storage

import (
	"bytes"
	"fmt"
	"io"

	"github.com/skylander86/uriutils/interfaces"
)

// readStream adapts a backend reader to the Stream contract: writes are
// rejected, Close is idempotent, and use after Close fails with ErrClosed.
type readStream struct {
	name   string
	r      io.ReadCloser
	closed bool
}

func newReadStream(name string, r io.ReadCloser) *readStream {
	return &readStream{name: name, r: r}
}

func (s *readStream) Read(p []byte) (int, error) {
	if s.closed {
		return 0, fmt.Errorf("%w: %s", interfaces.ErrClosed, s.name)
	}
	return s.r.Read(p)
}

func (s *readStream) Write(p []byte) (int, error) {
	return 0, fmt.Errorf("%w: %s is open for reading", interfaces.ErrUnsupportedMode, s.name)
}

func (s *readStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.r.Close()
}

func (s *readStream) Name() string {
	return s.name
}

// writeStream adapts a backend writer to the Stream contract, passing
// writes straight through. Used by backends that stream to their
// destination, such as the filesystem.
type writeStream struct {
	name   string
	w      io.WriteCloser
	closed bool
}

func newWriteStream(name string, w io.WriteCloser) *writeStream {
	return &writeStream{name: name, w: w}
}

func (s *writeStream) Read(p []byte) (int, error) {
	return 0, fmt.Errorf("%w: %s is open for writing", interfaces.ErrUnsupportedMode, s.name)
}

func (s *writeStream) Write(p []byte) (int, error) {
	if s.closed {
		return 0, fmt.Errorf("%w: %s", interfaces.ErrClosed, s.name)
	}
	return s.w.Write(p)
}

func (s *writeStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.w.Close()
}

func (s *writeStream) Name() string {
	return s.name
}

// putStream buffers written content and flushes it to the backend in a
// single put on the first Close. Object stores, SNS and HTTP have no
// partial-write notion, so the flush is all-or-nothing.
type putStream struct {
	name   string
	buf    bytes.Buffer
	flush  func(data []byte) error
	closed bool
}

func newPutStream(name string, flush func(data []byte) error) *putStream {
	return &putStream{name: name, flush: flush}
}

func (s *putStream) Read(p []byte) (int, error) {
	return 0, fmt.Errorf("%w: %s is open for writing", interfaces.ErrUnsupportedMode, s.name)
}

func (s *putStream) Write(p []byte) (int, error) {
	if s.closed {
		return 0, fmt.Errorf("%w: %s", interfaces.ErrClosed, s.name)
	}
	return s.buf.Write(p)
}

func (s *putStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.flush(s.buf.Bytes())
}

func (s *putStream) Name() string {
	return s.name
}
