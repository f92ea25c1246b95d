package uriutils

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylander86/uriutils/interfaces"
	"github.com/skylander86/uriutils/storage"
)

// stubHandle backs the stub:// scheme in polling tests: existence is
// whatever the injected function says, content is unavailable.
type stubHandle struct {
	uri    interfaces.ParsedURI
	mode   interfaces.Mode
	exists func(uri string) (bool, error)
}

func (h *stubHandle) URI() interfaces.ParsedURI { return h.uri }
func (h *stubHandle) Mode() interfaces.Mode     { return h.mode }

func (h *stubHandle) Open(ctx context.Context) (interfaces.Stream, error) {
	return nil, errors.New("stub backend has no content")
}

func (h *stubHandle) Exists(ctx context.Context) (bool, error) {
	return h.exists(h.uri.Raw)
}

func (h *stubHandle) Metadata(ctx context.Context) (interfaces.Metadata, error) {
	return interfaces.Metadata{}, errors.New("stub backend has no metadata")
}

func stubFS(t *testing.T, exists func(uri string) (bool, error), opts ...Option) *FS {
	t.Helper()

	registry := storage.NewRegistry(testLogger())
	err := registry.Register(storage.Descriptor{
		Name:    "stub",
		Schemes: []string{"stub"},
		New: func(uri interfaces.ParsedURI, mode interfaces.Mode) (interfaces.Handle, error) {
			return &stubHandle{uri: uri, mode: mode, exists: exists}, nil
		},
	})
	require.NoError(t, err)

	return New(registry, testLogger(), opts...)
}

type waitResult struct {
	found bool
	err   error
}

// runWait starts WaitExists in the background and keeps advancing the
// mock clock in small steps until it returns, so simulated sleeps make
// progress without real delay.
func runWait(t *testing.T, fs *FS, mock *clock.Mock, uri string, timeout, interval time.Duration) waitResult {
	t.Helper()

	done := make(chan waitResult, 1)
	go func() {
		found, err := fs.WaitExists(context.Background(), uri, timeout, interval)
		done <- waitResult{found: found, err: err}
	}()

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(10 * time.Second)

	for {
		select {
		case result := <-done:
			return result
		case <-deadline:
			t.Fatal("WaitExists did not return")
		case <-ticker.C:
			mock.Add(500 * time.Millisecond)
		}
	}
}

func TestWaitExists_ImmediateSuccess(t *testing.T) {
	var calls atomic.Int32
	fs := stubFS(t, func(string) (bool, error) {
		calls.Add(1)
		return true, nil
	})

	found, err := fs.WaitExists(context.Background(), "stub://resource", 10*time.Second, time.Second)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWaitExists_ZeroTimeout_SingleCheck(t *testing.T) {
	var calls atomic.Int32
	fs := stubFS(t, func(string) (bool, error) {
		calls.Add(1)
		return false, nil
	})

	found, err := fs.WaitExists(context.Background(), "stub://resource", 0, time.Second)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWaitExists_AppearsLater(t *testing.T) {
	mock := clock.NewMock()

	var calls atomic.Int32
	fs := stubFS(t, func(string) (bool, error) {
		return calls.Add(1) >= 3, nil
	}, WithClock(mock))

	result := runWait(t, fs, mock, "stub://resource", time.Minute, time.Second)
	require.NoError(t, result.err)
	assert.True(t, result.found)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWaitExists_TimesOut(t *testing.T) {
	mock := clock.NewMock()

	var calls atomic.Int32
	fs := stubFS(t, func(string) (bool, error) {
		calls.Add(1)
		return false, nil
	}, WithClock(mock))

	// Checks land at 0s, 3s, 6s and 9s; the final interval is clamped to
	// the remaining second so the last check happens at the deadline.
	result := runWait(t, fs, mock, "stub://resource", 10*time.Second, 3*time.Second)
	require.NoError(t, result.err)
	assert.False(t, result.found)
	assert.Equal(t, int32(5), calls.Load())
}

func TestWaitExists_ContextCanceled(t *testing.T) {
	mock := clock.NewMock()
	fs := stubFS(t, func(string) (bool, error) {
		return false, nil
	}, WithClock(mock))

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan waitResult, 1)
	go func() {
		found, err := fs.WaitExists(ctx, "stub://resource", time.Minute, time.Second)
		done <- waitResult{found: found, err: err}
	}()

	// Let the poll enter its sleep before canceling.
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case result := <-done:
		assert.ErrorIs(t, result.err, context.Canceled)
		assert.False(t, result.found)
	case <-time.After(5 * time.Second):
		t.Fatal("WaitExists did not honor cancellation")
	}
}

func TestWaitExists_TransientErrorRetried(t *testing.T) {
	var calls atomic.Int32
	fs := stubFS(t, func(string) (bool, error) {
		if calls.Add(1) < 3 {
			return false, errors.New("connection reset")
		}
		return true, nil
	}, WithTransientRetries(2))

	found, err := fs.WaitExists(context.Background(), "stub://resource", 10*time.Second, time.Second)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWaitExists_PersistentErrorPropagates(t *testing.T) {
	var calls atomic.Int32
	backendErr := errors.New("connection refused")
	fs := stubFS(t, func(string) (bool, error) {
		calls.Add(1)
		return false, backendErr
	}, WithTransientRetries(0))

	found, err := fs.WaitExists(context.Background(), "stub://resource", 10*time.Second, time.Second)
	assert.ErrorIs(t, err, backendErr)
	assert.False(t, found)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWaitExists_UnsupportedSchemeNotRetried(t *testing.T) {
	fs := stubFS(t, func(string) (bool, error) {
		return false, nil
	}, WithTransientRetries(5))

	found, err := fs.WaitExists(context.Background(), "gopher://resource", 10*time.Second, time.Second)
	assert.ErrorIs(t, err, interfaces.ErrUnsupportedScheme)
	assert.False(t, found)
}

func TestExistsAll(t *testing.T) {
	fs := stubFS(t, func(uri string) (bool, error) {
		return uri == "stub://present", nil
	})

	results, err := fs.ExistsAll(context.Background(), []string{"stub://present", "stub://absent"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{
		"stub://present": true,
		"stub://absent":  false,
	}, results)
}

func TestExistsAll_ErrorPropagates(t *testing.T) {
	backendErr := errors.New("connection refused")
	fs := stubFS(t, func(uri string) (bool, error) {
		if uri == "stub://broken" {
			return false, backendErr
		}
		return true, nil
	}, WithTransientRetries(0))

	_, err := fs.ExistsAll(context.Background(), []string{"stub://ok", "stub://broken"})
	assert.ErrorIs(t, err, backendErr)
}

func TestWaitExistsAll(t *testing.T) {
	fs := stubFS(t, func(string) (bool, error) {
		return true, nil
	})

	found, err := fs.WaitExistsAll(context.Background(), []string{"stub://a", "stub://b"}, time.Second, 100*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestWaitExistsAll_OneNeverAppears(t *testing.T) {
	fs := stubFS(t, func(uri string) (bool, error) {
		return uri != "stub://never", nil
	})

	found, err := fs.WaitExistsAll(context.Background(), []string{"stub://a", "stub://never"}, 50*time.Millisecond, 10*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, found)
}
