package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylander86/uriutils/interfaces"
)

func gcsHandle(t *testing.T, uri string, mode interfaces.Mode) *GCSHandle {
	t.Helper()

	parsed, err := interfaces.ParseURI(uri)
	require.NoError(t, err)

	handle, err := NewGCSHandle(parsed, mode, Config{}, testLogger())
	require.NoError(t, err)
	return handle
}

func TestNewGCSHandle(t *testing.T) {
	handle := gcsHandle(t, "gs://my-bucket/path/to/key.txt", interfaces.ModeReadBinary)

	assert.Equal(t, "my-bucket", handle.bucket)
	assert.Equal(t, "path/to/key.txt", handle.key)
	assert.Equal(t, interfaces.ModeReadBinary, handle.Mode())
}

func TestNewGCSHandle_AliasScheme(t *testing.T) {
	// gs:// and gcs:// both select the same backend.
	handle := gcsHandle(t, "gcs://my-bucket/key", interfaces.ModeWriteBinary)

	assert.Equal(t, "my-bucket", handle.bucket)
	assert.Equal(t, "key", handle.key)
}

func TestNewGCSHandle_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		mode     interfaces.Mode
		expected error
	}{
		{name: "append mode", uri: "gs://bucket/key", mode: interfaces.ModeAppendBinary, expected: interfaces.ErrUnsupportedMode},
		{name: "missing key", uri: "gs://bucket", mode: interfaces.ModeReadBinary, expected: interfaces.ErrInvalidURI},
		{name: "missing bucket", uri: "gs:///key", mode: interfaces.ModeReadBinary, expected: interfaces.ErrInvalidURI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := interfaces.ParseURI(tt.uri)
			require.NoError(t, err)

			_, err = NewGCSHandle(parsed, tt.mode, Config{}, testLogger())
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}
