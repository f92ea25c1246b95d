package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylander86/uriutils/interfaces"
)

func fileHandle(t *testing.T, path string, mode interfaces.Mode) *FileHandle {
	t.Helper()

	parsed, err := interfaces.ParseURI(path)
	require.NoError(t, err)

	handle, err := NewFileHandle(parsed, mode, testLogger())
	require.NoError(t, err)
	return handle
}

func TestFileHandle_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "greeting.txt")

	w := fileHandle(t, path, interfaces.ModeWriteBinary)
	stream, err := w.Open(ctx)
	require.NoError(t, err)

	_, err = stream.Write([]byte("Hello world!\n"))
	require.NoError(t, err)
	require.NoError(t, stream.Close())

	r := fileHandle(t, path, interfaces.ModeReadBinary)
	stream, err = r.Open(ctx)
	require.NoError(t, err)
	defer stream.Close()

	content, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "Hello world!\n", string(content))
}

func TestFileHandle_Read_Missing(t *testing.T) {
	handle := fileHandle(t, filepath.Join(t.TempDir(), "missing.txt"), interfaces.ModeReadBinary)

	_, err := handle.Open(context.Background())
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestFileHandle_Write_CreatesParentDirs(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "deeply", "nested", "out.txt")

	handle := fileHandle(t, path, interfaces.ModeWriteBinary)
	stream, err := handle.Open(ctx)
	require.NoError(t, err)

	_, err = stream.Write([]byte("content"))
	require.NoError(t, err)
	require.NoError(t, stream.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestFileHandle_Append(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "log.txt")

	for _, line := range []string{"first\n", "second\n"} {
		handle := fileHandle(t, path, interfaces.ModeAppendBinary)
		stream, err := handle.Open(ctx)
		require.NoError(t, err)

		_, err = stream.Write([]byte(line))
		require.NoError(t, err)
		require.NoError(t, stream.Close())
	}

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(content))
}

func TestFileHandle_Write_Truncates(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("previous content"), 0644))

	handle := fileHandle(t, path, interfaces.ModeWriteBinary)
	stream, err := handle.Open(ctx)
	require.NoError(t, err)

	_, err = stream.Write([]byte("new"))
	require.NoError(t, err)
	require.NoError(t, stream.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))
}

func TestFileHandle_Exists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "flag.txt")

	handle := fileHandle(t, path, interfaces.ModeReadBinary)
	found, err := handle.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	found, err = handle.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestFileHandle_Metadata(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a":1}`), 0644))

	handle := fileHandle(t, path, interfaces.ModeReadBinary)
	md, err := handle.Metadata(ctx)
	require.NoError(t, err)

	require.NotNil(t, md.Size)
	assert.Equal(t, int64(7), *md.Size)
	require.NotNil(t, md.LastModified)
	assert.WithinDuration(t, time.Now(), *md.LastModified, time.Minute)
	assert.Contains(t, md.ContentType, "application/json")
}

func TestFileHandle_Metadata_Missing(t *testing.T) {
	handle := fileHandle(t, filepath.Join(t.TempDir(), "missing.txt"), interfaces.ModeReadBinary)

	_, err := handle.Metadata(context.Background())
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestFileHandle_IsDir(t *testing.T) {
	dir := t.TempDir()

	assert.True(t, fileHandle(t, dir, interfaces.ModeReadBinary).IsDir())
	assert.False(t, fileHandle(t, filepath.Join(dir, "missing"), interfaces.ModeReadBinary).IsDir())

	path := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	assert.False(t, fileHandle(t, path, interfaces.ModeReadBinary).IsDir())
}
