package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "us-east-1", cfg.S3Region)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "127.0.0.1:5001", cfg.IPFSAddr)
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("URIFS_S3_REGION", "eu-central-1")
	t.Setenv("URIFS_S3_FORCE_PATH_STYLE", "true")
	t.Setenv("URIFS_HTTP_TIMEOUT", "5s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "eu-central-1", cfg.S3Region)
	assert.True(t, cfg.S3ForcePathStyle)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("URIFS_S3_REGION", "eu-central-1")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("s3_region: ap-northeast-1\ns3_endpoint: minio.local:9000\n"), 0644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	// File values win over environment values; untouched fields keep
	// their environment or default values.
	assert.Equal(t, "ap-northeast-1", cfg.S3Region)
	assert.Equal(t, "minio.local:9000", cfg.S3Endpoint)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
}

func TestLoadConfigFile_Missing(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
