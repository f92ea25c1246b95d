package storage

import (
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylander86/uriutils/interfaces"
)

func s3Handle(t *testing.T, uri string, mode interfaces.Mode, cfg Config) *S3Handle {
	t.Helper()

	parsed, err := interfaces.ParseURI(uri)
	require.NoError(t, err)

	handle, err := NewS3Handle(parsed, mode, cfg, testLogger())
	require.NoError(t, err)
	return handle
}

func TestNewS3Handle(t *testing.T) {
	handle := s3Handle(t, "s3://my-bucket/path/to/key.txt", interfaces.ModeReadBinary, Config{S3Region: "us-east-1"})

	assert.Equal(t, "my-bucket", handle.bucket)
	assert.Equal(t, "path/to/key.txt", handle.key)
	assert.Equal(t, interfaces.ModeReadBinary, handle.Mode())
	assert.Equal(t, "us-east-1", aws.StringValue(handle.client.Config.Region))
}

func TestNewS3Handle_RegionFromQuery(t *testing.T) {
	handle := s3Handle(t, "s3://bucket/key?region=eu-west-1", interfaces.ModeReadBinary, Config{S3Region: "us-east-1"})

	assert.Equal(t, "eu-west-1", aws.StringValue(handle.client.Config.Region))
}

func TestNewS3Handle_EndpointFromQuery(t *testing.T) {
	handle := s3Handle(t, "s3://bucket/key?endpoint=minio.local%3A9000", interfaces.ModeReadBinary, Config{S3Region: "us-east-1"})

	assert.Equal(t, "minio.local:9000", aws.StringValue(handle.client.Config.Endpoint))
	// Custom endpoints imply path-style addressing.
	assert.True(t, aws.BoolValue(handle.client.Config.S3ForcePathStyle))
}

func TestNewS3Handle_CredentialsFromURI(t *testing.T) {
	handle := s3Handle(t, "s3://AKID:SECRET@bucket/key", interfaces.ModeReadBinary, Config{S3Region: "us-east-1"})

	creds, err := handle.client.Config.Credentials.Get()
	require.NoError(t, err)
	assert.Equal(t, "AKID", creds.AccessKeyID)
	assert.Equal(t, "SECRET", creds.SecretAccessKey)
}

func TestNewS3Handle_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		mode     interfaces.Mode
		expected error
	}{
		{name: "append mode", uri: "s3://bucket/key", mode: interfaces.ModeAppendBinary, expected: interfaces.ErrUnsupportedMode},
		{name: "missing key", uri: "s3://bucket", mode: interfaces.ModeReadBinary, expected: interfaces.ErrInvalidURI},
		{name: "malformed credentials", uri: "s3://tokenonly@bucket/key", mode: interfaces.ModeReadBinary, expected: interfaces.ErrInvalidURI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := interfaces.ParseURI(tt.uri)
			require.NoError(t, err)

			_, err = NewS3Handle(parsed, tt.mode, Config{S3Region: "us-east-1"}, testLogger())
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}
