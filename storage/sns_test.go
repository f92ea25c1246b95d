package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylander86/uriutils/interfaces"
)

func snsHandle(t *testing.T, uri string, mode interfaces.Mode, cfg Config) *SNSHandle {
	t.Helper()

	parsed, err := interfaces.ParseURI(uri)
	require.NoError(t, err)

	handle, err := NewSNSHandle(parsed, mode, cfg, testLogger())
	require.NoError(t, err)
	return handle
}

func TestNewSNSHandle_TopicARN(t *testing.T) {
	handle := snsHandle(t, "sns://arn:aws:sns:eu-west-1:123456789012:jobs-done",
		interfaces.ModeWriteBinary, Config{SNSRegion: "us-east-1"})

	assert.Equal(t, "arn:aws:sns:eu-west-1:123456789012:jobs-done", handle.topic)
	// The ARN names its own region, overriding the configured default.
	assert.Equal(t, "eu-west-1", handle.region)
}

func TestNewSNSHandle_BareTopicName(t *testing.T) {
	handle := snsHandle(t, "sns://jobs-done?region=ap-southeast-1&subject=batch",
		interfaces.ModeWriteBinary, Config{SNSRegion: "us-east-1"})

	assert.Equal(t, "jobs-done", handle.topic)
	assert.Equal(t, "ap-southeast-1", handle.region)
	assert.Equal(t, "batch", handle.subject)
}

func TestNewSNSHandle_Rejections(t *testing.T) {
	parsed, err := interfaces.ParseURI("sns://jobs-done")
	require.NoError(t, err)

	_, err = NewSNSHandle(parsed, interfaces.ModeAppendBinary, Config{SNSRegion: "us-east-1"}, testLogger())
	assert.ErrorIs(t, err, interfaces.ErrUnsupportedMode)

	noTopic, err := interfaces.ParseURI("sns:///")
	require.NoError(t, err)

	_, err = NewSNSHandle(noTopic, interfaces.ModeWriteBinary, Config{SNSRegion: "us-east-1"}, testLogger())
	assert.ErrorIs(t, err, interfaces.ErrInvalidURI)
}

func TestSNSHandle_Open_RejectsRead(t *testing.T) {
	// Read-mode handles are constructable so existence checks work, but
	// a topic has no content to stream.
	handle := snsHandle(t, "sns://arn:aws:sns:us-east-1:123456789012:jobs-done",
		interfaces.ModeReadBinary, Config{SNSRegion: "us-east-1"})

	_, err := handle.Open(context.Background())
	assert.ErrorIs(t, err, interfaces.ErrUnsupportedMode)
}
