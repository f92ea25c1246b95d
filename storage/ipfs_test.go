package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylander86/uriutils/interfaces"
)

func TestNewIPFSHandle(t *testing.T) {
	parsed, err := interfaces.ParseURI("ipfs://QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG")
	require.NoError(t, err)

	handle, err := NewIPFSHandle(parsed, interfaces.ModeReadBinary, Config{IPFSAddr: "127.0.0.1:5001"}, testLogger())
	require.NoError(t, err)

	assert.Equal(t, "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG", handle.cid)
	assert.Equal(t, interfaces.ModeReadBinary, handle.Mode())
}

func TestNewIPFSHandle_WriteWithoutCID(t *testing.T) {
	// Content addressing means a write cannot target a name; the CID is
	// only known after the add.
	parsed, err := interfaces.ParseURI("ipfs:///")
	require.NoError(t, err)

	handle, err := NewIPFSHandle(parsed, interfaces.ModeWriteBinary, Config{IPFSAddr: "127.0.0.1:5001"}, testLogger())
	require.NoError(t, err)
	assert.Empty(t, handle.cid)
}

func TestNewIPFSHandle_Rejections(t *testing.T) {
	parsed, err := interfaces.ParseURI("ipfs://QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG")
	require.NoError(t, err)

	_, err = NewIPFSHandle(parsed, interfaces.ModeAppendBinary, Config{}, testLogger())
	assert.ErrorIs(t, err, interfaces.ErrUnsupportedMode)

	noCID, err := interfaces.ParseURI("ipfs:///")
	require.NoError(t, err)

	_, err = NewIPFSHandle(noCID, interfaces.ModeReadBinary, Config{}, testLogger())
	assert.ErrorIs(t, err, interfaces.ErrInvalidURI)
}
