package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	shell "github.com/ipfs/go-ipfs-api"

	"github.com/skylander86/uriutils/interfaces"
)

// IPFSHandle implements a storage handle for IPFS content, addressed by
// CID through a configured node API:
//
//	ipfs://QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG
//
// IPFS is content-addressed, so a write cannot target a chosen name: the
// written content is added to the node and the resulting CID is logged and
// exposed as the stream name after Close.
type IPFSHandle struct {
	shell *shell.Shell
	cid   string
	uri   interfaces.ParsedURI
	mode  interfaces.Mode
	log   *slog.Logger
}

// NewIPFSHandle creates an unopened IPFS handle talking to the node API
// address from the configuration. Append is rejected; read modes require a
// CID while write modes must leave it empty.
func NewIPFSHandle(uri interfaces.ParsedURI, mode interfaces.Mode, cfg Config, log *slog.Logger) (*IPFSHandle, error) {
	if mode.IsAppend() {
		return nil, fmt.Errorf("%w: ipfs does not support append (%s)", interfaces.ErrUnsupportedMode, uri.Raw)
	}

	cid := strings.Trim(uri.Opaque, "/")
	if mode.IsRead() && cid == "" {
		return nil, fmt.Errorf("%w: %q has no CID", interfaces.ErrInvalidURI, uri.Raw)
	}

	return &IPFSHandle{
		shell: shell.NewShell(cfg.IPFSAddr),
		cid:   cid,
		uri:   uri,
		mode:  mode,
		log:   log,
	}, nil
}

// URI returns the parsed URI this handle refers to.
func (h *IPFSHandle) URI() interfaces.ParsedURI {
	return h.uri
}

// Mode returns the open mode the handle was constructed with.
func (h *IPFSHandle) Mode() interfaces.Mode {
	return h.mode
}

// Open streams the content of the CID for read modes. For write modes the
// returned stream adds the buffered content to the node on Close.
func (h *IPFSHandle) Open(ctx context.Context) (interfaces.Stream, error) {
	if h.mode.IsRead() {
		if !h.shell.IsUp() {
			return nil, fmt.Errorf("%w: ipfs node not reachable", interfaces.ErrBackendUnavailable)
		}

		reader, err := h.shell.Cat(h.cid)
		if err != nil {
			if isIPFSNotFound(err) {
				return nil, fmt.Errorf("%w: ipfs://%s", interfaces.ErrNotFound, h.cid)
			}
			return nil, fmt.Errorf("%w: cat %s: %v", interfaces.ErrBackendUnavailable, h.cid, err)
		}

		h.log.Debug("Opened IPFS content for reading", slog.String("cid", h.cid))
		return newReadStream(h.uri.Raw, reader), nil
	}

	return newPutStream(h.uri.Raw, func(data []byte) error {
		cid, err := h.shell.Add(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("%w: add to ipfs: %v", interfaces.ErrBackendUnavailable, err)
		}

		h.log.Info("Added content to IPFS",
			slog.String("cid", cid),
			slog.Int("size", len(data)))

		return nil
	}), nil
}

// Exists reports whether the CID is resolvable on the node.
func (h *IPFSHandle) Exists(ctx context.Context) (bool, error) {
	if h.cid == "" {
		return false, nil
	}
	if !h.shell.IsUp() {
		return false, fmt.Errorf("%w: ipfs node not reachable", interfaces.ErrBackendUnavailable)
	}

	if _, err := h.shell.ObjectStat(h.cid); err != nil {
		if isIPFSNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: stat %s: %v", interfaces.ErrBackendUnavailable, h.cid, err)
	}
	return true, nil
}

// Metadata reports the cumulative DAG size of the CID. IPFS has no
// modification time or content type for raw content.
func (h *IPFSHandle) Metadata(ctx context.Context) (interfaces.Metadata, error) {
	if !h.shell.IsUp() {
		return interfaces.Metadata{}, fmt.Errorf("%w: ipfs node not reachable", interfaces.ErrBackendUnavailable)
	}

	stat, err := h.shell.ObjectStat(h.cid)
	if err != nil {
		if isIPFSNotFound(err) {
			return interfaces.Metadata{}, fmt.Errorf("%w: ipfs://%s", interfaces.ErrNotFound, h.cid)
		}
		return interfaces.Metadata{}, fmt.Errorf("%w: stat %s: %v", interfaces.ErrBackendUnavailable, h.cid, err)
	}

	size := int64(stat.CumulativeSize)
	return interfaces.Metadata{
		Size: &size,
		Extra: map[string]string{
			"NumLinks":  fmt.Sprintf("%d", stat.NumLinks),
			"BlockSize": fmt.Sprintf("%d", stat.BlockSize),
		},
	}, nil
}

func isIPFSNotFound(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "no link named") ||
		strings.Contains(msg, "not found") ||
		strings.Contains(msg, "invalid path")
}
