package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/hashicorp/vault/api"

	"github.com/skylander86/uriutils/interfaces"
)

// valueField is the KV v2 field content is stored under.
const valueField = "value"

// VaultHandle implements a storage handle for HashiCorp Vault KV v2
// secrets. The authority is the Vault server, the first path segment the
// mount and the remainder the secret path:
//
//	vault://vault.example.com:8200/secret/jobs/api-key?scheme=http
//
// Authentication uses the standard VAULT_TOKEN environment handling of the
// Vault client. Content is stored as a single UTF-8 field of the secret.
type VaultHandle struct {
	client     *api.Client
	mountPath  string
	secretPath string
	uri        interfaces.ParsedURI
	mode       interfaces.Mode
	log        *slog.Logger
}

// NewVaultHandle creates an unopened Vault handle. Secret versions cannot
// be appended to, so append mode is rejected.
func NewVaultHandle(uri interfaces.ParsedURI, mode interfaces.Mode, cfg Config, log *slog.Logger) (*VaultHandle, error) {
	if mode.IsAppend() {
		return nil, fmt.Errorf("%w: vault does not support append (%s)", interfaces.ErrUnsupportedMode, uri.Raw)
	}
	if uri.Authority == "" {
		return nil, fmt.Errorf("%w: %q has no vault address", interfaces.ErrInvalidURI, uri.Raw)
	}

	mountPath, secretPath, ok := strings.Cut(uri.Key(), "/")
	if !ok || secretPath == "" {
		return nil, fmt.Errorf("%w: %q needs a mount and a secret path", interfaces.ErrInvalidURI, uri.Raw)
	}

	scheme := uri.GetParam("scheme")
	if scheme == "" {
		scheme = "https"
	}

	config := api.DefaultConfig()
	config.Address = fmt.Sprintf("%s://%s", scheme, uri.Authority)
	config.Timeout = cfg.VaultTimeout

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}

	return &VaultHandle{
		client:     client,
		mountPath:  mountPath,
		secretPath: secretPath,
		uri:        uri,
		mode:       mode,
		log:        log,
	}, nil
}

// URI returns the parsed URI this handle refers to.
func (h *VaultHandle) URI() interfaces.ParsedURI {
	return h.uri
}

// Mode returns the open mode the handle was constructed with.
func (h *VaultHandle) Mode() interfaces.Mode {
	return h.mode
}

// Open reads the secret's value field for read modes. For write modes the
// returned stream writes a new secret version on Close.
func (h *VaultHandle) Open(ctx context.Context) (interfaces.Stream, error) {
	if h.mode.IsRead() {
		secret, err := h.client.KVv2(h.mountPath).Get(ctx, h.secretPath)
		if err != nil {
			if errors.Is(err, api.ErrSecretNotFound) {
				return nil, fmt.Errorf("%w: %s", interfaces.ErrNotFound, h.uri.Raw)
			}
			return nil, fmt.Errorf("%w: get %s: %v", interfaces.ErrBackendUnavailable, h.uri.Raw, err)
		}

		value, ok := secret.Data[valueField].(string)
		if !ok {
			return nil, fmt.Errorf("%w: secret %s has no %q field", interfaces.ErrNotFound, h.uri.Raw, valueField)
		}

		h.log.Debug("Read secret from Vault",
			slog.String("mount", h.mountPath),
			slog.String("path", h.secretPath))

		return newReadStream(h.uri.Raw, io.NopCloser(bytes.NewReader([]byte(value)))), nil
	}

	return newPutStream(h.uri.Raw, func(data []byte) error {
		_, err := h.client.KVv2(h.mountPath).Put(ctx, h.secretPath, map[string]interface{}{
			valueField: string(data),
		})
		if err != nil {
			return fmt.Errorf("%w: put %s: %v", interfaces.ErrBackendUnavailable, h.uri.Raw, err)
		}

		h.log.Debug("Stored secret in Vault",
			slog.String("mount", h.mountPath),
			slog.String("path", h.secretPath),
			slog.Int("size", len(data)))

		return nil
	}), nil
}

// Exists reports whether the secret exists.
func (h *VaultHandle) Exists(ctx context.Context) (bool, error) {
	_, err := h.client.KVv2(h.mountPath).Get(ctx, h.secretPath)
	if err != nil {
		if errors.Is(err, api.ErrSecretNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%w: get %s: %v", interfaces.ErrBackendUnavailable, h.uri.Raw, err)
	}
	return true, nil
}

// Metadata reports version timestamps and the current version number.
// Vault does not track a byte size for secrets.
func (h *VaultHandle) Metadata(ctx context.Context) (interfaces.Metadata, error) {
	meta, err := h.client.KVv2(h.mountPath).GetMetadata(ctx, h.secretPath)
	if err != nil {
		if errors.Is(err, api.ErrSecretNotFound) {
			return interfaces.Metadata{}, fmt.Errorf("%w: %s", interfaces.ErrNotFound, h.uri.Raw)
		}
		return interfaces.Metadata{}, fmt.Errorf("%w: metadata of %s: %v", interfaces.ErrBackendUnavailable, h.uri.Raw, err)
	}

	updated := meta.UpdatedTime
	return interfaces.Metadata{
		LastModified: &updated,
		Extra: map[string]string{
			"CurrentVersion": fmt.Sprintf("%d", meta.CurrentVersion),
			"CreatedTime":    meta.CreatedTime.String(),
		},
	}, nil
}
