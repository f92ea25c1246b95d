// Package flags provides the shared command-line flags of the uriutils
// tools, the logger bootstrap, and the URI-typed argument adapters:
// helpers that turn a command-line string into an opened stream or a
// validated container URI, implemented purely in terms of the façade.
package flags

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/skylander86/uriutils"
	"github.com/skylander86/uriutils/common"
	"github.com/skylander86/uriutils/interfaces"
	"github.com/skylander86/uriutils/storage"
)

var LogJSONFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}

var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}

var LogUIDFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: common.PackageName,
	Usage: "add 'service' tag to logs",
}

var ConfigFlag = &cli.StringFlag{
	Name:  "config",
	Usage: "YAML file with backend configuration, overriding URIFS_* environment variables",
}

var CommonFlags = []cli.Flag{
	LogJSONFlag,
	LogDebugFlag,
	LogUIDFlag,
	LogServiceFlag,
	ConfigFlag,
}

// SetupLogger builds the logger from the common logging flags.
func SetupLogger(cCtx *cli.Context) *slog.Logger {
	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   cCtx.Bool(LogDebugFlag.Name),
		JSON:    cCtx.Bool(LogJSONFlag.Name),
		Service: cCtx.String(LogServiceFlag.Name),
		Version: common.Version,
	})

	if cCtx.Bool(LogUIDFlag.Name) {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

// SetupFS builds the uniform URI façade from the common flags: the
// built-in backend set, configured from the environment with an optional
// YAML overlay.
func SetupFS(cCtx *cli.Context, logger *slog.Logger) (*uriutils.FS, error) {
	var (
		cfg storage.Config
		err error
	)
	if path := cCtx.String(ConfigFlag.Name); path != "" {
		cfg, err = storage.LoadConfigFile(path)
	} else {
		cfg, err = storage.LoadConfig()
	}
	if err != nil {
		return nil, err
	}

	registry, err := storage.DefaultRegistry(cfg, logger)
	if err != nil {
		return nil, err
	}

	return uriutils.New(registry, logger), nil
}

// URIFileType returns a converter that validates a command-line argument
// as a URI and opens it in the given mode. Read modes yield an opened
// stream over existing content; write modes a write-ready stream.
func URIFileType(fs *uriutils.FS, mode interfaces.Mode) func(ctx context.Context, raw string) (interfaces.Stream, error) {
	return func(ctx context.Context, raw string) (interfaces.Stream, error) {
		return fs.Open(ctx, raw, mode)
	}
}

// URIDirType returns a converter that validates a command-line argument
// as a container rather than a single object: local paths must be
// existing directories, remote URIs must be container-shaped (trailing
// slash).
func URIDirType(fs *uriutils.FS) func(ctx context.Context, raw string) (interfaces.ParsedURI, error) {
	return func(ctx context.Context, raw string) (interfaces.ParsedURI, error) {
		handle, err := fs.HandleFor(raw, interfaces.ModeReadBinary)
		if err != nil {
			return interfaces.ParsedURI{}, err
		}

		parsed := handle.URI()
		if parsed.IsLocal() {
			fileHandle, ok := handle.(*storage.FileHandle)
			if !ok || !fileHandle.IsDir() {
				return interfaces.ParsedURI{}, fmt.Errorf("%w: %s is not a directory", interfaces.ErrNotFound, raw)
			}
			return parsed, nil
		}

		if !strings.HasSuffix(raw, "/") {
			return interfaces.ParsedURI{}, fmt.Errorf("%w: %q does not name a container (missing trailing slash)", interfaces.ErrInvalidURI, raw)
		}
		return parsed, nil
	}
}
