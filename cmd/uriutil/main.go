// Command uriutil reads, writes and inspects resources addressed by URI,
// dispatching to the backend selected by the URI scheme: local files, S3
// objects, HTTP endpoints, SNS topics, IPFS content and Vault secrets
// through one tool.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/skylander86/uriutils/cmd/flags"
	"github.com/skylander86/uriutils/interfaces"
)

func main() {
	app := &cli.App{
		Name:  "uriutil",
		Usage: "read, write and inspect resources addressed by URI",
		Flags: flags.CommonFlags,
		Commands: []*cli.Command{
			catCommand(),
			putCommand(),
			cpCommand(),
			existsCommand(),
			statCommand(),
			waitCommand(),
			publishCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func catCommand() *cli.Command {
	return &cli.Command{
		Name:      "cat",
		Usage:     "write the content of a URI to stdout",
		ArgsUsage: "<uri>",
		Action: func(cCtx *cli.Context) error {
			if cCtx.NArg() != 1 {
				return cli.Exit("usage: uriutil cat <uri>", 2)
			}

			fs, err := flags.SetupFS(cCtx, flags.SetupLogger(cCtx))
			if err != nil {
				return err
			}

			open := flags.URIFileType(fs, interfaces.ModeReadBinary)
			stream, err := open(cCtx.Context, cCtx.Args().Get(0))
			if err != nil {
				return err
			}
			defer stream.Close()

			_, err = io.Copy(os.Stdout, stream)
			return err
		},
	}
}

func putCommand() *cli.Command {
	return &cli.Command{
		Name:      "put",
		Usage:     "write stdin to a URI",
		ArgsUsage: "<uri>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "append",
				Usage: "append instead of overwriting (backend support varies)",
			},
		},
		Action: func(cCtx *cli.Context) error {
			if cCtx.NArg() != 1 {
				return cli.Exit("usage: uriutil put <uri>", 2)
			}

			fs, err := flags.SetupFS(cCtx, flags.SetupLogger(cCtx))
			if err != nil {
				return err
			}

			mode := interfaces.ModeWriteBinary
			if cCtx.Bool("append") {
				mode = interfaces.ModeAppendBinary
			}

			open := flags.URIFileType(fs, mode)
			stream, err := open(cCtx.Context, cCtx.Args().Get(0))
			if err != nil {
				return err
			}

			if _, err := io.Copy(stream, os.Stdin); err != nil {
				stream.Close()
				return err
			}
			return stream.Close()
		},
	}
}

func cpCommand() *cli.Command {
	return &cli.Command{
		Name:      "cp",
		Usage:     "copy content from one URI to another",
		ArgsUsage: "<src-uri> <dst-uri>",
		Action: func(cCtx *cli.Context) error {
			if cCtx.NArg() != 2 {
				return cli.Exit("usage: uriutil cp <src-uri> <dst-uri>", 2)
			}

			fs, err := flags.SetupFS(cCtx, flags.SetupLogger(cCtx))
			if err != nil {
				return err
			}

			src, err := fs.Open(cCtx.Context, cCtx.Args().Get(0), interfaces.ModeReadBinary)
			if err != nil {
				return err
			}
			defer src.Close()

			dst, err := fs.Open(cCtx.Context, cCtx.Args().Get(1), interfaces.ModeWriteBinary)
			if err != nil {
				return err
			}

			if _, err := io.Copy(dst, src); err != nil {
				dst.Close()
				return err
			}
			return dst.Close()
		},
	}
}

func existsCommand() *cli.Command {
	return &cli.Command{
		Name:      "exists",
		Usage:     "check whether a URI exists; exits non-zero if it does not",
		ArgsUsage: "<uri>",
		Action: func(cCtx *cli.Context) error {
			if cCtx.NArg() != 1 {
				return cli.Exit("usage: uriutil exists <uri>", 2)
			}

			fs, err := flags.SetupFS(cCtx, flags.SetupLogger(cCtx))
			if err != nil {
				return err
			}

			found, err := fs.Exists(cCtx.Context, cCtx.Args().Get(0))
			if err != nil {
				return err
			}

			fmt.Println(found)
			if !found {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func statCommand() *cli.Command {
	return &cli.Command{
		Name:      "stat",
		Usage:     "print resource metadata as JSON",
		ArgsUsage: "<uri>",
		Action: func(cCtx *cli.Context) error {
			if cCtx.NArg() != 1 {
				return cli.Exit("usage: uriutil stat <uri>", 2)
			}

			fs, err := flags.SetupFS(cCtx, flags.SetupLogger(cCtx))
			if err != nil {
				return err
			}

			md, err := fs.Stat(cCtx.Context, cCtx.Args().Get(0))
			if err != nil {
				return err
			}

			out := map[string]any{}
			if md.Size != nil {
				out["size"] = *md.Size
			}
			if md.LastModified != nil {
				out["last_modified"] = md.LastModified.Format(time.RFC3339)
			}
			if md.ContentType != "" {
				out["content_type"] = md.ContentType
			}
			if len(md.Extra) > 0 {
				out["extra"] = md.Extra
			}

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(out)
		},
	}
}

func publishCommand() *cli.Command {
	return &cli.Command{
		Name:      "publish",
		Usage:     "publish a message to a pub/sub URI; the message is taken from the arguments, or stdin when absent",
		ArgsUsage: "<uri> [<message>...]",
		Action: func(cCtx *cli.Context) error {
			if cCtx.NArg() < 1 {
				return cli.Exit("usage: uriutil publish <uri> [<message>...]", 2)
			}

			fs, err := flags.SetupFS(cCtx, flags.SetupLogger(cCtx))
			if err != nil {
				return err
			}

			var message []byte
			if cCtx.NArg() > 1 {
				message = []byte(strings.Join(cCtx.Args().Slice()[1:], " "))
			} else {
				message, err = io.ReadAll(os.Stdin)
				if err != nil {
					return err
				}
			}

			return fs.Dump(cCtx.Context, cCtx.Args().Get(0), message)
		},
	}
}

func waitCommand() *cli.Command {
	return &cli.Command{
		Name:      "wait",
		Usage:     "wait until every given URI exists, or the timeout elapses",
		ArgsUsage: "<uri> [<uri>...]",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 5 * time.Minute,
				Usage: "total time to wait",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Value: 5 * time.Second,
				Usage: "time between existence checks",
			},
		},
		Action: func(cCtx *cli.Context) error {
			if cCtx.NArg() < 1 {
				return cli.Exit("usage: uriutil wait <uri> [<uri>...]", 2)
			}

			fs, err := flags.SetupFS(cCtx, flags.SetupLogger(cCtx))
			if err != nil {
				return err
			}

			found, err := fs.WaitExistsAll(cCtx.Context, cCtx.Args().Slice(),
				cCtx.Duration("timeout"), cCtx.Duration("interval"))
			if err != nil {
				return err
			}
			if !found {
				return cli.Exit("timed out waiting for resources", 1)
			}
			return nil
		},
	}
}
