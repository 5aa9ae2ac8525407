// Package cli implements the xdiff command: diff, merge, patch, and config subcommands over the diff, merge3, and applypatch packages.
package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/codalotl/xdiff/internal/cmdline"
	"github.com/codalotl/xdiff/internal/config"
)

// Version is the xdiff version. It is a var so build tooling can override it with -ldflags "-X .../internal/cli.Version=1.2.3".
var Version = "0.3.0"

// RunOptions override Run's environment. nil fields use the process defaults; overriding is useful for testing.
type RunOptions struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Config locates configuration files and environment variables. nil means config.Loader{}.
	Config *config.Loader
}

// Run runs the CLI with args (typically os.Args, including the program name).
//
// It returns a recommended exit code and an error, if any:
//   - 0 -> success; for diff, the inputs are identical.
//   - 1 -> the command ran but found differences, conflicts, or rejected hunks, or an I/O error occurred.
//   - 2 -> args parse error or misuse of flags.
//
// In case of errors, Run has already written a message to opts.Err (or Stderr). Callers may pass the exit code to os.Exit.
func Run(args []string, opts *RunOptions) (int, error) {
	argv := args
	if len(argv) > 0 {
		argv = argv[1:]
	}

	var in io.Reader = os.Stdin
	var out io.Writer = os.Stdout
	var errW io.Writer = os.Stderr
	loader := config.Loader{}
	if opts != nil {
		if opts.In != nil {
			in = opts.In
		}
		if opts.Out != nil {
			out = opts.Out
		}
		if opts.Err != nil {
			errW = opts.Err
		}
		if opts.Config != nil {
			loader = *opts.Config
		}
	}

	// cmdline only returns an exit code, so stderr is teed to build the returned error.
	var stderrBuf bytes.Buffer
	root := newRootCommand(loader)
	exitCode := cmdline.Run(context.Background(), root, cmdline.Options{
		Args: argv,
		In:   in,
		Out:  out,
		Err:  io.MultiWriter(errW, &stderrBuf),
	})
	if exitCode == 0 {
		return 0, nil
	}

	msg := strings.TrimSpace(stderrBuf.String())
	if msg == "" {
		msg = "command failed"
	}
	return exitCode, errors.New(msg)
}
