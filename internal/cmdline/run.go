package cmdline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Exit codes returned by Run, following diff(1).
const (
	ExitOK     = 0 // success; for a comparison, no differences
	ExitDiffer = 1 // differences or conflicts were found, or the command failed
	ExitUsage  = 2 // the command line was invalid
)

// ExitCoder is an error that chooses Run's exit code.
type ExitCoder interface {
	error
	ExitCode() int
}

// UsageError reports a malformed command line. Run prints it followed by the command's help and returns ExitUsage.
type UsageError struct {
	Message string
}

func (e UsageError) Error() string { return e.Message }
func (e UsageError) ExitCode() int { return ExitUsage }

// Usagef returns a UsageError with a formatted message.
func Usagef(format string, args ...any) UsageError {
	return UsageError{Message: fmt.Sprintf(format, args...)}
}

// ExitError makes Run return Code. Err, if set, is printed without help; ExitError{Code: ExitDiffer} signals differences silently.
type ExitError struct {
	Code int
	Err  error
}

func (e ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e ExitError) Unwrap() error { return e.Err }
func (e ExitError) ExitCode() int { return e.Code }

// Options configure Run.
type Options struct {
	// Args is argv without the program name (typically os.Args[1:]).
	Args []string

	// In/Out/Err replace standard I/O when non-nil.
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Context is passed to a command handler. Flag values are read through the pointers returned when the flags were defined.
type Context struct {
	context.Context

	Command *Command
	Args    []string

	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Run parses opts.Args against the tree rooted at root, runs the selected command, and returns a process exit code.
//
// Subcommand tokens are consumed until the first positional arg; flags may appear anywhere before "--". -h/--help prints help for the command selected so far and
// returns 0. Usage errors print the message and the command's help to Err and return 2. A handler error prints its message to Err and returns 1, or the code of an
// ExitCoder.
func Run(ctx context.Context, root *Command, opts Options) int {
	if root == nil || root.Name == "" {
		panic("cmdline: Run called with a nil or unnamed root")
	}

	in, out, errOut := opts.In, opts.Out, opts.Err
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}

	cmd, args, err := parseArgv(root, opts.Args, out)
	if errors.Is(err, errHelpPrinted) {
		return ExitOK
	}
	if err != nil {
		printUsageError(cmd, err, errOut)
		return ExitUsage
	}

	if cmd.Run == nil {
		if len(args) == 0 {
			printUsageError(cmd, Usagef("missing required subcommand"), errOut)
		} else {
			printUsageError(cmd, Usagef("unknown subcommand: %s", args[0]), errOut)
		}
		return ExitUsage
	}

	if cmd.Args != nil {
		if err := cmd.Args(args); err != nil {
			return exitCode(cmd, err, errOut, ExitUsage)
		}
	}

	c := &Context{Context: ctx, Command: cmd, Args: args, In: in, Out: out, Err: errOut}
	if err := cmd.Run(c); err != nil {
		return exitCode(cmd, err, errOut, ExitDiffer)
	}
	return ExitOK
}

var errHelpPrinted = errors.New("help printed")

func parseArgv(root *Command, argv []string, out io.Writer) (*Command, []string, error) {
	cmd := root
	selecting := true
	var positional []string

	for i := 0; i < len(argv); i++ {
		token := argv[i]
		switch {
		case token == "--":
			return cmd, append(positional, argv[i+1:]...), nil
		case token == "-h" || token == "--help":
			writeHelp(out, cmd)
			return cmd, nil, errHelpPrinted
		case strings.HasPrefix(token, "-") && token != "-":
			var next *string
			if i+1 < len(argv) {
				next = &argv[i+1]
			}
			consumed, err := parseFlag(cmd.active(), token, next)
			if err != nil {
				return cmd, nil, err
			}
			if consumed {
				i++
			}
			continue
		}

		if selecting {
			if child := cmd.child(token); child != nil {
				cmd = child
				continue
			}
			selecting = false
		}
		positional = append(positional, token)
	}
	return cmd, positional, nil
}

// parseFlag sets the flag named by token (--name, --name=v, -n, -n=v, or -n v). It reports whether next was consumed as the value.
func parseFlag(fs *FlagSet, token string, next *string) (bool, error) {
	var f *flag
	var value *string
	if strings.HasPrefix(token, "--") {
		name, v, ok := strings.Cut(token[2:], "=")
		f = fs.byName[name]
		if ok {
			value = &v
		}
	} else {
		r := []rune(token[1:])
		if len(r) > 0 {
			f = fs.byShort[r[0]]
		}
		switch {
		case len(r) == 1:
		case len(r) > 2 && r[1] == '=':
			v := string(r[2:])
			value = &v
		case f != nil && f.kind != flagBool:
			// -U1
			v := string(r[1:])
			value = &v
		default:
			f = nil
		}
	}
	if f == nil {
		return false, Usagef("unknown flag: %s", token)
	}

	consumed := false
	if value == nil {
		raw := "true"
		switch {
		case f.kind != flagBool:
			if next == nil || *next == "--" {
				return false, Usagef("flag needs a value: %s", token)
			}
			raw, consumed = *next, true
		case next != nil && (*next == "true" || *next == "false"):
			raw, consumed = *next, true
		}
		value = &raw
	}

	if err := f.set(*value); err != nil {
		return false, Usagef("invalid value for %s: %v", f.display(), err)
	}
	return consumed, nil
}

func exitCode(cmd *Command, err error, errOut io.Writer, fallback int) int {
	code := fallback
	var ec ExitCoder
	if errors.As(err, &ec) {
		code = ec.ExitCode()
	}
	var usage UsageError
	switch {
	case code == ExitOK:
	case errors.As(err, &usage):
		printUsageError(cmd, err, errOut)
	default:
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(errOut, msg)
		}
	}
	return code
}

func printUsageError(cmd *Command, err error, errOut io.Writer) {
	if msg := err.Error(); msg != "" {
		fmt.Fprintf(errOut, "%s\n\n", msg)
	}
	writeHelp(errOut, cmd)
}
