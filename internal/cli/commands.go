package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/codalotl/xdiff/internal/applypatch"
	"github.com/codalotl/xdiff/internal/cmdline"
	"github.com/codalotl/xdiff/internal/config"
	"github.com/codalotl/xdiff/internal/diff"
	"github.com/codalotl/xdiff/internal/merge3"
	"github.com/codalotl/xdiff/internal/mmfile"
)

// env is what every subcommand receives after configuration is resolved.
type env struct {
	cfg    config.Config
	logger *slog.Logger
	color  bool // colorize output written to c.Out
}

func newRootCommand(loader config.Loader) *cmdline.Command {
	root := &cmdline.Command{
		Name:  "xdiff",
		Short: "Line-based diff, three-way merge, and patch.",
		Long: "Settings are read from ~/.config/xdiff/config.toml, the nearest .xdiff.toml, and XDIFF_* environment variables, in increasing priority. Flags override all of them.\n" +
			"Use - as a path to read standard input.",
	}
	pf := root.PersistentFlags()
	verbose := pf.Bool("verbose", 'v', false, "Log debug details to stderr")
	contextLines := pf.Int("context", 'U', diff.DefaultContext, "Lines of context around each hunk")
	colorMode := pf.String("color", 0, config.ColorAuto, "Colorize output: auto, always, or never")

	// withEnv resolves configuration, applies flag overrides, and builds the logger before running next.
	withEnv := func(next func(c *cmdline.Context, e env) error) cmdline.RunFunc {
		return func(c *cmdline.Context) error {
			cfg, err := loader.Load()
			if err != nil {
				return err
			}
			if pf.Changed("context") {
				cfg.Context = *contextLines
			}
			if pf.Changed("color") {
				cfg.Color = strings.ToLower(*colorMode)
			}
			if *verbose {
				cfg.LogLevel = "debug"
			}
			if err := cfg.Validate(); err != nil {
				return cmdline.Usagef("%v", err)
			}

			var logW io.Writer = c.Err
			if cfg.LogFile != "" {
				f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				logW = f
			}

			e := env{
				cfg:    cfg,
				logger: slog.New(slog.NewTextHandler(logW, &slog.HandlerOptions{Level: cfg.Level()})),
				color:  useColor(cfg.Color, c.Out),
			}
			e.logger.Debug("configuration loaded", slog.Any("sources", cfg.Sources), slog.Int("context", cfg.Context))
			return next(c, e)
		}
	}

	root.AddCommand(
		newDiffCommand(withEnv),
		newMergeCommand(withEnv),
		newPatchCommand(withEnv),
		newConfigCommand(withEnv),
		&cmdline.Command{
			Name:  "version",
			Short: "Print the xdiff version",
			Args:  cmdline.NoArgs,
			Run: func(c *cmdline.Context) error {
				_, err := fmt.Fprintf(c.Out, "xdiff %s\n", Version)
				return err
			},
		},
	)
	return root
}

type envWrapper func(next func(c *cmdline.Context, e env) error) cmdline.RunFunc

func newDiffCommand(withEnv envWrapper) *cmdline.Command {
	cmd := &cmdline.Command{
		Name:    "diff",
		Short:   "Print the differences between two files as a patch",
		Long:    "Exits with 0 if the files are identical and 1 if they differ.",
		Example: "xdiff diff old.txt new.txt\nxdiff diff --stat -U 1 old.txt new.txt",
		Args:    cmdline.ExactArgs(2),
	}
	stat := cmd.Flags().Bool("stat", 0, false, "Print a change summary instead of the patch")
	cmd.Run = withEnv(func(c *cmdline.Context, e env) error {
		files, err := readInputs(c.In, c.Args...)
		if err != nil {
			return err
		}
		from, to := files[0], files[1]

		if *stat {
			script, err := diff.Compare(from.Bytes(), to.Bytes())
			if err != nil {
				return err
			}
			st := script.Stat(e.cfg.Context)
			if st.Changed() == 0 {
				return nil
			}
			name := c.Args[0]
			if c.Args[1] != c.Args[0] {
				name += " => " + c.Args[1]
			}
			if err := writeStat(c.Out, name, st, terminalWidth(c.Out), e.color); err != nil {
				return err
			}
			return cmdline.ExitError{Code: cmdline.ExitDiffer}
		}

		if from.Equal(to) {
			return nil
		}
		sink := &diff.TextSink{W: c.Out, Color: e.color}
		if err := diff.Stream(from, to, diff.Options{Context: e.cfg.Context}, sink); err != nil {
			return err
		}
		return cmdline.ExitError{Code: cmdline.ExitDiffer}
	})
	return cmd
}

func newMergeCommand(withEnv envWrapper) *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "merge",
		Short: "Merge two edits of a common base",
		Long: "Changes made by only one side, or identically by both, are applied. Where the sides conflict, side1's lines are kept (or dropped with --omit-conflicts) " +
			"and side2's change is reported as a rejected hunk against base.\n" +
			"Rejected hunks go to --rej if given, otherwise to stderr. Exits with 1 if there were conflicts.",
		Example: "xdiff merge -o merged.txt --rej merged.rej base.txt mine.txt theirs.txt",
		Args:    cmdline.ExactArgs(3),
	}
	output := cmd.Flags().String("output", 'o', "", "Write the merged file here instead of stdout")
	rejPath := cmd.Flags().String("rej", 0, "", "Write rejected hunks to this file")
	omit := cmd.Flags().Bool("omit-conflicts", 0, false, "Leave conflicting regions out of the merged file")
	cmd.Run = withEnv(func(c *cmdline.Context, e env) error {
		files, err := readInputs(c.In, c.Args...)
		if err != nil {
			return err
		}

		opts := merge3.Options{
			Context:       e.cfg.Context,
			OmitConflicts: e.cfg.OmitConflicts,
			Logger:        e.logger,
		}
		if cmd.Flags().Changed("omit-conflicts") {
			opts.OmitConflicts = *omit
		}
		res, err := merge3.MergeFiles(files[0], files[1], files[2], opts, nil)
		if err != nil {
			return err
		}
		e.logger.Info("merged",
			slog.Int("side1", res.Summary.Side1Changed),
			slog.Int("side2", res.Summary.Side2Changed),
			slog.Int("both", res.Summary.BothSame),
			slog.Int("conflicts", res.Summary.Conflicts))

		if err := writeOutput(*output, c.Out, res.Accepted); err != nil {
			return err
		}
		if err := writeRejects(*rejPath, c.Err, res.Rejected); err != nil {
			return err
		}
		if !res.Summary.Clean() {
			return fmt.Errorf("merge: %s", plural(res.Summary.Conflicts, "conflict"))
		}
		return nil
	})
	return cmd
}

func newPatchCommand(withEnv envWrapper) *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "patch",
		Short: "Apply a patch to a file",
		Long: "Each hunk applies where its lines are found, nearest to the position its header names. Hunks that do not match go to --rej if given, " +
			"otherwise to stderr. Exits with 1 if any hunk was rejected.",
		Example: "xdiff patch -o out.txt file.txt changes.patch\nxdiff diff a b | xdiff patch a -",
		Args:    cmdline.ExactArgs(2),
	}
	output := cmd.Flags().String("output", 'o', "", "Write the patched file here instead of stdout")
	rejPath := cmd.Flags().String("rej", 0, "", "Write rejected hunks to this file")
	cmd.Run = withEnv(func(c *cmdline.Context, e env) error {
		files, err := readInputs(c.In, c.Args...)
		if err != nil {
			return err
		}

		patch := mmfile.New()
		if _, err := patch.Write(files[1].Bytes()); err != nil {
			return err
		}
		res, err := applypatch.Apply(files[0], patch, applypatch.Options{Logger: e.logger})
		if err != nil {
			if applypatch.IsMalformedPatch(err) {
				return fmt.Errorf("%s: %w", c.Args[1], err)
			}
			return err
		}
		e.logger.Info("patched", slog.Int("applied", res.Applied), slog.Int("failed", res.Failed))

		if err := writeOutput(*output, c.Out, res.Patched); err != nil {
			return err
		}
		if err := writeRejects(*rejPath, c.Err, res.Rejected); err != nil {
			return err
		}
		if !res.Clean() {
			return fmt.Errorf("patch: %s of %d rejected", plural(res.Failed, "hunk"), res.Applied+res.Failed)
		}
		return nil
	})
	return cmd
}

func newConfigCommand(withEnv envWrapper) *cmdline.Command {
	return &cmdline.Command{
		Name:  "config",
		Short: "Print the effective configuration as TOML",
		Args:  cmdline.NoArgs,
		Run: withEnv(func(c *cmdline.Context, e env) error {
			for _, src := range e.cfg.Sources {
				if _, err := fmt.Fprintf(c.Out, "# from %s\n", src); err != nil {
					return err
				}
			}
			return e.cfg.WriteTOML(c.Out)
		}),
	}
}

// readInputs reads each path into a CompactFile. "-" reads in, and may appear at most once.
func readInputs(in io.Reader, paths ...string) ([]*mmfile.CompactFile, error) {
	files := make([]*mmfile.CompactFile, len(paths))
	stdinUsed := false
	for i, p := range paths {
		var data []byte
		var err error
		if p == "-" {
			if stdinUsed {
				return nil, cmdline.Usagef("standard input (-) can only be read once")
			}
			stdinUsed = true
			data, err = io.ReadAll(in)
		} else {
			data, err = os.ReadFile(p)
		}
		if err != nil {
			return nil, err
		}
		files[i] = mmfile.FromBytes(data)
	}
	return files, nil
}

// writeOutput writes f to path, or to w if path is empty.
func writeOutput(path string, w io.Writer, f *mmfile.CompactFile) error {
	if path == "" {
		_, err := f.NewReader().WriteTo(w)
		return err
	}
	return os.WriteFile(path, f.Bytes(), 0o644)
}

// writeRejects writes rejected hunks to path, or to w if path is empty. An empty rejects file is still written to path so stale rejects do not linger.
func writeRejects(path string, w io.Writer, rej *mmfile.CompactFile) error {
	if path == "" && rej.Size() == 0 {
		return nil
	}
	return writeOutput(path, w, rej)
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
