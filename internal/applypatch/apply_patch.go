package applypatch

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/codalotl/xdiff/internal/diff"
	"github.com/codalotl/xdiff/internal/mmfile"
)

// ComputePatch diffs from against to and returns the diff as patch text (see PatchGrammar) in a new File.
func ComputePatch(from, to *mmfile.CompactFile, opts diff.Options) (*mmfile.File, error) {
	patch := mmfile.NewWithOptions(mmfile.Options{Mode: mmfile.ModeSegmented})
	if err := diff.Stream(from, to, opts, &diff.TextSink{W: patch}); err != nil {
		return nil, fmt.Errorf("compute patch: %w", err)
	}
	return patch, nil
}

// Options configure Apply.
type Options struct {
	Allocator mmfile.Allocator // Backs Result's files; nil means the heap.
	Logger    *slog.Logger     // Optional; receives Debug records for drift and rejected hunks.
}

func (o Options) debug(msg string, args ...any) {
	if o.Logger != nil {
		o.Logger.Debug(msg, args...)
	}
}

// Result is the outcome of Apply.
type Result struct {
	Patched  *mmfile.CompactFile // the file with every matching hunk applied
	Rejected *mmfile.CompactFile // hunks that did not match, as patch text; empty on a clean apply
	Applied  int                 // number of hunks applied
	Failed   int                 // number of hunks rejected
}

// Clean reports whether every hunk applied.
func (r *Result) Clean() bool {
	return r.Failed == 0
}

// Apply applies patch to file and returns the patched file and the rejected hunks. patch is compacted in place; file is not modified.
//
// The patch is parsed up front: if it is malformed, Apply returns an error satisfying IsMalformedPatch and applies nothing. Hunks are then applied in order. A hunk applies
// only if its context and deleted lines are found intact in file, at the line its header names adjusted by the offset at which the previous hunk applied, or else at the
// nearest line to that, searching outward. Lines consumed by an earlier hunk are never matched again. A hunk that is not found is written to Rejected verbatim and the
// region it targets is left as it was.
//
// A non-clean apply is not an error: callers must check Result.Clean (or Rejected) to know whether the patch applied fully.
func Apply(file *mmfile.CompactFile, patch *mmfile.File, opts Options) (*Result, error) {
	if err := patch.Compact(); err != nil {
		return nil, err
	}
	hunks, err := Parse(patch.Bytes())
	if err != nil {
		return nil, err
	}

	lines := diff.SplitLines(file.Bytes())
	out := mmfile.NewWithOptions(mmfile.Options{Mode: mmfile.ModeSegmented, Allocator: opts.Allocator})
	rej := mmfile.NewWithOptions(mmfile.Options{Mode: mmfile.ModeSegmented, Allocator: opts.Allocator})
	res := &Result{}

	cursor := 0 // lines before cursor have been written to out
	drift := 0
	for i, h := range hunks {
		want := h.OldLines()
		at, ok := locate(lines, want, h.OldIndex()+drift, cursor)
		if !ok {
			res.Failed++
			opts.debug("hunk rejected", slog.Int("hunk", i+1), slog.Int("old_start", h.OldStart), slog.Int("old_len", h.OldLen))
			if err := diff.WriteHunk(rej, h); err != nil {
				return nil, err
			}
			continue
		}

		if d := at - h.OldIndex(); d != drift {
			opts.debug("hunk applied with offset", slog.Int("hunk", i+1), slog.Int("offset", d))
			drift = d
		}
		if err := writeLines(out, lines[cursor:at]); err != nil {
			return nil, err
		}
		if err := writeLines(out, h.NewLines()); err != nil {
			return nil, err
		}
		cursor = at + len(want)
		res.Applied++
	}
	if err := writeLines(out, lines[cursor:]); err != nil {
		return nil, err
	}

	if res.Patched, err = out.ToCompact(); err != nil {
		return nil, err
	}
	if res.Rejected, err = rej.ToCompact(); err != nil {
		return nil, err
	}
	return res, nil
}

// locate finds want in lines at or after from, preferring the position closest to expected. It returns the index of the match.
func locate(lines, want [][]byte, expected, from int) (int, bool) {
	last := len(lines) - len(want) // last possible start
	if last < from {
		return 0, false
	}
	expected = min(max(expected, from), last)
	for k := 0; expected-k >= from || expected+k <= last; k++ {
		if p := expected - k; p >= from && matchAt(lines, want, p) {
			return p, true
		}
		if p := expected + k; k > 0 && p <= last && matchAt(lines, want, p) {
			return p, true
		}
	}
	return 0, false
}

func matchAt(lines, want [][]byte, at int) bool {
	for i, w := range want {
		if !bytes.Equal(lines[at+i], w) {
			return false
		}
	}
	return true
}

func writeLines(f *mmfile.File, lines [][]byte) error {
	for _, l := range lines {
		if _, err := f.Write(l); err != nil {
			return err
		}
	}
	return nil
}
