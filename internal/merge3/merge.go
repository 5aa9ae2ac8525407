package merge3

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/codalotl/xdiff/internal/diff"
	"github.com/codalotl/xdiff/internal/mmfile"
)

// ErrInternal reports that the two alignments produced a region that does not map onto a side's lines. It indicates a bug, not bad input.
var ErrInternal = errors.New("merge3: inconsistent alignment")

// IsInternal reports whether err is an internal alignment error.
func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

// Options configure a merge.
type Options struct {
	Context       int          // Base lines of context around each rejected hunk; negative is treated as 0.
	OmitConflicts bool         // Leave conflicting regions out of accepted instead of keeping side1's lines.
	Logger        *slog.Logger // Optional; receives Debug records for conflicts.
}

// DefaultOptions returns Options with diff.DefaultContext lines of context.
func DefaultOptions() Options {
	return Options{Context: diff.DefaultContext}
}

func (o Options) debug(msg string, args ...any) {
	if o.Logger != nil {
		o.Logger.Debug(msg, args...)
	}
}

// Kind classifies a merged region.
type Kind int

const (
	Unchanged    Kind = iota // neither side changed the region
	Side1Changed             // only side1 changed it
	Side2Changed             // only side2 changed it
	BothSame                 // both sides made the same change
	Conflict                 // the sides changed it differently
)

func (k Kind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case Side1Changed:
		return "side1"
	case Side2Changed:
		return "side2"
	case BothSame:
		return "both"
	case Conflict:
		return "conflict"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Summary counts the changed regions of a merge by kind.
type Summary struct {
	Side1Changed int
	Side2Changed int
	BothSame     int
	Conflicts    int
}

// Clean reports whether the merge had no conflicts.
func (s Summary) Clean() bool {
	return s.Conflicts == 0
}

// Merge merges side1 and side2, both edits of base. Accepted lines are written to accepted one Write per line; conflict hunks go to rejected. If either consumer fails, Merge
// stops and returns an error matching diff.ErrAborted (an mmfile.ErrAllocation is returned as-is). The Summary counts the regions processed so far. Inputs Compare
// cannot tokenize yield diff.ErrTooManyLines before anything is written.
func Merge(base, side1, side2 *mmfile.CompactFile, opts Options, accepted io.Writer, rejected diff.Sink) (Summary, error) {
	s1, err := diff.Compare(base.Bytes(), side1.Bytes())
	if err != nil {
		return Summary{}, err
	}
	s2, err := diff.Compare(base.Bytes(), side2.Bytes())
	if err != nil {
		return Summary{}, err
	}
	m := &merger{
		opts:     opts,
		s1:       s1,
		s2:       s2,
		accepted: accepted,
		rejected: rejected,
	}
	m.opts.Context = max(m.opts.Context, 0)
	m.base = m.s1.Old
	err = m.run()
	return m.sum, err
}

// Outcome holds the collected outputs of MergeFiles.
type Outcome struct {
	Accepted *mmfile.CompactFile
	Rejected *mmfile.CompactFile // conflict hunks in patch grammar; empty when Summary.Clean()
	Summary  Summary
}

// MergeFiles runs Merge and collects both outputs into files. alloc backs the outputs; nil means the heap.
func MergeFiles(base, side1, side2 *mmfile.CompactFile, opts Options, alloc mmfile.Allocator) (*Outcome, error) {
	acc := mmfile.NewWithOptions(mmfile.Options{Mode: mmfile.ModeSegmented, Allocator: alloc})
	rej := mmfile.NewWithOptions(mmfile.Options{Mode: mmfile.ModeSegmented, Allocator: alloc})

	sum, err := Merge(base, side1, side2, opts, acc, &diff.TextSink{W: rej})
	if err != nil {
		return nil, err
	}

	out := &Outcome{Summary: sum}
	if out.Accepted, err = acc.ToCompact(); err != nil {
		return nil, err
	}
	if out.Rejected, err = rej.ToCompact(); err != nil {
		return nil, err
	}
	return out, nil
}

// region is a run of base lines [lo, hi) with the changes of each side that touch it.
type region struct {
	lo, hi int
	c1, c2 []diff.Change
	d1, d2 int // line offset of each side relative to base just before lo
	j0     int // index of c2[0] in side2's change list
}

type merger struct {
	opts     Options
	base     [][]byte
	s1, s2   diff.Script
	accepted io.Writer
	rejected diff.Sink

	sum    Summary
	pos    int // base lines before pos have been accounted for in accepted
	rejEnd int // base line where the last rejected hunk ended
}

func (m *merger) run() error {
	c1, c2 := m.s1.Changes, m.s2.Changes
	i, j := 0, 0
	d1, d2 := 0, 0
	for i < len(c1) || j < len(c2) {
		r := region{d1: d1, d2: d2}
		i0, j0 := i, j
		if j >= len(c2) || (i < len(c1) && c1[i].A0 <= c2[j].A0) {
			r.lo, r.hi = c1[i].A0, c1[i].A1
			i++
		} else {
			r.lo, r.hi = c2[j].A0, c2[j].A1
			j++
		}
		for {
			if i < len(c1) && overlaps(c1[i], r.lo, r.hi) {
				r.hi = max(r.hi, c1[i].A1)
				i++
			} else if j < len(c2) && overlaps(c2[j], r.lo, r.hi) {
				r.hi = max(r.hi, c2[j].A1)
				j++
			} else {
				break
			}
		}
		r.c1, r.c2, r.j0 = c1[i0:i], c2[j0:j], j0
		if len(r.c1) > 0 {
			last := r.c1[len(r.c1)-1]
			d1 = last.B1 - last.A1
		}
		if len(r.c2) > 0 {
			last := r.c2[len(r.c2)-1]
			d2 = last.B1 - last.A1
		}
		if err := m.region(r); err != nil {
			return err
		}
	}
	return m.accept(m.base[m.pos:])
}

// overlaps reports whether change c touches base range [lo, hi). Non-empty ranges must share a line; when either is empty, touching endpoints count.
func overlaps(c diff.Change, lo, hi int) bool {
	if c.A0 < hi && lo < c.A1 {
		return true
	}
	return (c.A0 == c.A1 || lo == hi) && c.A0 <= hi && lo <= c.A1
}

func (m *merger) region(r region) error {
	if err := m.accept(m.base[m.pos:r.lo]); err != nil {
		return err
	}
	m.pos = r.hi

	lines1, err := sideLines(m.s1, r.lo, r.hi, r.c1, r.d1)
	if err != nil {
		return err
	}
	lines2, err := sideLines(m.s2, r.lo, r.hi, r.c2, r.d2)
	if err != nil {
		return err
	}

	kind := classify(r, lines1, lines2)
	m.opts.debug("merge region", slog.String("kind", kind.String()), slog.Int("base_line", r.lo+1), slog.Int("base_lines", r.hi-r.lo))
	switch kind {
	case Unchanged:
		return m.accept(lines1)
	case Side1Changed:
		m.sum.Side1Changed++
		return m.accept(lines1)
	case Side2Changed:
		m.sum.Side2Changed++
		return m.accept(lines2)
	case BothSame:
		m.sum.BothSame++
		return m.accept(lines1)
	}

	m.sum.Conflicts++
	if !m.opts.OmitConflicts {
		if err := m.accept(lines1); err != nil {
			return err
		}
	}
	if err := diff.EmitHunk(m.rejected, m.conflictHunk(r)); err != nil {
		return diff.SinkError(err)
	}
	return nil
}

func classify(r region, lines1, lines2 [][]byte) Kind {
	switch {
	case len(r.c1) == 0 && len(r.c2) == 0:
		return Unchanged
	case len(r.c2) == 0:
		return Side1Changed
	case len(r.c1) == 0:
		return Side2Changed
	case equalLines(lines1, lines2):
		return BothSame
	}
	return Conflict
}

// sideLines returns the lines a side has in place of base [lo, hi), given the side's changes within the region and its offset before it.
func sideLines(s diff.Script, lo, hi int, changes []diff.Change, delta int) ([][]byte, error) {
	if len(changes) == 0 {
		return s.Old[lo:hi], nil
	}
	first, last := changes[0], changes[len(changes)-1]
	b0 := lo + (first.B0 - first.A0)
	b1 := hi + (last.B1 - last.A1)
	if b0 != lo+delta || b0 < 0 || b1 < b0 || b1 > len(s.New) {
		return nil, fmt.Errorf("region [%d,%d) maps to side lines [%d,%d) of %d: %w", lo, hi, b0, b1, len(s.New), ErrInternal)
	}
	return s.New[b0:b1], nil
}

func equalLines(a, b [][]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !bytes.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func (m *merger) accept(lines [][]byte) error {
	for _, l := range lines {
		if _, err := m.accepted.Write(l); err != nil {
			return diff.SinkError(err)
		}
	}
	return nil
}

// conflictHunk describes side2's edit of r against base, with context clipped so it neither reaches into another side2 change nor overlaps the previous rejected hunk.
func (m *merger) conflictHunk(r region) diff.Hunk {
	c2 := m.s2.Changes

	pre := max(r.lo-m.opts.Context, 0, m.rejEnd)
	if r.j0 > 0 {
		pre = max(pre, c2[r.j0-1].A1)
	}
	post := min(r.hi+m.opts.Context, len(m.base))
	if next := r.j0 + len(r.c2); next < len(c2) {
		post = min(post, c2[next].A0)
	}
	m.rejEnd = post

	var lines []diff.Line
	at := pre
	for _, c := range r.c2 {
		lines = appendLines(lines, diff.OpContext, m.base[at:c.A0])
		lines = appendLines(lines, diff.OpDelete, m.base[c.A0:c.A1])
		lines = appendLines(lines, diff.OpInsert, m.s2.New[c.B0:c.B1])
		at = c.A1
	}
	lines = appendLines(lines, diff.OpContext, m.base[at:post])

	newLen := 0
	for _, l := range lines {
		if l.Op != diff.OpDelete {
			newLen++
		}
	}
	return diff.Hunk{
		Header: diff.NewHeader(pre, post-pre, pre+r.d2, newLen),
		Lines:  lines,
	}
}

func appendLines(dst []diff.Line, op diff.Op, lines [][]byte) []diff.Line {
	for _, l := range lines {
		dst = append(dst, diff.Line{Op: op, Text: l})
	}
	return dst
}
