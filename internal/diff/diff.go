package diff

import (
	"errors"
	"fmt"
)

// Op tags one line of a hunk.
type Op byte

// Line tags, as written in the patch grammar.
const (
	OpContext Op = ' '
	OpDelete  Op = '-'
	OpInsert  Op = '+'
)

func (op Op) String() string {
	switch op {
	case OpContext:
		return "context"
	case OpDelete:
		return "delete"
	case OpInsert:
		return "insert"
	}
	return fmt.Sprintf("Op(%q)", byte(op))
}

// DefaultContext is the number of unchanged lines shown around each change unless Options say otherwise.
const DefaultContext = 3

// Options configure a diff.
type Options struct {
	Context int // Unchanged lines around each change; negative is treated as 0.
}

// DefaultOptions returns Options with Context set to DefaultContext.
func DefaultOptions() Options {
	return Options{Context: DefaultContext}
}

// ErrAborted is returned (joined with the consumer's own error) when a Sink or other output consumer stops an operation early.
var ErrAborted = errors.New("output aborted by consumer")

// IsAborted reports whether err indicates that an output consumer stopped the operation early.
func IsAborted(err error) bool {
	return errors.Is(err, ErrAborted)
}

// ErrTooManyLines is returned by Compare when the differing lines of its inputs have more distinct contents than it can tokenize.
var ErrTooManyLines = errors.New("too many distinct lines")

// IsTooManyLines reports whether err came from inputs too large for Compare.
func IsTooManyLines(err error) bool {
	return errors.Is(err, ErrTooManyLines)
}

// Change replaces old lines [A0, A1) with new lines [B0, B1). Indexes are 0-based; at least one range is non-empty.
type Change struct {
	A0, A1 int
	B0, B1 int
}

// Script is the alignment of two line sequences.
//
// Invariants:
//   - Changes are sorted, non-overlapping, and separated by at least one unchanged line.
//   - Old lines outside every Change equal the corresponding New lines, with a constant offset between consecutive Changes.
//   - Each Change sits as far down as it can without altering the lines it removes or adds, so repeated lines always yield the same Changes.
type Script struct {
	Old     [][]byte
	New     [][]byte
	Changes []Change
}

// Identical reports whether the two sides have no differences.
func (s Script) Identical() bool {
	return len(s.Changes) == 0
}

// Header is a hunk header. Starts are 1-based as printed: when a length is 0, the start names the line before the (empty) range.
type Header struct {
	OldStart, OldLen int
	NewStart, NewLen int
}

// NewHeader returns the header for old lines [oldIdx, oldIdx+oldLen) and new lines [newIdx, newIdx+newLen), with 0-based indexes.
func NewHeader(oldIdx, oldLen, newIdx, newLen int) Header {
	return Header{
		OldStart: printedStart(oldIdx, oldLen),
		OldLen:   oldLen,
		NewStart: printedStart(newIdx, newLen),
		NewLen:   newLen,
	}
}

func printedStart(idx, n int) int {
	if n == 0 {
		return idx
	}
	return idx + 1
}

// OldIndex returns the 0-based index of the first old line the hunk covers (or, for an empty old range, the index at which new lines are inserted).
func (h Header) OldIndex() int {
	if h.OldLen == 0 {
		return h.OldStart
	}
	return h.OldStart - 1
}

// NewIndex is OldIndex for the new side.
func (h Header) NewIndex() int {
	if h.NewLen == 0 {
		return h.NewStart
	}
	return h.NewStart - 1
}

// String returns the header line, including its trailing newline.
func (h Header) String() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldLen, h.NewStart, h.NewLen)
}

// Line is one tagged line of a hunk. Text includes the line's terminator when it has one.
type Line struct {
	Op   Op
	Text []byte
}

// Hunk is a contiguous region of change: its header plus the interleaved context, deletion, and insertion lines it covers.
type Hunk struct {
	Header
	Lines []Line
}

// OldLines returns the lines the hunk expects in the old file: context and deletions, in order.
func (h Hunk) OldLines() [][]byte {
	return h.side(OpDelete)
}

// NewLines returns the lines the hunk produces in the new file: context and insertions, in order.
func (h Hunk) NewLines() [][]byte {
	return h.side(OpInsert)
}

func (h Hunk) side(change Op) [][]byte {
	var out [][]byte
	for _, l := range h.Lines {
		if l.Op == OpContext || l.Op == change {
			out = append(out, l.Text)
		}
	}
	return out
}
