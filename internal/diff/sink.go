package diff

import (
	"errors"
	"io"

	"github.com/codalotl/xdiff/internal/mmfile"
)

// Sink consumes a streamed diff: Header once per hunk, then Line once per hunk line, in order. Returning an error stops the producer.
type Sink interface {
	Header(h Header) error
	Line(op Op, text []byte) error
}

// Stream diffs from against to and hands each hunk to sink as it is produced. If sink fails, Stream stops and returns an error matching ErrAborted that wraps the sink's error;
// an mmfile.ErrAllocation from the sink is returned as-is. Errors from Compare are returned unwrapped.
func Stream(from, to *mmfile.CompactFile, opts Options, sink Sink) error {
	s, err := Compare(from.Bytes(), to.Bytes())
	if err != nil {
		return err
	}
	return s.Stream(opts.Context, sink)
}

// Stream hands each hunk of s to sink. Errors are reported as in the package-level Stream.
func (s Script) Stream(context int, sink Sink) error {
	for h := range s.Hunks(context) {
		if err := EmitHunk(sink, h); err != nil {
			return SinkError(err)
		}
	}
	return nil
}

// EmitHunk hands h to sink: its header, then each line. It returns the sink's error unchanged.
func EmitHunk(sink Sink, h Hunk) error {
	if err := sink.Header(h.Header); err != nil {
		return err
	}
	for _, l := range h.Lines {
		if err := sink.Line(l.Op, l.Text); err != nil {
			return err
		}
	}
	return nil
}

// SinkError classifies an error returned by an output consumer. Allocation failures pass through; anything else is joined with ErrAborted. nil stays nil.
func SinkError(err error) error {
	if err == nil || errors.Is(err, mmfile.ErrAllocation) || IsAborted(err) {
		return err
	}
	return errors.Join(ErrAborted, err)
}

// ANSI colors written by TextSink: deletions red, insertions green, headers magenta.
const (
	ColorReset   = "\x1b[0m"
	ColorRed     = "\x1b[31m"
	ColorGreen   = "\x1b[32m"
	ColorMagenta = "\x1b[35m"
)

const noNewline = "\\ No newline at end of file\n"

// TextSink writes a streamed diff to W in patch grammar. If Color, headers, deletions, and additions are wrapped in ANSI color codes; colored output is for terminals and is
// not meant to be parsed.
type TextSink struct {
	W     io.Writer
	Color bool
}

// Header writes h's header line.
func (t *TextSink) Header(h Header) error {
	if !t.Color {
		_, err := io.WriteString(t.W, h.String())
		return err
	}
	s := h.String()
	_, err := io.WriteString(t.W, ColorMagenta+s[:len(s)-1]+ColorReset+"\n")
	return err
}

// Line writes op's tag followed by text. An unterminated text is followed by a newline and the no-newline marker.
func (t *TextSink) Line(op Op, text []byte) error {
	body, terminated := text, len(text) > 0 && text[len(text)-1] == '\n'
	if terminated {
		body = text[:len(text)-1]
	}

	var code string
	if t.Color {
		switch op {
		case OpDelete:
			code = ColorRed
		case OpInsert:
			code = ColorGreen
		}
	}

	buf := make([]byte, 0, len(text)+len(noNewline)+len(code)+len(ColorReset)+2)
	buf = append(buf, code...)
	buf = append(buf, byte(op))
	buf = append(buf, body...)
	if code != "" {
		buf = append(buf, ColorReset...)
	}
	buf = append(buf, '\n')
	if !terminated {
		buf = append(buf, noNewline...)
	}
	_, err := t.W.Write(buf)
	return err
}

// WriteHunk renders h to w in patch grammar.
func WriteHunk(w io.Writer, h Hunk) error {
	return EmitHunk(&TextSink{W: w}, h)
}

// Collect is a Sink that keeps every hunk it receives. It is mostly useful in tests and for small inputs.
type Collect struct {
	Hunks []Hunk
}

// Header starts a new hunk.
func (c *Collect) Header(h Header) error {
	c.Hunks = append(c.Hunks, Hunk{Header: h})
	return nil
}

// Line appends to the current hunk.
func (c *Collect) Line(op Op, text []byte) error {
	if len(c.Hunks) == 0 {
		return errors.New("diff: line before any header")
	}
	h := &c.Hunks[len(c.Hunks)-1]
	h.Lines = append(h.Lines, Line{Op: op, Text: text})
	return nil
}
