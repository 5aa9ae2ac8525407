package applypatch

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/codalotl/xdiff/internal/diff"
)

// PatchGrammar describes the textual patch format Parse accepts and ComputePatch produces.
const PatchGrammar = `start: preamble* hunk*
preamble: ("diff " | "--- " | "+++ " | "Index: ") /(.*)/ LF

hunk: header body
header: "@@ -" range " +" range " @@" /(.*)/ LF
range: INT ("," INT)?

body: (context_line | delete_line | insert_line | no_newline)+
context_line: " " /(.*)/ LF | LF
delete_line: "-" /(.*)/ LF
insert_line: "+" /(.*)/ LF
no_newline: "\ No newline at end of file" LF`

var errMalformedPatch = errors.New("malformed patch")

// IsMalformedPatch reports whether err (as returned from Parse or Apply) indicates that the patch text could not be parsed. It returns false for allocation failures
// and for hunks that parsed but did not match the file; the latter are reported in Result, not as errors.
func IsMalformedPatch(err error) bool {
	return errors.Is(err, errMalformedPatch)
}
func malformedPatchError(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(errMalformedPatch, err)
}

// ---------- Parsing ----------

var headerRE = regexp.MustCompile(`^@@ -(\d{1,9})(?:,(\d{1,9}))? \+(\d{1,9})(?:,(\d{1,9}))? @@`)

type parser struct {
	lines [][]byte
	idx   int
}

func newParser(input []byte) *parser {
	return &parser{lines: diff.SplitLines(input)}
}

func (p *parser) eof() bool { return p.idx >= len(p.lines) }

func (p *parser) peek() ([]byte, bool) {
	if p.eof() {
		return nil, false
	}
	return p.lines[p.idx], true
}

func (p *parser) next() ([]byte, bool) {
	line, ok := p.peek()
	if !ok {
		return nil, false
	}
	p.idx++
	return line, true
}

func (p *parser) lineNumber() int { return p.idx + 1 }

// Parse parses patch text into hunks. Optional "diff", "---", "+++" and "Index:" lines before the first hunk are skipped. Each hunk's body must supply exactly the number of
// old and new lines its header declares. An empty patch has no hunks. Errors satisfy IsMalformedPatch.
func Parse(patch []byte) ([]diff.Hunk, error) {
	hunks, err := parse(patch)
	if err != nil {
		return nil, malformedPatchError(err)
	}
	return hunks, nil
}

func parse(patch []byte) ([]diff.Hunk, error) {
	p := newParser(patch)
	sawPreamble := false
	for {
		line, ok := p.peek()
		if !ok || bytes.HasPrefix(line, []byte("@@")) {
			break
		}
		if !isPreamble(line) {
			return nil, fmt.Errorf("line %d: expected hunk header; got %q", p.lineNumber(), line)
		}
		sawPreamble = true
		p.next()
	}
	if sawPreamble && p.eof() {
		return nil, errors.New("patch has a file header but no hunks")
	}

	var hunks []diff.Hunk
	for !p.eof() {
		h, err := parseHunk(p)
		if err != nil {
			return nil, err
		}
		hunks = append(hunks, h)
	}
	return hunks, nil
}

func isPreamble(line []byte) bool {
	for _, prefix := range []string{"diff ", "--- ", "+++ ", "Index: "} {
		if bytes.HasPrefix(line, []byte(prefix)) {
			return true
		}
	}
	return false
}

func parseHunk(p *parser) (diff.Hunk, error) {
	start := p.lineNumber()
	raw, _ := p.next()
	hdr, err := parseHeader(raw)
	if err != nil {
		return diff.Hunk{}, fmt.Errorf("line %d: %w", start, err)
	}

	h := diff.Hunk{Header: hdr}
	oldN, newN := 0, 0
	for oldN < hdr.OldLen || newN < hdr.NewLen {
		line, ok := p.next()
		if !ok {
			return diff.Hunk{}, fmt.Errorf("hunk at line %d: unexpected end of patch; have -%d +%d of -%d +%d lines", start, oldN, newN, hdr.OldLen, hdr.NewLen)
		}
		if line[0] == '\\' {
			if err := stripNewline(&h, p.lineNumber()-1); err != nil {
				return diff.Hunk{}, err
			}
			continue
		}

		var op diff.Op
		text := line[1:]
		switch line[0] {
		case ' ', '-', '+':
			op = diff.Op(line[0])
		case '\n':
			// Some tools drop the space of an empty context line.
			op, text = diff.OpContext, line
		default:
			return diff.Hunk{}, fmt.Errorf("line %d: expected ' ', '-', '+' or '\\'; got %q", p.lineNumber()-1, line)
		}
		if op != diff.OpInsert {
			oldN++
		}
		if op != diff.OpDelete {
			newN++
		}
		h.Lines = append(h.Lines, diff.Line{Op: op, Text: text})
	}

	// A marker may follow the last counted line.
	if line, ok := p.peek(); ok && line[0] == '\\' {
		p.next()
		if err := stripNewline(&h, p.lineNumber()-1); err != nil {
			return diff.Hunk{}, err
		}
	}

	if err := h.Validate(); err != nil {
		return diff.Hunk{}, fmt.Errorf("hunk at line %d: %w", start, err)
	}
	return h, nil
}

func parseHeader(line []byte) (diff.Header, error) {
	m := headerRE.FindSubmatch(line)
	if m == nil {
		return diff.Header{}, fmt.Errorf("malformed hunk header %q", line)
	}
	num := func(b []byte, dflt int) int {
		if b == nil {
			return dflt
		}
		n, _ := strconv.Atoi(string(b)) // at most 9 digits
		return n
	}
	h := diff.Header{
		OldStart: num(m[1], 0),
		OldLen:   num(m[2], 1),
		NewStart: num(m[3], 0),
		NewLen:   num(m[4], 1),
	}
	if (h.OldLen > 0 && h.OldStart == 0) || (h.NewLen > 0 && h.NewStart == 0) {
		return diff.Header{}, fmt.Errorf("hunk header %q: a non-empty range must start at line 1 or later", bytes.TrimRight(line, "\n"))
	}
	return h, nil
}

// stripNewline applies a "\ No newline at end of file" marker to the last line of h.
func stripNewline(h *diff.Hunk, lineNumber int) error {
	if len(h.Lines) == 0 {
		return fmt.Errorf("line %d: no-newline marker before any line", lineNumber)
	}
	last := &h.Lines[len(h.Lines)-1]
	if !bytes.HasSuffix(last.Text, []byte{'\n'}) {
		return fmt.Errorf("line %d: repeated no-newline marker", lineNumber)
	}
	last.Text = last.Text[:len(last.Text)-1]
	return nil
}
