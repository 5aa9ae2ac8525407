package diff

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// SplitLines splits data into lines, each keeping its '\n'. A trailing run without a terminator is its own line. Empty data has no lines. The returned lines alias data.
func SplitLines(data []byte) [][]byte {
	if len(data) == 0 {
		return nil
	}
	lines := make([][]byte, 0, bytes.Count(data, []byte{'\n'})+1)
	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			lines = append(lines, data)
			break
		}
		lines = append(lines, data[:i+1:i+1])
		data = data[i+1:]
	}
	return lines
}

// maxTokens is the number of distinct valid runes: every code point except the UTF-16 surrogates. Line ids must survive a rune->string round trip inside diffmatchpatch.
var maxTokens = int(utf8.MaxRune) + 1 - (surrogateMax - surrogateMin + 1)

const (
	surrogateMin = 0xD800
	surrogateMax = 0xDFFF
)

// tokenRune maps the i-th distinct line to a valid rune, skipping the surrogate range.
func tokenRune(i int) rune {
	if i < surrogateMin {
		return rune(i)
	}
	return rune(i + surrogateMax - surrogateMin + 1)
}

// Compare aligns the lines of from and to and returns the minimal edit script between them. Changes are slid to a canonical position (see Script). If the lines that differ
// between the two inputs hold more distinct contents than can be tokenized, Compare returns an error matching ErrTooManyLines.
func Compare(from, to []byte) (Script, error) {
	s := Script{Old: SplitLines(from), New: SplitLines(to)}
	if bytes.Equal(from, to) {
		return s, nil
	}

	// Common leading and trailing lines never take part in a change.
	pre := 0
	for pre < len(s.Old) && pre < len(s.New) && bytes.Equal(s.Old[pre], s.New[pre]) {
		pre++
	}
	suf := 0
	for suf < len(s.Old)-pre && suf < len(s.New)-pre && bytes.Equal(s.Old[len(s.Old)-1-suf], s.New[len(s.New)-1-suf]) {
		suf++
	}
	oldMid := s.Old[pre : len(s.Old)-suf]
	newMid := s.New[pre : len(s.New)-suf]

	switch {
	case len(oldMid) == 0 && len(newMid) == 0:
		return s, nil
	case len(oldMid) == 0 || len(newMid) == 0:
		s.Changes = []Change{{A0: pre, A1: pre + len(oldMid), B0: pre, B1: pre + len(newMid)}}
		s.slide()
		return s, nil
	}

	// Each distinct line becomes one rune from a table local to this call.
	ids := make(map[string]rune, len(oldMid))
	tokenize := func(lines [][]byte) ([]rune, error) {
		out := make([]rune, len(lines))
		for i, l := range lines {
			r, ok := ids[string(l)]
			if !ok {
				if len(ids) >= maxTokens {
					return nil, fmt.Errorf("%w: more than %d", ErrTooManyLines, maxTokens)
				}
				r = tokenRune(len(ids))
				ids[string(l)] = r
			}
			out[i] = r
		}
		return out, nil
	}
	rOld, err := tokenize(oldMid)
	if err != nil {
		return Script{}, err
	}
	rNew, err := tokenize(newMid)
	if err != nil {
		return Script{}, err
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	diffs := dmp.DiffMainRunes(rOld, rNew, false)

	var (
		ai, bi  = pre, pre
		pending Change
		open    bool
	)
	flush := func() {
		if open {
			s.Changes = append(s.Changes, pending)
			open = false
		}
	}
	for _, d := range diffs {
		// Count runes, not bytes: tokens past 0x7F encode as multi-byte runes.
		n := utf8.RuneCountInString(d.Text)
		if n == 0 {
			continue
		}
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			ai += n
			bi += n
			continue
		}
		if !open {
			pending = Change{A0: ai, A1: ai, B0: bi, B1: bi}
			open = true
		}
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			ai += n
			pending.A1 = ai
		case diffmatchpatch.DiffInsert:
			bi += n
			pending.B1 = bi
		}
	}
	flush()
	s.slide()
	return s, nil
}

// slide moves each Change as far down as it can go without changing what it inserts or deletes and without touching the next Change. A run of repeated lines therefore
// always reports the same edit, wherever the diff happened to place it.
func (s *Script) slide() {
	for i := len(s.Changes) - 1; i >= 0; i-- {
		c := &s.Changes[i]
		limitA, limitB := len(s.Old), len(s.New)
		if i+1 < len(s.Changes) {
			// Keep one unchanged line before the next Change.
			limitA, limitB = s.Changes[i+1].A0-1, s.Changes[i+1].B0-1
		}
		for c.A1 < limitA && c.B1 < limitB &&
			(c.A0 == c.A1 || bytes.Equal(s.Old[c.A0], s.Old[c.A1])) &&
			(c.B0 == c.B1 || bytes.Equal(s.New[c.B0], s.New[c.B1])) {
			c.A0++
			c.A1++
			c.B0++
			c.B1++
		}
	}
}
