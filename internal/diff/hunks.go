package diff

import "iter"

// Hunks returns the hunks of s, each padded with up to context unchanged lines per side. Changes separated by at most 2*context unchanged lines share a hunk. A negative context
// is treated as 0. The sequence is lazy and may be iterated more than once.
func (s Script) Hunks(context int) iter.Seq[Hunk] {
	context = max(context, 0)
	return func(yield func(Hunk) bool) {
		for i := 0; i < len(s.Changes); {
			j := i
			for j+1 < len(s.Changes) && s.Changes[j+1].A0-s.Changes[j].A1 <= 2*context {
				j++
			}
			if !yield(s.hunk(s.Changes[i:j+1], context)) {
				return
			}
			i = j + 1
		}
	}
}

// hunk builds the hunk covering group, a run of changes close enough to share one.
func (s Script) hunk(group []Change, context int) Hunk {
	first, last := group[0], group[len(group)-1]
	lo := max(first.A0-context, 0)
	hi := min(last.A1+context, len(s.Old))
	blo := first.B0 - (first.A0 - lo)
	bhi := last.B1 + (hi - last.A1)

	h := Hunk{Header: NewHeader(lo, hi-lo, blo, bhi-blo)}
	h.Lines = make([]Line, 0, (hi-lo)+(last.B1-first.B0))

	at := lo
	for _, c := range group {
		h.Lines = appendLines(h.Lines, OpContext, s.Old[at:c.A0])
		h.Lines = appendLines(h.Lines, OpDelete, s.Old[c.A0:c.A1])
		h.Lines = appendLines(h.Lines, OpInsert, s.New[c.B0:c.B1])
		at = c.A1
	}
	h.Lines = appendLines(h.Lines, OpContext, s.Old[at:hi])
	return h
}

func appendLines(dst []Line, op Op, lines [][]byte) []Line {
	for _, l := range lines {
		dst = append(dst, Line{Op: op, Text: l})
	}
	return dst
}
