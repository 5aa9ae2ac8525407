package diff

import (
	"bytes"
	"fmt"
)

// Validate checks that h is internally consistent: the lines' old and new counts match the header, every line has a known tag, and only the last line of each side may lack
// a terminator. It returns an error describing the first violation.
func (h Hunk) Validate() error {
	var oldN, newN int
	oldOpen, newOpen := false, false // a line without terminator has been seen on that side
	for i, l := range h.Lines {
		switch l.Op {
		case OpContext, OpDelete, OpInsert:
		default:
			return fmt.Errorf("line %d: unknown tag %q", i, byte(l.Op))
		}
		if l.Op != OpInsert {
			if oldOpen {
				return fmt.Errorf("line %d: old side continues after a line without newline", i)
			}
			oldN++
			oldOpen = !bytes.HasSuffix(l.Text, []byte{'\n'})
		}
		if l.Op != OpDelete {
			if newOpen {
				return fmt.Errorf("line %d: new side continues after a line without newline", i)
			}
			newN++
			newOpen = !bytes.HasSuffix(l.Text, []byte{'\n'})
		}
	}
	if oldN != h.OldLen || newN != h.NewLen {
		return fmt.Errorf("header -%d,%d +%d,%d does not match body (%d old, %d new lines)", h.OldStart, h.OldLen, h.NewStart, h.NewLen, oldN, newN)
	}
	return nil
}
