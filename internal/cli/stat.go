package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/codalotl/xdiff/internal/diff"
)

// writeStat writes a one-file change summary fitted to width columns:
//
//	name | 7 +++++--
//	1 file changed, 5 insertions(+), 2 deletions(-)
//
// The bar is scaled down when the change count does not fit.
func writeStat(w io.Writer, name string, st diff.Stat, width int, color bool) error {
	count := strconv.Itoa(st.Changed())

	// " " + name + " | " + count + " " + bar
	name = truncateLeft(sanitize(name), max(width/2, 10))
	barMax := max(width-textWidth(name)-len(count)-5, 10)

	ins, del := st.Insertions, st.Deletions
	if total := ins + del; total > barMax {
		ins = scale(ins, total, barMax)
		del = scale(del, total, barMax)
		if ins+del > barMax { // both rounded up
			if ins > del {
				ins--
			} else {
				del--
			}
		}
	}

	plus, minus := strings.Repeat("+", ins), strings.Repeat("-", del)
	if color {
		if plus != "" {
			plus = diff.ColorGreen + plus + diff.ColorReset
		}
		if minus != "" {
			minus = diff.ColorRed + minus + diff.ColorReset
		}
	}

	if _, err := fmt.Fprintf(w, " %s | %s %s%s\n", name, count, plus, minus); err != nil {
		return err
	}

	summary := " 1 file changed"
	if st.Insertions > 0 {
		summary += ", " + plural(st.Insertions, "insertion") + "(+)"
	}
	if st.Deletions > 0 {
		summary += ", " + plural(st.Deletions, "deletion") + "(-)"
	}
	_, err := io.WriteString(w, summary+"\n")
	return err
}

// scale maps n of total onto size, keeping any non-zero n visible.
func scale(n, total, size int) int {
	if n == 0 {
		return 0
	}
	return max(n*size/total, 1)
}
