package cli

import (
	"io"
	"os"
	"strings"

	"github.com/clipperhouse/uax29/v2/graphemes"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/codalotl/xdiff/internal/config"
)

const defaultWidth = 80

// useColor resolves a color mode for output written to w. "auto" colors only terminals, and never when NO_COLOR is set.
func useColor(mode string, w io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the column count of w if it is a terminal, and defaultWidth otherwise.
func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return defaultWidth
}

// textWidth is the number of terminal cells s occupies.
func textWidth(s string) int {
	cond := runewidth.NewCondition()
	cond.EastAsianWidth = false
	cond.StrictEmojiNeutral = true
	return cond.StringWidth(s)
}

// truncateLeft shortens s to at most width cells by replacing its start with "...". Grapheme clusters are never split.
func truncateLeft(s string, width int) string {
	if textWidth(s) <= width {
		return s
	}
	const ellipsis = "..."
	budget := width - len(ellipsis)
	if budget <= 0 {
		return ellipsis[:max(width, 0)]
	}

	var clusters []string
	iter := graphemes.FromString(s)
	for iter.Next() {
		clusters = append(clusters, iter.Value())
	}

	used, start := 0, len(clusters)
	for start > 0 {
		w := textWidth(clusters[start-1])
		if used+w > budget {
			break
		}
		used += w
		start--
	}
	return ellipsis + strings.Join(clusters[start:], "")
}

// sanitize makes s safe to print on one terminal line: control characters become \xXX escapes and invalid UTF-8 becomes U+FFFD.
func sanitize(s string) string {
	const hexDigits = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToValidUTF8(s, "�") {
		if r < 0x20 || r == 0x7F {
			b.WriteString(`\x`)
			b.WriteByte(hexDigits[r>>4])
			b.WriteByte(hexDigits[r&0x0F])
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
