package diff

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/codalotl/xdiff/internal/mmfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// render diffs from against to with the given context and returns the plain text form.
func render(t *testing.T, from, to string, context int) string {
	t.Helper()
	var buf bytes.Buffer
	err := Stream(mmfile.FromBytes([]byte(from)), mmfile.FromBytes([]byte(to)), Options{Context: context}, &TextSink{W: &buf})
	require.NoError(t, err)
	return buf.String()
}

// compare runs Compare and fails the test on error.
func compare(t *testing.T, from, to string) Script {
	t.Helper()
	script, err := Compare([]byte(from), []byte(to))
	require.NoError(t, err)
	return script
}

// numbered returns n lines "l1\n".."ln\n", with the 1-based lines in replace substituted by "changed <i>\n".
func numbered(n int, replace ...int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		changed := false
		for _, r := range replace {
			if r == i {
				changed = true
			}
		}
		if changed {
			fmt.Fprintf(&b, "changed %d\n", i)
		} else {
			fmt.Fprintf(&b, "l%d\n", i)
		}
	}
	return b.String()
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"\n", []string{"\n"}},
		{"a", []string{"a"}},
		{"a\nb", []string{"a\n", "b"}},
		{"a\nb\n", []string{"a\n", "b\n"}},
		{"a\n\n", []string{"a\n", "\n"}},
	}
	for _, tt := range tests {
		var got []string
		for _, l := range SplitLines([]byte(tt.in)) {
			got = append(got, string(l))
		}
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestCompare_Identical(t *testing.T) {
	for _, s := range []string{"", "a", "a\n", numbered(50)} {
		script := compare(t, s, s)
		assert.True(t, script.Identical(), "input %q", s)
		assert.Empty(t, render(t, s, s, 3))
	}
}

func TestCompare_Changes(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		want     []Change
	}{
		{"insert into empty", "", "a\nb\n", []Change{{0, 0, 0, 2}}},
		{"delete all", "a\nb\n", "", []Change{{0, 2, 0, 0}}},
		{"replace middle", "a\nb\nc\n", "a\nX\nc\n", []Change{{1, 2, 1, 2}}},
		{"insert middle", "a\nb\nc\n", "a\nb\nX\nc\n", []Change{{2, 2, 2, 3}}},
		{"trailing newline removed", "a\nb\n", "a\nb", []Change{{1, 2, 1, 2}}},
		{"only the new edit counts", numbered(10, 2), numbered(10, 2, 8), []Change{{7, 8, 7, 8}}},
		{"both ends", "x\nm\ny\n", "X\nm\nY\n", []Change{{0, 1, 0, 1}, {2, 3, 2, 3}}},
		{"repeated insert at start", "a\nc\n", "a\nb\na\nc\n", []Change{{1, 1, 1, 3}}},
		{"repeated insert after prefix", "x\na\nc\n", "x\na\nb\na\nc\n", []Change{{2, 2, 2, 4}}},
		{"repeated delete", "a\nb\na\nc\n", "a\nc\n", []Change{{1, 3, 1, 1}}},
		{"blank line insert", "}\n\nfunc f() {\n", "}\n\nfunc g() {\n}\n\nfunc f() {\n", []Change{{2, 2, 2, 5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script := compare(t, tt.from, tt.to)
			assert.Equal(t, tt.want, script.Changes)
		})
	}
}

func TestScript_SlideKeepsChangesApart(t *testing.T) {
	s := Script{
		Old:     SplitLines([]byte("a\na\nb\n")),
		New:     SplitLines([]byte("a\na\na\nB\n")),
		Changes: []Change{{1, 1, 1, 2}, {2, 3, 3, 4}},
	}
	s.slide()
	assert.Equal(t, []Change{{1, 1, 1, 2}, {2, 3, 3, 4}}, s.Changes)

	s = Script{
		Old:     SplitLines([]byte("a\na\nb\nc\n")),
		New:     SplitLines([]byte("a\na\na\nb\nC\n")),
		Changes: []Change{{0, 0, 0, 1}, {3, 4, 4, 5}},
	}
	s.slide()
	assert.Equal(t, []Change{{2, 2, 2, 3}, {3, 4, 4, 5}}, s.Changes)
}

func TestCompare_ManyLines(t *testing.T) {
	// Both ends differ, so every line is tokenized; more distinct lines than fit below the UTF-16 surrogate range.
	const n = 70_000
	var from, to strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&from, "line %d\n", i)
		switch i {
		case 0, 60_000, n - 1:
			fmt.Fprintf(&to, "replaced %d\n", i)
		default:
			fmt.Fprintf(&to, "line %d\n", i)
		}
	}
	script := compare(t, from.String(), to.String())
	assert.Len(t, script.Old, n)
	assert.Len(t, script.New, n)
	assert.Equal(t, []Change{{0, 1, 0, 1}, {60_000, 60_001, 60_000, 60_001}, {n - 1, n, n - 1, n}}, script.Changes)
}

func TestCompare_MoreLinesThanRunes(t *testing.T) {
	// More distinct lines than there are valid runes; only the last one differs.
	n := maxTokens + 100
	var from, to strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&from, "%d\n", i)
		if i == n-1 {
			to.WriteString("last\n")
		} else {
			fmt.Fprintf(&to, "%d\n", i)
		}
	}
	script := compare(t, from.String(), to.String())
	assert.Equal(t, []Change{{n - 1, n, n - 1, n}}, script.Changes)
}

func TestCompare_TooManyLines(t *testing.T) {
	saved := maxTokens
	maxTokens = 4
	t.Cleanup(func() { maxTokens = saved })

	_, err := Compare([]byte("a\nb\nc\n"), []byte("d\ne\nf\n"))
	require.Error(t, err)
	assert.True(t, IsTooManyLines(err))
	assert.False(t, IsAborted(err))

	// Shared ends do not count against the limit.
	script, err := Compare([]byte("1\n2\n3\na\nb\n4\n5\n"), []byte("1\n2\n3\nc\nd\n4\n5\n"))
	require.NoError(t, err)
	assert.Equal(t, []Change{{3, 5, 3, 5}}, script.Changes)

	err = Stream(mmfile.FromBytes([]byte("a\nb\nc\n")), mmfile.FromBytes([]byte("d\ne\nf\n")), DefaultOptions(), &TextSink{W: &bytes.Buffer{}})
	assert.True(t, IsTooManyLines(err))
}

func TestStream_Simple(t *testing.T) {
	got := render(t, "hello world\n", "hello world!\n", 3)
	assert.Equal(t, "@@ -1,1 +1,1 @@\n-hello world\n+hello world!\n", got)
}

func TestStream_SinkCalls(t *testing.T) {
	var c Collect
	err := Stream(mmfile.FromBytes([]byte("hello world\n")), mmfile.FromBytes([]byte("hello world!\n")), DefaultOptions(), &c)
	require.NoError(t, err)
	require.Len(t, c.Hunks, 1)
	assert.Equal(t, Header{OldStart: 1, OldLen: 1, NewStart: 1, NewLen: 1}, c.Hunks[0].Header)
	assert.Equal(t, []Line{
		{Op: OpDelete, Text: []byte("hello world\n")},
		{Op: OpInsert, Text: []byte("hello world!\n")},
	}, c.Hunks[0].Lines)
}

func TestStream_Rendering(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		context  int
		want     string
	}{
		{
			name: "insert into empty",
			from: "", to: "a\nb\n", context: 3,
			want: "@@ -0,0 +1,2 @@\n+a\n+b\n",
		},
		{
			name: "delete all",
			from: "a\nb\n", to: "", context: 3,
			want: "@@ -1,2 +0,0 @@\n-a\n-b\n",
		},
		{
			name: "pure insertion without context",
			from: "a\nb\nc\n", to: "a\nb\nX\nc\n", context: 0,
			want: "@@ -2,0 +3,1 @@\n+X\n",
		},
		{
			name: "trailing newline only",
			from: "a\nb\n", to: "a\nb", context: 3,
			want: "@@ -1,2 +1,2 @@\n a\n-b\n+b\n\\ No newline at end of file\n",
		},
		{
			name: "context clipped at both ends",
			from: "a\nb\nc\n", to: "a\nX\nc\n", context: 3,
			want: "@@ -1,3 +1,3 @@\n a\n-b\n+X\n c\n",
		},
		{
			name: "far changes make two hunks",
			from: numbered(20), to: numbered(20, 2, 10), context: 3,
			want: "@@ -1,5 +1,5 @@\n l1\n-l2\n+changed 2\n l3\n l4\n l5\n" +
				"@@ -7,7 +7,7 @@\n l7\n l8\n l9\n-l10\n+changed 10\n l11\n l12\n l13\n",
		},
		{
			name: "close changes share a hunk",
			from: numbered(20), to: numbered(20, 2, 9), context: 3,
			want: "@@ -1,12 +1,12 @@\n l1\n-l2\n+changed 2\n l3\n l4\n l5\n l6\n l7\n l8\n-l9\n+changed 9\n l10\n l11\n l12\n",
		},
		{
			name: "negative context is zero",
			from: "a\nb\nc\n", to: "a\nX\nc\n", context: -4,
			want: "@@ -2,1 +2,1 @@\n-b\n+X\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(t, tt.from, tt.to, tt.context))
		})
	}
}

func TestHunks_Validate(t *testing.T) {
	script := compare(t, numbered(40), numbered(40, 1, 5, 20, 40)+"tail")
	n := 0
	for h := range script.Hunks(3) {
		require.NoError(t, h.Validate())
		n++
	}
	assert.Equal(t, 3, n)
}

func TestHunks_EarlyStop(t *testing.T) {
	script := compare(t, numbered(40), numbered(40, 2, 20, 38))
	var got []Header
	for h := range script.Hunks(1) {
		got = append(got, h.Header)
		if len(got) == 2 {
			break
		}
	}
	assert.Len(t, got, 2)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		h    Hunk
	}{
		{"count mismatch", Hunk{Header: Header{1, 2, 1, 1}, Lines: []Line{{OpDelete, []byte("a\n")}, {OpInsert, []byte("b\n")}}}},
		{"unknown tag", Hunk{Header: Header{1, 1, 1, 1}, Lines: []Line{{Op('x'), []byte("a\n")}}}},
		{"unterminated not last", Hunk{Header: Header{1, 2, 1, 2}, Lines: []Line{{OpContext, []byte("a")}, {OpContext, []byte("b\n")}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.h.Validate())
		})
	}
}

// failingSink fails on call number failAt (1-based), counting headers and lines alike.
type failingSink struct {
	calls  int
	failAt int
	err    error
}

func (s *failingSink) step() error {
	s.calls++
	if s.calls == s.failAt {
		return s.err
	}
	return nil
}

func (s *failingSink) Header(Header) error { return s.step() }
func (s *failingSink) Line(Op, []byte) error { return s.step() }

func TestStream_Abort(t *testing.T) {
	stop := errors.New("too many lines")
	sink := &failingSink{failAt: 2, err: stop}
	err := Stream(mmfile.FromBytes([]byte("hello world\n")), mmfile.FromBytes([]byte("hello world!\n")), DefaultOptions(), sink)
	require.Error(t, err)
	assert.True(t, IsAborted(err))
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, sink.calls, "no calls after the failing one")
}

func TestStream_AllocationFailureIsNotAbort(t *testing.T) {
	out := mmfile.NewWithOptions(mmfile.Options{Allocator: mmfile.NewBudgetAllocator(20)})
	err := Stream(mmfile.FromBytes([]byte(numbered(10))), mmfile.FromBytes([]byte(numbered(10, 5))), DefaultOptions(), &TextSink{W: out})
	require.Error(t, err)
	assert.ErrorIs(t, err, mmfile.ErrAllocation)
	assert.False(t, IsAborted(err))
}

func TestTextSink_Color(t *testing.T) {
	var buf bytes.Buffer
	sink := &TextSink{W: &buf, Color: true}
	err := Stream(mmfile.FromBytes([]byte("a\nb\n")), mmfile.FromBytes([]byte("a\nc\n")), DefaultOptions(), sink)
	require.NoError(t, err)
	want := "\x1b[35m@@ -1,2 +1,2 @@\x1b[0m\n a\n\x1b[31m-b\x1b[0m\n\x1b[32m+c\x1b[0m\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteHunk(t *testing.T) {
	h := Hunk{
		Header: NewHeader(0, 1, 0, 1),
		Lines:  []Line{{OpDelete, []byte("x")}, {OpInsert, []byte("y\n")}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteHunk(&buf, h))
	assert.Equal(t, "@@ -1,1 +1,1 @@\n-x\n\\ No newline at end of file\n+y\n", buf.String())
}

func TestHeader(t *testing.T) {
	h := NewHeader(4, 0, 6, 2)
	assert.Equal(t, "@@ -4,0 +7,2 @@\n", h.String())
	assert.Equal(t, 4, h.OldIndex())
	assert.Equal(t, 6, h.NewIndex())

	h = NewHeader(0, 0, 0, 0)
	assert.Equal(t, 0, h.OldIndex())
}

func TestStat(t *testing.T) {
	script := compare(t, numbered(20), numbered(20, 2, 10)+"extra\n")
	st := script.Stat(3)
	assert.Equal(t, Stat{Insertions: 3, Deletions: 2, Hunks: 3}, st)
	assert.Equal(t, 5, st.Changed())
}

func TestOp_String(t *testing.T) {
	assert.Equal(t, "context", OpContext.String())
	assert.Equal(t, "delete", OpDelete.String())
	assert.Equal(t, "insert", OpInsert.String())
	assert.Equal(t, "Op('x')", Op('x').String())
}
