// Package diff computes line-level differences between two files and streams them as hunks.
//
// Representation: Compare aligns the lines of an "old" and a "new" byte slice and returns a Script: both line sequences plus an ordered list of Changes. Each Change replaces
// old lines [A0, A1) with new lines [B0, B1); everything between Changes is unchanged. Lines keep their terminating '\n'; a final line without one is a distinct, shorter line,
// so a difference confined to the trailing newline is still a change.
//
// Alignment: common leading and trailing lines are set aside first. The remaining lines are tokenized through a per-call content->rune table and compared as tokens with the
// diffmatchpatch Myers bisection. The diff deadline is disabled, so the edit script is minimal; it never degrades to a heuristic answer on large inputs. Each Change is then
// slid down past any repeated lines, so equal inputs always produce the same Changes. Inputs whose differing lines hold more distinct contents than there are valid runes are
// rejected with ErrTooManyLines.
//
// Hunks: Script.Hunks groups Changes into hunks, each padded with up to `context` unchanged lines on each side (clipped at file bounds). Two Changes separated by at most 2*context
// unchanged lines share a hunk. Hunks are produced lazily, in file order.
//
// Streaming: Stream hands each hunk to a Sink, header first, then one call per line. A Sink stops the diff by returning an error; Stream then returns an error matching ErrAborted
// (see IsAborted) that also wraps the Sink's error. Output already delivered is not retracted.
//
// Text form: TextSink writes the patch grammar:
//
//	@@ -<old_start>,<old_len> +<new_start>,<new_len> @@
//	 context line
//	-deleted line
//	+added line
//
// Starts are 1-based; a zero-length range names the line before it (so inserting into an empty file is "@@ -0,0 +1,n @@"). A line without a terminator is followed by
// "\n\ No newline at end of file\n" so that the output stays parseable.
package diff
