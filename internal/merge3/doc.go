// Package merge3 merges two divergent edits of a common base file.
//
// Merge diffs base against each side and walks the two change lists together over base line positions. Changes from either side whose base ranges overlap are grouped
// into one region; an insertion overlaps any range that touches its point. Each region is then classified:
//
//   - unchanged: base lines are copied to the accepted output
//   - changed by one side: that side's lines are accepted
//   - changed identically by both sides: the common result is accepted once
//   - changed differently: a conflict
//
// For a conflict, accepted keeps side1's lines (or nothing, with Options.OmitConflicts), and a hunk describing side2's divergent edit of base goes to the rejected output in
// the patch grammar of package diff: base lines side2 replaced are deletions, side2's lines are additions, and up to Options.Context base lines on each side anchor it.
//
// Both outputs are streamed in base order while the walk proceeds. A consumer stops the merge by returning an error; Merge then returns an error matching diff.ErrAborted and
// what was already delivered stands.
package merge3
