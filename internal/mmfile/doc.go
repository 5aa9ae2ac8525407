// Package mmfile holds byte content as an arena of owned segments, the in-memory file model the diff, merge, and patch engines work on.
//
// A File is append-friendly: Write either grows a single tail segment (ModeAtomic) or fills the tail and appends new segments of at least Options.BlockSize bytes (ModeSegmented).
// Segments are kept in an arena with a parallel index of start offsets, so random reads (ReadAt) are a binary search and compaction is "copy the arena into one entry, replace
// the index".
//
// A CompactFile owns a File that is guaranteed to hold at most one segment. Only compact content exposes a byte view (Bytes); asking a non-compact File for its bytes is a programming
// error and panics. Engines take CompactFiles and never mutate them; iteration state lives in a separately owned Reader, so comparing two files needs no exclusive access.
//
// Storage comes from an Allocator carried in Options. The zero value uses the Go heap. BudgetAllocator caps the total bytes a file may draw and is how ErrAllocation surfaces:
//
//	f := mmfile.NewWithOptions(mmfile.Options{Mode: mmfile.ModeSegmented, Allocator: mmfile.NewBudgetAllocator(1 << 20)})
//	if _, err := f.Write(data); errors.Is(err, mmfile.ErrAllocation) {
//		// out of budget
//	}
//	cf, err := f.ToCompact()
package mmfile
