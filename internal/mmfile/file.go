package mmfile

import (
	"bytes"
	"fmt"
	"io"
	"sort"
)

// Mode controls how Write grows a File.
type Mode int

const (
	// ModeAtomic keeps all content in one segment, reallocating it as it grows. An atomic File is always compact.
	ModeAtomic Mode = iota

	// ModeSegmented fills the tail segment and then appends new segments of at least BlockSize bytes. Writes never move existing bytes.
	ModeSegmented
)

// DefaultBlockSize is the minimum size of a new segment in ModeSegmented when Options.BlockSize is unset.
const DefaultBlockSize = 8 * 1024

// Options configure a new File. The zero value is an atomic, heap-backed file.
type Options struct {
	Mode      Mode
	BlockSize int       // Minimum segment allocation; <= 0 means DefaultBlockSize.
	Allocator Allocator // nil means HeapAllocator.
}

// File is a buffered, append-friendly byte container. Content lives in an arena of owned segments with a parallel index of their start offsets.
//
// Invariants:
//   - size == sum(len(segs[i]))
//   - starts[i] == sum(len(segs[:i]))
//   - no segment in the arena has zero capacity
//
// A File must not be written while a Reader over it is in use.
type File struct {
	segs   [][]byte
	starts []int
	size   int

	mode  Mode
	bsize int
	alloc Allocator
}

// New returns an empty atomic File with zero segments.
func New() *File {
	return NewWithOptions(Options{})
}

// NewWithOptions returns an empty File configured by opts.
func NewWithOptions(opts Options) *File {
	f := &File{mode: opts.Mode, bsize: opts.BlockSize, alloc: opts.Allocator}
	if f.bsize <= 0 {
		f.bsize = DefaultBlockSize
	}
	if f.alloc == nil {
		f.alloc = HeapAllocator{}
	}
	return f
}

// Size returns the number of bytes stored.
func (f *File) Size() int {
	return f.size
}

// Segments returns the number of segments in the arena.
func (f *File) Segments() int {
	return len(f.segs)
}

// IsCompact reports whether the content occupies at most one segment.
func (f *File) IsCompact() bool {
	return len(f.segs) <= 1
}

// Write appends p. It implements io.Writer: if fewer than len(p) bytes are written, the returned error wraps ErrAllocation and the bytes that were written remain in the file.
func (f *File) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if f.mode == ModeAtomic {
		return f.writeAtomic(p)
	}
	return f.writeSegmented(p)
}

// WriteString appends s.
func (f *File) WriteString(s string) (int, error) {
	return f.Write([]byte(s))
}

// WriteBuffers appends each of bufs in order and returns the total number of bytes written. It stops at the first failure.
func (f *File) WriteBuffers(bufs ...[]byte) (int, error) {
	total := 0
	for _, b := range bufs {
		n, err := f.Write(b)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (f *File) writeAtomic(p []byte) (int, error) {
	if len(f.segs) == 0 {
		seg, err := f.alloc.Alloc(len(p))
		if err != nil {
			return 0, fmt.Errorf("grow to %d bytes: %w", len(p), err)
		}
		f.pushSegment(seg)
	}
	tail := f.segs[len(f.segs)-1]
	need := len(tail) + len(p)
	if need > cap(tail) {
		seg, err := f.alloc.Alloc(max(need, 2*cap(tail)))
		if err != nil {
			return 0, fmt.Errorf("grow to %d bytes: %w", need, err)
		}
		tail = append(seg, tail...)
	}
	f.segs[len(f.segs)-1] = append(tail, p...)
	f.size += len(p)
	return len(p), nil
}

func (f *File) writeSegmented(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(f.segs) == 0 || f.tailRoom() == 0 {
			seg, err := f.alloc.Alloc(max(f.bsize, len(p)-n))
			if err != nil {
				return n, fmt.Errorf("new segment after %d of %d bytes: %w", n, len(p), err)
			}
			f.pushSegment(seg)
		}
		i := len(f.segs) - 1
		k := min(f.tailRoom(), len(p)-n)
		f.segs[i] = append(f.segs[i], p[n:n+k]...)
		f.size += k
		n += k
	}
	return n, nil
}

func (f *File) tailRoom() int {
	tail := f.segs[len(f.segs)-1]
	return cap(tail) - len(tail)
}

func (f *File) pushSegment(seg []byte) {
	f.starts = append(f.starts, f.size)
	f.segs = append(f.segs, seg)
}

// Compact copies all segments into one allocation sized to the content. It is a no-op when the file is already compact. On failure the file is unchanged.
func (f *File) Compact() error {
	if f.IsCompact() {
		return nil
	}
	seg, err := f.alloc.Alloc(f.size)
	if err != nil {
		return fmt.Errorf("compact %d bytes in %d segments: %w", f.size, len(f.segs), err)
	}
	for _, s := range f.segs {
		seg = append(seg, s...)
	}
	f.segs = [][]byte{seg}
	f.starts = []int{0}
	return nil
}

// Bytes returns the content of a compact file. The slice aliases the file's storage: writing through it edits the file in place. Bytes panics if the file is not compact.
func (f *File) Bytes() []byte {
	if !f.IsCompact() {
		panic(fmt.Sprintf("mmfile: Bytes called on a file with %d segments; call Compact first", len(f.segs)))
	}
	if len(f.segs) == 0 {
		return nil
	}
	return f.segs[0]
}

// ToCompact compacts f and moves its content into a new CompactFile. On success f is left empty (with its options intact); on failure f is unchanged.
func (f *File) ToCompact() (*CompactFile, error) {
	if err := f.Compact(); err != nil {
		return nil, err
	}
	c := &CompactFile{f: *f}
	f.segs, f.starts, f.size = nil, nil, 0
	return c, nil
}

// Clone returns a compact deep copy of f drawn from f's allocator. f itself may be segmented.
func (f *File) Clone() (*File, error) {
	dst := &File{mode: f.mode, bsize: f.bsize, alloc: f.alloc}
	if f.size == 0 {
		return dst, nil
	}
	seg, err := f.alloc.Alloc(f.size)
	if err != nil {
		return nil, fmt.Errorf("clone %d bytes: %w", f.size, err)
	}
	for _, s := range f.segs {
		seg = append(seg, s...)
	}
	dst.pushSegment(seg)
	dst.size = f.size
	return dst, nil
}

// Equal reports whether f and other hold the same bytes. Segment layout does not matter.
func (f *File) Equal(other *File) bool {
	if f.size != other.size {
		return false
	}
	a, b := f.NewReader(), other.NewReader()
	for {
		ca, cb := a.chunk(), b.chunk()
		if len(ca) == 0 || len(cb) == 0 {
			return len(ca) == len(cb)
		}
		n := min(len(ca), len(cb))
		if !bytes.Equal(ca[:n], cb[:n]) {
			return false
		}
		a.off += n
		b.off += n
	}
}

// ReadAt implements io.ReaderAt by locating the segment holding off in the offset index.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("mmfile: negative offset %d", off)
	}
	if off >= int64(f.size) {
		return 0, io.EOF
	}
	i := sort.Search(len(f.starts), func(i int) bool { return int64(f.starts[i]) > off }) - 1
	r := Reader{f: f, seg: i, off: int(off) - f.starts[i]}
	n, _ := io.ReadFull(&r, p)
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
