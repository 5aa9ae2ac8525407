package mmfile

import "fmt"

// CompactFile is a File whose content occupies at most one segment, so it can always be viewed as a single byte slice.
type CompactFile struct {
	f File
}

// NewCompact returns an empty CompactFile.
func NewCompact() *CompactFile {
	return &CompactFile{f: *New()}
}

// FromBytes returns a heap-backed CompactFile holding a copy of data.
func FromBytes(data []byte) *CompactFile {
	c, err := FromBytesWith(Options{}, data)
	if err != nil {
		// HeapAllocator does not fail.
		panic(fmt.Sprintf("mmfile: FromBytes: %v", err))
	}
	return c
}

// FromBytesWith returns a CompactFile holding a copy of data, allocated in one request from opts.Allocator. opts.Mode is ignored.
func FromBytesWith(opts Options, data []byte) (*CompactFile, error) {
	opts.Mode = ModeAtomic
	f := NewWithOptions(opts)
	n, err := f.Write(data)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("mmfile: wrote %d of %d bytes: %w", n, len(data), ErrAllocation)
	}
	return f.ToCompact()
}

// Size returns the number of bytes stored.
func (c *CompactFile) Size() int {
	return c.f.size
}

// IsCompact always reports true; it exists so a CompactFile can be used wherever compactness is checked.
func (c *CompactFile) IsCompact() bool {
	return c.f.IsCompact()
}

// Bytes returns the content. The slice aliases storage: writing through it edits the file in place, which is the only mutation a CompactFile permits.
func (c *CompactFile) Bytes() []byte {
	return c.f.Bytes()
}

// String returns the content as a string.
func (c *CompactFile) String() string {
	return string(c.f.Bytes())
}

// NewReader returns a read cursor positioned at the start of c.
func (c *CompactFile) NewReader() *Reader {
	return c.f.NewReader()
}

// Clone returns a deep copy of c drawn from c's allocator.
func (c *CompactFile) Clone() (*CompactFile, error) {
	f, err := c.f.Clone()
	if err != nil {
		return nil, err
	}
	return &CompactFile{f: *f}, nil
}

// Equal reports whether c and other hold the same bytes.
func (c *CompactFile) Equal(other *CompactFile) bool {
	return c.f.Equal(&other.f)
}

// EqualFile reports whether c holds the same bytes as f, regardless of f's segment layout.
func (c *CompactFile) EqualFile(f *File) bool {
	return c.f.Equal(f)
}
