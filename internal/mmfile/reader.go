package mmfile

import "io"

// Reader is a read cursor over a File. It borrows the file without mutating it, so any number of Readers may walk the same file. The file must not be written while a Reader
// is in use.
type Reader struct {
	f   *File
	seg int // index of the current segment
	off int // offset within the current segment
}

// NewReader returns a Reader positioned at the start of f.
func (f *File) NewReader() *Reader {
	return &Reader{f: f}
}

// chunk returns the unread remainder of the current segment, skipping exhausted segments. It returns nil at end of file.
func (r *Reader) chunk() []byte {
	for r.seg < len(r.f.segs) {
		s := r.f.segs[r.seg]
		if r.off < len(s) {
			return s[r.off:]
		}
		r.seg++
		r.off = 0
	}
	return nil
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n := 0
	for n < len(p) {
		c := r.chunk()
		if c == nil {
			break
		}
		k := copy(p[n:], c)
		r.off += k
		n += k
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// ReadByte implements io.ByteReader.
func (r *Reader) ReadByte() (byte, error) {
	c := r.chunk()
	if c == nil {
		return 0, io.EOF
	}
	r.off++
	return c[0], nil
}

// WriteTo implements io.WriterTo, writing each remaining segment without copying.
func (r *Reader) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for {
		c := r.chunk()
		if c == nil {
			return total, nil
		}
		n, err := w.Write(c)
		r.off += n
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
}
