// Copyright 2026 SEQSENSE, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package bytereader provides bounds-checked, position-tracking views over a
// byte source. A view may be carved out of another view to any depth; every
// read resolves against the original source and is clamped by each ancestor.
package bytereader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// BoundsError is returned when a read or a region derivation falls outside
// the legal span of a Reader. It indicates a bug in the caller.
type BoundsError struct {
	Start    int64
	End      int64
	Position int64
	Length   int64
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("bytereader: illegal access [%d, %d) in [%d, %d)",
		e.Position, e.Position+e.Length, e.Start, e.End)
}

type readerAt interface {
	readAt(pos, n int64) ([]byte, error)
}

type sourceReader struct {
	r io.ReaderAt
}

func (s *sourceReader) readAt(pos, n int64) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	b := make([]byte, n)
	m, err := s.r.ReadAt(b, pos)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return b[:m], nil
}

// Reader is a view of [Start, End) over a byte source with its own cursor.
type Reader struct {
	parent readerAt
	start  int64
	size   int64
	pos    int64

	closer io.Closer
	closed bool
}

// New returns a Reader over the first size bytes of src.
// If src implements io.Closer, Close releases it.
func New(src io.ReaderAt, size int64) *Reader {
	r := &Reader{
		parent: &sourceReader{r: src},
		size:   size,
	}
	if c, ok := src.(io.Closer); ok {
		r.closer = c
	}
	return r
}

// FromBytes returns a Reader over an in-memory buffer.
func FromBytes(b []byte) *Reader {
	return New(bytes.NewReader(b), int64(len(b)))
}

// Open returns a Reader over the whole file. The file is closed by Close.
func Open(name string) (*Reader, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return New(f, st.Size()), nil
}

func (r *Reader) Start() int64    { return r.start }
func (r *Reader) Size() int64     { return r.size }
func (r *Reader) End() int64      { return r.start + r.size }
func (r *Reader) Position() int64 { return r.pos }

// Remaining returns the number of bytes between the cursor and End.
func (r *Reader) Remaining() int64 { return r.End() - r.pos }

// Ended reports whether the cursor has reached End.
func (r *Reader) Ended() bool { return r.pos >= r.End() }

// ReadAt returns up to n bytes starting at the absolute position pos,
// clamped to End. Reading exactly at End returns zero bytes.
func (r *Reader) ReadAt(pos, n int64) ([]byte, error) {
	return r.readAt(pos, n)
}

func (r *Reader) readAt(pos, n int64) ([]byte, error) {
	if n < 0 || pos < r.start || pos > r.End() {
		return nil, &BoundsError{Start: r.start, End: r.End(), Position: pos, Length: n}
	}
	if rest := r.End() - pos; n > rest {
		n = rest
	}
	return r.parent.readAt(pos, n)
}

// Read reads up to n bytes at the cursor and advances it by the number of
// bytes returned.
func (r *Reader) Read(n int64) ([]byte, error) {
	b, err := r.readAt(r.pos, n)
	if err != nil {
		return nil, err
	}
	r.pos += int64(len(b))
	return b, nil
}

// ReadAll reads everything from the cursor to End.
func (r *Reader) ReadAll() ([]byte, error) {
	return r.Read(r.Remaining())
}

// Peek is Read without advancing the cursor.
func (r *Reader) Peek(n int64) ([]byte, error) {
	return r.readAt(r.pos, n)
}

// Skip moves the cursor by n bytes, staying within [Start, End].
func (r *Reader) Skip(n int64) {
	r.pos += n
	switch {
	case r.pos > r.End():
		r.pos = r.End()
	case r.pos < r.start:
		r.pos = r.start
	}
}

// Region derives a Reader over [offset, offset+size). Offsets are absolute
// positions in the underlying source, like Start and Position.
func (r *Reader) Region(offset, size int64) (*Reader, error) {
	if offset < 0 || size < 0 || offset < r.start || offset+size > r.End() {
		return nil, &BoundsError{Start: r.start, End: r.End(), Position: offset, Length: size}
	}
	return &Reader{
		parent: r,
		start:  offset,
		size:   size,
		pos:    offset,
	}, nil
}

// RegionFrom derives a Reader over everything from offset to End.
func (r *Reader) RegionFrom(offset int64) (*Reader, error) {
	return r.Region(offset, r.End()-offset)
}

// Clone returns a Reader over the same span with the cursor at Start.
// The clone does not own the source.
func (r *Reader) Clone() *Reader {
	return &Reader{
		parent: r.parent,
		start:  r.start,
		size:   r.size,
		pos:    r.start,
	}
}

// Close releases the underlying source if this Reader owns it.
// Derived regions do not own their source and Close is a no-op on them.
func (r *Reader) Close() error {
	if r.closer == nil || r.closed {
		return nil
	}
	r.closed = true
	return r.closer.Close()
}

type readerAtFunc func(p []byte, off int64) (int, error)

func (f readerAtFunc) ReadAt(p []byte, off int64) (int, error) {
	return f(p, off)
}

// SectionReader returns an io.SectionReader over [Start, End). Its offsets
// are relative to Start. The cursor of r is not used.
func (r *Reader) SectionReader() *io.SectionReader {
	at := func(p []byte, off int64) (int, error) {
		b, err := r.readAt(off, int64(len(p)))
		if err != nil {
			return 0, err
		}
		n := copy(p, b)
		if n < len(p) {
			return n, io.EOF
		}
		return n, nil
	}
	return io.NewSectionReader(readerAtFunc(at), r.start, r.size)
}
