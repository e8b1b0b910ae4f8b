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

// Package isobmff walks ISO base media file format (MP4) boxes and locates
// the movie fragments of a fragmented MP4 file.
package isobmff

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/seqsense/msesegment"
	"github.com/seqsense/msesegment/bytereader"
)

const formatName = "isobmff"

// Type is a four character box type code.
type Type uint32

func (t Type) String() string {
	b := [4]byte{byte(t >> 24), byte(t >> 16), byte(t >> 8), byte(t)}
	for i := range b {
		if b[i] < 0x20 || b[i] > 0x7e {
			b[i] = ' '
		}
	}
	return string(b[:])
}

// TypeOf returns the Type of a four character code.
func TypeOf(s string) Type {
	var b [4]byte
	copy(b[:], s)
	return Type(bytereader.Uint(b[:]))
}

const (
	TypeFtyp = Type(0x66747970)
	TypeStyp = Type(0x73747970)
	TypeMoov = Type(0x6d6f6f76)
	TypeMvhd = Type(0x6d766864)
	TypeTrak = Type(0x7472616b)
	TypeTkhd = Type(0x746b6864)
	TypeMdia = Type(0x6d646961)
	TypeMdhd = Type(0x6d646864)
	TypeEdts = Type(0x65647473)
	TypeElst = Type(0x656c7374)
	TypeMoof = Type(0x6d6f6f66)
	TypeTraf = Type(0x74726166)
	TypeTfhd = Type(0x74666864)
	TypeTfdt = Type(0x74666474)
	TypeTrun = Type(0x7472756e)
	TypeMdat = Type(0x6d646174)
	TypeUUID = Type(0x75756964)
)

// Box is an immutable descriptor of one box. Offset and FullSize include
// the header.
type Box struct {
	Type        Type
	UserType    uuid.UUID // set for TypeUUID only
	Offset      int64
	HeaderSize  int64
	ContentSize int64

	content *bytereader.Reader
}

func (b Box) FullSize() int64 {
	return b.HeaderSize + b.ContentSize
}

// End returns the offset just past the box.
func (b Box) End() int64 {
	return b.Offset + b.FullSize()
}

// Content returns a fresh reader over the box payload.
func (b Box) Content() *bytereader.Reader {
	return b.content.Clone()
}

func (b Box) String() string {
	if b.Type == TypeUUID {
		return fmt.Sprintf("uuid[%s] offset=%d size=%d", b.UserType, b.Offset, b.FullSize())
	}
	return fmt.Sprintf("%s offset=%d size=%d", b.Type, b.Offset, b.FullSize())
}

func formatErr(offset int64, what string, err error) error {
	return &msesegment.FormatError{Format: formatName, Offset: offset, What: what, Err: err}
}

// readBox decodes the box header at the cursor of r and moves the cursor
// past the whole box.
func readBox(r *bytereader.Reader) (Box, error) {
	offset := r.Position()
	size, err := r.ReadUint(4)
	if err != nil {
		return Box{}, formatErr(offset, "box size", msesegment.ErrTruncated)
	}
	typ, err := r.ReadUint(4)
	if err != nil {
		return Box{}, formatErr(offset, "box type", msesegment.ErrTruncated)
	}
	switch size {
	case 1:
		if size, err = r.ReadUint(8); err != nil {
			return Box{}, formatErr(offset, "box largesize", msesegment.ErrTruncated)
		}
	case 0:
		size = uint64(r.End() - offset)
	}
	box := Box{
		Type:   Type(typ),
		Offset: offset,
	}
	if box.Type == TypeUUID {
		b, err := r.ReadFull(16)
		if err != nil {
			return Box{}, formatErr(offset, "box usertype", msesegment.ErrTruncated)
		}
		if box.UserType, err = uuid.FromBytes(b); err != nil {
			return Box{}, formatErr(offset, "box usertype", err)
		}
	}
	box.HeaderSize = r.Position() - offset
	if size < uint64(box.HeaderSize) || size > uint64(r.End()-offset) {
		return Box{}, formatErr(offset, fmt.Sprintf("%s box of %d bytes", box.Type, size), msesegment.ErrTruncated)
	}
	box.ContentSize = int64(size) - box.HeaderSize
	if box.content, err = r.Region(offset+box.HeaderSize, box.ContentSize); err != nil {
		return Box{}, err
	}
	r.Skip(box.ContentSize)
	return box, nil
}

// Iterator walks sibling boxes with its own cursor.
type Iterator struct {
	r   *bytereader.Reader
	box Box
	err error
}

// Children returns an Iterator over the boxes contained in r, from r's start.
func Children(r *bytereader.Reader) *Iterator {
	return &Iterator{r: r.Clone()}
}

// Next decodes the next box header. It returns false at the end of the
// region or on error.
func (it *Iterator) Next() bool {
	if it.err != nil || it.r.Ended() {
		return false
	}
	it.box, it.err = readBox(it.r)
	if it.err != nil {
		return false
	}
	msesegment.Logger().Debugf("%s: %s", formatName, it.box)
	return true
}

func (it *Iterator) Box() Box {
	return it.box
}

func (it *Iterator) Err() error {
	return it.err
}

// Find returns the first child of type t.
func Find(r *bytereader.Reader, t Type) (Box, bool, error) {
	it := Children(r)
	for it.Next() {
		if it.Box().Type == t {
			return it.Box(), true, nil
		}
	}
	return Box{}, false, it.Err()
}

// FindAll returns all children of type t in document order.
func FindAll(r *bytereader.Reader, t Type) ([]Box, error) {
	var boxes []Box
	it := Children(r)
	for it.Next() {
		if it.Box().Type == t {
			boxes = append(boxes, it.Box())
		}
	}
	return boxes, it.Err()
}
