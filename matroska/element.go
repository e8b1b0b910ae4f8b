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

// Package matroska walks EBML elements and locates the clusters of a
// Matroska or WebM file.
package matroska

import (
	"fmt"

	"github.com/seqsense/msesegment"
	"github.com/seqsense/msesegment/bytereader"
)

const formatName = "matroska"

// ID is an element ID including its marker bit.
type ID uint64

const (
	IDEBML           ID = 0x1A45DFA3
	IDDocType        ID = 0x4282
	IDSegment        ID = 0x18538067
	IDSeekHead       ID = 0x114D9B74
	IDInfo           ID = 0x1549A966
	IDTimestampScale ID = 0x2AD7B1
	IDTracks         ID = 0x1654AE6B
	IDCluster        ID = 0x1F43B675
	IDTimestamp      ID = 0xE7
	IDCues           ID = 0x1C53BB6B
	IDTags           ID = 0x1254C367
	IDVoid           ID = 0xEC
)

var idNames = map[ID]string{
	IDEBML:           "EBML",
	IDDocType:        "DocType",
	IDSegment:        "Segment",
	IDSeekHead:       "SeekHead",
	IDInfo:           "Info",
	IDTimestampScale: "TimestampScale",
	IDTracks:         "Tracks",
	IDCluster:        "Cluster",
	IDTimestamp:      "Timestamp",
	IDCues:           "Cues",
	IDTags:           "Tags",
	IDVoid:           "Void",
}

func (id ID) String() string {
	if name, ok := idNames[id]; ok {
		return name
	}
	return fmt.Sprintf("0x%X", uint64(id))
}

// Element is an immutable descriptor of one element. Offset and FullSize
// include the header.
type Element struct {
	ID          ID
	Offset      int64
	HeaderSize  int64
	ContentSize int64

	content *bytereader.Reader
}

func (e Element) FullSize() int64 {
	return e.HeaderSize + e.ContentSize
}

// Content returns a fresh reader over the element data.
func (e Element) Content() *bytereader.Reader {
	return e.content.Clone()
}

func (e Element) String() string {
	return fmt.Sprintf("%s offset=%d size=%d", e.ID, e.Offset, e.FullSize())
}

func formatErr(offset int64, what string, err error) error {
	return &msesegment.FormatError{Format: formatName, Offset: offset, What: what, Err: err}
}

// readHeader reads an element ID and data size at the cursor of r.
func readHeader(r *bytereader.Reader) (id ID, size uint64, unknown bool, err error) {
	v, _, err := ReadVint(r, true)
	if err != nil {
		return 0, 0, false, err
	}
	size, width, err := ReadVint(r, false)
	if err != nil {
		return 0, 0, false, err
	}
	return ID(v), size, unknownSize(size, width), nil
}

// readElement decodes the element header at the cursor of r and moves the
// cursor past the whole element.
func readElement(r *bytereader.Reader) (Element, error) {
	offset := r.Position()
	id, size, unknown, err := readHeader(r)
	if err != nil {
		return Element{}, err
	}
	if unknown {
		return Element{}, formatErr(offset, id.String(), msesegment.ErrUnknownSize)
	}
	e := Element{
		ID:         id,
		Offset:     offset,
		HeaderSize: r.Position() - offset,
	}
	if size > uint64(r.Remaining()) {
		return Element{}, formatErr(offset, fmt.Sprintf("%s of %d bytes", id, size), msesegment.ErrTruncated)
	}
	e.ContentSize = int64(size)
	if e.content, err = r.Region(r.Position(), e.ContentSize); err != nil {
		return Element{}, err
	}
	r.Skip(e.ContentSize)
	return e, nil
}

// Iterator walks sibling elements with its own cursor.
type Iterator struct {
	r   *bytereader.Reader
	el  Element
	err error
}

// Children returns an Iterator over the elements contained in r, from r's start.
func Children(r *bytereader.Reader) *Iterator {
	return &Iterator{r: r.Clone()}
}

func (it *Iterator) Next() bool {
	if it.err != nil || it.r.Ended() {
		return false
	}
	it.el, it.err = readElement(it.r)
	if it.err != nil {
		return false
	}
	msesegment.Logger().Debugf("%s: %s", formatName, it.el)
	return true
}

func (it *Iterator) Element() Element {
	return it.el
}

func (it *Iterator) Err() error {
	return it.err
}

// Find returns the first child with the given ID.
func Find(r *bytereader.Reader, id ID) (Element, bool, error) {
	it := Children(r)
	for it.Next() {
		if it.Element().ID == id {
			return it.Element(), true, nil
		}
	}
	return Element{}, false, it.Err()
}
