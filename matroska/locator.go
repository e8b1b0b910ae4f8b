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

package matroska

import (
	"math/big"

	"github.com/seqsense/msesegment"
	"github.com/seqsense/msesegment/bytereader"
)

// Locator finds the clusters of a Matroska or WebM file.
type Locator struct{}

var _ msesegment.Locator = Locator{}

var nanosecond = big.NewInt(1000000000)

// FindMediaSegments returns one segment per Cluster of the first Segment.
// The Segment is taken to extend to the end of r whatever its declared size.
// r is closed before returning.
func (Locator) FindMediaSegments(r *bytereader.Reader) (msesegment.MediaSegments, error) {
	defer r.Close()

	cur := r.Clone()
	head, err := readElement(cur)
	if err != nil {
		return nil, err
	}
	header, err := DecodeHeader(head)
	if err != nil {
		return nil, err
	}
	msesegment.Logger().Debugf("%s: doctype %s", formatName, header.DocType)

	offset := cur.Position()
	id, _, _, err := readHeader(cur)
	if err != nil {
		return nil, err
	}
	if id != IDSegment {
		return nil, formatErr(offset, id.String(), msesegment.ErrUnexpectedElement)
	}
	seg, err := cur.RegionFrom(cur.Position())
	if err != nil {
		return nil, err
	}

	var info *Info
	var clusters []Cluster
	it := Children(seg)
	for it.Next() {
		e := it.Element()
		switch e.ID {
		case IDInfo:
			if info != nil {
				continue
			}
			i, err := DecodeInfo(e)
			if err != nil {
				return nil, err
			}
			info = &i
		case IDCluster:
			c, err := DecodeCluster(e)
			if err != nil {
				return nil, err
			}
			clusters = append(clusters, c)
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	if info == nil {
		return nil, formatErr(offset, "Info in Segment", msesegment.ErrMissingBox)
	}
	if info.TimestampScale == 0 {
		return nil, formatErr(offset, "TimestampScale", msesegment.ErrZeroTimescale)
	}

	scale := new(big.Int).SetUint64(info.TimestampScale)
	segments := make(msesegment.MediaSegments, 0, len(clusters))
	for _, c := range clusters {
		ns := new(big.Int).SetUint64(c.Timestamp)
		segments = append(segments, msesegment.MediaSegment{
			Offset: c.Offset,
			Size:   c.Size,
			Time:   new(big.Rat).SetFrac(ns.Mul(ns, scale), nanosecond),
		})
	}
	msesegment.Logger().Debugf("%s: %d media segments, timestamp scale %d", formatName, len(segments), info.TimestampScale)
	return segments, nil
}
