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
	"math/bits"

	"github.com/seqsense/msesegment"
	"github.com/seqsense/msesegment/bytereader"
)

// ReadVint reads an EBML variable length integer at the cursor of r and
// returns its value and encoded width. The width is given by the position
// of the leading set bit of the first byte. With keepMarker the marker bit
// is kept in the value, as element IDs are conventionally written.
func ReadVint(r *bytereader.Reader, keepMarker bool) (uint64, int, error) {
	offset := r.Position()
	head, err := r.ReadFull(1)
	if err != nil {
		return 0, 0, formatErr(offset, "vint", msesegment.ErrTruncated)
	}
	if head[0] == 0 {
		return 0, 0, formatErr(offset, "vint", msesegment.ErrInvalidVint)
	}
	width := bits.LeadingZeros8(head[0]) + 1
	tail, err := r.ReadFull(int64(width - 1))
	if err != nil {
		return 0, 0, formatErr(offset, "vint", msesegment.ErrTruncated)
	}
	first := head[0]
	if !keepMarker {
		first &^= 0x80 >> (width - 1)
	}
	return bytereader.Uint(append([]byte{first}, tail...)), width, nil
}

// unknownSize reports whether a size vint of the given width has all of its
// value bits set.
func unknownSize(v uint64, width int) bool {
	return v == 1<<(7*width)-1
}
